package domain

import "time"

// CopyKind distinguishes replication records from kill-switch closures in the
// journal.
type CopyKind string

const (
	CopyKindCopy  CopyKind = "copy"
	CopyKindClose CopyKind = "close"
)

// CopyStatus is the per-account outcome of one replication or closure attempt.
type CopyStatus string

const (
	CopyStatusCopied       CopyStatus = "copied"
	CopyStatusFailed       CopyStatus = "failed"
	CopyStatusRiskBlocked  CopyStatus = "risk_blocked"
	CopyStatusConfigError  CopyStatus = "config_error"
	CopyStatusSessionError CopyStatus = "session_error"
	CopyStatusNoPosition   CopyStatus = "no_position"
)

// CopyRecord is one journal row: the outcome of replicating (or closing) one
// master order on one slave account. Records are append-only.
type CopyRecord struct {
	ID            string     `json:"id"`
	Kind          CopyKind   `json:"kind"`
	MasterOrderID string     `json:"master_order_id"`
	ClientID      string     `json:"client_id"`
	Symbol        string     `json:"symbol"`
	Side          OrderSide  `json:"side"`
	MasterQty     int        `json:"master_qty"`
	SlaveQty      int        `json:"slave_qty"`
	Status        CopyStatus `json:"status"`
	Reason        string     `json:"reason,omitempty"`
	BrokerOrderID string     `json:"broker_order_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

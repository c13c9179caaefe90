package domain

import "context"

// Ledger is the at-most-once processing record of master order IDs. An ID is
// claimed before any slave submission is attempted, so a crash or slow
// fan-out never causes the same master order to be dispatched twice.
// Implementations must be safe for concurrent use.
type Ledger interface {
	// Claim records the ID and reports whether the caller won the claim.
	// Claiming an already-claimed ID returns false and has no other effect.
	Claim(ctx context.Context, orderID string) (bool, error)

	// Seen reports whether the ID has been claimed.
	Seen(ctx context.Context, orderID string) (bool, error)

	// Seed marks a batch of IDs as already processed without dispatching.
	// Used at engine start so a restart never replays historical orders.
	Seed(ctx context.Context, orderIDs []string) error

	// Size returns the number of claimed IDs.
	Size(ctx context.Context) (int, error)
}

// CopyStore persists the copy journal.
type CopyStore interface {
	Insert(ctx context.Context, rec CopyRecord) error
	ListRecent(ctx context.Context, limit int) ([]CopyRecord, error)
	CountByStatus(ctx context.Context) (map[CopyStatus]int64, error)
}

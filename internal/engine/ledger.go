// Package engine implements the trade replication loop: polling the master
// account, claiming orders in the ledger, fanning submissions out to slave
// accounts, and the kill switch.
package engine

import (
	"context"
	"sync"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

// MemoryLedger is the in-process order ledger. It never expires entries; a
// master account produces a bounded number of orders per trading day and the
// process restarts daily, so unbounded growth is not a concern in practice.
// Safe for concurrent use.
type MemoryLedger struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

var _ domain.Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		seen: make(map[string]struct{}),
	}
}

// Claim records the order ID and reports whether the caller won the claim.
func (l *MemoryLedger) Claim(_ context.Context, orderID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[orderID]; ok {
		return false, nil
	}
	l.seen[orderID] = struct{}{}
	return true, nil
}

// Seen reports whether the order ID has been claimed.
func (l *MemoryLedger) Seen(_ context.Context, orderID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.seen[orderID]
	return ok, nil
}

// Seed marks a batch of order IDs as already processed.
func (l *MemoryLedger) Seed(_ context.Context, orderIDs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range orderIDs {
		l.seen[id] = struct{}{}
	}
	return nil
}

// Size returns the number of claimed order IDs.
func (l *MemoryLedger) Size(_ context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.seen), nil
}

package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

// Ledger is a Redis-backed order ledger. Order IDs live in a single set, so
// Claim is one atomic SADD; several copier replicas watching the same master
// can share it without double-copying.
type Ledger struct {
	rdb    *redis.Client
	prefix string
}

var _ domain.Ledger = (*Ledger)(nil)

// NewLedger creates a Ledger backed by the given Client. keyPrefix namespaces
// the set key so unrelated deployments can share one Redis instance.
func NewLedger(c *Client, keyPrefix string) *Ledger {
	if keyPrefix == "" {
		keyPrefix = "copytrader"
	}
	return &Ledger{rdb: c.Underlying(), prefix: keyPrefix}
}

func (l *Ledger) key() string {
	return l.prefix + ":ledger:orders"
}

// Claim atomically records the order ID and reports whether this caller won
// the claim. SADD returns 1 only for the first writer of a member.
func (l *Ledger) Claim(ctx context.Context, orderID string) (bool, error) {
	added, err := l.rdb.SAdd(ctx, l.key(), orderID).Result()
	if err != nil {
		return false, fmt.Errorf("redis: claim order %s: %w", orderID, err)
	}
	return added == 1, nil
}

// Seen reports whether the order ID has already been claimed.
func (l *Ledger) Seen(ctx context.Context, orderID string) (bool, error) {
	ok, err := l.rdb.SIsMember(ctx, l.key(), orderID).Result()
	if err != nil {
		return false, fmt.Errorf("redis: check order %s: %w", orderID, err)
	}
	return ok, nil
}

// Seed records a batch of order IDs without claiming them for anyone. Used at
// engine start to mark the pre-existing order book as already handled.
func (l *Ledger) Seed(ctx context.Context, orderIDs []string) error {
	if len(orderIDs) == 0 {
		return nil
	}
	members := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		members[i] = id
	}
	if err := l.rdb.SAdd(ctx, l.key(), members...).Err(); err != nil {
		return fmt.Errorf("redis: seed ledger: %w", err)
	}
	return nil
}

// Size returns the number of order IDs in the ledger.
func (l *Ledger) Size(ctx context.Context) (int, error) {
	n, err := l.rdb.SCard(ctx, l.key()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: ledger size: %w", err)
	}
	return int(n), nil
}

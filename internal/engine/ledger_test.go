package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedgerClaimOnce(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	won, err := l.Claim(ctx, "order-1")
	require.NoError(t, err)
	assert.True(t, won)

	won, err = l.Claim(ctx, "order-1")
	require.NoError(t, err)
	assert.False(t, won)

	seen, err := l.Seen(ctx, "order-1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = l.Seen(ctx, "order-2")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryLedgerSeed(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	require.NoError(t, l.Seed(ctx, []string{"a", "b", "c"}))

	size, err := l.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	// Seeded IDs lose any later claim.
	won, err := l.Claim(ctx, "b")
	require.NoError(t, err)
	assert.False(t, won)
}

func TestMemoryLedgerConcurrentClaimSingleWinner(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	const goroutines = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := l.Claim(ctx, "contested")
			require.NoError(t, err)
			if won {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

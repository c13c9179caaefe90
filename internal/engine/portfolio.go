package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

// AccountPositions is one slave account's slice of the aggregate portfolio
// view: its open positions and their summed unrealized PnL. Error is set when
// the account could not be queried; its positions are then unknown, not flat.
type AccountPositions struct {
	ClientID  string            `json:"client_id"`
	Name      string            `json:"name,omitempty"`
	Positions []domain.Position `json:"positions"`
	TotalPnL  float64           `json:"total_pnl"`
	Error     string            `json:"error,omitempty"`
}

// Portfolio serves the aggregate position view across all active slave
// accounts. It shares the engine's session cache, so the view reuses live
// sessions and dials missing ones on demand.
type Portfolio struct {
	sessions *SessionCache
	accounts domain.AccountSource
	logger   *slog.Logger
}

// NewPortfolio creates a Portfolio sharing the engine's session cache.
func NewPortfolio(sessions *SessionCache, accounts domain.AccountSource, logger *slog.Logger) *Portfolio {
	return &Portfolio{
		sessions: sessions,
		accounts: accounts,
		logger:   logger.With(slog.String("component", "portfolio")),
	}
}

// Snapshot fetches every active account's open positions concurrently and
// returns one entry per account, ordered by client ID. Per-account fetch
// failures are reported in the entry, never propagated; the error return
// covers only the account snapshot itself.
func (p *Portfolio) Snapshot(ctx context.Context) ([]AccountPositions, error) {
	accounts, err := p.accounts.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: portfolio: account snapshot: %w", err)
	}

	results := make([]AccountPositions, 0, len(accounts))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, acc := range accounts {
		if !acc.Active {
			continue
		}
		wg.Add(1)
		go func(acc domain.SlaveAccount) {
			defer wg.Done()
			res := p.snapshotAccount(ctx, acc)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(acc)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].ClientID < results[j].ClientID
	})
	return results, nil
}

// snapshotAccount fetches one account's open positions.
func (p *Portfolio) snapshotAccount(ctx context.Context, acc domain.SlaveAccount) AccountPositions {
	res := AccountPositions{
		ClientID:  acc.ClientID,
		Name:      acc.Name,
		Positions: []domain.Position{},
	}

	sess, err := p.sessions.Get(ctx, acc.Credentials)
	if err != nil {
		p.logger.WarnContext(ctx, "portfolio session unavailable",
			slog.String("client_id", acc.ClientID),
			slog.String("error", err.Error()),
		)
		res.Error = err.Error()
		return res
	}

	positions, err := sess.ListPositions(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "portfolio position fetch failed",
			slog.String("client_id", acc.ClientID),
			slog.String("error", err.Error()),
		)
		res.Error = err.Error()
		return res
	}

	for _, pos := range positions {
		if pos.Flat() {
			continue
		}
		res.Positions = append(res.Positions, pos)
		res.TotalPnL += pos.UnrealizedPnL
	}
	return res
}

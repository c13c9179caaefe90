package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

// CloseResult is the per-account outcome of a kill-switch sweep.
type CloseResult struct {
	ClientID string   `json:"client_id"`
	Name     string   `json:"name,omitempty"`
	Closed   int      `json:"closed"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// KillSwitch flattens every open position on every active slave account by
// submitting opposite market orders. Accounts are swept concurrently and
// independently: one account's broker failure never stops the others. The
// engine does not need to be running; the switch dials sessions on demand.
type KillSwitch struct {
	sessions *SessionCache
	accounts domain.AccountSource
	reporter *Reporter
	logger   *slog.Logger
}

// NewKillSwitch creates a KillSwitch sharing the engine's session cache.
func NewKillSwitch(sessions *SessionCache, accounts domain.AccountSource, reporter *Reporter, logger *slog.Logger) *KillSwitch {
	return &KillSwitch{
		sessions: sessions,
		accounts: accounts,
		reporter: reporter,
		logger:   logger.With(slog.String("component", "kill_switch")),
	}
}

// CloseAll sweeps every active slave account and returns one result per
// account. The error return covers only the account snapshot; per-account
// failures live in the results.
func (k *KillSwitch) CloseAll(ctx context.Context) ([]CloseResult, error) {
	accounts, err := k.accounts.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: kill switch: account snapshot: %w", err)
	}

	k.logger.WarnContext(ctx, "kill switch triggered", slog.Int("accounts", len(accounts)))
	k.reporter.Event(ctx, domain.EngineEvent{
		Type:     "kill_switch",
		Severity: domain.SeverityAlert,
		Message:  fmt.Sprintf("kill switch triggered for %d account(s)", len(accounts)),
	})

	results := make([]CloseResult, 0, len(accounts))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, acc := range accounts {
		if !acc.Active {
			continue
		}
		wg.Add(1)
		go func(acc domain.SlaveAccount) {
			defer wg.Done()
			res := k.closeAccount(ctx, acc)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(acc)
	}
	wg.Wait()

	return results, nil
}

// closeAccount flattens one account's positions.
func (k *KillSwitch) closeAccount(ctx context.Context, acc domain.SlaveAccount) CloseResult {
	res := CloseResult{ClientID: acc.ClientID, Name: acc.Name}

	sess, err := k.sessions.Get(ctx, acc.Credentials)
	if err != nil {
		res.Errors = append(res.Errors, "session: "+err.Error())
		k.reporter.Record(ctx, domain.CopyRecord{
			Kind:     domain.CopyKindClose,
			ClientID: acc.ClientID,
			Status:   domain.CopyStatusSessionError,
			Reason:   err.Error(),
		}, domain.EngineEvent{
			Type:     "close_failed",
			Severity: domain.SeverityError,
			Message:  fmt.Sprintf("%s: kill switch session unavailable: %v", acc.ClientID, err),
			ClientID: acc.ClientID,
		})
		return res
	}

	positions, err := sess.ListPositions(ctx)
	if err != nil {
		res.Errors = append(res.Errors, "positions: "+err.Error())
		k.reporter.Record(ctx, domain.CopyRecord{
			Kind:     domain.CopyKindClose,
			ClientID: acc.ClientID,
			Status:   domain.CopyStatusFailed,
			Reason:   "position fetch: " + err.Error(),
		}, domain.EngineEvent{
			Type:     "close_failed",
			Severity: domain.SeverityError,
			Message:  fmt.Sprintf("%s: kill switch position fetch failed: %v", acc.ClientID, err),
			ClientID: acc.ClientID,
		})
		return res
	}

	open := 0
	for _, p := range positions {
		if p.Flat() {
			continue
		}
		open++
		k.closePosition(ctx, sess, acc, p, &res)
	}

	if open == 0 {
		k.reporter.Record(ctx, domain.CopyRecord{
			Kind:     domain.CopyKindClose,
			ClientID: acc.ClientID,
			Status:   domain.CopyStatusNoPosition,
		}, domain.EngineEvent{
			Type:     "close_skipped",
			Severity: domain.SeverityInfo,
			Message:  acc.ClientID + ": no open positions",
			ClientID: acc.ClientID,
		})
	}

	return res
}

// closePosition submits the flattening order for one position and updates res.
func (k *KillSwitch) closePosition(ctx context.Context, sess domain.Session, acc domain.SlaveAccount, p domain.Position, res *CloseResult) {
	spec := domain.OrderSpec{
		Symbol:     p.Symbol,
		SecurityID: p.SecurityID,
		Exchange:   p.Exchange,
		Side:       p.ClosingSide(),
		OrderType:  domain.OrderTypeMarket,
		// Close in the bucket the position sits in, not the engine's copy
		// bucket.
		ProductType: p.ProductType,
		Validity:    domain.ValidityDay,
		Quantity:    p.AbsQuantity(),
	}

	rec := domain.CopyRecord{
		Kind:     domain.CopyKindClose,
		ClientID: acc.ClientID,
		Symbol:   p.Symbol,
		Side:     spec.Side,
		SlaveQty: spec.Quantity,
	}

	brokerOrderID, err := sess.SubmitOrder(ctx, spec)
	if err != nil {
		res.Failed++
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", p.Symbol, err))
		rec.Status = domain.CopyStatusFailed
		rec.Reason = err.Error()
		k.reporter.Record(ctx, rec, domain.EngineEvent{
			Type:     "close_failed",
			Severity: domain.SeverityError,
			Message:  fmt.Sprintf("%s: close %s %d %s failed: %v", acc.ClientID, spec.Side, spec.Quantity, p.Symbol, err),
			ClientID: acc.ClientID,
		})
		return
	}

	res.Closed++
	rec.Status = domain.CopyStatusCopied
	rec.BrokerOrderID = brokerOrderID
	k.reporter.Record(ctx, rec, domain.EngineEvent{
		Type:     "position_closed",
		Severity: domain.SeverityTrade,
		Message:  fmt.Sprintf("%s: closed %d %s (%s, order %s)", acc.ClientID, spec.Quantity, p.Symbol, spec.Side, brokerOrderID),
		ClientID: acc.ClientID,
	})

	k.logger.InfoContext(ctx, "position closed",
		slog.String("client_id", acc.ClientID),
		slog.String("symbol", p.Symbol),
		slog.String("side", string(spec.Side)),
		slog.Int("quantity", spec.Quantity),
	)
}

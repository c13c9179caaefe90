package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

// FailPolicy decides what the risk guard does when the position fetch needed
// for the loss check fails.
type FailPolicy string

const (
	// FailOpen allows the copy when the check cannot be performed. Copying
	// keeps the slave in lockstep with the master; a skipped copy is itself a
	// divergence risk.
	FailOpen FailPolicy = "open"

	// FailClosed blocks the copy when the check cannot be performed.
	FailClosed FailPolicy = "closed"
)

// Decision is the outcome of one risk evaluation.
type Decision struct {
	Allowed bool
	// Reason is set when the copy is blocked, or when it was allowed despite
	// a failed check (fail-open).
	Reason string
	// TotalPnL is the summed unrealized PnL across the account's positions.
	// Only meaningful when the position fetch succeeded.
	TotalPnL float64
}

// RiskGuard evaluates a slave account's aggregate unrealized loss before each
// copy. An account whose total unrealized PnL has fallen below the negative of
// its configured loss limit gets no further copies.
type RiskGuard struct {
	policy FailPolicy
	logger *slog.Logger
}

// NewRiskGuard creates a guard with the given fetch-failure policy. The policy
// is matched case-insensitively, so "Closed" and "CLOSED" both fail closed.
func NewRiskGuard(policy FailPolicy, logger *slog.Logger) *RiskGuard {
	return &RiskGuard{
		policy: FailPolicy(strings.ToLower(string(policy))),
		logger: logger.With(slog.String("component", "risk_guard")),
	}
}

// Check fetches the account's positions through sess and decides whether a
// copy may proceed. The loss limit is interpreted as a positive magnitude:
// a limit of 5000 blocks once total PnL falls below -5000; sitting exactly at
// the limit still copies.
func (g *RiskGuard) Check(ctx context.Context, sess domain.Session, acc domain.SlaveAccount) Decision {
	positions, err := sess.ListPositions(ctx)
	if err != nil {
		if g.policy == FailClosed {
			g.logger.WarnContext(ctx, "position fetch failed, blocking copy",
				slog.String("client_id", acc.ClientID),
				slog.String("error", err.Error()),
			)
			return Decision{Allowed: false, Reason: "risk check failed: " + err.Error()}
		}

		g.logger.WarnContext(ctx, "position fetch failed, allowing copy",
			slog.String("client_id", acc.ClientID),
			slog.String("error", err.Error()),
		)
		return Decision{Allowed: true, Reason: "risk check skipped: " + err.Error()}
	}

	var total float64
	for _, p := range positions {
		total += p.UnrealizedPnL
	}

	if total < -acc.MaxLossLimit {
		g.logger.WarnContext(ctx, "loss limit breached",
			slog.String("client_id", acc.ClientID),
			slog.Float64("total_pnl", total),
			slog.Float64("max_loss_limit", acc.MaxLossLimit),
		)
		return Decision{Allowed: false, Reason: "loss limit breached", TotalPnL: total}
	}

	return Decision{Allowed: true, TotalPnL: total}
}

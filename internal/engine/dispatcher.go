package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

// Dispatcher fans one master order out to the slave accounts. Each account is
// handled on its own goroutine so one slow broker call never delays the
// others; outcomes are independent per account.
type Dispatcher struct {
	sessions *SessionCache
	guard    *RiskGuard
	reporter *Reporter
	product  domain.ProductType
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. product is the product bucket copied
// orders are submitted under.
func NewDispatcher(sessions *SessionCache, guard *RiskGuard, reporter *Reporter, product domain.ProductType, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sessions: sessions,
		guard:    guard,
		reporter: reporter,
		product:  product,
		logger:   logger.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch starts the fan-out for one claimed master order and returns
// immediately. Submissions already in flight survive engine stop: the workers
// run on a context detached from cancellation, so a copy either completes or
// fails on its own terms.
func (d *Dispatcher) Dispatch(ctx context.Context, order domain.MasterOrder, accounts []domain.SlaveAccount) {
	detached := context.WithoutCancel(ctx)

	for _, acc := range accounts {
		if !acc.Active {
			continue
		}
		d.wg.Add(1)
		go func(acc domain.SlaveAccount) {
			defer d.wg.Done()
			d.copyToAccount(detached, order, acc)
		}(acc)
	}
}

// Wait blocks until every in-flight copy has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// copyToAccount replicates one master order onto one slave account and records
// the outcome.
func (d *Dispatcher) copyToAccount(ctx context.Context, order domain.MasterOrder, acc domain.SlaveAccount) {
	rec := domain.CopyRecord{
		Kind:          domain.CopyKindCopy,
		MasterOrderID: order.OrderID,
		ClientID:      acc.ClientID,
		Symbol:        order.Symbol,
		Side:          order.Side,
		MasterQty:     order.Quantity,
	}

	qty := ScaleQuantity(order.Quantity, acc.Multiplier)
	if qty <= 0 {
		rec.Status = domain.CopyStatusConfigError
		rec.Reason = domain.ErrZeroQuantity.Error()
		d.reporter.Record(ctx, rec, domain.EngineEvent{
			Type:     "copy_skipped",
			Severity: domain.SeverityError,
			Message:  fmt.Sprintf("%s: %dx%.2g yields zero quantity for %s", acc.ClientID, order.Quantity, acc.Multiplier, order.Symbol),
			ClientID: acc.ClientID,
			OrderID:  order.OrderID,
		})
		return
	}
	rec.SlaveQty = qty

	sess, err := d.sessions.Get(ctx, acc.Credentials)
	if err != nil {
		rec.Status = domain.CopyStatusSessionError
		rec.Reason = err.Error()
		d.reporter.Record(ctx, rec, domain.EngineEvent{
			Type:     "session_error",
			Severity: domain.SeverityError,
			Message:  fmt.Sprintf("%s: session unavailable: %v", acc.ClientID, err),
			ClientID: acc.ClientID,
			OrderID:  order.OrderID,
		})
		return
	}

	decision := d.guard.Check(ctx, sess, acc)
	if !decision.Allowed {
		rec.Status = domain.CopyStatusRiskBlocked
		rec.Reason = decision.Reason
		d.reporter.Record(ctx, rec, domain.EngineEvent{
			Type:     "risk_blocked",
			Severity: domain.SeverityAlert,
			Message:  fmt.Sprintf("%s: copy of %s blocked: %s", acc.ClientID, order.Symbol, decision.Reason),
			ClientID: acc.ClientID,
			OrderID:  order.OrderID,
		})
		return
	}

	spec := domain.OrderSpec{
		Symbol:      order.Symbol,
		SecurityID:  order.SecurityID,
		Exchange:    order.Exchange,
		Side:        order.Side,
		OrderType:   domain.OrderTypeMarket,
		ProductType: d.product,
		Validity:    domain.ValidityDay,
		Quantity:    qty,
	}

	brokerOrderID, err := sess.SubmitOrder(ctx, spec)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			// Token went stale mid-session; drop it so the next copy redials.
			d.sessions.Invalidate(acc.ClientID)
		}
		rec.Status = domain.CopyStatusFailed
		rec.Reason = err.Error()
		d.reporter.Record(ctx, rec, domain.EngineEvent{
			Type:     "copy_failed",
			Severity: domain.SeverityError,
			Message:  fmt.Sprintf("%s: submit %s %d %s failed: %v", acc.ClientID, order.Side, qty, order.Symbol, err),
			ClientID: acc.ClientID,
			OrderID:  order.OrderID,
		})
		return
	}

	rec.Status = domain.CopyStatusCopied
	rec.BrokerOrderID = brokerOrderID
	d.reporter.Record(ctx, rec, domain.EngineEvent{
		Type:     "order_copied",
		Severity: domain.SeverityTrade,
		Message:  fmt.Sprintf("%s: %s %d %s (master %d, order %s)", acc.ClientID, order.Side, qty, order.Symbol, order.Quantity, brokerOrderID),
		ClientID: acc.ClientID,
		OrderID:  order.OrderID,
	})

	d.logger.InfoContext(ctx, "order copied",
		slog.String("client_id", acc.ClientID),
		slog.String("master_order_id", order.OrderID),
		slog.String("broker_order_id", brokerOrderID),
		slog.String("symbol", order.Symbol),
		slog.Int("quantity", qty),
	)
}

// ScaleQuantity applies an account's multiplier to the master quantity,
// truncating toward zero. A 0.5 multiplier on a 1-lot master order yields 0,
// which the dispatcher treats as a configuration error.
func ScaleQuantity(masterQty int, multiplier float64) int {
	return int(math.Floor(float64(masterQty) * multiplier))
}

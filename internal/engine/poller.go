package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

// Status is a point-in-time snapshot of the engine for the operator API.
type Status struct {
	Running    bool      `json:"running"`
	Cycles     uint64    `json:"cycles"`
	LastPollAt time.Time `json:"last_poll_at"`
	LastError  string    `json:"last_error,omitempty"`
	LedgerSize int       `json:"ledger_size"`
}

// Engine owns the polling loop: fetch the master order book, claim newly
// completed orders in the ledger, and hand each claimed order to the
// dispatcher. Start and Stop may be called repeatedly over the process
// lifetime (the operator API toggles the engine without restarting).
type Engine struct {
	master     domain.Session
	accounts   domain.AccountSource
	ledger     domain.Ledger
	dispatcher *Dispatcher
	reporter   *Reporter
	interval   time.Duration
	logger     *slog.Logger

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	cycles    uint64
	lastPoll  time.Time
	lastError string
}

// NewEngine creates an Engine. master is the already-authenticated session for
// the master account.
func NewEngine(
	master domain.Session,
	accounts domain.AccountSource,
	ledger domain.Ledger,
	dispatcher *Dispatcher,
	reporter *Reporter,
	interval time.Duration,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		master:     master,
		accounts:   accounts,
		ledger:     ledger,
		dispatcher: dispatcher,
		reporter:   reporter,
		interval:   interval,
		logger:     logger.With(slog.String("component", "engine")),
	}
}

// Start seeds the ledger with the master's already-completed orders and begins
// the polling loop. Completions that happened before Start are never copied;
// an order still open at Start replicates once its completion is observed.
//
// Returns domain.ErrEngineRunning if the engine is already running.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return domain.ErrEngineRunning
	}

	orders, err := e.master.ListOrders(ctx)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("engine: seed ledger: %w", err)
	}
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		// Open and pending orders stay unclaimed so their later completion
		// still replicates.
		if !o.Complete() {
			continue
		}
		ids = append(ids, o.OrderID)
	}
	if err := e.ledger.Seed(ctx, ids); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("engine: seed ledger: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.running = true
	e.cancel = cancel
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	e.logger.Info("engine started",
		slog.Duration("poll_interval", e.interval),
		slog.Int("seeded_orders", len(ids)),
	)
	e.reporter.Event(loopCtx, domain.EngineEvent{
		Type:     "engine_started",
		Severity: domain.SeverityInfo,
		Message:  fmt.Sprintf("polling every %s, %d existing orders seeded", e.interval, len(ids)),
	})

	go e.run(loopCtx, done)
	return nil
}

// Stop halts the polling loop and waits for it to exit. Copies already in
// flight are not cancelled; call Drain to wait for them.
//
// Returns domain.ErrEngineStopped if the engine is not running.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return domain.ErrEngineStopped
	}
	e.running = false
	cancel := e.cancel
	done := e.done
	e.mu.Unlock()

	cancel()
	<-done

	e.logger.Info("engine stopped")
	e.reporter.Event(context.Background(), domain.EngineEvent{
		Type:     "engine_stopped",
		Severity: domain.SeverityInfo,
		Message:  "polling stopped",
	})
	return nil
}

// Drain blocks until every in-flight copy has finished.
func (e *Engine) Drain() {
	e.dispatcher.Wait()
}

// Running reports whether the polling loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Status returns a snapshot for the operator API.
func (e *Engine) Status(ctx context.Context) Status {
	e.mu.Lock()
	st := Status{
		Running:    e.running,
		Cycles:     e.cycles,
		LastPollAt: e.lastPoll,
		LastError:  e.lastError,
	}
	e.mu.Unlock()

	if size, err := e.ledger.Size(ctx); err == nil {
		st.LedgerSize = size
	}
	return st
}

// run is the polling loop. It exits when ctx is cancelled.
func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.cycle(ctx)
		}
	}
}

// cycle performs one poll: fetch the master order book, claim newly completed
// orders, and dispatch each claimed order. A failed poll is recorded and the
// loop moves on; transient broker errors must not kill the engine.
func (e *Engine) cycle(ctx context.Context) {
	orders, err := e.master.ListOrders(ctx)

	e.mu.Lock()
	e.cycles++
	e.lastPoll = time.Now()
	if err != nil {
		e.lastError = err.Error()
	} else {
		e.lastError = ""
	}
	e.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		e.logger.WarnContext(ctx, "master poll failed", slog.String("error", err.Error()))
		e.reporter.Event(ctx, domain.EngineEvent{
			Type:     "poll_failed",
			Severity: domain.SeverityError,
			Message:  "master order book fetch failed: " + err.Error(),
		})
		return
	}

	// One account snapshot per cycle; all orders claimed in this cycle fan
	// out to the same account set.
	var accounts []domain.SlaveAccount
	accountsLoaded := false

	for _, order := range orders {
		if !order.Complete() {
			continue
		}

		claimed, err := e.ledger.Claim(ctx, order.OrderID)
		if err != nil {
			e.logger.ErrorContext(ctx, "ledger claim failed",
				slog.String("order_id", order.OrderID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !claimed {
			continue
		}

		if !accountsLoaded {
			accounts, err = e.accounts.Accounts(ctx)
			if err != nil {
				e.logger.ErrorContext(ctx, "account snapshot failed", slog.String("error", err.Error()))
				e.reporter.Event(ctx, domain.EngineEvent{
					Type:     "accounts_unavailable",
					Severity: domain.SeverityError,
					Message:  "slave account snapshot failed: " + err.Error(),
				})
				// The order stays claimed: at-most-once wins over at-least-once.
				continue
			}
			accountsLoaded = true
		}

		e.logger.InfoContext(ctx, "master order detected",
			slog.String("order_id", order.OrderID),
			slog.String("symbol", order.Symbol),
			slog.String("side", string(order.Side)),
			slog.Int("quantity", order.Quantity),
		)

		e.dispatcher.Dispatch(ctx, order, accounts)
	}
}

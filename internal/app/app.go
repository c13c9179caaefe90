// Package app provides the top-level application lifecycle for the trade
// copier. It wires together all dependencies (broker sessions, ledger,
// journal, notifications, the operator API) and supervises their goroutines
// until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/copytrader/internal/config"
	"github.com/alanyoungcy/copytrader/internal/server"
	"github.com/alanyoungcy/copytrader/internal/server/handler"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the engine
// and the operator API, and blocks until the context is cancelled. On return
// it runs all registered cleanup functions.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting trade copier",
		slog.String("log_level", a.cfg.LogLevel),
		slog.Int("accounts", len(a.cfg.Accounts)),
		slog.Bool("auto_start", a.cfg.Engine.AutoStart),
	)
	a.logger.DebugContext(ctx, "active configuration",
		slog.Any("config", config.RedactedConfig(a.cfg)))

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	g, ctx := errgroup.WithContext(ctx)

	// Live event feed.
	g.Go(func() error {
		if err := deps.Hub.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("app: event hub: %w", err)
		}
		return nil
	})

	// Replication engine.
	if a.cfg.Engine.AutoStart {
		if err := deps.Engine.Start(ctx); err != nil {
			return fmt.Errorf("app: start engine: %w", err)
		}
	} else {
		a.logger.InfoContext(ctx, "auto_start disabled, waiting for POST /api/engine/start")
	}

	// Operator API.
	if a.cfg.Server.Enabled {
		srv := server.NewServer(server.Config{
			Port:        a.cfg.Server.Port,
			AuthToken:   a.cfg.Server.AuthToken,
			CORSOrigins: a.cfg.Server.CORSOrigins,
		}, server.Handlers{
			Health:     handler.NewHealthHandler(a.logger),
			Engine:     handler.NewEngineHandler(deps.Engine, a.logger),
			KillSwitch: handler.NewKillSwitchHandler(deps.KillSwitch, a.logger),
			Journal:    handler.NewJournalHandler(deps.Journal, a.logger),
			Positions:  handler.NewPositionsHandler(deps.Portfolio, a.logger),
		}, deps.Hub, a.logger)

		g.Go(srv.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutCtx)
		})
	}

	// On shutdown: stop polling, then let in-flight copies finish so no slave
	// order is abandoned halfway.
	g.Go(func() error {
		<-ctx.Done()
		if deps.Engine.Running() {
			_ = deps.Engine.Stop()
		}
		deps.Engine.Drain()
		return nil
	})

	return g.Wait()
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down trade copier")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

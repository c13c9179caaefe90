package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/copytrader/internal/cache/redis"
	"github.com/alanyoungcy/copytrader/internal/config"
	"github.com/alanyoungcy/copytrader/internal/crypto"
	"github.com/alanyoungcy/copytrader/internal/domain"
	"github.com/alanyoungcy/copytrader/internal/engine"
	"github.com/alanyoungcy/copytrader/internal/notify"
	"github.com/alanyoungcy/copytrader/internal/platform/dhan"
	"github.com/alanyoungcy/copytrader/internal/server/ws"
	"github.com/alanyoungcy/copytrader/internal/store/postgres"
)

// Dependencies bundles every component the application needs to run. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Engine     *engine.Engine
	KillSwitch *engine.KillSwitch
	Portfolio  *engine.Portfolio
	Sessions   *engine.SessionCache
	Journal    domain.CopyStore // nil when Postgres is disabled
	Hub        *ws.Hub
	Notifier   *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL copy journal (optional) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.Journal = postgres.NewCopyStore(pgClient.Pool())
	}

	// --- Order ledger: Redis when enabled (shared across replicas), memory
	// otherwise ---
	var ledger domain.Ledger
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		ledger = redis.NewLedger(redisClient, cfg.Redis.KeyPrefix)
	} else {
		ledger = engine.NewMemoryLedger()
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Severities, logger)

	// --- Live event feed ---
	deps.Hub = ws.NewHub(logger)

	// --- Broker sessions ---
	dialer := dhan.NewDialer(cfg.Broker.BaseURL, cfg.Broker.Timeout.Duration)

	masterToken, err := crypto.LoadSecret(crypto.SecretConfig{
		RawSecret:     cfg.Master.AccessToken,
		EncryptedPath: cfg.Master.EncryptedTokenPath,
		Password:      cfg.Master.TokenPassword,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: master token: %w", err)
	}
	masterSession, err := dialer.Dial(ctx, domain.Credentials{
		ClientID:    cfg.Master.ClientID,
		AccessToken: masterToken,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: master session: %w", err)
	}
	closers = append(closers, masterSession.Close)

	accounts, err := NewConfigAccountSource(cfg.Accounts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	// --- Engine ---
	reporter := engine.NewReporter(deps.Journal, deps.Hub, deps.Notifier, logger)
	deps.Sessions = engine.NewSessionCache(dialer, logger)
	closers = append(closers, deps.Sessions.CloseAll)

	guard := engine.NewRiskGuard(engine.FailPolicy(cfg.Risk.FailPolicy), logger)
	dispatcher := engine.NewDispatcher(
		deps.Sessions, guard, reporter,
		domain.ProductType(cfg.Engine.ProductType),
		logger,
	)
	deps.Engine = engine.NewEngine(
		masterSession, accounts, ledger, dispatcher, reporter,
		cfg.Engine.PollInterval.Duration,
		logger,
	)
	deps.KillSwitch = engine.NewKillSwitch(deps.Sessions, accounts, reporter, logger)
	deps.Portfolio = engine.NewPortfolio(deps.Sessions, accounts, logger)

	return deps, cleanup, nil
}

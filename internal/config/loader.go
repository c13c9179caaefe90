package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies COPYTRADER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known COPYTRADER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This lets
// operators inject secrets at deploy time without touching the TOML file.
// Slave accounts are list-valued and are not overridable through environment
// variables.
func applyEnvOverrides(cfg *Config) {
	// ── Engine ──
	setDuration(&cfg.Engine.PollInterval, "COPYTRADER_ENGINE_POLL_INTERVAL")
	setStr(&cfg.Engine.ProductType, "COPYTRADER_ENGINE_PRODUCT_TYPE")
	setBool(&cfg.Engine.AutoStart, "COPYTRADER_ENGINE_AUTO_START")

	// ── Broker ──
	setStr(&cfg.Broker.BaseURL, "COPYTRADER_BROKER_BASE_URL")
	setDuration(&cfg.Broker.Timeout, "COPYTRADER_BROKER_TIMEOUT")

	// ── Master ──
	setStr(&cfg.Master.ClientID, "COPYTRADER_MASTER_CLIENT_ID")
	setStr(&cfg.Master.AccessToken, "COPYTRADER_MASTER_ACCESS_TOKEN")
	setStr(&cfg.Master.EncryptedTokenPath, "COPYTRADER_MASTER_ENCRYPTED_TOKEN_PATH")
	setStr(&cfg.Master.TokenPassword, "COPYTRADER_MASTER_TOKEN_PASSWORD")

	// ── Risk ──
	setStr(&cfg.Risk.FailPolicy, "COPYTRADER_RISK_FAIL_POLICY")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "COPYTRADER_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "COPYTRADER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "COPYTRADER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "COPYTRADER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "COPYTRADER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "COPYTRADER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "COPYTRADER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "COPYTRADER_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "COPYTRADER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "COPYTRADER_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "COPYTRADER_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "COPYTRADER_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "COPYTRADER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "COPYTRADER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "COPYTRADER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "COPYTRADER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "COPYTRADER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "COPYTRADER_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "COPYTRADER_REDIS_KEY_PREFIX")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "COPYTRADER_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "COPYTRADER_SERVER_PORT")
	setStr(&cfg.Server.AuthToken, "COPYTRADER_SERVER_AUTH_TOKEN")
	setStringSlice(&cfg.Server.CORSOrigins, "COPYTRADER_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "COPYTRADER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "COPYTRADER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "COPYTRADER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Severities, "COPYTRADER_NOTIFY_SEVERITIES")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "COPYTRADER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

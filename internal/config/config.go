// Package config defines the top-level configuration for the trade copier and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by COPYTRADER_* environment variables.
type Config struct {
	Engine   EngineConfig    `toml:"engine"`
	Broker   BrokerConfig    `toml:"broker"`
	Master   MasterConfig    `toml:"master"`
	Accounts []AccountConfig `toml:"accounts"`
	Risk     RiskConfig      `toml:"risk"`
	Postgres PostgresConfig  `toml:"postgres"`
	Redis    RedisConfig     `toml:"redis"`
	Server   ServerConfig    `toml:"server"`
	Notify   NotifyConfig    `toml:"notify"`
	LogLevel string          `toml:"log_level"`
}

// EngineConfig holds replication engine parameters.
type EngineConfig struct {
	// PollInterval is the delay between master order-book fetches. Shorter
	// intervals trade broker load for copy latency.
	PollInterval duration `toml:"poll_interval"`
	// ProductType is the product bucket copied orders are submitted under.
	ProductType string `toml:"product_type"`
	// AutoStart begins polling as soon as the process starts. When false the
	// engine waits for POST /engine/start.
	AutoStart bool `toml:"auto_start"`
}

// BrokerConfig holds the brokerage REST API endpoint.
type BrokerConfig struct {
	BaseURL string   `toml:"base_url"`
	Timeout duration `toml:"timeout"`
}

// MasterConfig holds the master account credentials. The access token may be
// given raw or as an encrypted file plus password.
type MasterConfig struct {
	ClientID           string `toml:"client_id"`
	AccessToken        string `toml:"access_token"`
	EncryptedTokenPath string `toml:"encrypted_token_path"`
	TokenPassword      string `toml:"token_password"`
}

// AccountConfig is one slave account entry.
type AccountConfig struct {
	Name               string  `toml:"name"`
	ClientID           string  `toml:"client_id"`
	AccessToken        string  `toml:"access_token"`
	EncryptedTokenPath string  `toml:"encrypted_token_path"`
	TokenPassword      string  `toml:"token_password"`
	Multiplier         float64 `toml:"multiplier"`
	MaxLossLimit       float64 `toml:"max_loss_limit"`
	Active             bool    `toml:"active"`
}

// RiskConfig holds risk guard parameters.
type RiskConfig struct {
	// FailPolicy decides what happens when a position fetch fails during the
	// pre-copy risk check: "open" allows the copy (availability over safety),
	// "closed" blocks it.
	FailPolicy string `toml:"fail_policy"`
}

// PostgresConfig holds copy-journal database parameters. The journal is
// optional; when disabled, outcomes are only logged and notified.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds parameters for the optional Redis-backed order ledger,
// shared when several copier replicas watch the same master.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	KeyPrefix  string `toml:"key_prefix"`
}

// ServerConfig holds the operator HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	AuthToken   string   `toml:"auth_token"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials and the severity filter.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Severities        []string `toml:"severities"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding ("500ms", "2s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so BurntSushi/toml can
// parse duration strings.
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with sensible defaults. Load merges the
// TOML file on top of this.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			PollInterval: duration{1 * time.Second},
			ProductType:  "INTRADAY",
			AutoStart:    true,
		},
		Broker: BrokerConfig{
			Timeout: duration{15 * time.Second},
		},
		Risk: RiskConfig{
			FailPolicy: "open",
		},
		Postgres: PostgresConfig{
			Port:          5432,
			SSLMode:       "disable",
			PoolMaxConns:  4,
			PoolMinConns:  0,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  10,
			KeyPrefix: "copytrader",
		},
		Server: ServerConfig{
			Enabled: true,
			Port:    8085,
		},
		LogLevel: "info",
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validFailPolicies = map[string]bool{
	"open":   true,
	"closed": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Engine
	if c.Engine.PollInterval.Duration < 100*time.Millisecond {
		errs = append(errs, fmt.Sprintf("engine: poll_interval must be >= 100ms, got %s", c.Engine.PollInterval.Duration))
	}
	if c.Engine.ProductType != "INTRADAY" && c.Engine.ProductType != "DELIVERY" {
		errs = append(errs, fmt.Sprintf("engine: product_type must be INTRADAY or DELIVERY, got %q", c.Engine.ProductType))
	}

	// Broker
	if c.Broker.BaseURL == "" {
		errs = append(errs, "broker: base_url must not be empty")
	}

	// Master credentials — either a raw token or an encrypted token file.
	if c.Master.ClientID == "" {
		errs = append(errs, "master: client_id must not be empty")
	}
	if c.Master.AccessToken == "" && c.Master.EncryptedTokenPath == "" {
		errs = append(errs, "master: either access_token or encrypted_token_path must be set")
	}
	if c.Master.EncryptedTokenPath != "" && c.Master.TokenPassword == "" {
		errs = append(errs, "master: token_password is required when encrypted_token_path is set")
	}

	// Accounts
	seen := make(map[string]bool, len(c.Accounts))
	for i, acc := range c.Accounts {
		where := fmt.Sprintf("accounts[%d]", i)
		if acc.Name != "" {
			where = fmt.Sprintf("accounts[%d] (%s)", i, acc.Name)
		}
		if acc.ClientID == "" {
			errs = append(errs, where+": client_id must not be empty")
		} else if seen[acc.ClientID] {
			errs = append(errs, where+": duplicate client_id "+acc.ClientID)
		} else {
			seen[acc.ClientID] = true
		}
		if acc.ClientID != "" && acc.ClientID == c.Master.ClientID {
			errs = append(errs, where+": client_id must differ from the master account")
		}
		if acc.Multiplier <= 0 {
			errs = append(errs, fmt.Sprintf("%s: multiplier must be > 0, got %g", where, acc.Multiplier))
		}
		if acc.MaxLossLimit <= 0 {
			errs = append(errs, fmt.Sprintf("%s: max_loss_limit must be > 0, got %g", where, acc.MaxLossLimit))
		}
		if acc.AccessToken == "" && acc.EncryptedTokenPath == "" {
			errs = append(errs, where+": either access_token or encrypted_token_path must be set")
		}
		if acc.EncryptedTokenPath != "" && acc.TokenPassword == "" {
			errs = append(errs, where+": token_password is required when encrypted_token_path is set")
		}
	}

	// Risk
	if !validFailPolicies[strings.ToLower(c.Risk.FailPolicy)] {
		errs = append(errs, fmt.Sprintf("risk: fail_policy must be \"open\" or \"closed\", got %q", c.Risk.FailPolicy))
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

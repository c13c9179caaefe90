package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Broker.BaseURL = "https://api.broker.example"
	cfg.Master.ClientID = "MASTER1"
	cfg.Master.AccessToken = "token"
	cfg.Accounts = []AccountConfig{{
		Name:         "alice",
		ClientID:     "CL1",
		AccessToken:  "token",
		Multiplier:   1.5,
		MaxLossLimit: 5000,
		Active:       true,
	}}
	return cfg
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "loud"
	cfg.Engine.PollInterval = duration{10 * time.Millisecond}
	cfg.Engine.ProductType = "MARGIN"
	cfg.Risk.FailPolicy = "maybe"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "poll_interval")
	assert.Contains(t, err.Error(), "product_type")
	assert.Contains(t, err.Error(), "base_url")
	assert.Contains(t, err.Error(), "fail_policy")
}

func TestValidateAccountRules(t *testing.T) {
	cfg := validConfig()
	cfg.Accounts = append(cfg.Accounts,
		AccountConfig{ClientID: "CL1", AccessToken: "t", Multiplier: 1, MaxLossLimit: 100},
		AccountConfig{ClientID: "MASTER1", AccessToken: "t", Multiplier: 0, MaxLossLimit: 0},
	)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate client_id CL1")
	assert.Contains(t, err.Error(), "differ from the master account")
	assert.Contains(t, err.Error(), "multiplier must be > 0")
	assert.Contains(t, err.Error(), "max_loss_limit must be > 0")
}

func TestValidateEncryptedTokenNeedsPassword(t *testing.T) {
	cfg := validConfig()
	cfg.Master.AccessToken = ""
	cfg.Master.EncryptedTokenPath = "/etc/copytrader/master.tok"
	cfg.Master.TokenPassword = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token_password is required")
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[engine]
poll_interval = "250ms"
auto_start = false

[broker]
base_url = "https://api.broker.example"

[master]
client_id = "MASTER1"
access_token = "token"

[[accounts]]
name = "alice"
client_id = "CL1"
access_token = "token"
multiplier = 2.0
max_loss_limit = 10000
active = true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.PollInterval.Duration)
	assert.False(t, cfg.Engine.AutoStart)
	// Untouched fields keep their defaults.
	assert.Equal(t, "INTRADAY", cfg.Engine.ProductType)
	assert.Equal(t, 8085, cfg.Server.Port)
	require.Len(t, cfg.Accounts, 1)
	assert.Equal(t, 2.0, cfg.Accounts[0].Multiplier)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[broker]
base_url = "https://api.broker.example"
`), 0o600))

	t.Setenv("COPYTRADER_MASTER_ACCESS_TOKEN", "env-token")
	t.Setenv("COPYTRADER_ENGINE_POLL_INTERVAL", "3s")
	t.Setenv("COPYTRADER_SERVER_PORT", "9090")
	t.Setenv("COPYTRADER_NOTIFY_SEVERITIES", "error, alert")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Master.AccessToken)
	assert.Equal(t, 3*time.Second, cfg.Engine.PollInterval.Duration)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"error", "alert"}, cfg.Notify.Severities)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	require.Error(t, err)
}

func TestRedactedConfigMasksSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Master.AccessToken = "super-secret"
	cfg.Server.AuthToken = "api-token"
	cfg.Notify.TelegramToken = "tg-token"

	red := RedactedConfig(&cfg)

	assert.Equal(t, "***", red.Master.AccessToken)
	assert.Equal(t, "***", red.Server.AuthToken)
	assert.Equal(t, "***", red.Notify.TelegramToken)
	assert.Equal(t, "***", red.Accounts[0].AccessToken)
	// Originals are untouched.
	assert.Equal(t, "super-secret", cfg.Master.AccessToken)
	assert.Equal(t, "token", cfg.Accounts[0].AccessToken)
	// Non-secret fields pass through.
	assert.Equal(t, cfg.Master.ClientID, red.Master.ClientID)
}

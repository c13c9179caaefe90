package config

// RedactedConfig returns a copy of cfg with sensitive fields replaced by the
// redaction placeholder "***". Use this when logging or printing the active
// configuration so tokens are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	redact(&out.Master.AccessToken)
	redact(&out.Master.TokenPassword)

	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)

	redact(&out.Redis.Password)

	redact(&out.Server.AuthToken)

	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy the account list so callers cannot mutate the original through the
	// redacted copy.
	if cfg.Accounts != nil {
		out.Accounts = make([]AccountConfig, len(cfg.Accounts))
		copy(out.Accounts, cfg.Accounts)
		for i := range out.Accounts {
			redact(&out.Accounts[i].AccessToken)
			redact(&out.Accounts[i].TokenPassword)
		}
	}
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = make([]string, len(cfg.Server.CORSOrigins))
		copy(out.Server.CORSOrigins, cfg.Server.CORSOrigins)
	}
	if cfg.Notify.Severities != nil {
		out.Notify.Severities = make([]string, len(cfg.Notify.Severities))
		copy(out.Notify.Severities, cfg.Notify.Severities)
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}

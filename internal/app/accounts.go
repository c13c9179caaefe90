package app

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/copytrader/internal/config"
	"github.com/alanyoungcy/copytrader/internal/crypto"
	"github.com/alanyoungcy/copytrader/internal/domain"
)

// ConfigAccountSource serves the slave account set from configuration. Access
// tokens are resolved (and decrypted where needed) once at construction, so a
// bad token password fails at startup rather than on the first copy.
type ConfigAccountSource struct {
	accounts []domain.SlaveAccount
}

var _ domain.AccountSource = (*ConfigAccountSource)(nil)

// NewConfigAccountSource resolves every configured account's credentials.
func NewConfigAccountSource(entries []config.AccountConfig) (*ConfigAccountSource, error) {
	accounts := make([]domain.SlaveAccount, 0, len(entries))
	for _, e := range entries {
		token, err := crypto.LoadSecret(crypto.SecretConfig{
			RawSecret:     e.AccessToken,
			EncryptedPath: e.EncryptedTokenPath,
			Password:      e.TokenPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("app: account %s: %w", e.ClientID, err)
		}

		accounts = append(accounts, domain.SlaveAccount{
			Name:     e.Name,
			ClientID: e.ClientID,
			Credentials: domain.Credentials{
				ClientID:    e.ClientID,
				AccessToken: token,
			},
			Multiplier:   e.Multiplier,
			MaxLossLimit: e.MaxLossLimit,
			Active:       e.Active,
		})
	}
	return &ConfigAccountSource{accounts: accounts}, nil
}

// Accounts returns the configured account snapshot.
func (s *ConfigAccountSource) Accounts(context.Context) ([]domain.SlaveAccount, error) {
	out := make([]domain.SlaveAccount, len(s.accounts))
	copy(out, s.accounts)
	return out, nil
}

package dhan

import (
	"context"
	"errors"
	"time"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

// Dialer establishes authenticated sessions against the brokerage API. It
// verifies each new session with a cheap read before handing it out, so a bad
// token surfaces at dial time rather than on the first copy.
type Dialer struct {
	baseURL string
	timeout time.Duration
}

var _ domain.SessionDialer = (*Dialer)(nil)

// NewDialer creates a dialer for the given API root.
func NewDialer(baseURL string, timeout time.Duration) *Dialer {
	return &Dialer{baseURL: baseURL, timeout: timeout}
}

// Dial authenticates the credentials and returns a live session.
func (d *Dialer) Dial(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	if creds.ClientID == "" || creds.AccessToken == "" {
		return nil, errors.New("dhan: dial: client ID and access token are required")
	}

	client := NewClient(d.baseURL, creds, d.timeout)

	// Probe the token with a position fetch; the engine needs positions
	// anyway, and an invalid token fails here with ErrUnauthorized.
	if _, err := client.ListPositions(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

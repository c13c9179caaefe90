package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

// SessionCache holds one live broker session per client ID. Dialing is
// expensive, so sessions are created lazily on first use and reused until
// invalidated. Safe for concurrent use.
type SessionCache struct {
	dialer domain.SessionDialer
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]domain.Session // clientID -> session
}

// NewSessionCache creates an empty cache backed by the given dialer.
func NewSessionCache(dialer domain.SessionDialer, logger *slog.Logger) *SessionCache {
	return &SessionCache{
		dialer:   dialer,
		logger:   logger.With(slog.String("component", "session_cache")),
		sessions: make(map[string]domain.Session),
	}
}

// Get returns the cached session for the credentials' client ID, dialing a new
// one if none is cached. Concurrent callers for the same client ID may race to
// dial; the loser's session is closed and the winner's kept.
func (sc *SessionCache) Get(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	sc.mu.Lock()
	if sess, ok := sc.sessions[creds.ClientID]; ok {
		sc.mu.Unlock()
		return sess, nil
	}
	sc.mu.Unlock()

	// Dial outside the lock; a slow broker must not serialize all accounts.
	sess, err := sc.dialer.Dial(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("engine: dial session for %s: %w", creds.ClientID, err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if existing, ok := sc.sessions[creds.ClientID]; ok {
		sess.Close()
		return existing, nil
	}
	sc.sessions[creds.ClientID] = sess

	sc.logger.Info("session established", slog.String("client_id", creds.ClientID))
	return sess, nil
}

// Invalidate closes and drops the cached session for a client ID. The next
// Get redials. Called after an authentication failure.
func (sc *SessionCache) Invalidate(clientID string) {
	sc.mu.Lock()
	sess, ok := sc.sessions[clientID]
	if ok {
		delete(sc.sessions, clientID)
	}
	sc.mu.Unlock()

	if ok {
		sess.Close()
		sc.logger.Warn("session invalidated", slog.String("client_id", clientID))
	}
}

// CloseAll closes every cached session. Used at shutdown.
func (sc *SessionCache) CloseAll() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	for id, sess := range sc.sessions {
		sess.Close()
		delete(sc.sessions, id)
	}
}

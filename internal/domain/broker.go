package domain

import "context"

// Session is an authenticated connection to one brokerage account. The engine
// treats it as an external collaborator: it never authenticates itself, it
// only consumes the three operations below through a handle obtained from a
// SessionDialer.
type Session interface {
	// ListOrders returns the account's current order book snapshot. The
	// snapshot may contain duplicates and is not guaranteed to be in
	// chronological order.
	ListOrders(ctx context.Context) ([]MasterOrder, error)

	// ListPositions returns the account's open positions.
	ListPositions(ctx context.Context) ([]Position, error)

	// SubmitOrder places an order and returns the broker-assigned order ID.
	SubmitOrder(ctx context.Context, spec OrderSpec) (string, error)

	// Close releases the session. Subsequent calls fail with ErrSessionClosed.
	Close()
}

// SessionDialer establishes authenticated sessions. Dialing is expensive, so
// the engine caches the returned handles per client ID and redials lazily
// after an authentication failure.
type SessionDialer interface {
	Dial(ctx context.Context, creds Credentials) (Session, error)
}

// AccountSource supplies the current slave account set. Add/remove/edit are
// external operations; the engine reads one snapshot per polling cycle.
type AccountSource interface {
	Accounts(ctx context.Context) ([]SlaveAccount, error)
}

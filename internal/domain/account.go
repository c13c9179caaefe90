package domain

// Credentials is the opaque material a SessionDialer needs to authenticate one
// brokerage account. The engine never inspects it beyond passing it through.
type Credentials struct {
	ClientID    string
	AccessToken string
}

// SlaveAccount is the configuration record for one dependent account. The set
// of accounts is owned by configuration management; the engine reads a
// snapshot per polling cycle and treats it as immutable.
type SlaveAccount struct {
	Name         string
	ClientID     string // unique key, also the session-cache key
	Credentials  Credentials
	Multiplier   float64 // scales copied quantity; must be > 0
	MaxLossLimit float64 // positive magnitude; copies stop once PnL falls below -MaxLossLimit
	Active       bool
}

package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyClaimed = errors.New("order already claimed")
	ErrRiskBreached   = errors.New("loss limit breached")
	ErrZeroQuantity   = errors.New("multiplier yields zero quantity")
	ErrSessionClosed  = errors.New("session closed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrEngineRunning  = errors.New("engine already running")
	ErrEngineStopped  = errors.New("engine not running")
)

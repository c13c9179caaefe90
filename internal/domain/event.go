package domain

import "time"

// Severity classifies engine events for the notification sink and the live
// event feed. Alert is reserved for risk breaches so operators can tell
// "trade skipped due to risk" apart from "trade failed due to broker error".
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityTrade Severity = "trade"
	SeverityError Severity = "error"
	SeverityAlert Severity = "alert"
)

// EngineEvent is one entry on the live event feed.
type EngineEvent struct {
	Type     string    `json:"type"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	ClientID string    `json:"client_id,omitempty"`
	OrderID  string    `json:"order_id,omitempty"`
	At       time.Time `json:"at"`
}

// EventPublisher pushes engine events to connected observers (the WebSocket
// hub). Publishing is fire-and-forget; implementations must never block the
// caller.
type EventPublisher interface {
	Publish(ev EngineEvent)
}

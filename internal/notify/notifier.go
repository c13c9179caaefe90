// Package notify delivers engine events to external channels (Telegram,
// Discord). Delivery is filtered by severity so operators can subscribe to
// trades and alerts without drowning in info-level chatter.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier fans an engine event out to all registered senders. It holds a set
// of allowed severities; events outside the set are dropped silently.
type Notifier struct {
	senders    []Sender
	severities map[domain.Severity]bool
	logger     *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders. Only events
// whose severity appears in severities are forwarded; an empty list allows
// everything.
func NewNotifier(senders []Sender, severities []string, logger *slog.Logger) *Notifier {
	allowed := make(map[domain.Severity]bool, len(severities))
	for _, s := range severities {
		allowed[domain.Severity(strings.TrimSpace(strings.ToLower(s)))] = true
	}
	return &Notifier{
		senders:    senders,
		severities: allowed,
		logger:     logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers an engine event to all senders if its severity passes the
// filter. Sender failures are logged and combined; one failing channel does
// not block the others.
func (n *Notifier) Notify(ctx context.Context, ev domain.EngineEvent) error {
	if len(n.severities) > 0 && !n.severities[ev.Severity] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("severity", string(ev.Severity)),
			slog.String("type", ev.Type),
		)
		return nil
	}

	title := formatTitle(ev)
	return n.dispatch(ctx, title, ev.Message)
}

// dispatch iterates over all senders and sends the notification. Errors from
// individual senders are collected into a combined error.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// formatTitle renders an event's headline, e.g. "[ALERT] risk_blocked".
func formatTitle(ev domain.EngineEvent) string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(ev.Severity)), ev.Type)
}

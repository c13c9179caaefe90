package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

// Notifier is the slice of the notification system the engine needs.
type Notifier interface {
	Notify(ctx context.Context, ev domain.EngineEvent) error
}

// Reporter fans one copy outcome out to the journal, the live event feed, and
// the notification channels. Every sink is optional; a nil journal only logs.
// Sink failures are logged and swallowed: reporting must never fail a copy.
type Reporter struct {
	journal  domain.CopyStore
	events   domain.EventPublisher
	notifier Notifier
	logger   *slog.Logger
}

// NewReporter creates a Reporter. Any of journal, events, and notifier may be
// nil.
func NewReporter(journal domain.CopyStore, events domain.EventPublisher, notifier Notifier, logger *slog.Logger) *Reporter {
	return &Reporter{
		journal:  journal,
		events:   events,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "reporter")),
	}
}

// Record journals the copy record and publishes the matching event.
func (r *Reporter) Record(ctx context.Context, rec domain.CopyRecord, ev domain.EngineEvent) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if ev.At.IsZero() {
		ev.At = rec.CreatedAt
	}

	if r.journal != nil {
		if err := r.journal.Insert(ctx, rec); err != nil {
			r.logger.ErrorContext(ctx, "journal insert failed",
				slog.String("record_id", rec.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	r.Event(ctx, ev)
}

// Event publishes an event to the feed and the notification channels without
// journaling anything.
func (r *Reporter) Event(ctx context.Context, ev domain.EngineEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	if r.events != nil {
		r.events.Publish(ev)
	}

	if r.notifier != nil {
		if err := r.notifier.Notify(ctx, ev); err != nil {
			r.logger.WarnContext(ctx, "notification failed",
				slog.String("type", ev.Type),
				slog.String("error", err.Error()),
			)
		}
	}
}

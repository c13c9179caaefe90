package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

// stubSender records delivered notifications and optionally fails.
type stubSender struct {
	name   string
	err    error
	titles []string
}

func (s *stubSender) Send(_ context.Context, title, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.titles = append(s.titles, title)
	return nil
}

func (s *stubSender) Name() string { return s.name }

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func tradeEvent() domain.EngineEvent {
	return domain.EngineEvent{
		Type:     "order_copied",
		Severity: domain.SeverityTrade,
		Message:  "copied 10 RELIANCE to CL200",
		At:       time.Now(),
	}
}

func TestNotifyPassesAllowedSeverity(t *testing.T) {
	s := &stubSender{name: "stub"}
	n := NewNotifier([]Sender{s}, []string{"trade", "alert"}, testLogger())

	require.NoError(t, n.Notify(context.Background(), tradeEvent()))
	require.Len(t, s.titles, 1)
	assert.Equal(t, "[TRADE] order_copied", s.titles[0])
}

func TestNotifyFiltersSeverity(t *testing.T) {
	s := &stubSender{name: "stub"}
	n := NewNotifier([]Sender{s}, []string{"alert"}, testLogger())

	require.NoError(t, n.Notify(context.Background(), tradeEvent()))
	assert.Empty(t, s.titles)
}

func TestNotifyEmptyFilterAllowsAll(t *testing.T) {
	s := &stubSender{name: "stub"}
	n := NewNotifier([]Sender{s}, nil, testLogger())

	require.NoError(t, n.Notify(context.Background(), tradeEvent()))
	assert.Len(t, s.titles, 1)
}

func TestNotifyContinuesPastFailingSender(t *testing.T) {
	bad := &stubSender{name: "bad", err: errors.New("boom")}
	good := &stubSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger())

	err := n.Notify(context.Background(), tradeEvent())
	assert.ErrorContains(t, err, "bad: boom")
	assert.Len(t, good.titles, 1)
}

func TestNotifyNoSenders(t *testing.T) {
	n := NewNotifier(nil, nil, testLogger())
	assert.NoError(t, n.Notify(context.Background(), tradeEvent()))
}

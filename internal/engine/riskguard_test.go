package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

func TestRiskGuardAllowsBelowLimit(t *testing.T) {
	sess := &stubSession{positions: []domain.Position{
		{Symbol: "RELIANCE", UnrealizedPnL: -2000},
		{Symbol: "TCS", UnrealizedPnL: 500},
	}}
	g := NewRiskGuard(FailOpen, discardLogger())

	d := g.Check(context.Background(), sess, activeAccount("CL1", 1))
	assert.True(t, d.Allowed)
	assert.InDelta(t, -1500, d.TotalPnL, 0.001)
}

func TestRiskGuardAllowsAtExactLimit(t *testing.T) {
	sess := &stubSession{positions: []domain.Position{
		{Symbol: "RELIANCE", UnrealizedPnL: -5000},
	}}
	g := NewRiskGuard(FailOpen, discardLogger())

	// Sitting exactly on the limit still copies; only falling below blocks.
	d := g.Check(context.Background(), sess, activeAccount("CL1", 1))
	assert.True(t, d.Allowed)
	assert.InDelta(t, -5000, d.TotalPnL, 0.001)
}

func TestRiskGuardBlocksBelowLimit(t *testing.T) {
	sess := &stubSession{positions: []domain.Position{
		{Symbol: "RELIANCE", UnrealizedPnL: -5000.01},
	}}
	g := NewRiskGuard(FailOpen, discardLogger())

	d := g.Check(context.Background(), sess, activeAccount("CL1", 1))
	assert.False(t, d.Allowed)
	assert.Equal(t, "loss limit breached", d.Reason)
}

func TestRiskGuardBlocksBeyondLimit(t *testing.T) {
	sess := &stubSession{positions: []domain.Position{
		{Symbol: "RELIANCE", UnrealizedPnL: -9000},
		{Symbol: "TCS", UnrealizedPnL: 100},
	}}
	g := NewRiskGuard(FailClosed, discardLogger())

	d := g.Check(context.Background(), sess, activeAccount("CL1", 1))
	assert.False(t, d.Allowed)
}

func TestRiskGuardFailOpen(t *testing.T) {
	sess := &stubSession{positionsErr: errors.New("broker down")}
	g := NewRiskGuard(FailOpen, discardLogger())

	d := g.Check(context.Background(), sess, activeAccount("CL1", 1))
	assert.True(t, d.Allowed)
	assert.Contains(t, d.Reason, "risk check skipped")
}

func TestRiskGuardFailClosed(t *testing.T) {
	sess := &stubSession{positionsErr: errors.New("broker down")}
	g := NewRiskGuard(FailClosed, discardLogger())

	d := g.Check(context.Background(), sess, activeAccount("CL1", 1))
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "risk check failed")
}

func TestRiskGuardPolicySpellingIsCaseInsensitive(t *testing.T) {
	sess := &stubSession{positionsErr: errors.New("broker down")}

	// Operators spell the policy in config; "Closed" must not silently run
	// fail-open.
	g := NewRiskGuard(FailPolicy("CLOSED"), discardLogger())
	d := g.Check(context.Background(), sess, activeAccount("CL1", 1))
	assert.False(t, d.Allowed)

	g = NewRiskGuard(FailPolicy("Open"), discardLogger())
	d = g.Check(context.Background(), sess, activeAccount("CL1", 1))
	assert.True(t, d.Allowed)
}

func TestRiskGuardFlatAccountAllowed(t *testing.T) {
	sess := &stubSession{}
	g := NewRiskGuard(FailClosed, discardLogger())

	d := g.Check(context.Background(), sess, activeAccount("CL1", 1))
	assert.True(t, d.Allowed)
	assert.Zero(t, d.TotalPnL)
}

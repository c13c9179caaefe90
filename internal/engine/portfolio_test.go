package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

func TestPortfolioSnapshotAggregatesAccounts(t *testing.T) {
	dialer := newStubDialer()
	dialer.sessions["CL1"] = &stubSession{positions: []domain.Position{
		{Symbol: "RELIANCE", NetQuantity: 10, UnrealizedPnL: 1200, ProductType: domain.ProductIntraday},
		{Symbol: "TCS", NetQuantity: -5, UnrealizedPnL: -300, ProductType: domain.ProductDelivery},
		{Symbol: "INFY", NetQuantity: 0, UnrealizedPnL: 0}, // flat, excluded
	}}
	dialer.sessions["CL2"] = &stubSession{}

	accounts := &stubAccounts{accounts: []domain.SlaveAccount{
		activeAccount("CL2", 1),
		activeAccount("CL1", 1),
	}}
	p := NewPortfolio(NewSessionCache(dialer, discardLogger()), accounts, discardLogger())

	snap, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 2)

	// Ordered by client ID regardless of account-source order.
	assert.Equal(t, "CL1", snap[0].ClientID)
	require.Len(t, snap[0].Positions, 2)
	assert.InDelta(t, 900, snap[0].TotalPnL, 0.001)

	assert.Equal(t, "CL2", snap[1].ClientID)
	assert.Empty(t, snap[1].Positions)
	assert.Zero(t, snap[1].TotalPnL)
}

func TestPortfolioSnapshotSkipsInactiveAccounts(t *testing.T) {
	dialer := newStubDialer()
	inactive := activeAccount("CL2", 1)
	inactive.Active = false

	accounts := &stubAccounts{accounts: []domain.SlaveAccount{
		activeAccount("CL1", 1),
		inactive,
	}}
	p := NewPortfolio(NewSessionCache(dialer, discardLogger()), accounts, discardLogger())

	snap, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, "CL1", snap[0].ClientID)
	assert.Zero(t, dialer.dialCount("CL2"))
}

func TestPortfolioSnapshotReportsPerAccountErrors(t *testing.T) {
	dialer := newStubDialer()
	dialer.errs["CL1"] = errors.New("invalid token")
	dialer.sessions["CL2"] = &stubSession{positionsErr: errors.New("broker down")}
	dialer.sessions["CL3"] = &stubSession{positions: []domain.Position{
		{Symbol: "RELIANCE", NetQuantity: 2, UnrealizedPnL: 50},
	}}

	accounts := &stubAccounts{accounts: []domain.SlaveAccount{
		activeAccount("CL1", 1),
		activeAccount("CL2", 1),
		activeAccount("CL3", 1),
	}}
	p := NewPortfolio(NewSessionCache(dialer, discardLogger()), accounts, discardLogger())

	snap, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 3)

	assert.Contains(t, snap[0].Error, "invalid token")
	assert.Contains(t, snap[1].Error, "broker down")
	assert.Empty(t, snap[2].Error)
	require.Len(t, snap[2].Positions, 1)
}

func TestPortfolioSnapshotAccountSourceFailure(t *testing.T) {
	p := NewPortfolio(
		NewSessionCache(newStubDialer(), discardLogger()),
		&stubAccounts{err: errors.New("source offline")},
		discardLogger(),
	)

	_, err := p.Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account snapshot")
}

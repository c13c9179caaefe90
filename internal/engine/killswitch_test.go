package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

func newTestKillSwitch(dialer *stubDialer, accounts []domain.SlaveAccount) (*KillSwitch, *memJournal, *capturePublisher) {
	journal := &memJournal{}
	pub := &capturePublisher{}
	reporter := NewReporter(journal, pub, nil, discardLogger())
	sessions := NewSessionCache(dialer, discardLogger())
	return NewKillSwitch(sessions, &stubAccounts{accounts: accounts}, reporter, discardLogger()), journal, pub
}

func TestKillSwitchFlattensPositions(t *testing.T) {
	dialer := newStubDialer()
	slave := &stubSession{positions: []domain.Position{
		{Symbol: "RELIANCE", SecurityID: "2885", Exchange: "NSE_EQ", NetQuantity: 30, ProductType: domain.ProductIntraday},
		{Symbol: "TCS", SecurityID: "11536", Exchange: "NSE_EQ", NetQuantity: -10, ProductType: domain.ProductDelivery},
		{Symbol: "INFY", NetQuantity: 0},
	}}
	dialer.sessions["CL1"] = slave

	ks, journal, _ := newTestKillSwitch(dialer, []domain.SlaveAccount{activeAccount("CL1", 1)})
	results, err := ks.CloseAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Closed)
	assert.Equal(t, 0, results[0].Failed)

	specs := slave.submittedSpecs()
	require.Len(t, specs, 2)
	bySymbol := map[string]domain.OrderSpec{specs[0].Symbol: specs[0], specs[1].Symbol: specs[1]}

	long := bySymbol["RELIANCE"]
	assert.Equal(t, domain.OrderSideSell, long.Side)
	assert.Equal(t, 30, long.Quantity)
	assert.Equal(t, domain.ProductIntraday, long.ProductType)

	short := bySymbol["TCS"]
	assert.Equal(t, domain.OrderSideBuy, short.Side)
	assert.Equal(t, 10, short.Quantity)
	assert.Equal(t, domain.ProductDelivery, short.ProductType)

	closes := journal.byStatus(domain.CopyStatusCopied)
	require.Len(t, closes, 2)
	for _, rec := range closes {
		assert.Equal(t, domain.CopyKindClose, rec.Kind)
	}
}

func TestKillSwitchFlatAccount(t *testing.T) {
	dialer := newStubDialer()
	dialer.sessions["CL1"] = &stubSession{}

	ks, journal, pub := newTestKillSwitch(dialer, []domain.SlaveAccount{activeAccount("CL1", 1)})
	results, err := ks.CloseAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Closed)

	require.Len(t, journal.byStatus(domain.CopyStatusNoPosition), 1)
	assert.Len(t, pub.byType("close_skipped"), 1)
}

func TestKillSwitchAccountsIndependent(t *testing.T) {
	dialer := newStubDialer()
	dialer.sessions["CL1"] = &stubSession{positions: []domain.Position{
		{Symbol: "RELIANCE", NetQuantity: 5, ProductType: domain.ProductIntraday},
	}}
	dialer.errs["CL2"] = errors.New("dial refused")

	ks, journal, _ := newTestKillSwitch(dialer, []domain.SlaveAccount{
		activeAccount("CL1", 1),
		activeAccount("CL2", 1),
	})

	results, err := ks.CloseAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	byClient := map[string]CloseResult{results[0].ClientID: results[0], results[1].ClientID: results[1]}
	assert.Equal(t, 1, byClient["CL1"].Closed)
	assert.NotEmpty(t, byClient["CL2"].Errors)

	require.Len(t, journal.byStatus(domain.CopyStatusSessionError), 1)
}

func TestKillSwitchSubmitFailure(t *testing.T) {
	dialer := newStubDialer()
	dialer.sessions["CL1"] = &stubSession{
		positions: []domain.Position{{Symbol: "RELIANCE", NetQuantity: 5, ProductType: domain.ProductIntraday}},
		submitErr: errors.New("market closed"),
	}

	ks, journal, pub := newTestKillSwitch(dialer, []domain.SlaveAccount{activeAccount("CL1", 1)})
	results, err := ks.CloseAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Failed)

	require.Len(t, journal.byStatus(domain.CopyStatusFailed), 1)
	assert.Len(t, pub.byType("close_failed"), 1)
}

func TestKillSwitchSkipsInactiveAccounts(t *testing.T) {
	dialer := newStubDialer()
	inactive := activeAccount("CL1", 1)
	inactive.Active = false

	ks, _, _ := newTestKillSwitch(dialer, []domain.SlaveAccount{inactive})
	results, err := ks.CloseAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, dialer.dialCount("CL1"))
}

package dhan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

func testCreds() domain.Credentials {
	return domain.Credentials{ClientID: "CL100", AccessToken: "tok-abc"}
}

func TestListOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "tok-abc", r.Header.Get("access-token"))
		assert.Equal(t, "CL100", r.Header.Get("client-id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"orderId":"112","tradingSymbol":"RELIANCE","securityId":"2885","exchangeSegment":"NSE_EQ","transactionType":"BUY","quantity":10,"orderType":"MARKET","productType":"INTRADAY","orderStatus":"TRADED"},
			{"orderId":"113","tradingSymbol":"TCS","securityId":"11536","exchangeSegment":"NSE_EQ","transactionType":"SELL","quantity":5,"orderType":"LIMIT","productType":"INTRADAY","orderStatus":"OPEN"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testCreds(), time.Second)
	orders, err := c.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "112", orders[0].OrderID)
	assert.Equal(t, domain.OrderSideBuy, orders[0].Side)
	assert.Equal(t, domain.StatusComplete, orders[0].Status)
	assert.True(t, orders[0].Complete())

	assert.Equal(t, domain.StatusOpen, orders[1].Status)
	assert.False(t, orders[1].Complete())
}

func TestListPositions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/positions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"tradingSymbol":"RELIANCE","securityId":"2885","exchangeSegment":"NSE_EQ","netQty":-20,"unrealizedProfit":-350.5,"productType":"INTRADAY"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testCreds(), time.Second)
	positions, err := c.ListPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)

	p := positions[0]
	assert.Equal(t, -20, p.NetQuantity)
	assert.Equal(t, 20, p.AbsQuantity())
	assert.Equal(t, domain.OrderSideBuy, p.ClosingSide())
	assert.False(t, p.Flat())
}

func TestSubmitOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "CL100", req["dhanClientId"])
		assert.Equal(t, "BUY", req["transactionType"])
		assert.Equal(t, float64(15), req["quantity"])
		assert.Equal(t, "MARKET", req["orderType"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"orderId":"9001","orderStatus":"PENDING"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testCreds(), time.Second)
	id, err := c.SubmitOrder(context.Background(), domain.OrderSpec{
		Symbol:      "RELIANCE",
		SecurityID:  "2885",
		Exchange:    "NSE_EQ",
		Side:        domain.OrderSideBuy,
		OrderType:   domain.OrderTypeMarket,
		ProductType: domain.ProductIntraday,
		Validity:    domain.ValidityDay,
		Quantity:    15,
	})
	require.NoError(t, err)
	assert.Equal(t, "9001", id)
}

func TestSubmitOrderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"orderId":"9002","orderStatus":"REJECTED"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testCreds(), time.Second)
	_, err := c.SubmitOrder(context.Background(), domain.OrderSpec{Quantity: 1})
	assert.ErrorContains(t, err, "rejected")
}

func TestUnauthorizedMapsToDomainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errorType":"Invalid_Authentication","errorCode":"DH-901","errorMessage":"token expired"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testCreds(), time.Second)
	_, err := c.ListOrders(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestClosedSession(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", testCreds(), time.Second)
	c.Close()

	_, err := c.ListOrders(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
}

func TestDialerProbesToken(t *testing.T) {
	var probed bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed = true
		assert.Equal(t, "/positions", r.URL.Path)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	d := NewDialer(srv.URL, time.Second)
	sess, err := d.Dial(context.Background(), testCreds())
	require.NoError(t, err)
	defer sess.Close()
	assert.True(t, probed)
}

func TestDialerRejectsBadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := NewDialer(srv.URL, time.Second)
	_, err := d.Dial(context.Background(), testCreds())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestDialerRejectsEmptyCredentials(t *testing.T) {
	d := NewDialer("http://example.invalid", time.Second)
	_, err := d.Dial(context.Background(), domain.Credentials{})
	assert.Error(t, err)
}

// Package dhan is the REST client for the brokerage API. One Client is one
// authenticated account session; it implements domain.Session.
package dhan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

// Client is an authenticated REST session against one brokerage account.
type Client struct {
	baseURL     string
	clientID    string
	accessToken string
	httpClient  *http.Client
	closed      atomic.Bool
}

var _ domain.Session = (*Client)(nil)

// NewClient creates a session for the given account credentials.
//
// baseURL is the API root, e.g. "https://api.dhan.co/v2". timeout bounds each
// HTTP round trip; zero means 15s.
func NewClient(baseURL string, creds domain.Credentials, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:     baseURL,
		clientID:    creds.ClientID,
		accessToken: creds.AccessToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListOrders returns the account's current order book snapshot.
func (c *Client) ListOrders(ctx context.Context) ([]domain.MasterOrder, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/orders", nil)
	if err != nil {
		return nil, fmt.Errorf("dhan: list orders: %w", err)
	}

	var entries []orderEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("dhan: decode orders: %w", err)
	}

	orders := make([]domain.MasterOrder, 0, len(entries))
	for _, e := range entries {
		orders = append(orders, e.toMasterOrder())
	}
	return orders, nil
}

// ListPositions returns the account's open positions.
func (c *Client) ListPositions(ctx context.Context) ([]domain.Position, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/positions", nil)
	if err != nil {
		return nil, fmt.Errorf("dhan: list positions: %w", err)
	}

	var entries []positionEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("dhan: decode positions: %w", err)
	}

	positions := make([]domain.Position, 0, len(entries))
	for _, e := range entries {
		positions = append(positions, e.toPosition())
	}
	return positions, nil
}

// SubmitOrder places an order and returns the broker-assigned order ID.
func (c *Client) SubmitOrder(ctx context.Context, spec domain.OrderSpec) (string, error) {
	req := orderRequest{
		ClientID:        c.clientID,
		TradingSymbol:   spec.Symbol,
		SecurityID:      spec.SecurityID,
		ExchangeSegment: spec.Exchange,
		TransactionType: string(spec.Side),
		Quantity:        spec.Quantity,
		OrderType:       string(spec.OrderType),
		ProductType:     string(spec.ProductType),
		Validity:        string(spec.Validity),
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/orders", req)
	if err != nil {
		return "", fmt.Errorf("dhan: submit order: %w", err)
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("dhan: decode order response: %w", err)
	}
	if resp.OrderStatus == "REJECTED" {
		return "", fmt.Errorf("dhan: order %s rejected by broker", resp.OrderID)
	}

	return resp.OrderID, nil
}

// Close releases the session. Subsequent calls fail with ErrSessionClosed.
func (c *Client) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.httpClient.CloseIdleConnections()
	}
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doRequest builds, authenticates, sends, and reads an HTTP request against
// the brokerage API.
func (c *Client) doRequest(ctx context.Context, method, path string, reqBody any) ([]byte, error) {
	if c.closed.Load() {
		return nil, domain.ErrSessionClosed
	}

	var bodyReader io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	fullURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("access-token", c.accessToken)
	req.Header.Set("client-id", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := c.checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkStatus maps non-2xx HTTP status codes to appropriate errors.
// Authentication failures wrap domain.ErrUnauthorized so the session cache
// can recognise them and redial.
func (c *Client) checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s (%s)", domain.ErrUnauthorized, apiErr.ErrorMessage, apiErr.ErrorCode)
	case http.StatusNotFound:
		return fmt.Errorf("not found: %s (%s)", apiErr.ErrorMessage, apiErr.ErrorCode)
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limited: %s (%s)", apiErr.ErrorMessage, apiErr.ErrorCode)
	case http.StatusBadRequest:
		return fmt.Errorf("bad request: %s (%s)", apiErr.ErrorMessage, apiErr.ErrorCode)
	default:
		return fmt.Errorf("HTTP %d: %s (%s)", statusCode, apiErr.ErrorMessage, apiErr.ErrorCode)
	}
}

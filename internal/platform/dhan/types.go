package dhan

import (
	"github.com/alanyoungcy/copytrader/internal/domain"
)

// orderEntry is one row of the broker's GET /orders response.
type orderEntry struct {
	OrderID         string `json:"orderId"`
	TradingSymbol   string `json:"tradingSymbol"`
	SecurityID      string `json:"securityId"`
	ExchangeSegment string `json:"exchangeSegment"`
	TransactionType string `json:"transactionType"`
	Quantity        int    `json:"quantity"`
	OrderType       string `json:"orderType"`
	ProductType     string `json:"productType"`
	OrderStatus     string `json:"orderStatus"`
}

// positionEntry is one row of the broker's GET /positions response.
type positionEntry struct {
	TradingSymbol   string  `json:"tradingSymbol"`
	SecurityID      string  `json:"securityId"`
	ExchangeSegment string  `json:"exchangeSegment"`
	NetQty          int     `json:"netQty"`
	UnrealizedPnL   float64 `json:"unrealizedProfit"`
	ProductType     string  `json:"productType"`
}

// orderRequest is the POST /orders payload.
type orderRequest struct {
	ClientID        string `json:"dhanClientId"`
	TradingSymbol   string `json:"tradingSymbol"`
	SecurityID      string `json:"securityId"`
	ExchangeSegment string `json:"exchangeSegment"`
	TransactionType string `json:"transactionType"`
	Quantity        int    `json:"quantity"`
	OrderType       string `json:"orderType"`
	ProductType     string `json:"productType"`
	Validity        string `json:"validity"`
}

// orderResponse is the POST /orders response body.
type orderResponse struct {
	OrderID     string `json:"orderId"`
	OrderStatus string `json:"orderStatus"`
}

// errorResponse is the broker's error envelope for non-2xx responses.
type errorResponse struct {
	ErrorType    string `json:"errorType"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// toMasterOrder converts a wire order entry into the domain snapshot type.
func (e orderEntry) toMasterOrder() domain.MasterOrder {
	return domain.MasterOrder{
		OrderID:    e.OrderID,
		Symbol:     e.TradingSymbol,
		SecurityID: e.SecurityID,
		Exchange:   e.ExchangeSegment,
		Side:       domain.OrderSide(e.TransactionType),
		Quantity:   e.Quantity,
		Status:     mapOrderStatus(e.OrderStatus),
	}
}

// toPosition converts a wire position entry into the domain type.
func (e positionEntry) toPosition() domain.Position {
	return domain.Position{
		Symbol:        e.TradingSymbol,
		SecurityID:    e.SecurityID,
		Exchange:      e.ExchangeSegment,
		NetQuantity:   e.NetQty,
		UnrealizedPnL: e.UnrealizedPnL,
		ProductType:   domain.ProductType(e.ProductType),
	}
}

// mapOrderStatus normalises the broker's status vocabulary onto the domain's.
// The broker reports fully executed orders as TRADED.
func mapOrderStatus(s string) domain.OrderStatus {
	switch s {
	case "TRADED", "COMPLETE":
		return domain.StatusComplete
	case "PENDING", "TRANSIT":
		return domain.StatusPending
	case "OPEN", "PART_TRADED":
		return domain.StatusOpen
	case "REJECTED":
		return domain.StatusRejected
	case "CANCELLED":
		return domain.StatusCancelled
	default:
		return domain.OrderStatus(s)
	}
}

package domain

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Opposite returns the closing side for exposure opened on this side.
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}
	return OrderSideBuy
}

// OrderType is the broker order type. The engine only ever submits market
// orders; limit exists so the broker client can decode full order books.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// ProductType is the broker product bucket an order settles under.
type ProductType string

const (
	ProductIntraday ProductType = "INTRADAY"
	ProductDelivery ProductType = "DELIVERY"
)

// Validity is the order's time-in-force.
type Validity string

const (
	ValidityDay Validity = "DAY"
	ValidityIOC Validity = "IOC"
)

// OrderStatus is the broker-reported lifecycle state of an order. The set is
// broker-defined; the engine only ever acts on StatusComplete.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusOpen      OrderStatus = "OPEN"
	StatusComplete  OrderStatus = "COMPLETE"
	StatusRejected  OrderStatus = "REJECTED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// MasterOrder is an immutable snapshot of one order from the master account's
// order book. It is created by polling, never mutated, and discarded once the
// fan-out for it has been started.
type MasterOrder struct {
	OrderID    string
	Symbol     string
	SecurityID string // exchange token for the instrument
	Exchange   string
	Side       OrderSide
	Quantity   int
	Status     OrderStatus
}

// Complete reports whether the order has fully executed on the master account.
func (o MasterOrder) Complete() bool {
	return o.Status == StatusComplete
}

// OrderSpec is the payload submitted to a slave account's session. Market
// orders carry no price.
type OrderSpec struct {
	Symbol      string
	SecurityID  string
	Exchange    string
	Side        OrderSide
	OrderType   OrderType
	ProductType ProductType
	Validity    Validity
	Quantity    int
}

package domain

// Position is one open position on an account as reported by the broker.
// NetQuantity is signed: positive long, negative short.
type Position struct {
	Symbol        string      `json:"symbol"`
	SecurityID    string      `json:"security_id"`
	Exchange      string      `json:"exchange"`
	NetQuantity   int         `json:"net_quantity"`
	UnrealizedPnL float64     `json:"unrealized_pnl"`
	ProductType   ProductType `json:"product_type"`
}

// Flat reports whether the position carries no net exposure.
func (p Position) Flat() bool {
	return p.NetQuantity == 0
}

// ClosingSide returns the side of the order that flattens this position.
func (p Position) ClosingSide() OrderSide {
	if p.NetQuantity > 0 {
		return OrderSideSell
	}
	return OrderSideBuy
}

// AbsQuantity returns the unsigned net quantity.
func (p Position) AbsQuantity() int {
	if p.NetQuantity < 0 {
		return -p.NetQuantity
	}
	return p.NetQuantity
}

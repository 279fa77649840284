package types

import "time"

// Side is the direction of an order or position.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the closing side for a position opened on this side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType distinguishes market from limit orders.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// OrderStatus is the state of a submitted order. SUBMITTED is the resting
// state for limit orders accepted by the exchange; the rest are terminal.
type OrderStatus string

const (
	OrderStatusSubmitted       OrderStatus = "SUBMITTED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusSubmittedFailed OrderStatus = "SUBMITTED_FAILED"
)

// PositionStatus tracks whether a position is still live.
type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "OPEN"
	PositionStatusClosed PositionStatus = "CLOSED"
)

// Order is a record of an order submitted through the exchange adapter.
type Order struct {
	ID              string
	Symbol          string
	Side            Side
	Type            OrderType
	Quantity        float64
	Price           float64
	ExchangeOrderID string
	Status          OrderStatus
	CreatedAt       time.Time
}

// Position is a live or settled trade. The risk manager exclusively owns
// the open-position table; everything else only reads snapshots.
type Position struct {
	ID              string
	Symbol          string
	Side            Side
	EntryPrice      float64
	Quantity        float64
	StopLossPrice   float64
	TakeProfitPrice float64
	OpenedAt        time.Time
	ClosedAt        *time.Time
	ExitPrice       float64
	RealizedPnL     float64
	Status          PositionStatus
}

// Notional returns the monetary size of the position at entry.
func (p Position) Notional() float64 {
	return p.EntryPrice * p.Quantity
}

// PnLPercent returns the realized profit or loss relative to entry
// notional. Zero for positions that are still open.
func (p Position) PnLPercent() float64 {
	if p.Status != PositionStatusClosed || p.EntryPrice == 0 || p.Quantity == 0 {
		return 0
	}
	return p.RealizedPnL / p.Notional() * 100
}

// Instrument describes exchange-side trading constraints for a symbol.
type Instrument struct {
	Symbol      string
	BaseCoin    string
	QuoteCoin   string
	MinOrderQty float64
	MaxOrderQty float64
	QtyStep     float64
	TickSize    float64
}

package types

import "time"

// OHLCV is a single candle. Sequences are ordered oldest first and are
// immutable once produced.
type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// Ticker is a point-in-time price snapshot for a symbol.
type Ticker struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp time.Time
}

// Balance holds the funds of a single currency. Quantities are never
// negative.
type Balance struct {
	Asset  string
	Free   float64
	Locked float64
}

// Total returns free plus locked funds.
func (b Balance) Total() float64 {
	return b.Free + b.Locked
}

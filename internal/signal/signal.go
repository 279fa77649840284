package signal

import (
	"fmt"
	"time"
)

// Direction is the trading decision of an evaluation.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionHold Direction = "HOLD"
)

// Factor records one scoring rule that fired during an evaluation, for
// audit logging.
type Factor struct {
	Rule      string    `json:"rule"`
	Direction Direction `json:"direction"`
	Points    float64   `json:"points"`
}

// Signal is the outcome of one evaluation cycle. Signals are produced
// fresh every cycle and only logged, never persisted as authoritative
// state.
type Signal struct {
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	Score     float64   `json:"score"`
	BuyScore  float64   `json:"buy_score"`
	SellScore float64   `json:"sell_score"`
	Factors   []Factor  `json:"factors"`
	Timestamp time.Time `json:"timestamp"`
}

// InsufficientDataError reports a candle series shorter than the engine's
// lookback window. The cycle is skipped and retried once more history
// accumulates.
type InsufficientDataError struct {
	Need int
	Have int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient candle history: need %d, have %d", e.Need, e.Have)
}

package risk

import (
	"time"

	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// RejectionReason is a machine-readable code explaining why an intent
// was refused. Rejections are ordinary outcomes, not errors.
type RejectionReason string

const (
	ReasonDailyTradeLimit   RejectionReason = "DAILY_TRADE_LIMIT"
	ReasonMaxPositions      RejectionReason = "MAX_POSITIONS"
	ReasonDailyLossLimit    RejectionReason = "DAILY_LOSS_LIMIT"
	ReasonDuplicatePosition RejectionReason = "DUPLICATE_POSITION"
	ReasonBelowMinOrderSize RejectionReason = "BELOW_MIN_ORDER_SIZE"
)

// Intent is a trade candidate produced by the signal engine, before
// sizing and gating.
type Intent struct {
	Symbol string
	Side   types.Side
	Price  float64 // reference price used for sizing
	Score  float64
}

// Approval is a sized, gated trade ready for submission. Issuing one
// reserves the symbol's position slot until ConfirmFill or
// ReleaseReservation.
type Approval struct {
	Symbol          string
	Side            types.Side
	Quantity        float64
	EntryPrice      float64
	StopLossPrice   float64
	TakeProfitPrice float64
}

// Rejection explains a refused intent.
type Rejection struct {
	Symbol string
	Reason RejectionReason
	Detail string
}

// DailyCounters tracks per-UTC-day trading activity. Date is the UTC
// calendar day the counters belong to; they reset when it rolls over.
type DailyCounters struct {
	Date        string  `json:"date"` // YYYY-MM-DD, UTC
	TradeCount  int     `json:"trade_count"`
	RealizedPnL float64 `json:"realized_pnl"`
}

// DayKey formats a time as the UTC calendar day used in DailyCounters.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

package risk

import "fmt"

// Limits holds the portfolio-wide risk configuration. Percentages are
// fractions (0.05 = 5%).
type Limits struct {
	MaxPositionSizePct float64 `json:"max_position_size_pct"`
	StopLossPct        float64 `json:"stop_loss_pct"`
	TakeProfitPct      float64 `json:"take_profit_pct"`
	MaxDailyTrades     int     `json:"max_daily_trades"`
	MaxOpenPositions   int     `json:"max_open_positions"`
	MaxDailyLossPct    float64 `json:"max_daily_loss_pct"`
}

// DefaultLimits returns conservative defaults suitable for a small
// account.
func DefaultLimits() Limits {
	return Limits{
		MaxPositionSizePct: 0.05,
		StopLossPct:        0.02,
		TakeProfitPct:      0.04,
		MaxDailyTrades:     10,
		MaxOpenPositions:   3,
		MaxDailyLossPct:    0.03,
	}
}

// Validate rejects configurations that would make the manager approve
// unbounded or zero-sized trades.
func (l Limits) Validate() error {
	if l.MaxPositionSizePct <= 0 || l.MaxPositionSizePct > 1 {
		return fmt.Errorf("max_position_size_pct must be in (0, 1], got %v", l.MaxPositionSizePct)
	}
	if l.StopLossPct <= 0 || l.StopLossPct >= 1 {
		return fmt.Errorf("stop_loss_pct must be in (0, 1), got %v", l.StopLossPct)
	}
	if l.TakeProfitPct <= 0 {
		return fmt.Errorf("take_profit_pct must be positive, got %v", l.TakeProfitPct)
	}
	if l.MaxDailyTrades <= 0 {
		return fmt.Errorf("max_daily_trades must be positive, got %d", l.MaxDailyTrades)
	}
	if l.MaxOpenPositions <= 0 {
		return fmt.Errorf("max_open_positions must be positive, got %d", l.MaxOpenPositions)
	}
	if l.MaxDailyLossPct <= 0 || l.MaxDailyLossPct >= 1 {
		return fmt.Errorf("max_daily_loss_pct must be in (0, 1), got %v", l.MaxDailyLossPct)
	}
	return nil
}

package indicators

import (
	"errors"

	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// ErrInsufficientData is returned when a candle series is shorter than an
// indicator's required period.
var ErrInsufficientData = errors.New("insufficient data for indicator calculation")

// EMA computes the Exponential Moving Average over close prices. All
// calculations are full-series recomputations so that identical input
// always yields identical output.
type EMA struct {
	period int
	alpha  float64
}

// NewEMA creates a new EMA indicator.
func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1),
	}
}

// Calculate returns the EMA of the latest candle.
func (e *EMA) Calculate(data []types.OHLCV) (float64, error) {
	series, err := e.Series(closes(data))
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

// Series returns the EMA for every index starting at period-1. The first
// value is seeded with the SMA of the first period values, the standard
// initialization.
func (e *EMA) Series(values []float64) ([]float64, error) {
	if len(values) < e.period {
		return nil, ErrInsufficientData
	}

	sum := 0.0
	for i := 0; i < e.period; i++ {
		sum += values[i]
	}

	series := make([]float64, 0, len(values)-e.period+1)
	prev := sum / float64(e.period)
	series = append(series, prev)

	for i := e.period; i < len(values); i++ {
		prev = values[i]*e.alpha + prev*(1-e.alpha)
		series = append(series, prev)
	}

	return series, nil
}

// RequiredPeriods returns the minimum number of candles needed.
func (e *EMA) RequiredPeriods() int {
	return e.period
}

func closes(data []types.OHLCV) []float64 {
	out := make([]float64, len(data))
	for i, d := range data {
		out[i] = d.Close
	}
	return out
}

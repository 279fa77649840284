package indicators

import (
	"math"

	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// BollingerValue holds the three bands for one candle.
type BollingerValue struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// BollingerBands computes the Bollinger Bands volatility envelope.
type BollingerBands struct {
	period int
	stdDev float64
}

// NewBollingerBands creates a new Bollinger Bands indicator with the
// given period and standard deviation multiplier.
func NewBollingerBands(period int, stdDev float64) *BollingerBands {
	return &BollingerBands{period: period, stdDev: stdDev}
}

// Calculate returns the bands around the latest candle.
func (bb *BollingerBands) Calculate(data []types.OHLCV) (BollingerValue, error) {
	if len(data) < bb.period {
		return BollingerValue{}, ErrInsufficientData
	}

	recent := closes(data[len(data)-bb.period:])

	sum := 0.0
	for _, p := range recent {
		sum += p
	}
	middle := sum / float64(bb.period)

	variance := 0.0
	for _, p := range recent {
		variance += (p - middle) * (p - middle)
	}
	sd := math.Sqrt(variance / float64(bb.period))

	return BollingerValue{
		Upper:  middle + bb.stdDev*sd,
		Middle: middle,
		Lower:  middle - bb.stdDev*sd,
	}, nil
}

// RequiredPeriods returns the minimum number of candles needed.
func (bb *BollingerBands) RequiredPeriods() int {
	return bb.period
}

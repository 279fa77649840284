package indicators

import "github.com/quangdle/crypto-signal-bot/pkg/types"

// MACDValue holds the three MACD components for one candle.
type MACDValue struct {
	Line      float64
	Signal    float64
	Histogram float64
}

// MACD computes the Moving Average Convergence Divergence indicator.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
}

// NewMACD creates a new MACD indicator with the given fast, slow and
// signal periods (conventionally 12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signal),
	}
}

// Calculate returns the MACD components of the latest candle.
func (m *MACD) Calculate(data []types.OHLCV) (MACDValue, error) {
	series, err := m.Series(data)
	if err != nil {
		return MACDValue{}, err
	}
	return series[len(series)-1], nil
}

// Series returns MACD values for the tail of the candle series where all
// three components are defined.
func (m *MACD) Series(data []types.OHLCV) ([]MACDValue, error) {
	if len(data) < m.RequiredPeriods() {
		return nil, ErrInsufficientData
	}

	prices := closes(data)
	fastSeries, err := m.fast.Series(prices)
	if err != nil {
		return nil, err
	}
	slowSeries, err := m.slow.Series(prices)
	if err != nil {
		return nil, err
	}

	// Align the fast series to the slow one; the slow EMA starts later.
	offset := len(fastSeries) - len(slowSeries)
	macdLine := make([]float64, len(slowSeries))
	for i := range slowSeries {
		macdLine[i] = fastSeries[i+offset] - slowSeries[i]
	}

	signalSeries, err := m.signal.Series(macdLine)
	if err != nil {
		return nil, err
	}

	lineOffset := len(macdLine) - len(signalSeries)
	out := make([]MACDValue, len(signalSeries))
	for i := range signalSeries {
		line := macdLine[i+lineOffset]
		out[i] = MACDValue{
			Line:      line,
			Signal:    signalSeries[i],
			Histogram: line - signalSeries[i],
		}
	}

	return out, nil
}

// RequiredPeriods returns the minimum number of candles needed.
func (m *MACD) RequiredPeriods() int {
	return m.slow.RequiredPeriods() + m.signal.RequiredPeriods()
}

package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// generateTestData builds a rising price series for indicator tests.
func generateTestData(count int) []types.OHLCV {
	data := make([]types.OHLCV, count)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		price := 100.0 + float64(i)
		data[i] = types.OHLCV{
			Open:      price - 0.5,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    1000,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return data
}

func TestNewEMA(t *testing.T) {
	ema := NewEMA(9)

	assert.NotNil(t, ema)
	assert.Equal(t, 9, ema.period)
	assert.InDelta(t, 0.2, ema.alpha, 0.0001)
}

func TestEMA_Calculate_InsufficientData(t *testing.T) {
	ema := NewEMA(21)
	data := generateTestData(10)

	_, err := ema.Calculate(data)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEMA_Calculate_ExactPeriod(t *testing.T) {
	ema := NewEMA(5)
	data := generateTestData(5)

	value, err := ema.Calculate(data)
	require.NoError(t, err)

	// With exactly period candles the EMA equals the seed SMA.
	expectedSum := 0.0
	for _, d := range data {
		expectedSum += d.Close
	}
	assert.InDelta(t, expectedSum/5.0, value, 0.0001)
}

func TestEMA_Calculate_TrendsWithPrices(t *testing.T) {
	ema := NewEMA(9)
	data := generateTestData(50)

	value, err := ema.Calculate(data)
	require.NoError(t, err)

	// Rising series: EMA lags below the last close but above the SMA seed.
	last := data[len(data)-1].Close
	assert.Less(t, value, last)
	assert.Greater(t, value, data[0].Close)
}

func TestEMA_Calculate_Deterministic(t *testing.T) {
	ema := NewEMA(9)
	data := generateTestData(50)

	first, err := ema.Calculate(data)
	require.NoError(t, err)
	second, err := ema.Calculate(data)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEMA_Series_Length(t *testing.T) {
	ema := NewEMA(5)
	series, err := ema.Series([]float64{1, 2, 3, 4, 5, 6, 7})
	require.NoError(t, err)

	assert.Len(t, series, 3)
}

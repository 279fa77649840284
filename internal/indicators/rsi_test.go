package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

func TestRSI_Calculate_InsufficientData(t *testing.T) {
	rsi := NewRSI(14)
	data := generateTestData(14) // needs period+1

	_, err := rsi.Calculate(data)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRSI_Calculate_AllGains(t *testing.T) {
	rsi := NewRSI(14)
	data := generateTestData(30) // strictly rising

	value, err := rsi.Calculate(data)
	require.NoError(t, err)

	assert.Equal(t, 100.0, value)
}

func TestRSI_Calculate_AllLosses(t *testing.T) {
	rsi := NewRSI(14)

	data := make([]types.OHLCV, 30)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range data {
		data[i] = types.OHLCV{
			Close:     200.0 - float64(i),
			Volume:    1000,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
	}

	value, err := rsi.Calculate(data)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, value, 0.0001)
}

func TestRSI_Calculate_Bounded(t *testing.T) {
	rsi := NewRSI(14)

	// Alternating gains and losses keep RSI near the middle.
	data := make([]types.OHLCV, 40)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range data {
		price := 100.0
		if i%2 == 1 {
			price = 101.0
		}
		data[i] = types.OHLCV{
			Close:     price,
			Volume:    1000,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
	}

	value, err := rsi.Calculate(data)
	require.NoError(t, err)

	assert.Greater(t, value, 20.0)
	assert.Less(t, value, 80.0)
}

func TestRSI_RequiredPeriods(t *testing.T) {
	assert.Equal(t, 15, NewRSI(14).RequiredPeriods())
}

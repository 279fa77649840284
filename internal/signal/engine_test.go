package signal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// flatCandles returns count candles at a constant price and volume.
func flatCandles(count int, price, volume float64) []types.OHLCV {
	data := make([]types.OHLCV, count)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		data[i] = types.OHLCV{
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    volume,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return data
}

func TestEngine_Evaluate_InsufficientData(t *testing.T) {
	engine := NewEngine(Config{})
	data := flatCandles(30, 100, 1000)

	_, err := engine.Evaluate("BTC/USDT", data)
	require.Error(t, err)

	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 50, insufficient.Need)
	assert.Equal(t, 30, insufficient.Have)
}

func TestEngine_Evaluate_Deterministic(t *testing.T) {
	engine := NewEngine(Config{})
	data := flatCandles(50, 100, 1000)
	data[49].Close = 110
	data[49].Volume = 5000

	first, err := engine.Evaluate("BTC/USDT", data)
	require.NoError(t, err)
	second, err := engine.Evaluate("BTC/USDT", data)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// A sharp breakout candle after a flat series fires trend alignment,
// the MACD bullish cross and the volume surge for the buy side, while
// the sell side collects only the overbought RSI, band break and volume
// surge. Buy wins 65 to 55.
func TestEngine_Evaluate_BreakoutProducesBuy(t *testing.T) {
	engine := NewEngine(Config{})
	data := flatCandles(50, 100, 1000)
	data[49].Close = 110
	data[49].High = 110
	data[49].Volume = 5000

	sig, err := engine.Evaluate("BTC/USDT", data)
	require.NoError(t, err)

	assert.Equal(t, DirectionBuy, sig.Direction)
	assert.Equal(t, 65.0, sig.BuyScore)
	assert.Equal(t, 55.0, sig.SellScore)
	assert.Equal(t, 65.0, sig.Score)
	assert.Equal(t, data[49].Timestamp, sig.Timestamp)
}

func TestEngine_Evaluate_QuietMarketHolds(t *testing.T) {
	engine := NewEngine(Config{})
	data := flatCandles(50, 100, 1000)
	// Tiny ripple so RSI sees both gains and losses.
	for i := range data {
		if i%2 == 0 {
			data[i].Close += 0.01
		}
	}

	sig, err := engine.Evaluate("BTC/USDT", data)
	require.NoError(t, err)

	assert.Equal(t, DirectionHold, sig.Direction)
	assert.Less(t, sig.BuyScore, engine.cfg.EntryThreshold)
}

// Equal scores on both sides hold even above the entry threshold. With
// only the volume surge weighted, both sides score identically.
func TestEngine_Evaluate_TieHolds(t *testing.T) {
	engine := NewEngine(Config{
		EntryThreshold: 20,
		Weights:        Weights{VolumeSurge: 20},
	})
	data := flatCandles(50, 100, 1000)
	data[49].Volume = 5000

	sig, err := engine.Evaluate("BTC/USDT", data)
	require.NoError(t, err)

	assert.Equal(t, DirectionHold, sig.Direction)
	assert.Equal(t, sig.BuyScore, sig.SellScore)
	assert.Equal(t, 20.0, sig.BuyScore)
}

func TestEngine_Lookback_Default(t *testing.T) {
	assert.Equal(t, 50, NewEngine(Config{}).Lookback())
	assert.Equal(t, 100, NewEngine(Config{Lookback: 100}).Lookback())
}

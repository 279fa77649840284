package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

var testInstrument = types.Instrument{
	Symbol:      "BTC/USDT",
	BaseCoin:    "BTC",
	QuoteCoin:   "USDT",
	MinOrderQty: 0.001,
	QtyStep:     0.001,
}

func newTestManager(t *testing.T, limits Limits) *Manager {
	t.Helper()
	m, err := NewManager(limits, zap.NewNop())
	require.NoError(t, err)
	return m
}

func buyIntent(symbol string, price float64) Intent {
	return Intent{Symbol: symbol, Side: types.SideBuy, Price: price, Score: 75}
}

func TestNewManager_InvalidLimits(t *testing.T) {
	_, err := NewManager(Limits{}, zap.NewNop())
	assert.Error(t, err)
}

func TestEvaluateIntent_ApprovesAndSizes(t *testing.T) {
	m := newTestManager(t, DefaultLimits())

	approval, rejection := m.EvaluateIntent(buyIntent("BTC/USDT", 50000), 10000, testInstrument)
	require.Nil(t, rejection)
	require.NotNil(t, approval)

	// 10000 * 5% / 50000 = 0.01, already on the step grid.
	assert.InDelta(t, 0.01, approval.Quantity, 1e-9)
	assert.InDelta(t, 49000, approval.StopLossPrice, 0.01)
	assert.InDelta(t, 52000, approval.TakeProfitPrice, 0.01)
}

func TestEvaluateIntent_SellProtectionMirrored(t *testing.T) {
	m := newTestManager(t, DefaultLimits())

	approval, rejection := m.EvaluateIntent(Intent{
		Symbol: "BTC/USDT", Side: types.SideSell, Price: 50000,
	}, 10000, testInstrument)
	require.Nil(t, rejection)

	assert.InDelta(t, 51000, approval.StopLossPrice, 0.01)
	assert.InDelta(t, 48000, approval.TakeProfitPrice, 0.01)
}

func TestEvaluateIntent_BelowMinOrderSize(t *testing.T) {
	m := newTestManager(t, DefaultLimits())

	// 100 * 5% / 50000 = 0.0001, floored to zero on a 0.001 step.
	_, rejection := m.EvaluateIntent(buyIntent("BTC/USDT", 50000), 100, testInstrument)
	require.NotNil(t, rejection)
	assert.Equal(t, ReasonBelowMinOrderSize, rejection.Reason)
}

func TestEvaluateIntent_DailyTradeLimit(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxDailyTrades = 1
	m := newTestManager(t, limits)

	approval, rejection := m.EvaluateIntent(buyIntent("BTC/USDT", 50000), 10000, testInstrument)
	require.Nil(t, rejection)
	m.ConfirmFill(approval, 50000)

	_, rejection = m.EvaluateIntent(buyIntent("ETH/USDT", 3000), 10000, testInstrument)
	require.NotNil(t, rejection)
	assert.Equal(t, ReasonDailyTradeLimit, rejection.Reason)
}

func TestEvaluateIntent_MaxPositionsCountsReservations(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxOpenPositions = 1
	m := newTestManager(t, limits)

	// Reservation alone blocks the next intent, before any fill.
	_, rejection := m.EvaluateIntent(buyIntent("BTC/USDT", 50000), 10000, testInstrument)
	require.Nil(t, rejection)

	_, rejection = m.EvaluateIntent(buyIntent("ETH/USDT", 3000), 10000, testInstrument)
	require.NotNil(t, rejection)
	assert.Equal(t, ReasonMaxPositions, rejection.Reason)

	// Releasing the slot unblocks.
	m.ReleaseReservation("BTC/USDT")
	_, rejection = m.EvaluateIntent(buyIntent("ETH/USDT", 3000), 10000, testInstrument)
	assert.Nil(t, rejection)
}

func TestEvaluateIntent_DuplicatePosition(t *testing.T) {
	m := newTestManager(t, DefaultLimits())

	approval, _ := m.EvaluateIntent(buyIntent("BTC/USDT", 50000), 10000, testInstrument)
	m.ConfirmFill(approval, 50000)

	_, rejection := m.EvaluateIntent(buyIntent("BTC/USDT", 50000), 10000, testInstrument)
	require.NotNil(t, rejection)
	assert.Equal(t, ReasonDuplicatePosition, rejection.Reason)
}

func TestEvaluateIntent_DailyLossLimit(t *testing.T) {
	m := newTestManager(t, DefaultLimits())

	approval, _ := m.EvaluateIntent(buyIntent("BTC/USDT", 50000), 10000, testInstrument)
	m.ConfirmFill(approval, 50000)

	// Close far below the stop: realized loss 0.01 * 40000 = -400,
	// beyond the 3% of 10000 daily limit.
	_, err := m.ClosePosition("BTC/USDT", 10000)
	require.NoError(t, err)

	_, rejection := m.EvaluateIntent(buyIntent("ETH/USDT", 3000), 10000, testInstrument)
	require.NotNil(t, rejection)
	assert.Equal(t, ReasonDailyLossLimit, rejection.Reason)
}

func TestConfirmFill_UsesFillPrice(t *testing.T) {
	m := newTestManager(t, DefaultLimits())

	approval, _ := m.EvaluateIntent(buyIntent("BTC/USDT", 50000), 10000, testInstrument)
	position := m.ConfirmFill(approval, 50500)

	assert.Equal(t, 50500.0, position.EntryPrice)
	assert.InDelta(t, 50500*0.98, position.StopLossPrice, 0.01)
	assert.Equal(t, types.PositionStatusOpen, position.Status)
	assert.Equal(t, 1, m.Counters().TradeCount)
}

func TestClosePosition_SettlesPnL(t *testing.T) {
	m := newTestManager(t, DefaultLimits())

	approval, _ := m.EvaluateIntent(buyIntent("BTC/USDT", 50000), 10000, testInstrument)
	m.ConfirmFill(approval, 50000)

	closed, err := m.ClosePosition("BTC/USDT", 52000)
	require.NoError(t, err)

	assert.Equal(t, types.PositionStatusClosed, closed.Status)
	assert.InDelta(t, 0.01*2000, closed.RealizedPnL, 0.0001)
	assert.Empty(t, m.OpenPositions())
	assert.InDelta(t, 20.0, m.Counters().RealizedPnL, 0.0001)
}

func TestClosePosition_NoPosition(t *testing.T) {
	m := newTestManager(t, DefaultLimits())
	_, err := m.ClosePosition("BTC/USDT", 50000)
	assert.Error(t, err)
}

func TestDailyCounters_ResetAtUTCMidnight(t *testing.T) {
	m := newTestManager(t, DefaultLimits())

	now := time.Date(2025, 6, 1, 23, 50, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	approval, _ := m.EvaluateIntent(buyIntent("BTC/USDT", 50000), 10000, testInstrument)
	m.ConfirmFill(approval, 50000)
	assert.Equal(t, 1, m.Counters().TradeCount)

	now = now.Add(20 * time.Minute) // past midnight
	counters := m.Counters()
	assert.Equal(t, 0, counters.TradeCount)
	assert.Equal(t, "2025-06-02", counters.Date)
}

func TestRestore_SeedsState(t *testing.T) {
	m := newTestManager(t, DefaultLimits())

	m.Restore([]types.Position{
		{ID: "p1", Symbol: "BTC/USDT", Side: types.SideBuy, EntryPrice: 50000, Quantity: 0.01, Status: types.PositionStatusOpen},
		{ID: "p2", Symbol: "ETH/USDT", Status: types.PositionStatusClosed},
	}, DailyCounters{Date: DayKey(time.Now()), TradeCount: 4, RealizedPnL: -10})

	assert.Len(t, m.OpenPositions(), 1)
	assert.Equal(t, 4, m.Counters().TradeCount)

	_, rejection := m.EvaluateIntent(buyIntent("BTC/USDT", 50000), 10000, testInstrument)
	require.NotNil(t, rejection)
	assert.Equal(t, ReasonDuplicatePosition, rejection.Reason)
}

func TestRestore_IgnoresStaleCounters(t *testing.T) {
	m := newTestManager(t, DefaultLimits())

	m.Restore(nil, DailyCounters{Date: "2020-01-01", TradeCount: 9})
	assert.Equal(t, 0, m.Counters().TradeCount)
}

package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quangdle/crypto-signal-bot/internal/exchange"
	"github.com/quangdle/crypto-signal-bot/internal/notifications"
	"github.com/quangdle/crypto-signal-bot/internal/risk"
	"github.com/quangdle/crypto-signal-bot/internal/signal"
	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// fakeExchange is an in-memory Exchange for orchestrator tests.
type fakeExchange struct {
	mu        sync.Mutex
	connected bool

	candles    []types.OHLCV
	price      float64
	balances   map[string]types.Balance
	instrument types.Instrument

	placeOrderErr error
	fillPrice     float64
	orders        []exchange.OrderRequest

	klinesErr error

	tickerDelay    time.Duration
	tickerDeadline time.Time
	orderDeadline  time.Time
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		connected: true,
		price:     100,
		fillPrice: 100,
		balances: map[string]types.Balance{
			"USDT": {Asset: "USDT", Free: 10000},
		},
		instrument: types.Instrument{
			Symbol:      "BTC/USDT",
			BaseCoin:    "BTC",
			QuoteCoin:   "USDT",
			MinOrderQty: 0.001,
			QtyStep:     0.001,
		},
	}
}

func (f *fakeExchange) Name() string                      { return "fake" }
func (f *fakeExchange) Connect(ctx context.Context) error { f.connected = true; return nil }
func (f *fakeExchange) Disconnect() error                 { f.connected = false; return nil }
func (f *fakeExchange) IsConnected() bool                 { return f.connected }
func (f *fakeExchange) RefreshMarkets(ctx context.Context) error {
	return nil
}
func (f *fakeExchange) NormalizeSymbol(symbol string) string { return symbol }

func (f *fakeExchange) GetTicker(ctx context.Context, symbol string) (*types.Ticker, error) {
	f.mu.Lock()
	f.tickerDeadline, _ = ctx.Deadline()
	delay := f.tickerDelay
	f.mu.Unlock()
	time.Sleep(delay)
	return &types.Ticker{Symbol: symbol, Price: f.price, Timestamp: time.Now()}, nil
}

func (f *fakeExchange) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error) {
	if f.klinesErr != nil {
		return nil, f.klinesErr
	}
	return f.candles, nil
}

func (f *fakeExchange) GetOrderBook(ctx context.Context, symbol string, depth int) (*exchange.OrderBook, error) {
	return &exchange.OrderBook{Symbol: symbol}, nil
}

func (f *fakeExchange) GetInstrument(ctx context.Context, symbol string) (*types.Instrument, error) {
	in := f.instrument
	return &in, nil
}

func (f *fakeExchange) GetBalances(ctx context.Context) (map[string]types.Balance, error) {
	return f.balances, nil
}

func (f *fakeExchange) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (*types.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderDeadline, _ = ctx.Deadline()
	if f.placeOrderErr != nil {
		return nil, f.placeOrderErr
	}
	f.orders = append(f.orders, req)
	return &types.Order{
		ID:              "order-1",
		Symbol:          req.Symbol,
		Side:            req.Side,
		Type:            req.Type,
		Quantity:        req.Quantity,
		Price:           f.fillPrice,
		ExchangeOrderID: "ex-1",
		Status:          types.OrderStatusFilled,
		CreatedAt:       time.Now(),
	}, nil
}

func (f *fakeExchange) CancelOrder(ctx context.Context, symbol, orderID string) error {
	return nil
}

func (f *fakeExchange) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

// recordingNotifier captures events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Notify(event notifications.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) byType(t notifications.EventType) []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notifications.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// breakoutCandles produce a strong buy signal: a flat series with a
// final breakout candle on heavy volume.
func breakoutCandles() []types.OHLCV {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	data := make([]types.OHLCV, 50)
	for i := range data {
		data[i] = types.OHLCV{
			Open: 100, High: 100, Low: 100, Close: 100, Volume: 1000,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
	}
	data[49].Close = 110
	data[49].High = 110
	data[49].Volume = 5000
	return data
}

func newTestOrchestrator(t *testing.T, fake *fakeExchange, notifier *recordingNotifier) *Orchestrator {
	t.Helper()

	riskMgr, err := risk.NewManager(risk.DefaultLimits(), zap.NewNop())
	require.NoError(t, err)

	o, err := New(Config{
		Symbols:        []string{"BTC/USDT"},
		Interval:       "1m",
		PollInterval:   time.Hour, // cycles are driven manually
		RequestTimeout: time.Second,
	}, fake, signal.NewEngine(signal.Config{}), riskMgr, nil, notifier, nil, zap.NewNop())
	require.NoError(t, err)
	return o
}

func TestCycle_FilledOrderOpensPosition(t *testing.T) {
	fake := newFakeExchange()
	fake.candles = breakoutCandles()
	fake.price = 110
	fake.fillPrice = 110.5

	notifier := &recordingNotifier{}
	o := newTestOrchestrator(t, fake, notifier)

	o.tasks["BTC/USDT"].cycle(context.Background())

	require.Equal(t, 1, fake.orderCount())
	positions := o.riskMgr.OpenPositions()
	require.Len(t, positions, 1)
	assert.Equal(t, 110.5, positions[0].EntryPrice)
	assert.Equal(t, types.SideBuy, positions[0].Side)
	assert.Equal(t, types.PositionStatusOpen, positions[0].Status)

	assert.Len(t, notifier.byType(notifications.EventPositionOpened), 1)
}

func TestCycle_HoldPlacesNoOrder(t *testing.T) {
	fake := newFakeExchange()
	// Fully flat market: no rule reaches the entry threshold.
	fake.candles = breakoutCandles()
	fake.candles[49] = fake.candles[48]

	notifier := &recordingNotifier{}
	o := newTestOrchestrator(t, fake, notifier)

	o.tasks["BTC/USDT"].cycle(context.Background())

	assert.Zero(t, fake.orderCount())
	assert.Empty(t, o.riskMgr.OpenPositions())
}

func TestCycle_InsufficientFundsLeavesNoPosition(t *testing.T) {
	fake := newFakeExchange()
	fake.candles = breakoutCandles()
	fake.placeOrderErr = exchange.NewError(exchange.KindInsufficientFunds, "place_order", "balance too low")

	notifier := &recordingNotifier{}
	o := newTestOrchestrator(t, fake, notifier)

	o.tasks["BTC/USDT"].cycle(context.Background())

	assert.Empty(t, o.riskMgr.OpenPositions())
	assert.Len(t, notifier.byType(notifications.EventOrderRejected), 1)

	// The reservation was released: the next cycle can try again.
	fake.placeOrderErr = nil
	o.tasks["BTC/USDT"].cycle(context.Background())
	assert.Len(t, o.riskMgr.OpenPositions(), 1)
}

func TestCycle_RiskRejectionSkipsSubmission(t *testing.T) {
	fake := newFakeExchange()
	fake.candles = breakoutCandles()
	// No quote balance: sizing floors to zero.
	fake.balances = map[string]types.Balance{"USDT": {Asset: "USDT", Free: 1}}

	notifier := &recordingNotifier{}
	o := newTestOrchestrator(t, fake, notifier)

	o.tasks["BTC/USDT"].cycle(context.Background())

	assert.Zero(t, fake.orderCount())
	rejected := notifier.byType(notifications.EventOrderRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, string(risk.ReasonBelowMinOrderSize), rejected[0].Fields["reason"])
}

func TestCycle_BadSymbolDisablesTask(t *testing.T) {
	fake := newFakeExchange()
	fake.klinesErr = exchange.NewError(exchange.KindBadSymbol, "get_klines", "unknown pair")

	notifier := &recordingNotifier{}
	o := newTestOrchestrator(t, fake, notifier)

	task := o.tasks["BTC/USDT"]
	task.cycle(context.Background())

	assert.True(t, task.disabled)
	assert.Len(t, notifier.byType(notifications.EventError), 1)
}

func TestCycle_TakeProfitClosesPosition(t *testing.T) {
	fake := newFakeExchange()
	fake.candles = breakoutCandles()
	fake.price = 110
	fake.fillPrice = 110

	notifier := &recordingNotifier{}
	o := newTestOrchestrator(t, fake, notifier)

	task := o.tasks["BTC/USDT"]
	task.cycle(context.Background())
	require.Len(t, o.riskMgr.OpenPositions(), 1)

	// Price crosses the take profit (entry * 1.04).
	fake.price = 115
	fake.fillPrice = 115
	task.cycle(context.Background())

	assert.Empty(t, o.riskMgr.OpenPositions())
	require.Equal(t, 2, fake.orderCount())
	assert.Equal(t, types.SideSell, fake.orders[1].Side)

	closedEvents := notifier.byType(notifications.EventPositionClosed)
	require.Len(t, closedEvents, 1)
	assert.Equal(t, "take_profit", closedEvents[0].Fields["trigger"])
}

func TestCycle_StopLossClosesPosition(t *testing.T) {
	fake := newFakeExchange()
	fake.candles = breakoutCandles()
	fake.price = 110
	fake.fillPrice = 110

	notifier := &recordingNotifier{}
	o := newTestOrchestrator(t, fake, notifier)

	task := o.tasks["BTC/USDT"]
	task.cycle(context.Background())
	require.Len(t, o.riskMgr.OpenPositions(), 1)

	// Price falls through the stop (entry * 0.98).
	fake.price = 105
	fake.fillPrice = 105
	task.cycle(context.Background())

	assert.Empty(t, o.riskMgr.OpenPositions())
	closedEvents := notifier.byType(notifications.EventPositionClosed)
	require.Len(t, closedEvents, 1)
	assert.Equal(t, "stop_loss", closedEvents[0].Fields["trigger"])

	counters := o.riskMgr.Counters()
	assert.Negative(t, counters.RealizedPnL)
}

func TestCycle_CloseOrderGetsOwnTimeout(t *testing.T) {
	fake := newFakeExchange()
	fake.candles = breakoutCandles()
	fake.price = 110
	fake.fillPrice = 110

	notifier := &recordingNotifier{}
	o := newTestOrchestrator(t, fake, notifier)

	task := o.tasks["BTC/USDT"]
	task.cycle(context.Background())
	require.Len(t, o.riskMgr.OpenPositions(), 1)

	// A slow ticker fetch must not eat into the close order's deadline.
	fake.tickerDelay = 20 * time.Millisecond
	fake.price = 115
	fake.fillPrice = 115
	task.cycle(context.Background())

	require.Empty(t, o.riskMgr.OpenPositions())
	assert.True(t, fake.orderDeadline.After(fake.tickerDeadline),
		"close order deadline %v not after ticker deadline %v",
		fake.orderDeadline, fake.tickerDeadline)
}

func TestProtectionTrigger(t *testing.T) {
	long := &types.Position{Side: types.SideBuy, StopLossPrice: 98, TakeProfitPrice: 104}
	assert.Equal(t, "", protectionTrigger(long, 100))
	assert.Equal(t, "stop_loss", protectionTrigger(long, 98))
	assert.Equal(t, "take_profit", protectionTrigger(long, 104))

	short := &types.Position{Side: types.SideSell, StopLossPrice: 102, TakeProfitPrice: 96}
	assert.Equal(t, "", protectionTrigger(short, 100))
	assert.Equal(t, "stop_loss", protectionTrigger(short, 102))
	assert.Equal(t, "take_profit", protectionTrigger(short, 96))
}

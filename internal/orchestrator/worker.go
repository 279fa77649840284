package orchestrator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/quangdle/crypto-signal-bot/internal/exchange"
	"github.com/quangdle/crypto-signal-bot/internal/monitoring"
	"github.com/quangdle/crypto-signal-bot/internal/notifications"
	"github.com/quangdle/crypto-signal-bot/internal/risk"
	"github.com/quangdle/crypto-signal-bot/internal/signal"
	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// taskState tracks where a symbol worker is in its cycle. Exactly one
// submission can be in flight per symbol because the whole cycle runs
// on the worker's own goroutine.
type taskState string

const (
	stateIdle       taskState = "IDLE"
	stateEvaluating taskState = "EVALUATING"
	stateSizing     taskState = "SIZING"
	stateSubmitting taskState = "SUBMITTING"
	stateMonitoring taskState = "MONITORING"
)

type task struct {
	o      *Orchestrator
	symbol string
	state  taskState
	log    *zap.Logger

	disabled bool // set on BadSymbol, worker exits
}

func newTask(o *Orchestrator, symbol string) *task {
	return &task{
		o:      o,
		symbol: symbol,
		state:  stateIdle,
		log:    o.log.With(zap.String("symbol", symbol)),
	}
}

// run is the worker loop: one cycle per poll interval until stop.
func (t *task) run(ctx context.Context) {
	ticker := time.NewTicker(t.o.cfg.PollInterval)
	defer ticker.Stop()

	t.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.o.stopChan:
			return
		case <-ticker.C:
			if t.disabled {
				return
			}
			t.cycle(ctx)
		}
	}
}

// cycle runs one pass of the state machine. Positions already open go
// to the monitoring path; otherwise the symbol is evaluated for entry.
func (t *task) cycle(ctx context.Context) {
	defer func() { t.state = stateIdle }()

	if position := t.o.riskMgr.OpenPosition(t.symbol); position != nil {
		t.state = stateMonitoring
		t.monitorPosition(ctx, position)
		return
	}

	t.state = stateEvaluating
	sig, ok := t.evaluate(ctx)
	if !ok || sig.Direction == signal.DirectionHold {
		return
	}

	t.state = stateSizing
	approval, ok := t.size(ctx, sig)
	if !ok {
		return
	}

	t.state = stateSubmitting
	t.submit(ctx, approval)
}

// evaluate fetches candles and runs the signal engine.
func (t *task) evaluate(ctx context.Context) (*signal.Signal, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, t.o.cfg.RequestTimeout)
	defer cancel()

	candles, err := t.o.exchange.GetKlines(reqCtx, t.symbol, t.o.cfg.Interval, t.o.engine.Lookback())
	if err != nil {
		t.handleExchangeError("get_klines", err)
		return nil, false
	}

	sig, err := t.o.engine.Evaluate(t.symbol, candles)
	if err != nil {
		var insufficient *signal.InsufficientDataError
		if errors.As(err, &insufficient) {
			// Thin history for a new listing; try again next cycle.
			t.log.Debug("insufficient candle history",
				zap.Int("need", insufficient.Need),
				zap.Int("have", insufficient.Have))
			return nil, false
		}
		t.log.Error("signal evaluation failed", zap.Error(err))
		return nil, false
	}

	if len(candles) > 0 {
		price := candles[len(candles)-1].Close
		monitoring.UpdatePrice(t.symbol, price)
		if t.o.health != nil {
			t.o.health.RecordPoll(t.symbol, price)
		}
	}
	monitoring.UpdateSignalScore(t.symbol, string(signal.DirectionBuy), sig.BuyScore)
	monitoring.UpdateSignalScore(t.symbol, string(signal.DirectionSell), sig.SellScore)

	if sig.Direction != signal.DirectionHold {
		t.log.Info("entry signal",
			zap.String("direction", string(sig.Direction)),
			zap.Float64("score", sig.Score),
			zap.Int("factors", len(sig.Factors)))
	}
	return sig, true
}

// size turns a signal into a gated, sized approval. Equity is the free
// balance of the symbol's quote currency at evaluation time.
func (t *task) size(ctx context.Context, sig *signal.Signal) (*risk.Approval, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, t.o.cfg.RequestTimeout)
	defer cancel()

	ticker, err := t.o.exchange.GetTicker(reqCtx, t.symbol)
	if err != nil {
		t.handleExchangeError("get_ticker", err)
		return nil, false
	}

	instrument, err := t.o.exchange.GetInstrument(reqCtx, t.symbol)
	if err != nil {
		t.handleExchangeError("get_instrument", err)
		return nil, false
	}

	equity, err := t.quoteEquity(reqCtx)
	if err != nil {
		t.handleExchangeError("get_balances", err)
		return nil, false
	}

	side := types.SideBuy
	if sig.Direction == signal.DirectionSell {
		side = types.SideSell
	}

	approval, rejection := t.o.riskMgr.EvaluateIntent(risk.Intent{
		Symbol: t.symbol,
		Side:   side,
		Price:  ticker.Price,
		Score:  sig.Score,
	}, equity, *instrument)
	if rejection != nil {
		monitoring.RecordRejection(t.symbol, string(rejection.Reason))
		t.o.notifier.Notify(notifications.Event{
			Type:    notifications.EventOrderRejected,
			Symbol:  t.symbol,
			Message: "trade intent rejected",
			Fields: map[string]interface{}{
				"reason": string(rejection.Reason),
				"detail": rejection.Detail,
			},
		})
		return nil, false
	}
	return approval, true
}

// submit places the approved order and settles the outcome with the
// risk manager. The reservation made at approval is confirmed on fill
// and released on any failure.
func (t *task) submit(ctx context.Context, approval *risk.Approval) {
	reqCtx, cancel := context.WithTimeout(ctx, t.o.cfg.RequestTimeout)
	defer cancel()

	order, err := t.o.exchange.PlaceOrder(reqCtx, exchange.OrderRequest{
		Symbol:   approval.Symbol,
		Side:     approval.Side,
		Type:     types.OrderTypeMarket,
		Quantity: approval.Quantity,
	})
	if err != nil {
		t.o.riskMgr.ReleaseReservation(approval.Symbol)
		t.handleExchangeError("place_order", err)

		if exchange.IsInsufficientFunds(err) {
			t.o.notifier.Notify(notifications.Event{
				Type:    notifications.EventOrderRejected,
				Symbol:  t.symbol,
				Message: "order rejected by exchange",
				Fields:  map[string]interface{}{"reason": "INSUFFICIENT_FUNDS"},
			})
		}
		return
	}

	fillPrice := order.Price
	if fillPrice <= 0 {
		fillPrice = approval.EntryPrice
	}
	position := t.o.riskMgr.ConfirmFill(approval, fillPrice)

	monitoring.RecordTrade(t.symbol, string(position.Side))
	monitoring.SetOpenPositions(len(t.o.riskMgr.OpenPositions()))
	t.persist(ctx, position, order)

	t.o.notifier.Notify(notifications.Event{
		Type:    notifications.EventPositionOpened,
		Symbol:  t.symbol,
		Message: "position opened",
		Fields: map[string]interface{}{
			"side":        string(position.Side),
			"entry_price": position.EntryPrice,
			"quantity":    position.Quantity,
			"stop_loss":   position.StopLossPrice,
			"take_profit": position.TakeProfitPrice,
		},
	})
}

// monitorPosition checks the open position against its protective
// levels and closes it with a market order when either is crossed.
func (t *task) monitorPosition(ctx context.Context, position *types.Position) {
	tickerCtx, cancelTicker := context.WithTimeout(ctx, t.o.cfg.RequestTimeout)
	defer cancelTicker()

	ticker, err := t.o.exchange.GetTicker(tickerCtx, t.symbol)
	if err != nil {
		t.handleExchangeError("get_ticker", err)
		return
	}
	monitoring.UpdatePrice(t.symbol, ticker.Price)
	if t.o.health != nil {
		t.o.health.RecordPoll(t.symbol, ticker.Price)
	}

	trigger := protectionTrigger(position, ticker.Price)
	if trigger == "" {
		return
	}

	t.log.Info("protective level crossed",
		zap.String("trigger", trigger),
		zap.Float64("price", ticker.Price),
		zap.Float64("stop_loss", position.StopLossPrice),
		zap.Float64("take_profit", position.TakeProfitPrice))

	// The close order gets a full timeout of its own rather than whatever
	// the ticker fetch left over.
	orderCtx, cancelOrder := context.WithTimeout(ctx, t.o.cfg.RequestTimeout)
	defer cancelOrder()

	order, err := t.o.exchange.PlaceOrder(orderCtx, exchange.OrderRequest{
		Symbol:   t.symbol,
		Side:     position.Side.Opposite(),
		Type:     types.OrderTypeMarket,
		Quantity: position.Quantity,
	})
	if err != nil {
		// Position stays open; the next cycle retries the close.
		t.handleExchangeError("close_position", err)
		return
	}

	exitPrice := order.Price
	if exitPrice <= 0 {
		exitPrice = ticker.Price
	}
	closed, err := t.o.riskMgr.ClosePosition(t.symbol, exitPrice)
	if err != nil {
		t.log.Error("close settlement failed", zap.Error(err))
		return
	}

	monitoring.SetOpenPositions(len(t.o.riskMgr.OpenPositions()))
	t.persist(ctx, closed, order)

	t.o.notifier.Notify(notifications.Event{
		Type:    notifications.EventPositionClosed,
		Symbol:  t.symbol,
		Message: "position closed",
		Fields: map[string]interface{}{
			"trigger":      trigger,
			"exit_price":   closed.ExitPrice,
			"realized_pnl": closed.RealizedPnL,
		},
	})
}

// protectionTrigger names the crossed level, or empty when the
// position is still inside its band.
func protectionTrigger(position *types.Position, price float64) string {
	if position.Side == types.SideBuy {
		switch {
		case price <= position.StopLossPrice:
			return "stop_loss"
		case price >= position.TakeProfitPrice:
			return "take_profit"
		}
		return ""
	}
	switch {
	case price >= position.StopLossPrice:
		return "stop_loss"
	case price <= position.TakeProfitPrice:
		return "take_profit"
	}
	return ""
}

// quoteEquity returns the free balance of the symbol's quote currency.
func (t *task) quoteEquity(ctx context.Context) (float64, error) {
	balances, err := t.o.exchange.GetBalances(ctx)
	if err != nil {
		return 0, err
	}
	_, quote := exchange.SplitSymbol(t.symbol)
	return balances[quote].Free, nil
}

// persist writes the position and order, logging store failures instead
// of failing the trading path.
func (t *task) persist(ctx context.Context, position *types.Position, order *types.Order) {
	if t.o.store == nil {
		return
	}
	if err := t.o.store.SavePosition(ctx, position); err != nil {
		t.log.Error("persist position failed", zap.Error(err))
	}
	if order != nil {
		if err := t.o.store.SaveOrder(ctx, order); err != nil {
			t.log.Error("persist order failed", zap.Error(err))
		}
	}
	if err := t.o.store.SaveDailyCounters(ctx, t.o.riskMgr.Counters()); err != nil {
		t.log.Error("persist counters failed", zap.Error(err))
	}
}

// handleExchangeError applies the per-kind policy: bad symbols disable
// the worker, connection losses trigger a reconnect, everything else is
// logged and retried on the next cycle.
func (t *task) handleExchangeError(op string, err error) {
	kind := exchange.KindOf(err)
	monitoring.RecordExchangeError(string(kind))
	if t.o.health != nil {
		t.o.health.RecordError(err)
	}

	switch kind {
	case exchange.KindBadSymbol:
		t.disabled = true
		t.log.Error("symbol rejected by exchange, disabling worker",
			zap.String("op", op), zap.Error(err))
		t.o.notifier.Notify(notifications.Event{
			Type:    notifications.EventError,
			Symbol:  t.symbol,
			Message: "symbol disabled",
			Fields:  map[string]interface{}{"op": op, "error": err.Error()},
		})
	case exchange.KindConnection:
		t.log.Warn("connection lost, reconnecting", zap.String("op", op), zap.Error(err))
		if t.o.health != nil {
			t.o.health.SetConnected(false)
		}
		reconnectCtx, cancel := context.WithTimeout(context.Background(), t.o.cfg.RequestTimeout)
		defer cancel()
		if reconnectErr := t.o.exchange.Connect(reconnectCtx); reconnectErr != nil {
			t.log.Error("reconnect failed", zap.Error(reconnectErr))
			return
		}
		if t.o.health != nil {
			t.o.health.SetConnected(true)
		}
	default:
		t.log.Warn("exchange call failed",
			zap.String("op", op),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}

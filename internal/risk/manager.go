package risk

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// Manager is the single authority over position state and daily
// counters. Every decision happens under one mutex so that an approval
// and its slot reservation are atomic: two concurrent intents can never
// both pass the MAX_POSITIONS or DUPLICATE_POSITION gate.
type Manager struct {
	limits Limits
	log    *zap.Logger

	mu        sync.Mutex
	positions map[string]*types.Position // open positions by symbol
	reserved  map[string]bool            // symbols with an in-flight submission
	counters  DailyCounters

	now func() time.Time // overridable in tests
}

// NewManager creates a risk manager with empty state.
func NewManager(limits Limits, log *zap.Logger) (*Manager, error) {
	if err := limits.Validate(); err != nil {
		return nil, fmt.Errorf("risk limits: %w", err)
	}
	m := &Manager{
		limits:    limits,
		log:       log.Named("risk"),
		positions: make(map[string]*types.Position),
		reserved:  make(map[string]bool),
		now:       time.Now,
	}
	m.counters.Date = DayKey(m.now())
	return m, nil
}

// Restore seeds the manager with persisted state at startup. Positions
// not in OPEN status are ignored.
func (m *Manager) Restore(positions []types.Position, counters DailyCounters) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range positions {
		p := positions[i]
		if p.Status != types.PositionStatusOpen {
			continue
		}
		m.positions[p.Symbol] = &p
	}
	if counters.Date == DayKey(m.now()) {
		m.counters = counters
	}
}

// EvaluateIntent runs the gating chain, sizes the order and reserves
// the symbol's position slot on approval. Exactly one of the returns is
// non-nil. Gates short-circuit in a fixed order so a rejection always
// carries the first limit hit.
func (m *Manager) EvaluateIntent(intent Intent, equity float64, instrument types.Instrument) (*Approval, *Rejection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rollDay()

	if m.counters.TradeCount >= m.limits.MaxDailyTrades {
		return nil, m.reject(intent.Symbol, ReasonDailyTradeLimit,
			fmt.Sprintf("%d trades today, limit %d", m.counters.TradeCount, m.limits.MaxDailyTrades))
	}
	if len(m.positions)+len(m.reserved) >= m.limits.MaxOpenPositions {
		return nil, m.reject(intent.Symbol, ReasonMaxPositions,
			fmt.Sprintf("%d open and %d pending, limit %d", len(m.positions), len(m.reserved), m.limits.MaxOpenPositions))
	}
	if lossLimit := equity * m.limits.MaxDailyLossPct; m.counters.RealizedPnL <= -lossLimit {
		return nil, m.reject(intent.Symbol, ReasonDailyLossLimit,
			fmt.Sprintf("realized %.2f today, limit -%.2f", m.counters.RealizedPnL, lossLimit))
	}
	if m.positions[intent.Symbol] != nil || m.reserved[intent.Symbol] {
		return nil, m.reject(intent.Symbol, ReasonDuplicatePosition, "position already open or pending")
	}

	quantity := m.sizeOrder(equity, intent.Price, instrument)
	if quantity <= 0 {
		return nil, m.reject(intent.Symbol, ReasonBelowMinOrderSize,
			fmt.Sprintf("equity %.2f at price %.4f sizes below minimum %v", equity, intent.Price, instrument.MinOrderQty))
	}

	stopLoss, takeProfit := m.protectionPrices(intent.Side, intent.Price)

	m.reserved[intent.Symbol] = true
	return &Approval{
		Symbol:          intent.Symbol,
		Side:            intent.Side,
		Quantity:        quantity,
		EntryPrice:      intent.Price,
		StopLossPrice:   stopLoss,
		TakeProfitPrice: takeProfit,
	}, nil
}

// ConfirmFill converts a reservation into an open position and counts
// the trade. The fill price from the exchange supersedes the sizing
// reference price.
func (m *Manager) ConfirmFill(approval *Approval, fillPrice float64) *types.Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rollDay()
	delete(m.reserved, approval.Symbol)

	entry := approval.EntryPrice
	if fillPrice > 0 {
		entry = fillPrice
	}
	stopLoss, takeProfit := m.protectionPrices(approval.Side, entry)

	position := &types.Position{
		ID:              uuid.NewString(),
		Symbol:          approval.Symbol,
		Side:            approval.Side,
		EntryPrice:      entry,
		Quantity:        approval.Quantity,
		StopLossPrice:   stopLoss,
		TakeProfitPrice: takeProfit,
		OpenedAt:        m.now().UTC(),
		Status:          types.PositionStatusOpen,
	}
	m.positions[approval.Symbol] = position
	m.counters.TradeCount++

	m.log.Info("position opened",
		zap.String("symbol", position.Symbol),
		zap.String("side", string(position.Side)),
		zap.Float64("entry_price", position.EntryPrice),
		zap.Float64("quantity", position.Quantity),
		zap.Int("trades_today", m.counters.TradeCount))
	return position
}

// ReleaseReservation frees a slot after a failed or rejected
// submission. Safe to call for symbols with no reservation.
func (m *Manager) ReleaseReservation(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reserved, symbol)
}

// ClosePosition settles an open position at the given exit price and
// folds the realized result into the daily counters.
func (m *Manager) ClosePosition(symbol string, exitPrice float64) (*types.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	position := m.positions[symbol]
	if position == nil {
		return nil, fmt.Errorf("no open position for %s", symbol)
	}

	m.rollDay()

	pnl := (exitPrice - position.EntryPrice) * position.Quantity
	if position.Side == types.SideSell {
		pnl = -pnl
	}

	closedAt := m.now().UTC()
	position.Status = types.PositionStatusClosed
	position.ExitPrice = exitPrice
	position.RealizedPnL = pnl
	position.ClosedAt = &closedAt

	delete(m.positions, symbol)
	m.counters.RealizedPnL += pnl

	m.log.Info("position closed",
		zap.String("symbol", symbol),
		zap.Float64("exit_price", exitPrice),
		zap.Float64("realized_pnl", pnl),
		zap.Float64("daily_pnl", m.counters.RealizedPnL))
	return position, nil
}

// OpenPosition returns the open position for a symbol, or nil.
func (m *Manager) OpenPosition(symbol string) *types.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.positions[symbol]; p != nil {
		copied := *p
		return &copied
	}
	return nil
}

// OpenPositions returns a snapshot of all open positions.
func (m *Manager) OpenPositions() []types.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Position, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, *p)
	}
	return out
}

// Counters returns a snapshot of today's counters.
func (m *Manager) Counters() DailyCounters {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollDay()
	return m.counters
}

// rollDay resets the counters when the UTC calendar day changes.
// Callers must hold the mutex.
func (m *Manager) rollDay() {
	today := DayKey(m.now())
	if m.counters.Date != today {
		m.log.Info("daily counters reset",
			zap.String("previous_day", m.counters.Date),
			zap.Int("trades", m.counters.TradeCount),
			zap.Float64("realized_pnl", m.counters.RealizedPnL))
		m.counters = DailyCounters{Date: today}
	}
}

// sizeOrder converts equity into a base quantity floored to the
// instrument's quantity step.
func (m *Manager) sizeOrder(equity, price float64, instrument types.Instrument) float64 {
	if price <= 0 || equity <= 0 {
		return 0
	}
	quantity := equity * m.limits.MaxPositionSizePct / price
	if step := instrument.QtyStep; step > 0 {
		quantity = math.Floor(quantity/step) * step
	}
	if quantity < instrument.MinOrderQty {
		return 0
	}
	if max := instrument.MaxOrderQty; max > 0 && quantity > max {
		quantity = max
	}
	return quantity
}

// protectionPrices derives stop-loss and take-profit levels from the
// entry price, mirrored for sells.
func (m *Manager) protectionPrices(side types.Side, entry float64) (stopLoss, takeProfit float64) {
	if side == types.SideBuy {
		return entry * (1 - m.limits.StopLossPct), entry * (1 + m.limits.TakeProfitPct)
	}
	return entry * (1 + m.limits.StopLossPct), entry * (1 - m.limits.TakeProfitPct)
}

func (m *Manager) reject(symbol string, reason RejectionReason, detail string) *Rejection {
	m.log.Debug("intent rejected",
		zap.String("symbol", symbol),
		zap.String("reason", string(reason)),
		zap.String("detail", detail))
	return &Rejection{Symbol: symbol, Reason: reason, Detail: detail}
}

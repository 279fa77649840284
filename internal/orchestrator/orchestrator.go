package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quangdle/crypto-signal-bot/internal/exchange"
	"github.com/quangdle/crypto-signal-bot/internal/monitoring"
	"github.com/quangdle/crypto-signal-bot/internal/notifications"
	"github.com/quangdle/crypto-signal-bot/internal/risk"
	"github.com/quangdle/crypto-signal-bot/internal/signal"
	"github.com/quangdle/crypto-signal-bot/internal/storage"
)

// Config controls the polling loop.
type Config struct {
	Symbols        []string      // canonical BASE/QUOTE
	Interval       string        // candle interval for evaluations
	PollInterval   time.Duration // delay between cycles per symbol
	RequestTimeout time.Duration // per exchange request
}

func (c *Config) withDefaults() {
	if c.Interval == "" {
		c.Interval = "1m"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 60 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
}

// Orchestrator runs one worker goroutine per tracked symbol. Each
// worker polls market data, evaluates the signal engine, routes intents
// through the risk manager and submits approved orders. Workers share
// the risk manager (the position authority) but never each other's
// state; at most one order submission is in flight per symbol.
type Orchestrator struct {
	cfg      Config
	exchange exchange.Exchange
	engine   *signal.Engine
	riskMgr  *risk.Manager
	store    storage.Store
	notifier notifications.Notifier
	health   *monitoring.HealthChecker
	log      *zap.Logger

	tasks map[string]*task

	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// New wires the orchestrator. Store and health may be nil in tests.
func New(cfg Config, ex exchange.Exchange, engine *signal.Engine, riskMgr *risk.Manager,
	store storage.Store, notifier notifications.Notifier, health *monitoring.HealthChecker,
	log *zap.Logger) (*Orchestrator, error) {

	cfg.withDefaults()
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("no symbols configured")
	}

	o := &Orchestrator{
		cfg:      cfg,
		exchange: ex,
		engine:   engine,
		riskMgr:  riskMgr,
		store:    store,
		notifier: notifier,
		health:   health,
		log:      log.Named("orchestrator"),
		tasks:    make(map[string]*task),
		stopChan: make(chan struct{}),
	}
	for _, symbol := range cfg.Symbols {
		canonical := ex.NormalizeSymbol(symbol)
		o.tasks[canonical] = newTask(o, canonical)
	}
	return o, nil
}

// Start connects the exchange, restores persisted state and launches
// the symbol workers. It returns once the workers are running.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator already running")
	}
	o.running = true
	o.mu.Unlock()

	if !o.exchange.IsConnected() {
		if err := o.exchange.Connect(ctx); err != nil {
			return fmt.Errorf("exchange connect: %w", err)
		}
	}
	if o.health != nil {
		o.health.SetConnected(true)
	}

	if err := o.restoreState(ctx); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}

	for _, t := range o.tasks {
		o.wg.Add(1)
		go func(t *task) {
			defer o.wg.Done()
			t.run(ctx)
		}(t)
	}

	o.log.Info("started",
		zap.Strings("symbols", o.cfg.Symbols),
		zap.Duration("poll_interval", o.cfg.PollInterval),
		zap.String("interval", o.cfg.Interval))
	return nil
}

// Stop signals the workers and waits for in-flight cycles to finish.
// Open positions stay open; they are restored on the next start.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	close(o.stopChan)
	o.mu.Unlock()

	o.wg.Wait()
	if o.health != nil {
		o.health.SetConnected(false)
	}
	o.log.Info("stopped", zap.Int("open_positions", len(o.riskMgr.OpenPositions())))
}

// restoreState seeds the risk manager from the store so a restart does
// not forget open exposure or today's counters.
func (o *Orchestrator) restoreState(ctx context.Context) error {
	if o.store == nil {
		return nil
	}

	positions, err := o.store.LoadOpenPositions(ctx)
	if err != nil {
		return err
	}
	counters, err := o.store.LoadDailyCounters(ctx, risk.DayKey(time.Now()))
	if err != nil {
		return err
	}

	o.riskMgr.Restore(positions, counters)
	monitoring.SetOpenPositions(len(o.riskMgr.OpenPositions()))

	if len(positions) > 0 {
		o.log.Info("restored open positions", zap.Int("count", len(positions)))
	}
	return nil
}

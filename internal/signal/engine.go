package signal

import (
	"github.com/quangdle/crypto-signal-bot/internal/indicators"
	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// DefaultLookback is the minimum candle history required by the longest
// default indicator period.
const DefaultLookback = 50

// DefaultEntryThreshold is the minimum winning-side score for a BUY or
// SELL direction.
const DefaultEntryThreshold = 60

// Config tunes the engine without code changes. Zero values fall back to
// the documented defaults.
type Config struct {
	Lookback       int        `json:"lookback"`
	EntryThreshold float64    `json:"entry_threshold"`
	Weights        Weights    `json:"weights"`
	Thresholds     Thresholds `json:"thresholds"`

	EMAFast   int `json:"ema_fast"`
	EMASlow   int `json:"ema_slow"`
	EMATrend  int `json:"ema_trend"`
	RSIPeriod int `json:"rsi_period"`

	MACDFast   int `json:"macd_fast"`
	MACDSlow   int `json:"macd_slow"`
	MACDSignal int `json:"macd_signal"`

	BollingerPeriod int     `json:"bollinger_period"`
	BollingerStdDev float64 `json:"bollinger_std_dev"`
	VolumeMAPeriod  int     `json:"volume_ma_period"`
}

// DefaultConfig returns the standard engine configuration: EMA(9/21/50),
// RSI(14), MACD(12,26,9), Bollinger(20, 2), volume MA(20).
func DefaultConfig() Config {
	return Config{
		Lookback:        DefaultLookback,
		EntryThreshold:  DefaultEntryThreshold,
		Weights:         DefaultWeights(),
		Thresholds:      DefaultThresholds(),
		EMAFast:         9,
		EMASlow:         21,
		EMATrend:        50,
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerStdDev: 2.0,
		VolumeMAPeriod:  20,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Lookback == 0 {
		c.Lookback = def.Lookback
	}
	if c.EntryThreshold == 0 {
		c.EntryThreshold = def.EntryThreshold
	}
	if c.Weights == (Weights{}) {
		c.Weights = def.Weights
	}
	if c.Thresholds == (Thresholds{}) {
		c.Thresholds = def.Thresholds
	}
	if c.EMAFast == 0 {
		c.EMAFast = def.EMAFast
	}
	if c.EMASlow == 0 {
		c.EMASlow = def.EMASlow
	}
	if c.EMATrend == 0 {
		c.EMATrend = def.EMATrend
	}
	if c.RSIPeriod == 0 {
		c.RSIPeriod = def.RSIPeriod
	}
	if c.MACDFast == 0 {
		c.MACDFast = def.MACDFast
	}
	if c.MACDSlow == 0 {
		c.MACDSlow = def.MACDSlow
	}
	if c.MACDSignal == 0 {
		c.MACDSignal = def.MACDSignal
	}
	if c.BollingerPeriod == 0 {
		c.BollingerPeriod = def.BollingerPeriod
	}
	if c.BollingerStdDev == 0 {
		c.BollingerStdDev = def.BollingerStdDev
	}
	if c.VolumeMAPeriod == 0 {
		c.VolumeMAPeriod = def.VolumeMAPeriod
	}
	return c
}

// Engine converts candle history into a scored directional signal. It is
// a pure function of its input: no side effects, no network, no clock.
type Engine struct {
	cfg   Config
	rules []Rule

	emaFast  *indicators.EMA
	emaSlow  *indicators.EMA
	emaTrend *indicators.EMA
	rsi      *indicators.RSI
	macd     *indicators.MACD
	bb       *indicators.BollingerBands
	volMA    *indicators.VolumeMA
}

// NewEngine builds an engine from configuration.
func NewEngine(cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		cfg:      cfg,
		rules:    BuildRules(cfg.Weights, cfg.Thresholds),
		emaFast:  indicators.NewEMA(cfg.EMAFast),
		emaSlow:  indicators.NewEMA(cfg.EMASlow),
		emaTrend: indicators.NewEMA(cfg.EMATrend),
		rsi:      indicators.NewRSI(cfg.RSIPeriod),
		macd:     indicators.NewMACD(cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal),
		bb:       indicators.NewBollingerBands(cfg.BollingerPeriod, cfg.BollingerStdDev),
		volMA:    indicators.NewVolumeMA(cfg.VolumeMAPeriod),
	}
}

// Lookback returns the minimum candle history the engine accepts.
func (e *Engine) Lookback() int {
	return e.cfg.Lookback
}

// Evaluate scores the candle series and returns a directional signal.
// Identical input always yields an identical signal. Returns
// *InsufficientDataError when fewer candles than the lookback window are
// supplied.
func (e *Engine) Evaluate(symbol string, candles []types.OHLCV) (*Signal, error) {
	if len(candles) < e.cfg.Lookback {
		return nil, &InsufficientDataError{Need: e.cfg.Lookback, Have: len(candles)}
	}

	snap, err := e.snapshot(candles)
	if err != nil {
		return nil, err
	}

	buy, sell, factors := Score(e.rules, snap)

	direction := DirectionHold
	score := buy
	if sell > buy {
		score = sell
	}
	switch {
	case buy >= e.cfg.EntryThreshold && buy > sell:
		direction = DirectionBuy
		score = buy
	case sell >= e.cfg.EntryThreshold && sell > buy:
		direction = DirectionSell
		score = sell
	}

	return &Signal{
		Symbol:    symbol,
		Direction: direction,
		Score:     score,
		BuyScore:  buy,
		SellScore: sell,
		Factors:   factors,
		Timestamp: candles[len(candles)-1].Timestamp,
	}, nil
}

func (e *Engine) snapshot(candles []types.OHLCV) (Snapshot, error) {
	last := candles[len(candles)-1]
	snap := Snapshot{Price: last.Close, Volume: last.Volume}

	var err error
	if snap.EMA9, err = e.emaFast.Calculate(candles); err != nil {
		return snap, err
	}
	if snap.EMA21, err = e.emaSlow.Calculate(candles); err != nil {
		return snap, err
	}
	if snap.EMA50, err = e.emaTrend.Calculate(candles); err != nil {
		return snap, err
	}
	if snap.RSI, err = e.rsi.Calculate(candles); err != nil {
		return snap, err
	}

	macdSeries, err := e.macd.Series(candles)
	if err != nil {
		return snap, err
	}
	snap.MACD = macdSeries[len(macdSeries)-1]
	if len(macdSeries) > 1 {
		snap.PrevMACD = macdSeries[len(macdSeries)-2]
	} else {
		snap.PrevMACD = snap.MACD
	}

	if snap.Bollinger, err = e.bb.Calculate(candles); err != nil {
		return snap, err
	}
	if snap.VolumeMA, err = e.volMA.Calculate(candles); err != nil {
		return snap, err
	}

	return snap, nil
}

package signal

import "github.com/quangdle/crypto-signal-bot/internal/indicators"

// Snapshot holds all indicator values computed for one candle series.
// Rules are evaluated against a snapshot, which keeps the scoring table
// testable in isolation from data fetching.
type Snapshot struct {
	Price     float64
	Volume    float64
	EMA9      float64
	EMA21     float64
	EMA50     float64
	RSI       float64
	MACD      indicators.MACDValue
	PrevMACD  indicators.MACDValue
	Bollinger indicators.BollingerValue
	VolumeMA  float64
}

// Rule is one entry of the declarative scoring table: when Applies holds
// for a snapshot, Points are added to the Direction side.
type Rule struct {
	Name      string
	Direction Direction
	Points    float64
	Applies   func(Snapshot) bool
}

// Weights configures how many points each rule family contributes. The
// table sums to 100 per side with the defaults.
type Weights struct {
	TrendAlignment float64 `json:"trend_alignment"`
	RSIExtreme     float64 `json:"rsi_extreme"`
	MACDCrossover  float64 `json:"macd_crossover"`
	BollingerBreak float64 `json:"bollinger_break"`
	VolumeSurge    float64 `json:"volume_surge"`
}

// DefaultWeights returns the standard 100-point scoring weights.
func DefaultWeights() Weights {
	return Weights{
		TrendAlignment: 25,
		RSIExtreme:     20,
		MACDCrossover:  20,
		BollingerBreak: 15,
		VolumeSurge:    20,
	}
}

// Thresholds configures the rule trigger levels.
type Thresholds struct {
	RSIOversold      float64 `json:"rsi_oversold"`
	RSIOverbought    float64 `json:"rsi_overbought"`
	VolumeSurgeRatio float64 `json:"volume_surge_ratio"`
}

// DefaultThresholds returns the standard rule trigger levels.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RSIOversold:      30,
		RSIOverbought:    70,
		VolumeSurgeRatio: 1.5,
	}
}

// BuildRules materializes the scoring table from weights and thresholds.
// Every BUY rule has a mirrored SELL rule; the volume surge confirms
// momentum on both sides.
func BuildRules(w Weights, t Thresholds) []Rule {
	return []Rule{
		{
			Name:      "trend_alignment",
			Direction: DirectionBuy,
			Points:    w.TrendAlignment,
			Applies: func(s Snapshot) bool {
				return s.EMA9 > s.EMA21 && s.EMA21 > s.EMA50
			},
		},
		{
			Name:      "trend_alignment",
			Direction: DirectionSell,
			Points:    w.TrendAlignment,
			Applies: func(s Snapshot) bool {
				return s.EMA9 < s.EMA21 && s.EMA21 < s.EMA50
			},
		},
		{
			Name:      "rsi_oversold",
			Direction: DirectionBuy,
			Points:    w.RSIExtreme,
			Applies: func(s Snapshot) bool {
				return s.RSI < t.RSIOversold
			},
		},
		{
			Name:      "rsi_overbought",
			Direction: DirectionSell,
			Points:    w.RSIExtreme,
			Applies: func(s Snapshot) bool {
				return s.RSI > t.RSIOverbought
			},
		},
		{
			Name:      "macd_bullish_cross",
			Direction: DirectionBuy,
			Points:    w.MACDCrossover,
			Applies: func(s Snapshot) bool {
				return s.PrevMACD.Line <= s.PrevMACD.Signal &&
					s.MACD.Line > s.MACD.Signal &&
					s.MACD.Histogram > 0
			},
		},
		{
			Name:      "macd_bearish_cross",
			Direction: DirectionSell,
			Points:    w.MACDCrossover,
			Applies: func(s Snapshot) bool {
				return s.PrevMACD.Line >= s.PrevMACD.Signal &&
					s.MACD.Line < s.MACD.Signal &&
					s.MACD.Histogram < 0
			},
		},
		{
			Name:      "below_lower_band",
			Direction: DirectionBuy,
			Points:    w.BollingerBreak,
			Applies: func(s Snapshot) bool {
				return s.Price < s.Bollinger.Lower
			},
		},
		{
			Name:      "above_upper_band",
			Direction: DirectionSell,
			Points:    w.BollingerBreak,
			Applies: func(s Snapshot) bool {
				return s.Price > s.Bollinger.Upper
			},
		},
		{
			Name:      "volume_surge",
			Direction: DirectionBuy,
			Points:    w.VolumeSurge,
			Applies: func(s Snapshot) bool {
				return s.VolumeMA > 0 && s.Volume > t.VolumeSurgeRatio*s.VolumeMA
			},
		},
		{
			Name:      "volume_surge",
			Direction: DirectionSell,
			Points:    w.VolumeSurge,
			Applies: func(s Snapshot) bool {
				return s.VolumeMA > 0 && s.Volume > t.VolumeSurgeRatio*s.VolumeMA
			},
		},
	}
}

// Score applies the table to a snapshot and returns the per-side totals
// along with the factors that fired.
func Score(rules []Rule, snap Snapshot) (buy, sell float64, factors []Factor) {
	for _, r := range rules {
		if !r.Applies(snap) {
			continue
		}
		switch r.Direction {
		case DirectionBuy:
			buy += r.Points
		case DirectionSell:
			sell += r.Points
		}
		factors = append(factors, Factor{Rule: r.Name, Direction: r.Direction, Points: r.Points})
	}
	return buy, sell, factors
}

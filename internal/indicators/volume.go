package indicators

import "github.com/quangdle/crypto-signal-bot/pkg/types"

// VolumeMA computes the simple moving average of volume, used to detect
// abnormal activity relative to the recent baseline.
type VolumeMA struct {
	period int
}

// NewVolumeMA creates a new volume moving average indicator.
func NewVolumeMA(period int) *VolumeMA {
	return &VolumeMA{period: period}
}

// Calculate returns the average volume over the last period candles.
func (v *VolumeMA) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) < v.period {
		return 0, ErrInsufficientData
	}

	sum := 0.0
	for _, d := range data[len(data)-v.period:] {
		sum += d.Volume
	}
	return sum / float64(v.period), nil
}

// RequiredPeriods returns the minimum number of candles needed.
func (v *VolumeMA) RequiredPeriods() int {
	return v.period
}

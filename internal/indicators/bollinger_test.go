package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBollingerBands_Calculate_InsufficientData(t *testing.T) {
	bb := NewBollingerBands(20, 2.0)
	data := generateTestData(10)

	_, err := bb.Calculate(data)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestBollingerBands_Calculate_BandOrdering(t *testing.T) {
	bb := NewBollingerBands(20, 2.0)
	data := generateTestData(30)

	value, err := bb.Calculate(data)
	require.NoError(t, err)

	assert.Greater(t, value.Upper, value.Middle)
	assert.Less(t, value.Lower, value.Middle)
}

func TestBollingerBands_Calculate_ExactPeriod(t *testing.T) {
	bb := NewBollingerBands(5, 2.0)
	data := generateTestData(5)

	value, err := bb.Calculate(data)
	require.NoError(t, err)

	expectedSum := 0.0
	for _, d := range data {
		expectedSum += d.Close
	}
	expectedSMA := expectedSum / 5.0
	assert.InDelta(t, expectedSMA, value.Middle, 0.0001)

	variance := 0.0
	for _, d := range data {
		variance += (d.Close - expectedSMA) * (d.Close - expectedSMA)
	}
	sd := math.Sqrt(variance / 5.0)
	assert.InDelta(t, expectedSMA+2*sd, value.Upper, 0.0001)
	assert.InDelta(t, expectedSMA-2*sd, value.Lower, 0.0001)
}

func TestVolumeMA_Calculate(t *testing.T) {
	vma := NewVolumeMA(20)
	data := generateTestData(30)

	value, err := vma.Calculate(data)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, value, 0.0001)
}

func TestVolumeMA_Calculate_InsufficientData(t *testing.T) {
	vma := NewVolumeMA(20)
	_, err := vma.Calculate(generateTestData(5))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

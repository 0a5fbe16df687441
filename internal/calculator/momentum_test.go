package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FnoSentinel/internal/model"
)

func bars(closes, volumes []float64) []model.OHLCV {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	out := make([]model.OHLCV, len(closes))
	for i := range closes {
		out[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Close: closes[i], Volume: volumes[i]}
	}
	return out
}

func TestCalculateMomentum(t *testing.T) {
	m, err := CalculateMomentum(bars(
		[]float64{100, 102, 101, 104, 110},
		[]float64{1000, 1000, 1000, 1000, 6000},
	))
	require.NoError(t, err)

	assert.InDelta(t, (110.0/104.0-1)*100, m.DayChangePct, 1e-9)
	assert.InDelta(t, 10.0, m.TrendPct, 1e-9)
	assert.InDelta(t, 3.0, m.VolumeRatio, 1e-9) // 6000 against a mean of 2000
	assert.Equal(t, 110.0, m.LastClose)
	assert.Equal(t, 5, m.BarsAvailable)
}

func TestCalculateMomentumTwoBars(t *testing.T) {
	m, err := CalculateMomentum(bars([]float64{200, 190}, []float64{10, 30}))
	require.NoError(t, err)
	assert.InDelta(t, -5.0, m.DayChangePct, 1e-9)
	assert.InDelta(t, 1.5, m.VolumeRatio, 1e-9)
}

func TestCalculateMomentumInsufficient(t *testing.T) {
	_, err := CalculateMomentum(bars([]float64{100}, []float64{1}))
	assert.ErrorIs(t, err, ErrInsufficientBars)

	_, err = CalculateMomentum(nil)
	assert.ErrorIs(t, err, ErrInsufficientBars)
}

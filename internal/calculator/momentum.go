package calculator

import (
	"errors"

	"github.com/markcheno/go-talib"

	"FnoSentinel/internal/model"
)

// ErrInsufficientBars is returned when fewer than two bars are available.
var ErrInsufficientBars = errors.New("not enough bars for momentum calculation")

// Momentum summarizes a short daily series of the underlying.
type Momentum struct {
	DayChangePct  float64 // last close vs previous close
	TrendPct      float64 // last close vs first close of the series
	VolumeRatio   float64 // last volume vs mean volume of the series
	LastClose     float64
	BarsAvailable int
}

// CalculateMomentum computes day change, series trend and volume ratio from
// daily bars ordered oldest first.
func CalculateMomentum(bars []model.OHLCV) (Momentum, error) {
	if len(bars) < 2 {
		return Momentum{}, ErrInsufficientBars
	}
	closes := model.Closes(bars)
	volumes := model.Volumes(bars)
	n := len(closes)

	m := Momentum{LastClose: closes[n-1], BarsAvailable: n}

	// ROC(1) at the last index is (close/prevClose - 1) * 100.
	roc := talib.Roc(closes, 1)
	m.DayChangePct = roc[n-1]
	m.TrendPct = PercentChange(closes[n-1], closes[0])

	avgVolume := talib.Sma(volumes, n)[n-1]
	if avgVolume > 0 {
		m.VolumeRatio = volumes[n-1] / avgVolume
	}
	return m, nil
}

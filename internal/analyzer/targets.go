package analyzer

import (
	"math"

	"github.com/shopspring/decimal"

	"FnoSentinel/internal/model"
)

type targets struct {
	Target1    float64
	Target2    float64
	StopLoss   float64
	RiskReward float64
}

// deriveTargets picks targets from the levels in the direction of the score,
// falling back to fixed percentages of spot.
func deriveTargets(score, spot float64, resistance, support []model.Level, tick float64) targets {
	levelOr := func(levels []model.Level, i int, fallback float64) float64 {
		if i < len(levels) {
			return levels[i].Strike
		}
		return fallback
	}

	var t targets
	if score < 0 {
		t.Target1 = levelOr(support, 0, spot*0.97)
		t.Target2 = levelOr(support, 1, spot*0.95)
		t.StopLoss = levelOr(resistance, 0, spot*1.03)
	} else {
		var res, sup []model.Level
		if score > 0 {
			res, sup = resistance, support
		}
		t.Target1 = levelOr(res, 0, spot*1.03)
		t.Target2 = levelOr(res, 1, spot*1.05)
		t.StopLoss = levelOr(sup, 0, spot*0.97)
	}

	t.Target1 = roundToTick(t.Target1, tick)
	t.Target2 = roundToTick(t.Target2, tick)
	t.StopLoss = roundToTick(t.StopLoss, tick)
	t.RiskReward = riskReward(t.Target1, t.StopLoss, spot)
	return t
}

func riskReward(target, stop, spot float64) float64 {
	if stop == spot {
		return 1.5
	}
	return math.Abs(target-spot) / math.Abs(spot-stop)
}

// roundToTick rounds v to the nearest multiple of tick.
func roundToTick(v, tick float64) float64 {
	if tick <= 0 {
		return v
	}
	t := decimal.NewFromFloat(tick)
	return decimal.NewFromFloat(v).Div(t).Round(0).Mul(t).InexactFloat64()
}

package analyzer

import (
	"fmt"
	"math"

	"FnoSentinel/internal/calculator"
	"FnoSentinel/internal/model"
)

// Activity kinds.
const (
	CoveredCallWriting    = "COVERED_CALL_WRITING"
	ProtectivePutBuying   = "PROTECTIVE_PUT_BUYING"
	CashSecuredPutWriting = "CASH_SECURED_PUT_WRITING"
	LongCallBuying        = "LONG_CALL_BUYING"
	VolatilityPlay        = "VOLATILITY_PLAY"
)

// Activity is one classified institutional strategy at a strike.
type Activity struct {
	Kind        string
	Strike      float64
	Sentiment   string
	Strength    float64
	Explanation string
}

const sentimentHedging = "HEDGING"

type activityThresholds struct {
	OIChange    float64
	Volume      float64
	PriceChange float64
}

func deriveActivityThresholds(rows []model.StrikeRow, leg legPicker) activityThresholds {
	changes := make([]float64, len(rows))
	vols := make([]float64, len(rows))
	prices := make([]float64, len(rows))
	for i, r := range rows {
		l := leg(r)
		changes[i] = l.OIChange
		vols[i] = l.Volume
		prices[i] = l.PriceChange
	}
	return activityThresholds{
		OIChange:    calculator.Percentile(calculator.AbsNonZero(changes), 75),
		Volume:      calculator.Percentile(calculator.NonZero(vols), 70),
		PriceChange: calculator.Percentile(calculator.AbsNonZero(prices), 60),
	}
}

// classifyActivities labels strategies per strike and returns them with the
// hedging ratio (hedging strength over total strength).
func classifyActivities(rows []model.StrikeRow, spot float64) ([]Activity, float64) {
	ct := deriveActivityThresholds(rows, callLeg)
	pt := deriveActivityThresholds(rows, putLeg)

	var out []Activity
	for _, r := range rows {
		c, pu := r.Call, r.Put
		dist := math.Abs(r.Strike-spot) / spot * 100
		callActive := c.OIChange > ct.OIChange && c.Volume > ct.Volume
		putActive := pu.OIChange > pt.OIChange && pu.Volume > pt.Volume
		strike := fmtStrike(r.Strike)

		if r.Strike > spot && dist < 10 && callActive && c.PriceChange <= 0 {
			out = append(out, Activity{CoveredCallWriting, r.Strike, BiasBearish, c.OIChange / 1000,
				fmt.Sprintf("Heavy call writing at %s caps upside", strike)})
		}
		if r.Strike < spot && dist < 15 && putActive && pu.PriceChange > pt.PriceChange {
			out = append(out, Activity{ProtectivePutBuying, r.Strike, sentimentHedging, pu.OIChange / 1000,
				fmt.Sprintf("Put buying at %s hedges longs", strike)})
		}
		if r.Strike < spot && dist < 10 && putActive && pu.PriceChange <= 0 {
			out = append(out, Activity{CashSecuredPutWriting, r.Strike, BiasBullish, pu.OIChange / 1000,
				fmt.Sprintf("Put writing at %s", strike)})
		}
		if r.Strike > spot && dist < 15 && callActive && c.PriceChange > ct.PriceChange {
			out = append(out, Activity{LongCallBuying, r.Strike, BiasBullish, c.OIChange / 1000,
				fmt.Sprintf("Call buying at %s bets on upside", strike)})
		}
		if c.OIChange > ct.OIChange*0.5 && pu.OIChange > pt.OIChange*0.5 &&
			c.Volume > ct.Volume*0.5 && pu.Volume > pt.Volume*0.5 {
			out = append(out, Activity{VolatilityPlay, r.Strike, BiasNeutral, (c.OIChange + pu.OIChange) / 2000,
				fmt.Sprintf("Call and put activity at %s", strike)})
		}
	}

	total, hedging := 0.0, 0.0
	for _, a := range out {
		total += a.Strength
		if a.Sentiment == sentimentHedging {
			hedging += a.Strength
		}
	}
	if total == 0 {
		total = 1
	}
	return out, hedging / total
}

package analyzer

import (
	"fmt"
	"math"

	"FnoSentinel/internal/marketctx"
	"FnoSentinel/internal/model"
)

// pcrContribution scores the normalized PCR against instrument-class bands.
func pcrContribution(normalized, raw float64, prof marketctx.Profile) model.Contribution {
	veryLow, low := 0.6, 0.8
	if prof.BankNifty {
		veryLow, low = 0.5, 0.7
	}
	high, veryHigh := 1.2, 1.5
	if prof.HighVolatility() {
		high, veryHigh = 1.3, 1.6
	}

	c := model.Contribution{Name: ContribPCR}
	desc := fmt.Sprintf("PCR %.3f (adj %.3f)", raw, normalized)
	switch {
	case normalized < veryLow:
		c.Score = pick(prof.Nifty50, 15, 12)
		c.Confidence = 15
		c.Signals = []string{"VERY_LOW_PCR_BULLISH"}
		c.Reasoning = desc + " very low, bullish support"
		if prof.ExpiryWeek {
			c.Score += 5
			c.Reasoning += ", amplified in expiry week"
		}
	case normalized < low:
		c.Score = pick(prof.Nifty50, 10, 8)
		c.Confidence = 10
		c.Signals = []string{"LOW_PCR_BULLISH"}
		c.Reasoning = desc + " low, bullish support"
	case normalized > veryHigh:
		c.Score = -pick(prof.HighVolatility(), 15, 12)
		c.Confidence = 15
		c.Signals = []string{"VERY_HIGH_PCR_BEARISH"}
		c.Reasoning = desc + " very high, bearish pressure"
		if prof.HighRetail {
			c.Score -= 5
			c.Reasoning += ", amplified by retail interest"
		}
	case normalized > high:
		c.Score = -pick(prof.HighVolatility(), 10, 8)
		c.Confidence = 10
		c.Signals = []string{"HIGH_PCR_BEARISH"}
		c.Reasoning = desc + " high, bearish pressure"
	default:
		c.Reasoning = desc + " neutral"
	}
	return c
}

// applyConflict halves the PCR score when material flow and PCR point in
// opposite directions. It reports whether a conflict was found.
func applyConflict(c *model.Contribution, netFlow, normalizedPCR float64, p Params) bool {
	flowDir := 0
	switch {
	case netFlow > p.FlowMateriality:
		flowDir = 1
	case netFlow < -p.FlowMateriality:
		flowDir = -1
	}
	pcrDir := 0
	switch {
	case normalizedPCR < 0.7:
		pcrDir = 1
	case normalizedPCR > 1.2:
		pcrDir = -1
	}
	if flowDir == 0 || pcrDir == 0 || flowDir == pcrDir {
		return false
	}
	c.Score *= p.ConflictPCRDampener
	c.Signals = append(c.Signals, SignalConflict)
	c.Reasoning += "; conflict with flow, flow takes priority"
	return true
}

// pcrMomentumContribution scores the intraday change of PCR against the
// previous stored value. changePct is 0 when there is no usable previous PCR.
func pcrMomentumContribution(changePct, current float64) model.Contribution {
	c := model.Contribution{Name: ContribPCRMomentum}
	var notes []string
	abs := math.Abs(changePct)
	dir := 1.0
	if changePct > 0 {
		dir = -1
	}
	suffix := "BULLISH"
	if dir < 0 {
		suffix = "BEARISH"
	}

	switch {
	case abs > 15:
		c.Score, c.Confidence = 50*dir, 30
		c.Signals = append(c.Signals, "PCR_STORM_"+suffix)
		notes = append(notes, fmt.Sprintf("PCR storm %+.1f%%", changePct))
	case abs > 10:
		c.Score, c.Confidence = 30*dir, 20
		c.Signals = append(c.Signals, "STRONG_PCR_MOMENTUM_"+suffix)
		notes = append(notes, fmt.Sprintf("strong PCR momentum %+.1f%%", changePct))
	case abs > 5:
		c.Score, c.Confidence = 15*dir, 10
		c.Signals = append(c.Signals, "PCR_MOMENTUM_"+suffix)
		notes = append(notes, fmt.Sprintf("PCR momentum %+.1f%%", changePct))
	}

	if current < 0.3 && changePct < -5 {
		c.Score += 20
		c.Confidence += 15
		c.Signals = append(c.Signals, "EXTREME_LOW_PCR_MOMENTUM")
		notes = append(notes, "extreme low PCR still falling")
	}
	if current > 2.0 && changePct > 5 {
		c.Score -= 20
		c.Confidence += 15
		c.Signals = append(c.Signals, "EXTREME_HIGH_PCR_MOMENTUM")
		notes = append(notes, "extreme high PCR still rising")
	}
	c.Reasoning = joinNotes(notes)
	return c
}

// maxPainSignal returns an informational tag when max pain is far from spot.
func maxPainSignal(maxPain, spot float64, p Params) string {
	if math.Abs(maxPain-spot)/spot*100 <= p.MaxPainDistancePct {
		return ""
	}
	if maxPain > spot {
		return "MAX_PAIN_BULLISH"
	}
	return "MAX_PAIN_BEARISH"
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

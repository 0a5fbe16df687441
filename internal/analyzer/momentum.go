package analyzer

import (
	"fmt"

	"FnoSentinel/internal/calculator"
	"FnoSentinel/internal/model"
)

// priceMomentumContribution bands the day change, the volume surge and the
// series trend of the underlying. A missing series contributes nothing.
func priceMomentumContribution(m calculator.Momentum, ok bool) model.Contribution {
	c := model.Contribution{Name: ContribPriceMomentum}
	if !ok {
		c.Reasoning = "no price history"
		return c
	}
	var notes []string
	day := m.DayChangePct

	switch {
	case day > 5:
		c.Score += 60
		c.Signals = append(c.Signals, "EXPLOSIVE_BULLISH_MOMENTUM")
	case day > 3:
		c.Score += 40
		c.Signals = append(c.Signals, "STRONG_BULLISH_MOMENTUM")
	case day > 1.5:
		c.Score += 20
		c.Signals = append(c.Signals, "MODERATE_BULLISH_MOMENTUM")
	case day < -5:
		c.Score -= 60
		c.Signals = append(c.Signals, "EXPLOSIVE_BEARISH_MOMENTUM")
	case day < -3:
		c.Score -= 40
		c.Signals = append(c.Signals, "STRONG_BEARISH_MOMENTUM")
	}
	notes = append(notes, fmt.Sprintf("day %+.1f%%", day))

	switch {
	case m.VolumeRatio > 3:
		c.Score += 50
		c.Signals = append(c.Signals, "MASSIVE_VOLUME_SURGE")
	case m.VolumeRatio > 2:
		c.Score += 30
		c.Signals = append(c.Signals, "HIGH_VOLUME_SURGE")
	case m.VolumeRatio > 1.5:
		c.Score += 15
		c.Signals = append(c.Signals, "ABOVE_AVERAGE_VOLUME")
	}
	notes = append(notes, fmt.Sprintf("volume %.1fx avg", m.VolumeRatio))

	switch {
	case m.TrendPct > 10 && day > 0:
		c.Score += 25
		c.Signals = append(c.Signals, "STRONG_WEEKLY_UPTREND")
		notes = append(notes, fmt.Sprintf("trend %+.1f%%", m.TrendPct))
	case m.TrendPct < -10 && day < 0:
		c.Score -= 25
		c.Signals = append(c.Signals, "STRONG_WEEKLY_DOWNTREND")
		notes = append(notes, fmt.Sprintf("trend %+.1f%%", m.TrendPct))
	}
	c.Reasoning = joinNotes(notes)
	return c
}

// highPCRBreakdownContribution penalises a high raw PCR with a falling price.
func highPCRBreakdownContribution(rawPCR, dayChange float64, p Params) model.Contribution {
	c := model.Contribution{Name: ContribHighPCRBreakdown}
	if rawPCR > p.HighPCRBreakdown && dayChange < -2 {
		c.Score = p.HighPCRBreakdownScore
		c.Signals = []string{"HIGH_PCR_BEARISH_MOMENTUM"}
		c.Reasoning = fmt.Sprintf("PCR %.3f with price down %.1f%%", rawPCR, dayChange)
	}
	return c
}

// patternSignals returns informational tags that never move the score.
func patternSignals(netFlow, rawPCR, dayChange float64) []string {
	var tags []string
	switch {
	case netFlow > 10 && dayChange > 3:
		tags = append(tags, "PERFECT_BULLISH_ALIGNMENT")
	case netFlow < -10 && dayChange < -3:
		tags = append(tags, "PERFECT_BEARISH_ALIGNMENT")
	case netFlow < -5 && rawPCR > 1.1:
		tags = append(tags, "BEARISH_FLOW_HIGH_PCR")
	case dayChange < -4 && rawPCR > 0.9:
		tags = append(tags, "PRICE_DECLINE_BEARISH")
	}
	if (netFlow > 8 && dayChange < -2) || (netFlow < -8 && dayChange > 2) {
		tags = append(tags, "OPTION_PRICE_CONFLICT")
	}
	return tags
}

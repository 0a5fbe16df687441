package analyzer

import (
	"fmt"
	"math"
	"sort"

	"FnoSentinel/internal/calculator"
	"FnoSentinel/internal/model"
)

// Level types.
const (
	CallWritingResistance = "CALL_WRITING_RESISTANCE"
	CallOIResistance      = "CALL_OI_RESISTANCE"
	PutWritingSupport     = "PUT_WRITING_SUPPORT"
	PutOISupport          = "PUT_OI_SUPPORT"
)

// Zone names.
const (
	ZoneAtResistance   = "AT_RESISTANCE"
	ZoneAtSupport      = "AT_SUPPORT"
	ZoneNearResistance = "NEAR_RESISTANCE"
	ZoneNearSupport    = "NEAR_SUPPORT"
	ZoneMiddleRange    = "MIDDLE_RANGE"
)

// Bias values shared by the zone and activity classification.
const (
	BiasBullish = "BULLISH"
	BiasBearish = "BEARISH"
	BiasNeutral = "NEUTRAL"
)

// absentDistance marks a missing level in distance comparisons.
const absentDistance = 999.0

type legPicker func(model.StrikeRow) model.OptionLeg

func callLeg(r model.StrikeRow) model.OptionLeg { return r.Call }
func putLeg(r model.StrikeRow) model.OptionLeg  { return r.Put }

// findLevels returns resistances above spot (ascending) and supports below
// spot (descending), both nearest-first and capped at MaxLevels.
func findLevels(rows []model.StrikeRow, spot float64, p Params) (resistance, support []model.Level) {
	resistance = sideLevels(rows, callLeg, p, func(strike float64) bool { return strike > spot },
		CallWritingResistance, CallOIResistance)
	sort.SliceStable(resistance, func(i, j int) bool { return resistance[i].Strike < resistance[j].Strike })

	support = sideLevels(rows, putLeg, p, func(strike float64) bool { return strike < spot },
		PutWritingSupport, PutOISupport)
	sort.SliceStable(support, func(i, j int) bool { return support[i].Strike > support[j].Strike })

	if len(resistance) > p.MaxLevels {
		resistance = resistance[:p.MaxLevels]
	}
	if len(support) > p.MaxLevels {
		support = support[:p.MaxLevels]
	}
	return resistance, support
}

func sideLevels(rows []model.StrikeRow, leg legPicker, p Params, eligible func(float64) bool, strongType, moderateType string) []model.Level {
	ois := make([]float64, len(rows))
	changes := make([]float64, len(rows))
	vols := make([]float64, len(rows))
	for i, r := range rows {
		l := leg(r)
		ois[i] = l.OpenInterest
		changes[i] = math.Abs(l.OIChange)
		vols[i] = l.Volume
	}
	oiTh := calculator.Percentile(ois, p.LevelOIPct)
	changeTh := calculator.Percentile(changes, p.LevelOIChangePct)
	volTh := calculator.Percentile(vols, p.LevelVolumePct)
	maxOI := calculator.Max(ois)

	var levels []model.Level
	for _, r := range rows {
		if !eligible(r.Strike) {
			continue
		}
		l := leg(r)
		lvl := model.Level{Strike: r.Strike, OI: l.OpenInterest, OIChange: l.OIChange, Volume: l.Volume}
		switch {
		case l.OpenInterest > oiTh && math.Abs(l.OIChange) > changeTh && l.Volume > volTh:
			lvl.Type = strongType
			lvl.Strength = ratio(l.OpenInterest+2*l.OIChange, maxOI)
		case l.OpenInterest > oiTh*p.ModerateLevelMult:
			lvl.Type = moderateType
			lvl.Strength = ratio(l.OpenInterest, maxOI)
		default:
			continue
		}
		levels = append(levels, lvl)
	}
	return levels
}

func ratio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}

// analyzeZone places spot relative to the nearest resistance and support.
func analyzeZone(spot float64, resistance, support []model.Level, p Params) model.Zone {
	z := model.Zone{ResistanceDistPct: absentDistance, SupportDistPct: absentDistance}
	if len(resistance) > 0 {
		z.NearestResistance = resistance[0].Strike
		z.ResistanceDistPct = (resistance[0].Strike - spot) / spot * 100
	}
	if len(support) > 0 {
		z.NearestSupport = support[0].Strike
		z.SupportDistPct = (spot - support[0].Strike) / spot * 100
	}
	if z.SupportDistPct > 0 {
		z.RiskReward = z.ResistanceDistPct / z.SupportDistPct
	}

	switch {
	case z.ResistanceDistPct < p.AtLevelPct:
		z.Name, z.Bias = ZoneAtResistance, BiasBearish
		z.Reasoning = fmt.Sprintf("At resistance (%s), expect rejection", fmtStrike(z.NearestResistance))
	case z.SupportDistPct < p.AtLevelPct:
		z.Name, z.Bias = ZoneAtSupport, BiasBullish
		z.Reasoning = fmt.Sprintf("At support (%s), expect bounce", fmtStrike(z.NearestSupport))
	case z.ResistanceDistPct < p.NearLevelPct && z.ResistanceDistPct < z.SupportDistPct:
		z.Name, z.Bias = ZoneNearResistance, BiasBearish
		z.Reasoning = fmt.Sprintf("Approaching resistance (%s)", fmtStrike(z.NearestResistance))
	case z.SupportDistPct < p.NearLevelPct && z.SupportDistPct < z.ResistanceDistPct:
		z.Name, z.Bias = ZoneNearSupport, BiasBullish
		z.Reasoning = fmt.Sprintf("Near support (%s)", fmtStrike(z.NearestSupport))
	default:
		z.Name, z.Bias = ZoneMiddleRange, BiasNeutral
		z.Reasoning = "Middle of range, no bias from levels"
	}
	return z
}

// zoneContribution turns the zone into a confidence-only contribution. The
// zone never moves the score; it sets the bias that flow is checked against.
func zoneContribution(z model.Zone, netFlow, hedgingRatio float64, p Params) model.Contribution {
	conf := 0.5
	var notes []string
	if z.Bias != BiasNeutral {
		conf += 0.2
	}
	notes = append(notes, z.Reasoning)

	flowBias := BiasNeutral
	switch {
	case netFlow >= p.FlowMateriality:
		flowBias = BiasBullish
	case netFlow <= -p.FlowMateriality:
		flowBias = BiasBearish
	}
	if flowBias != BiasNeutral {
		if flowBias == z.Bias {
			if math.Abs(netFlow) >= p.StrongFlow {
				conf += 0.15
			} else {
				conf += 0.1
			}
			notes = append(notes, "flow confirms zone")
		} else {
			notes = append(notes, "risk: zone and flow disagree")
		}
	}

	if hedgingRatio > p.HedgingHigh {
		conf -= 0.05
		notes = append(notes, "risk: heavy hedging")
	}
	switch {
	case z.RiskReward > 2:
		conf += 0.1
		notes = append(notes, fmt.Sprintf("favourable R:R %.1f", z.RiskReward))
	case z.RiskReward < 0.5:
		conf -= 0.1
		notes = append(notes, fmt.Sprintf("poor R:R %.1f", z.RiskReward))
	}

	return model.Contribution{
		Name:       ContribZone,
		Confidence: calculator.Clamp(conf, 0.1, 0.95) * 100,
		Signals:    []string{z.Name},
		Reasoning:  joinNotes(notes),
	}
}

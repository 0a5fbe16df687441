package analyzer

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"FnoSentinel/internal/model"
)

type flowResult struct {
	Bullish float64
	Bearish float64
	Unusual []string
}

func (r flowResult) Net() float64 { return r.Bullish - r.Bearish }

// flowEvent is one classified fresh-position event on a single leg.
type flowEvent struct {
	Bullish    bool
	Multiplier float64
	Label      string
}

// analyzeFlow walks every strike and accumulates institutional bullish and
// bearish flow from fresh OI built on meaningful volume.
func analyzeFlow(rows []model.StrikeRow, f features, dayChange float64, p Params) flowResult {
	var res flowResult
	for _, r := range rows {
		prox := proximityWeight(r.Strike, f.Spot, p)
		if ev, ok := classifyCall(r.Call, f.CallVolume, p); ok {
			res.add(ev, r.Strike, r.Call, f.CallVolume, prox, dayChange, p)
		} else if unwinding(r.Call, f.CallVolume) {
			res.note(p, fmt.Sprintf("Call Unwinding at %s (OI %s, Vol %s)",
				fmtStrike(r.Strike), humanize.Comma(int64(r.Call.OIChange)), humanize.Comma(int64(r.Call.Volume))))
		}
		if ev, ok := classifyPut(r.Put, f.PutVolume, p); ok {
			res.add(ev, r.Strike, r.Put, f.PutVolume, prox, dayChange, p)
		} else if unwinding(r.Put, f.PutVolume) {
			res.note(p, fmt.Sprintf("Put Unwinding at %s (OI %s, Vol %s)",
				fmtStrike(r.Strike), humanize.Comma(int64(r.Put.OIChange)), humanize.Comma(int64(r.Put.Volume))))
		}
	}
	return res
}

func (res *flowResult) add(ev flowEvent, strike float64, leg model.OptionLeg, th volumeThresholds, prox, dayChange float64, p Params) {
	weight := prox * ev.Multiplier
	massive := leg.Volume > th.Massive
	if massive {
		weight *= p.MassiveBoost
	}
	if (ev.Bullish && dayChange > p.MomentumConfirmPct) || (!ev.Bullish && dayChange < -p.MomentumConfirmPct) {
		weight *= p.MomentumBoost
	}
	if ev.Bullish {
		res.Bullish += weight
	} else {
		res.Bearish += weight
	}

	if leg.Volume < th.Significant {
		return
	}
	prefix := "HEAVY"
	if massive {
		prefix = "MASSIVE"
	}
	res.note(p, fmt.Sprintf("%s %s at %s (Vol %s, Price %+.2f)",
		prefix, ev.Label, fmtStrike(strike), humanize.Comma(int64(leg.Volume)), leg.PriceChange))
}

func (res *flowResult) note(p Params, s string) {
	if len(res.Unusual) < p.MaxUnusualActivity {
		res.Unusual = append(res.Unusual, s)
	}
}

func classifyCall(leg model.OptionLeg, th volumeThresholds, p Params) (flowEvent, bool) {
	if leg.OIChange <= 0 || leg.Volume <= 0 {
		return flowEvent{}, false
	}
	pc := leg.PriceChange
	switch {
	case leg.Volume >= th.Significant:
		switch {
		case pc > 0.5:
			return flowEvent{Bullish: true, Multiplier: p.BaseMultiplier, Label: "Call Buying"}, true
		case pc <= 0:
			return flowEvent{Bullish: false, Multiplier: p.BaseMultiplier, Label: "Call Writing"}, true
		default:
			return flowEvent{Bullish: true, Multiplier: p.BaseMultiplier / 2, Label: "Weak Call Buying"}, true
		}
	case leg.Volume > th.Moderate:
		switch {
		case pc > 0.3:
			return flowEvent{Bullish: true, Multiplier: p.ModerateMultiplier, Label: "Call Buying"}, true
		case pc <= 0:
			return flowEvent{Bullish: false, Multiplier: p.ModerateMultiplier, Label: "Call Writing"}, true
		}
	}
	return flowEvent{}, false
}

func classifyPut(leg model.OptionLeg, th volumeThresholds, p Params) (flowEvent, bool) {
	if leg.OIChange <= 0 || leg.Volume <= 0 {
		return flowEvent{}, false
	}
	pc := leg.PriceChange
	switch {
	case leg.Volume >= th.Significant:
		switch {
		case pc > 0.5:
			return flowEvent{Bullish: false, Multiplier: p.BaseMultiplier, Label: "Put Buying"}, true
		case pc <= 0:
			return flowEvent{Bullish: true, Multiplier: p.BaseMultiplier, Label: "Put Writing"}, true
		default:
			return flowEvent{Bullish: false, Multiplier: p.BaseMultiplier / 2, Label: "Weak Put Buying"}, true
		}
	case leg.Volume > th.Moderate:
		if pc > 0.5 {
			return flowEvent{Bullish: false, Multiplier: p.PutBuyingModerate, Label: "Put Buying"}, true
		}
		return flowEvent{Bullish: true, Multiplier: p.ModerateMultiplier, Label: "Put Writing"}, true
	}
	return flowEvent{}, false
}

func unwinding(leg model.OptionLeg, th volumeThresholds) bool {
	return leg.OIChange < 0 && leg.Volume > 0 && leg.Volume >= th.Significant
}

func fmtStrike(v float64) string {
	return humanize.Ftoa(v)
}

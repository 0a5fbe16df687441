package analyzer

import (
	"fmt"
	"strings"
	"time"

	"FnoSentinel/internal/calculator"
	"FnoSentinel/internal/marketctx"
	"FnoSentinel/internal/model"
)

// Contribution names, one per sub-scorer.
const (
	ContribFlow             = "flow"
	ContribPCR              = "pcr"
	ContribPCRMomentum      = "pcr_momentum"
	ContribPriceMomentum    = "price_momentum"
	ContribHighPCRBreakdown = "high_pcr_breakdown"
	ContribZone             = "zone"
	ContribSector           = "sector_strength"
)

// SignalConflict is emitted when flow and PCR disagree.
const SignalConflict = "SIGNAL_CONFLICT_DETECTED"

// Input is everything one option-chain analysis needs.
type Input struct {
	Snapshot *model.InstrumentSnapshot
	// History is a short daily series, oldest first. Fewer than two bars
	// zeroes the price-momentum contribution.
	History []model.OHLCV
	// PreviousPCR is the last stored PCR of the same trading day, if any.
	PreviousPCR *float64
	Now         time.Time
}

// Engine scores snapshots. It holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	params     Params
	ref        *marketctx.Reference
	normalizer marketctx.PCRNormalizer
}

// NewEngine builds an Engine. A nil normalizer falls back to the default
// normalization table; a nil reference classifies every symbol as unlisted.
func NewEngine(params Params, ref *marketctx.Reference, normalizer marketctx.PCRNormalizer) *Engine {
	if normalizer == nil {
		normalizer = marketctx.DefaultNormalizationTable()
	}
	if ref == nil {
		ref = &marketctx.Reference{}
	}
	return &Engine{params: params, ref: ref, normalizer: normalizer}
}

// Params returns the tuning in use.
func (e *Engine) Params() Params { return e.params }

// Analyze scores one option-chain snapshot. It returns false when the
// snapshot has no rows or no positive spot.
func (e *Engine) Analyze(in Input) (*model.AnalysisResult, bool) {
	snap := in.Snapshot
	if snap == nil || len(snap.Rows) == 0 || snap.SpotPrice <= 0 {
		return nil, false
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	p := e.params
	spot := snap.SpotPrice
	prof := e.ref.Profile(snap.Symbol, now)

	mom, err := calculator.CalculateMomentum(in.History)
	hasMomentum := err == nil

	f := extractFeatures(snap.Rows, spot, p)
	flow := analyzeFlow(snap.Rows, f, mom.DayChangePct, p)
	resistance, support := findLevels(snap.Rows, spot, p)
	zone := analyzeZone(spot, resistance, support, p)
	_, hedgingRatio := classifyActivities(snap.Rows, spot)

	res := &model.AnalysisResult{
		Symbol:         snap.Symbol,
		SpotPrice:      spot,
		MaxPain:        f.MaxPain,
		Zone:           zone,
		BullishFlow:    flow.Bullish,
		BearishFlow:    flow.Bearish,
		NetFlow:        flow.Net(),
		NetCallBuildup: f.TotalCallOIChange,
		NetPutBuildup:  f.TotalPutOIChange,
		HedgingRatio:   hedgingRatio,
		AnalyzedAt:     now,
	}
	res.UnusualActivity = flow.Unusual
	res.ResistanceLevels = strikes(resistance)
	res.SupportLevels = strikes(support)

	// flow
	flowC := model.Contribution{Name: ContribFlow, Score: flow.Net() * p.FlowWeight}
	flowC.Reasoning = fmt.Sprintf("net flow %+.1f (bull %.1f, bear %.1f)", flow.Net(), flow.Bullish, flow.Bearish)
	if zone.RiskReward < 0.5 {
		flowC.Score *= p.PoorRRDampener
		flowC.Reasoning += ", dampened for poor R:R"
	}

	// pcr
	rawPCR := f.pcr()
	normPCR := e.normalizer.Normalize(rawPCR, prof)
	res.PCR = rawPCR
	res.NormalizedPCR = normPCR
	pcrC := pcrContribution(normPCR, rawPCR, prof)
	applyConflict(&pcrC, flow.Net(), normPCR, p)

	// pcr momentum
	changePct := 0.0
	if in.PreviousPCR != nil {
		prev := *in.PreviousPCR
		res.PreviousPCR = &prev
		changePct = calculator.PercentChange(rawPCR, prev)
	}
	res.PCRChangePct = changePct
	pcrMomC := pcrMomentumContribution(changePct, rawPCR)
	res.PCRMomentumScore = pcrMomC.Score

	contribs := []model.Contribution{
		flowC,
		pcrC,
		pcrMomC,
		priceMomentumContribution(mom, hasMomentum),
		highPCRBreakdownContribution(rawPCR, mom.DayChangePct, p),
		zoneContribution(zone, flow.Net(), hedgingRatio, p),
	}
	if p.SectorStrength {
		contribs = append(contribs, sectorContribution(flowC.Score, e.ref.SectorMultiplier(snap.Symbol)))
	}

	var signals, reasons []string
	score, confidence := 0.0, 0.0
	for _, c := range contribs {
		score += c.Score
		confidence += c.Confidence
		signals = append(signals, c.Signals...)
		if c.Reasoning != "" {
			reasons = append(reasons, c.Name+": "+c.Reasoning)
		}
	}
	signals = append(signals, patternSignals(flow.Net(), rawPCR, mom.DayChangePct)...)
	if tag := maxPainSignal(f.MaxPain, spot, p); tag != "" {
		signals = append(signals, tag)
	}

	res.Contributions = contribs
	res.Score = score
	res.Confidence = calculator.Clamp(confidence, 0, 100)
	res.Signals = signals
	res.Reasoning = strings.Join(reasons, " | ")
	res.Sentiment = classify(score, rawPCR, prof, p)

	t := deriveTargets(score, spot, resistance, support, p.TickSize)
	res.Target1, res.Target2, res.StopLoss, res.RiskReward = t.Target1, t.Target2, t.StopLoss, t.RiskReward
	return res, true
}

func strikes(levels []model.Level) []float64 {
	out := make([]float64, len(levels))
	for i, l := range levels {
		out[i] = l.Strike
	}
	return out
}

func joinNotes(notes []string) string {
	return strings.Join(notes, "; ")
}

package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FnoSentinel/internal/marketctx"
	"FnoSentinel/internal/model"
)

// 2026-03-10 is a Tuesday, 16 days before the March expiry and outside any
// results window, so no calendar rule touches the PCR.
var quietDay = time.Date(2026, 3, 10, 11, 0, 0, 0, marketctx.IST)

const testReference = `
nifty50: [RELIANCE]
bank_nifty: [HDFCBANK]
high_volatility: [TATASTEEL]
high_retail: [TATASTEEL]
sectors:
  FMCG: [ITC]
sector_strength:
  HAL: 1.3
`

func newTestEngine(t *testing.T, mutate ...func(*Params)) *Engine {
	t.Helper()
	ref, err := marketctx.ParseReference([]byte(testReference))
	require.NoError(t, err)
	p := DefaultParams()
	for _, m := range mutate {
		m(&p)
	}
	return NewEngine(p, ref, nil)
}

func snapshot(symbol string, spot float64, rows ...model.StrikeRow) *model.InstrumentSnapshot {
	return &model.InstrumentSnapshot{Symbol: symbol, SpotPrice: spot, Rows: rows, FetchedAt: quietDay}
}

func TestAnalyze_BullishCallBuying(t *testing.T) {
	e := newTestEngine(t)
	snap := snapshot("TESTCO", 1000, model.StrikeRow{
		Strike: 1000,
		Call:   model.OptionLeg{OpenInterest: 10000, OIChange: 5000, Volume: 20000, PriceChange: 2.0},
		Put:    model.OptionLeg{OpenInterest: 2000, OIChange: 100, Volume: 500, PriceChange: 0},
	})

	res, ok := e.Analyze(Input{Snapshot: snap, Now: quietDay})
	require.True(t, ok)

	assert.InDelta(t, 0.2, res.PCR, 1e-9)
	assert.InDelta(t, 18, res.NetFlow, 1e-9)

	flow, _ := res.Contribution(ContribFlow)
	assert.InDelta(t, 54, flow.Score, 1e-9)
	pcr, _ := res.Contribution(ContribPCR)
	assert.InDelta(t, 12, pcr.Score, 1e-9)
	assert.Contains(t, pcr.Signals, "VERY_LOW_PCR_BULLISH")

	assert.InDelta(t, 66, res.Score, 1e-9)
	assert.Equal(t, model.StronglyBullish, res.Sentiment)
	assert.InDelta(t, 65, res.Confidence, 1e-9)

	assert.Equal(t, 1030.0, res.Target1)
	assert.Equal(t, 1050.0, res.Target2)
	assert.Equal(t, 970.0, res.StopLoss)
	assert.InDelta(t, 1.0, res.RiskReward, 1e-9)
	assert.NotEmpty(t, res.UnusualActivity)
	assert.Equal(t, ZoneMiddleRange, res.Zone.Name)
}

func TestAnalyze_BearishPutBuying(t *testing.T) {
	e := newTestEngine(t)
	snap := snapshot("TESTCO", 1000, model.StrikeRow{
		Strike: 1000,
		Call:   model.OptionLeg{OpenInterest: 5000},
		Put:    model.OptionLeg{OpenInterest: 50000, OIChange: 20000, Volume: 30000, PriceChange: 1.0},
	})

	res, ok := e.Analyze(Input{Snapshot: snap, Now: quietDay})
	require.True(t, ok)

	assert.InDelta(t, 10, res.PCR, 1e-9)
	assert.InDelta(t, -9, res.NetFlow, 1e-9)
	assert.InDelta(t, -39, res.Score, 1e-9)
	assert.Contains(t, []model.Sentiment{model.Bearish, model.StronglyBearish}, res.Sentiment)
	assert.Equal(t, model.Bearish, res.Sentiment)

	assert.Equal(t, 970.0, res.Target1)
	assert.Equal(t, 950.0, res.Target2)
	assert.Equal(t, 1030.0, res.StopLoss)
}

func TestAnalyze_ReferenceScenarios(t *testing.T) {
	tests := []struct {
		name      string
		row       model.StrikeRow
		pcr       float64
		netFlow   float64
		score     float64
		sentiment model.Sentiment
		target1   float64
		stopLoss  float64
	}{
		{
			name: "call buying",
			row: model.StrikeRow{
				Strike: 1000,
				Call:   model.OptionLeg{OpenInterest: 10000, OIChange: 5000, Volume: 20000, PriceChange: 2.0},
				Put:    model.OptionLeg{OpenInterest: 2000, OIChange: 100, Volume: 500},
			},
			pcr: 0.2, netFlow: 18, score: 66, sentiment: model.StronglyBullish,
			target1: 1030, stopLoss: 970,
		},
		{
			name: "put buying with flat calls",
			row: model.StrikeRow{
				Strike: 1000,
				Put:    model.OptionLeg{OpenInterest: 50000, OIChange: 20000, Volume: 30000, PriceChange: 1.0},
			},
			pcr: 1.0, netFlow: -9, score: -27, sentiment: model.Bearish,
			target1: 970, stopLoss: 1030,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			res, ok := e.Analyze(Input{Snapshot: snapshot("TESTCO", 1000, tt.row), Now: quietDay})
			require.True(t, ok)

			assert.InDelta(t, tt.pcr, res.PCR, 1e-9)
			assert.InDelta(t, tt.netFlow, res.NetFlow, 1e-9)
			assert.InDelta(t, tt.score, res.Score, 1e-9)
			assert.Equal(t, tt.sentiment, res.Sentiment)
			assert.Equal(t, tt.target1, res.Target1)
			assert.Equal(t, tt.stopLoss, res.StopLoss)
		})
	}
}

func TestAnalyze_PCRSentinelWithoutCallOI(t *testing.T) {
	e := newTestEngine(t)
	snap := snapshot("TESTCO", 500,
		model.StrikeRow{Strike: 480, Put: model.OptionLeg{OpenInterest: 7000}},
		model.StrikeRow{Strike: 520, Put: model.OptionLeg{OpenInterest: 3000}},
	)
	res, ok := e.Analyze(Input{Snapshot: snap, Now: quietDay})
	require.True(t, ok)
	assert.Equal(t, 1.0, res.PCR)
}

func TestAnalyze_MaxPainFirstTieWins(t *testing.T) {
	e := newTestEngine(t)
	snap := snapshot("TESTCO", 1000,
		model.StrikeRow{Strike: 900, Call: model.OptionLeg{OpenInterest: 100}, Put: model.OptionLeg{OpenInterest: 100}},
		model.StrikeRow{Strike: 1000, Call: model.OptionLeg{OpenInterest: 150}, Put: model.OptionLeg{OpenInterest: 50}},
		model.StrikeRow{Strike: 1100, Put: model.OptionLeg{OpenInterest: 200}},
		model.StrikeRow{Strike: 1200, Call: model.OptionLeg{OpenInterest: 10}},
	)
	res, ok := e.Analyze(Input{Snapshot: snap, Now: quietDay})
	require.True(t, ok)
	assert.Equal(t, 900.0, res.MaxPain)
	assert.Contains(t, res.Signals, "MAX_PAIN_BEARISH")
}

func TestProximityWeightMonotonic(t *testing.T) {
	p := DefaultParams()
	spot := 1000.0
	prev := proximityWeight(spot, spot, p)
	assert.Equal(t, 3.0, prev)
	for strike := spot; strike <= 2*spot; strike += 5 {
		w := proximityWeight(strike, spot, p)
		assert.LessOrEqual(t, w, prev, "strike %v", strike)
		prev = w
	}
	assert.Equal(t, 2.0, proximityWeight(1070, spot, p))
	assert.Equal(t, 1.0, proximityWeight(1100, spot, p))
	assert.Equal(t, proximityWeight(930, spot, p), proximityWeight(1070, spot, p))
}

func TestAnalyze_ConfidenceClamped(t *testing.T) {
	e := newTestEngine(t)
	snap := snapshot("TESTCO", 1000, model.StrikeRow{
		Strike: 1000,
		Call:   model.OptionLeg{OpenInterest: 10000, OIChange: 5000, Volume: 20000, PriceChange: 2.0},
		Put:    model.OptionLeg{OpenInterest: 2000, OIChange: 100, Volume: 500},
	})
	prev := 0.5
	res, ok := e.Analyze(Input{Snapshot: snap, PreviousPCR: &prev, Now: quietDay})
	require.True(t, ok)

	mom, _ := res.Contribution(ContribPCRMomentum)
	assert.InDelta(t, 70, mom.Score, 1e-9)
	assert.Contains(t, mom.Signals, "PCR_STORM_BULLISH")
	assert.Contains(t, mom.Signals, "EXTREME_LOW_PCR_MOMENTUM")

	sum := 0.0
	for _, c := range res.Contributions {
		sum += c.Confidence
	}
	assert.Greater(t, sum, 100.0)
	assert.Equal(t, 100.0, res.Confidence)
	require.NotNil(t, res.PreviousPCR)
	assert.InDelta(t, -60, res.PCRChangePct, 1e-9)
}

func TestAnalyze_NoRowsIsNoResult(t *testing.T) {
	e := newTestEngine(t)

	res, ok := e.Analyze(Input{Snapshot: snapshot("TESTCO", 1000), Now: quietDay})
	assert.False(t, ok)
	assert.Nil(t, res)

	res, ok = e.Analyze(Input{Snapshot: snapshot("TESTCO", 0, model.StrikeRow{Strike: 100}), Now: quietDay})
	assert.False(t, ok)
	assert.Nil(t, res)

	res, ok = e.Analyze(Input{})
	assert.False(t, ok)
	assert.Nil(t, res)
}

func TestAnalyze_ConflictDampensPCR(t *testing.T) {
	e := newTestEngine(t)
	snap := snapshot("TESTCO", 1000, model.StrikeRow{
		Strike: 1000,
		Call:   model.OptionLeg{OpenInterest: 10000, OIChange: 5000, Volume: 20000, PriceChange: 2.0},
		Put:    model.OptionLeg{OpenInterest: 50000},
	})
	res, ok := e.Analyze(Input{Snapshot: snap, Now: quietDay})
	require.True(t, ok)
	require.Greater(t, res.NetFlow, 8.0)

	undamped := pcrContribution(res.NormalizedPCR, res.PCR, marketctx.Profile{Symbol: "TESTCO"})
	pcr, _ := res.Contribution(ContribPCR)

	assert.Contains(t, pcr.Signals, SignalConflict)
	assert.Contains(t, res.Signals, SignalConflict)
	assert.Less(t, abs(pcr.Score), abs(undamped.Score))
	assert.InDelta(t, -6, pcr.Score, 1e-9)
}

func TestAnalyze_MomentumConfirmsFlow(t *testing.T) {
	e := newTestEngine(t)
	snap := snapshot("TESTCO", 1000, model.StrikeRow{
		Strike: 1000,
		Call:   model.OptionLeg{OpenInterest: 10000, OIChange: 5000, Volume: 20000, PriceChange: 2.0},
	})
	history := []model.OHLCV{
		{Close: 100, Volume: 1000},
		{Close: 100, Volume: 1000},
		{Close: 104, Volume: 1000},
	}
	res, ok := e.Analyze(Input{Snapshot: snap, History: history, Now: quietDay})
	require.True(t, ok)

	// 3 proximity * 3 base * 1.3 confirmation
	assert.InDelta(t, 11.7, res.BullishFlow, 1e-9)
	mom, _ := res.Contribution(ContribPriceMomentum)
	assert.InDelta(t, 40, mom.Score, 1e-9)
	assert.Contains(t, res.Signals, "PERFECT_BULLISH_ALIGNMENT")
}

func TestAnalyze_SectorStrengthOptional(t *testing.T) {
	rows := []model.StrikeRow{{
		Strike: 1000,
		Call:   model.OptionLeg{OpenInterest: 10000, OIChange: 5000, Volume: 20000, PriceChange: 2.0},
		Put:    model.OptionLeg{OpenInterest: 2000, OIChange: 100, Volume: 500},
	}}

	off := newTestEngine(t)
	res, _ := off.Analyze(Input{Snapshot: snapshot("HAL", 1000, rows...), Now: quietDay})
	_, found := res.Contribution(ContribSector)
	assert.False(t, found)

	on := newTestEngine(t, func(p *Params) { p.SectorStrength = true })
	res, _ = on.Analyze(Input{Snapshot: snapshot("HAL", 1000, rows...), Now: quietDay})
	sector, found := res.Contribution(ContribSector)
	require.True(t, found)
	assert.InDelta(t, 54*0.3, sector.Score, 1e-9)
	assert.Contains(t, sector.Signals, "HOT_SECTOR")
}

func TestFindLevelsAndZone(t *testing.T) {
	p := DefaultParams()
	var rows []model.StrikeRow
	for strike := 800.0; strike <= 1250; strike += 50 {
		rows = append(rows, model.StrikeRow{
			Strike: strike,
			Call:   model.OptionLeg{OpenInterest: 100, Volume: 10},
			Put:    model.OptionLeg{OpenInterest: 100, Volume: 10},
		})
	}
	rows[5].Call = model.OptionLeg{OpenInterest: 5000, OIChange: 3000, Volume: 8000} // 1050
	rows[3].Put = model.OptionLeg{OpenInterest: 6000, OIChange: 2000, Volume: 9000}  // 950

	res, sup := findLevels(rows, 1000, p)
	require.Len(t, res, 1)
	require.Len(t, sup, 1)
	assert.Equal(t, 1050.0, res[0].Strike)
	assert.Equal(t, CallWritingResistance, res[0].Type)
	assert.InDelta(t, 2.2, res[0].Strength, 1e-9)
	assert.Equal(t, 950.0, sup[0].Strike)
	assert.Equal(t, PutWritingSupport, sup[0].Type)

	z := analyzeZone(1000, res, sup, p)
	assert.Equal(t, ZoneMiddleRange, z.Name)
	assert.InDelta(t, 1.0, z.RiskReward, 1e-9)
}

func TestAnalyzeZone(t *testing.T) {
	p := DefaultParams()
	lv := func(strikes ...float64) []model.Level {
		var out []model.Level
		for _, s := range strikes {
			out = append(out, model.Level{Strike: s})
		}
		return out
	}
	tests := []struct {
		name       string
		resistance []model.Level
		support    []model.Level
		zone       string
		bias       string
	}{
		{"at resistance", lv(1010), lv(900), ZoneAtResistance, BiasBearish},
		{"at support", lv(1100), lv(990), ZoneAtSupport, BiasBullish},
		{"near resistance", lv(1020), lv(950), ZoneNearResistance, BiasBearish},
		{"near support", lv(1050), lv(980), ZoneNearSupport, BiasBullish},
		{"no levels", nil, nil, ZoneMiddleRange, BiasNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := analyzeZone(1000, tt.resistance, tt.support, p)
			assert.Equal(t, tt.zone, z.Name)
			assert.Equal(t, tt.bias, z.Bias)
		})
	}

	z := analyzeZone(1000, nil, nil, p)
	assert.Equal(t, absentDistance, z.ResistanceDistPct)
	assert.Equal(t, absentDistance, z.SupportDistPct)
}

func TestZoneContributionConfidence(t *testing.T) {
	p := DefaultParams()
	z := model.Zone{Name: ZoneAtSupport, Bias: BiasBullish, RiskReward: 3}
	c := zoneContribution(z, 20, 0, p)
	assert.InDelta(t, 95, c.Confidence, 1e-9)
	assert.Zero(t, c.Score)

	z = model.Zone{Name: ZoneMiddleRange, Bias: BiasNeutral, RiskReward: 0.2}
	c = zoneContribution(z, -20, 0.9, p)
	assert.InDelta(t, 35, c.Confidence, 1e-9)
}

func TestPoorRiskRewardDampensFlow(t *testing.T) {
	e := newTestEngine(t)
	var rows []model.StrikeRow
	for strike := 800.0; strike <= 1250; strike += 50 {
		rows = append(rows, model.StrikeRow{Strike: strike, Call: model.OptionLeg{OpenInterest: 100}, Put: model.OptionLeg{OpenInterest: 100}})
	}
	// resistance 0.5% above spot, no support
	rows = append(rows, model.StrikeRow{Strike: 1005, Call: model.OptionLeg{OpenInterest: 9000, OIChange: 4000, Volume: 9000, PriceChange: 1}})

	res, ok := e.Analyze(Input{Snapshot: snapshot("TESTCO", 1000, rows...), Now: quietDay})
	require.True(t, ok)
	require.Less(t, res.Zone.RiskReward, 0.5)
	flow, _ := res.Contribution(ContribFlow)
	assert.InDelta(t, res.NetFlow*3*0.7, flow.Score, 1e-9)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

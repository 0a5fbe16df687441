package notifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"FnoSentinel/internal/model"
)

func TestFormatOptionDigest(t *testing.T) {
	at := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)
	results := []*model.AnalysisResult{
		{Symbol: "M&M", Sentiment: model.StronglyBullish, Score: 66, Confidence: 65,
			SpotPrice: 1000, PCR: 1.8, MaxPain: 1000, Target1: 1030, Target2: 1050, StopLoss: 970, RiskReward: 1.5},
		{Symbol: "TCS", Sentiment: model.Bearish, Score: -39, Confidence: 50, SpotPrice: 3500},
	}

	out := FormatOptionDigest(results, at)
	assert.Contains(t, out, "2026-03-10 10:30 IST")
	assert.Contains(t, out, "1. 🟢🟢 <b>M&amp;M</b> STRONGLY_BULLISH | score +66 | conf 65%")
	assert.Contains(t, out, "T1 1,030 | T2 1,050 | SL 970 | R:R 1.5")
	assert.Contains(t, out, "2. 🔴 <b>TCS</b> BEARISH | score -39")
	assert.NotContains(t, out, "T1 0")

	assert.Contains(t, FormatOptionDigest(nil, at), "No meaningful signals")
}

func TestFormatOptionDetail(t *testing.T) {
	prev := 1.2
	r := &model.AnalysisResult{
		Symbol: "SBIN", Sentiment: model.Neutral, SpotPrice: 800, PCR: 1.0, NormalizedPCR: 0.9,
		PreviousPCR: &prev, PCRChangePct: -16.7,
		Zone:          model.Zone{Name: "BETWEEN_LEVELS", Bias: "NEUTRAL"},
		SupportLevels: []float64{780, 760},
		Contributions: []model.Contribution{{Name: "flow", Score: 12}, {Name: "sector_strength"}},
		Reasoning:     "Flow < PCR",
	}
	out := FormatOptionDetail(r)
	assert.Contains(t, out, "PCR change: -16.7% from 1.20")
	assert.Contains(t, out, "Support: 780, 760")
	assert.Contains(t, out, "flow: +12.0")
	assert.NotContains(t, out, "sector_strength")
	assert.Contains(t, out, "Flow &lt; PCR")
}

func TestFormatFuturesDigest(t *testing.T) {
	out := FormatFuturesDigest([]*model.FuturesResult{{
		Symbol: "INFY", Signal: model.FuturesBullish, Strength: 75, Confidence: 100,
		Buildup: model.LongBuildup, BuildupStrength: "STRONG", CurrentOI: 1234567,
		OIChangePct: 6.4, BasisPct: 0.4, DaysToExpiry: 16, RolloverPressure: "LOW",
	}}, time.Now())
	assert.Contains(t, out, "LONG_BUILDUP (STRONG) | OI 1,234,567 (+6.4%)")
	assert.Contains(t, out, "16d to expiry | rollover LOW")
}

func TestFormatCycleSummary(t *testing.T) {
	assert.Contains(t, FormatCycleSummary(model.CycleStats{Kind: "options"}), "No options cycle")

	start := time.Now().Add(-time.Minute)
	out := FormatCycleSummary(model.CycleStats{
		Kind: "futures", StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond),
		Symbols: 10, Analyzed: 8, Stored: 8, Skipped: 1, Errors: 1,
	})
	assert.Contains(t, out, "Symbols: 10 | analyzed 8 | stored 8")
	assert.Contains(t, out, "Duration: 1.5s")
}

func TestFormatTurnoverAlerts(t *testing.T) {
	at := time.Date(2026, 3, 10, 6, 10, 0, 0, time.UTC)
	out := FormatTurnoverAlerts([]model.TurnoverSurge{{
		Symbol: "M&M", Turnover: 1234567890, PreviousTurnover: 5e8, IncreasePct: 146.9, PreviousDate: "2026-03-09",
	}}, at)

	assert.Contains(t, out, "2026-03-10 11:40 IST")
	assert.Contains(t, out, "<b>M&amp;M</b> turnover surged 146.9% to ₹123.46Cr (vs ₹50Cr on 2026-03-09)")

	assert.Contains(t, FormatTurnoverAlerts(nil, at), "No turnover surges")
	assert.Contains(t, HelpText(), "/turnover")
}

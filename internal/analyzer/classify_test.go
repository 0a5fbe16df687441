package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FnoSentinel/internal/marketctx"
	"FnoSentinel/internal/model"
)

func TestClassify(t *testing.T) {
	p := DefaultParams()
	plain := marketctx.Profile{Symbol: "X", Volatility: marketctx.VolatilityMedium}
	nifty := marketctx.Profile{Symbol: "RELIANCE", Nifty50: true}
	highVol := marketctx.Profile{Symbol: "TATASTEEL", Volatility: marketctx.VolatilityHigh}
	results := marketctx.Profile{Symbol: "X", ResultsWeek: true}

	tests := []struct {
		name    string
		score   float64
		rawPCR  float64
		profile marketctx.Profile
		want    model.Sentiment
	}{
		{"strong bull", 41, 1, plain, model.StronglyBullish},
		{"boundary 40 is bullish", 40, 1, plain, model.Bullish},
		{"boundary 15 is neutral", 15, 1, plain, model.Neutral},
		{"bearish", -16, 1, plain, model.Bearish},
		{"boundary -40 is bearish", -40, 1, plain, model.Bearish},
		{"strong bear", -41, 1, plain, model.StronglyBearish},
		{"results week mutes", 29, 1, results, model.Neutral},
		{"results week keeps strong", 45, 1, results, model.StronglyBullish},
		{"high vol scales", 35, 1, highVol, model.StronglyBullish},
		{"very high pcr overrides bull", 50, 1.9, plain, model.Bearish},
		{"very high pcr nifty strong", 70, 1.9, nifty, model.Neutral},
		{"very high pcr nifty weak", 50, 1.9, nifty, model.Bearish},
		{"high pcr nifty", 30, 1.5, nifty, model.Neutral},
		{"high pcr other", 30, 1.5, plain, model.Bearish},
		{"high pcr bearish untouched", -50, 1.9, plain, model.StronglyBearish},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.score, tt.rawPCR, tt.profile, p))
		})
	}

	p.ContextualSentiment = false
	assert.Equal(t, model.Bullish, classify(29, 1, results, p))
	assert.Equal(t, model.StronglyBullish, classify(50, 1.9, plain, p))
}

func TestPCRContributionBands(t *testing.T) {
	plain := marketctx.Profile{Symbol: "X"}
	bank := marketctx.Profile{Symbol: "HDFCBANK", BankNifty: true, Nifty50: true}
	retail := marketctx.Profile{Symbol: "TATASTEEL", Volatility: marketctx.VolatilityHigh, HighRetail: true}
	expiry := marketctx.Profile{Symbol: "X", ExpiryWeek: true}

	tests := []struct {
		name    string
		pcr     float64
		profile marketctx.Profile
		score   float64
	}{
		{"very low other", 0.55, plain, 12},
		{"very low expiry", 0.55, expiry, 17},
		{"bank low not very low", 0.55, bank, 10},
		{"low other", 0.75, plain, 8},
		{"neutral", 1.0, plain, 0},
		{"high other", 1.25, plain, -8},
		{"high vol not high", 1.25, retail, 0},
		{"very high other", 1.55, plain, -12},
		{"very high retail", 1.7, retail, -20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := pcrContribution(tt.pcr, tt.pcr, tt.profile)
			assert.InDelta(t, tt.score, c.Score, 1e-9)
		})
	}
}

func TestPCRMomentumContribution(t *testing.T) {
	tests := []struct {
		change float64
		pcr    float64
		score  float64
	}{
		{0, 1, 0},
		{-4, 1, 0},
		{-6, 1, 15},
		{6, 1, -15},
		{-12, 1, 30},
		{20, 1, -50},
		{-6, 0.25, 35},
		{6, 2.5, -35},
	}
	for _, tt := range tests {
		c := pcrMomentumContribution(tt.change, tt.pcr)
		assert.InDelta(t, tt.score, c.Score, 1e-9, "change=%v pcr=%v", tt.change, tt.pcr)
	}
}

func TestRoundToTick(t *testing.T) {
	assert.Equal(t, 1030.2, roundToTick(1030.19, 0.05))
	assert.Equal(t, 101.05, roundToTick(101.04, 0.05))
	assert.Equal(t, 101.0, roundToTick(101.02, 0.05))
	assert.Equal(t, 7.3, roundToTick(7.3, 0))
}

func TestDeriveTargets(t *testing.T) {
	res := []model.Level{{Strike: 1050}, {Strike: 1100}}
	sup := []model.Level{{Strike: 950}}

	bull := deriveTargets(10, 1000, res, sup, 0.05)
	assert.Equal(t, 1050.0, bull.Target1)
	assert.Equal(t, 1100.0, bull.Target2)
	assert.Equal(t, 950.0, bull.StopLoss)
	assert.InDelta(t, 1.0, bull.RiskReward, 1e-9)

	bear := deriveTargets(-10, 1000, res, sup, 0.05)
	assert.Equal(t, 950.0, bear.Target1)
	assert.Equal(t, 950.0, bear.Target2)
	assert.Equal(t, 1050.0, bear.StopLoss)

	flat := deriveTargets(0, 1000, res, sup, 0.05)
	assert.Equal(t, 1030.0, flat.Target1)
	assert.Equal(t, 970.0, flat.StopLoss)

	assert.Equal(t, 1.5, riskReward(1030, 1000, 1000))
}

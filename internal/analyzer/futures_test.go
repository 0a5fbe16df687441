package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FnoSentinel/internal/model"
)

func TestAnalyzeBuildup(t *testing.T) {
	tests := []struct {
		name        string
		priceChange float64
		oi          float64
		oiChange    float64
		want        model.Buildup
		level       string
		oiPct       float64
	}{
		{"long buildup weak", 5, 1100, 100, model.LongBuildup, "WEAK", 10},
		{"short buildup strong", -5, 2000, 1000, model.ShortBuildup, "STRONG", 100},
		{"long unwinding", -5, 900, -100, model.LongUnwinding, "WEAK", -10},
		{"short covering strong", 5, 500, -500, model.ShortCovering, "STRONG", -50},
		{"moderate", 1, 1450, 450, model.LongBuildup, "MODERATE", 45},
		{"flat price", 0, 1100, 100, model.NoBuildup, "WEAK", 10},
		{"no prior oi", 5, 1000, 1000, model.LongBuildup, "WEAK", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := analyzeBuildup(tt.priceChange, tt.oi, tt.oiChange)
			assert.Equal(t, tt.want, r.Type)
			assert.Equal(t, tt.level, r.Level)
			assert.InDelta(t, tt.oiPct, r.OIPct, 1e-9)
		})
	}
}

func TestAnalyzeBasis(t *testing.T) {
	p := DefaultParams()

	r := analyzeBasis(1010, 1000, 10, p)
	assert.InDelta(t, 10, r.Basis, 1e-9)
	assert.InDelta(t, 1, r.Pct, 1e-9)
	assert.InDelta(t, 36.5, r.Annualized, 1e-9)
	assert.Equal(t, "CONTANGO", r.Structure)
	assert.True(t, r.Arbitrage)

	r = analyzeBasis(997, 1000, 30, p)
	assert.Equal(t, "BACKWARDATION", r.Structure)
	assert.False(t, r.Arbitrage)

	r = analyzeBasis(1002, 1000, 0, p)
	assert.Equal(t, "NEUTRAL", r.Structure)
	assert.Zero(t, r.Annualized)
}

func TestAnalyzeRollover(t *testing.T) {
	tests := []struct {
		days     int
		cur      float64
		next     float64
		pressure string
		cost     float64
	}{
		{0, 1000, 0, "HIGH", 0},
		{-2, 1000, 0, "HIGH", 0},
		{2, 1000, 0, "HIGH", 1.6},
		{6, 1000, 0, "MEDIUM", 0.8},
		{20, 1000, 0, "LOW", 0.1},
		{4, 900, 100, "HIGH", 1.2},
		{20, 900, 100, "MEDIUM", 0.1},
		{20, 500, 500, "LOW", 0.1},
	}
	for _, tt := range tests {
		r := analyzeRollover(tt.days, tt.cur, tt.next)
		assert.Equal(t, tt.pressure, r.Pressure, "days=%d", tt.days)
		assert.InDelta(t, tt.cost, r.Cost, 1e-9, "days=%d", tt.days)
	}
}

func TestAnalyzeFutures_LongBuildup(t *testing.T) {
	e := newTestEngine(t)
	snap := &model.FuturesSnapshot{
		Symbol:    "TESTCO",
		SpotPrice: 1000,
		Contracts: []model.ContractRow{
			{ExpiryDate: "26-Mar-2026", LastPrice: 1010, PriceChange: 10, OpenInterest: 2000, OIChange: 1000, Volume: 200000},
		},
	}
	res, ok := e.AnalyzeFutures(FuturesInput{Snapshot: snap, Now: quietDay})
	require.True(t, ok)

	assert.Equal(t, 16, res.DaysToExpiry)
	assert.Equal(t, model.LongBuildup, res.Buildup)
	assert.Equal(t, "STRONG", res.BuildupStrength)
	assert.Equal(t, model.FuturesBullish, res.Signal)
	assert.True(t, res.Arbitrage)
	assert.Equal(t, "LOW", res.RolloverPressure)
	assert.InDelta(t, 75, res.Strength, 1e-9)
	assert.InDelta(t, 100, res.Confidence, 1e-9)
	assert.InDelta(t, 1030.2, res.Target1, 1e-9)
	assert.InDelta(t, 1050.4, res.Target2, 1e-9)
	assert.InDelta(t, 999.9, res.StopLoss, 1e-9)
	assert.InDelta(t, 2.0, res.RiskReward, 1e-6)
}

func TestAnalyzeFutures_NeutralAndDefaults(t *testing.T) {
	e := newTestEngine(t)
	snap := &model.FuturesSnapshot{
		Symbol:    "TESTCO",
		SpotPrice: 1000,
		Contracts: []model.ContractRow{
			{ExpiryDate: "not-a-date", LastPrice: 1001, OpenInterest: 5000, Volume: 10},
			{ExpiryDate: "30-Apr-2026", LastPrice: 1006, OpenInterest: 100},
		},
	}
	res, ok := e.AnalyzeFutures(FuturesInput{Snapshot: snap, Now: quietDay})
	require.True(t, ok)

	assert.Equal(t, 30, res.DaysToExpiry)
	assert.Equal(t, model.NoBuildup, res.Buildup)
	assert.Equal(t, model.FuturesNeutral, res.Signal)
	assert.Equal(t, 1001.0, res.Target1)
	assert.Equal(t, res.Target1, res.StopLoss)
	assert.Equal(t, 1.0, res.RiskReward)
	assert.Equal(t, "30-Apr-2026", res.NextExpiry)
	assert.Equal(t, 100.0, res.NextOI)
	assert.Equal(t, "MEDIUM", res.RolloverPressure)
}

func TestAnalyzeFutures_NoResult(t *testing.T) {
	e := newTestEngine(t)

	_, ok := e.AnalyzeFutures(FuturesInput{Snapshot: &model.FuturesSnapshot{Symbol: "X", SpotPrice: 100}})
	assert.False(t, ok)

	_, ok = e.AnalyzeFutures(FuturesInput{Snapshot: &model.FuturesSnapshot{
		Symbol:    "X",
		Contracts: []model.ContractRow{{LastPrice: 100}},
	}})
	assert.False(t, ok)

	for _, spot := range []float64{0, -5} {
		_, ok = e.AnalyzeFutures(FuturesInput{Snapshot: &model.FuturesSnapshot{
			Symbol:    "X",
			SpotPrice: spot,
			Contracts: []model.ContractRow{{LastPrice: 100, OpenInterest: 1000, OIChange: 100, PriceChange: 2}},
		}})
		assert.False(t, ok, "spot %v has no basis and no result", spot)
	}
}

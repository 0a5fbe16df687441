package recorder

import (
	"context"
	"encoding/json"
	"time"

	"FnoSentinel/internal/marketctx"
	"FnoSentinel/internal/model"
)

// Recorder persists scored results. Rows are appended, never updated.
type Recorder interface {
	SaveOptionResults(ctx context.Context, runID string, results []*model.AnalysisResult) error
	SaveFuturesResults(ctx context.Context, runID string, results []*model.FuturesResult) error
	// PreviousPCR returns the most recent stored PCR of symbol on tradingDate
	// (YYYY-MM-DD, IST), or ErrNotFound when nothing is stored yet.
	PreviousPCR(ctx context.Context, symbol, tradingDate string) (float64, error)

	SaveTurnoverSamples(ctx context.Context, runID string, samples []model.TurnoverSample) error
	SaveTurnoverSurges(ctx context.Context, runID string, surges []model.TurnoverSurge) error
	// TurnoverAsOf returns, per symbol, the positive turnover sampled on at's
	// trading date: the latest sample at or before at, else the latest of
	// that date. ErrNotFound when the date has no samples.
	TurnoverAsOf(ctx context.Context, at time.Time) (map[string]float64, error)

	Close() error
}

// optionRow is the flattened option_chain_analysis row shared by all backends.
type optionRow struct {
	RunID            string    `db:"run_id" ch:"run_id"`
	Symbol           string    `db:"symbol" ch:"symbol"`
	TradingDate      string    `db:"trading_date" ch:"trading_date"`
	AnalyzedAt       time.Time `db:"analyzed_at" ch:"analyzed_at"`
	SpotPrice        float64   `db:"spot_price" ch:"spot_price"`
	Score            float64   `db:"score" ch:"score"`
	Sentiment        string    `db:"sentiment" ch:"sentiment"`
	Confidence       float64   `db:"confidence" ch:"confidence"`
	PCR              float64   `db:"overall_pcr" ch:"overall_pcr"`
	NormalizedPCR    float64   `db:"normalized_pcr" ch:"normalized_pcr"`
	PreviousPCR      *float64  `db:"previous_pcr" ch:"previous_pcr"`
	PCRChangePct     float64   `db:"pcr_change_pct" ch:"pcr_change_pct"`
	PCRMomentumScore float64   `db:"pcr_momentum_score" ch:"pcr_momentum_score"`
	MaxPain          float64   `db:"max_pain" ch:"max_pain"`
	SupportLevels    string    `db:"support_levels" ch:"support_levels"`
	ResistanceLevels string    `db:"resistance_levels" ch:"resistance_levels"`
	Zone             string    `db:"zone" ch:"zone"`
	ZoneBias         string    `db:"zone_bias" ch:"zone_bias"`
	UnusualActivity  string    `db:"unusual_activity" ch:"unusual_activity"`
	Signals          string    `db:"signals" ch:"signals"`
	BullishFlow      float64   `db:"bullish_flow" ch:"bullish_flow"`
	BearishFlow      float64   `db:"bearish_flow" ch:"bearish_flow"`
	NetFlow          float64   `db:"net_flow" ch:"net_flow"`
	NetCallBuildup   float64   `db:"net_call_buildup" ch:"net_call_buildup"`
	NetPutBuildup    float64   `db:"net_put_buildup" ch:"net_put_buildup"`
	HedgingRatio     float64   `db:"hedging_ratio" ch:"hedging_ratio"`
	Target1          float64   `db:"target_1" ch:"target_1"`
	Target2          float64   `db:"target_2" ch:"target_2"`
	StopLoss         float64   `db:"stop_loss" ch:"stop_loss"`
	RiskReward       float64   `db:"risk_reward" ch:"risk_reward"`
	Contributions    string    `db:"contributions" ch:"contributions"`
	Reasoning        string    `db:"reasoning" ch:"reasoning"`
}

func newOptionRow(runID string, r *model.AnalysisResult) optionRow {
	return optionRow{
		RunID:            runID,
		Symbol:           r.Symbol,
		TradingDate:      marketctx.TradingDate(r.AnalyzedAt),
		AnalyzedAt:       r.AnalyzedAt.UTC(),
		SpotPrice:        r.SpotPrice,
		Score:            r.Score,
		Sentiment:        string(r.Sentiment),
		Confidence:       r.Confidence,
		PCR:              r.PCR,
		NormalizedPCR:    r.NormalizedPCR,
		PreviousPCR:      r.PreviousPCR,
		PCRChangePct:     r.PCRChangePct,
		PCRMomentumScore: r.PCRMomentumScore,
		MaxPain:          r.MaxPain,
		SupportLevels:    toJSON(r.SupportLevels),
		ResistanceLevels: toJSON(r.ResistanceLevels),
		Zone:             r.Zone.Name,
		ZoneBias:         r.Zone.Bias,
		UnusualActivity:  toJSON(r.UnusualActivity),
		Signals:          toJSON(r.Signals),
		BullishFlow:      r.BullishFlow,
		BearishFlow:      r.BearishFlow,
		NetFlow:          r.NetFlow,
		NetCallBuildup:   r.NetCallBuildup,
		NetPutBuildup:    r.NetPutBuildup,
		HedgingRatio:     r.HedgingRatio,
		Target1:          r.Target1,
		Target2:          r.Target2,
		StopLoss:         r.StopLoss,
		RiskReward:       r.RiskReward,
		Contributions:    toJSON(r.Contributions),
		Reasoning:        r.Reasoning,
	}
}

// futuresRow is the flattened futures_analysis row shared by all backends.
type futuresRow struct {
	RunID            string    `db:"run_id" ch:"run_id"`
	Symbol           string    `db:"symbol" ch:"symbol"`
	TradingDate      string    `db:"trading_date" ch:"trading_date"`
	AnalyzedAt       time.Time `db:"analyzed_at" ch:"analyzed_at"`
	CurrentExpiry    string    `db:"current_expiry" ch:"current_expiry"`
	CurrentPrice     float64   `db:"current_price" ch:"current_price"`
	CurrentOI        float64   `db:"current_oi" ch:"current_oi"`
	CurrentVolume    float64   `db:"current_volume" ch:"current_volume"`
	CurrentOIChange  float64   `db:"current_oi_change" ch:"current_oi_change"`
	NextExpiry       string    `db:"next_expiry" ch:"next_expiry"`
	NextPrice        float64   `db:"next_price" ch:"next_price"`
	NextOI           float64   `db:"next_oi" ch:"next_oi"`
	SpotPrice        float64   `db:"spot_price" ch:"spot_price"`
	Basis            float64   `db:"basis" ch:"basis"`
	BasisPct         float64   `db:"basis_pct" ch:"basis_pct"`
	AnnualizedBasis  float64   `db:"annualized_basis" ch:"annualized_basis"`
	Structure        string    `db:"market_structure" ch:"market_structure"`
	Arbitrage        bool      `db:"arbitrage" ch:"arbitrage"`
	Buildup          string    `db:"buildup" ch:"buildup"`
	BuildupStrength  string    `db:"buildup_strength" ch:"buildup_strength"`
	OIChangePct      float64   `db:"oi_change_pct" ch:"oi_change_pct"`
	DaysToExpiry     int64     `db:"days_to_expiry" ch:"days_to_expiry"`
	RolloverPressure string    `db:"rollover_pressure" ch:"rollover_pressure"`
	RolloverCost     float64   `db:"rollover_cost" ch:"rollover_cost"`
	Signal           string    `db:"signal" ch:"signal"`
	Strength         float64   `db:"strength" ch:"strength"`
	Confidence       float64   `db:"confidence" ch:"confidence"`
	Target1          float64   `db:"target_1" ch:"target_1"`
	Target2          float64   `db:"target_2" ch:"target_2"`
	StopLoss         float64   `db:"stop_loss" ch:"stop_loss"`
	RiskReward       float64   `db:"risk_reward" ch:"risk_reward"`
	Reasoning        string    `db:"reasoning" ch:"reasoning"`
}

func newFuturesRow(runID string, r *model.FuturesResult) futuresRow {
	return futuresRow{
		RunID:            runID,
		Symbol:           r.Symbol,
		TradingDate:      marketctx.TradingDate(r.AnalyzedAt),
		AnalyzedAt:       r.AnalyzedAt.UTC(),
		CurrentExpiry:    r.CurrentExpiry,
		CurrentPrice:     r.CurrentPrice,
		CurrentOI:        r.CurrentOI,
		CurrentVolume:    r.CurrentVolume,
		CurrentOIChange:  r.CurrentOIChange,
		NextExpiry:       r.NextExpiry,
		NextPrice:        r.NextPrice,
		NextOI:           r.NextOI,
		SpotPrice:        r.SpotPrice,
		Basis:            r.Basis,
		BasisPct:         r.BasisPct,
		AnnualizedBasis:  r.AnnualizedBasis,
		Structure:        r.Structure,
		Arbitrage:        r.Arbitrage,
		Buildup:          string(r.Buildup),
		BuildupStrength:  r.BuildupStrength,
		OIChangePct:      r.OIChangePct,
		DaysToExpiry:     int64(r.DaysToExpiry),
		RolloverPressure: r.RolloverPressure,
		RolloverCost:     r.RolloverCost,
		Signal:           string(r.Signal),
		Strength:         r.Strength,
		Confidence:       r.Confidence,
		Target1:          r.Target1,
		Target2:          r.Target2,
		StopLoss:         r.StopLoss,
		RiskReward:       r.RiskReward,
		Reasoning:        r.Reasoning,
	}
}

type turnoverSampleRow struct {
	RunID       string    `db:"run_id" ch:"run_id"`
	Symbol      string    `db:"symbol" ch:"symbol"`
	IndexName   string    `db:"index_name" ch:"index_name"`
	TradingDate string    `db:"trading_date" ch:"trading_date"`
	SampledAt   time.Time `db:"sampled_at" ch:"sampled_at"`
	Turnover    float64   `db:"turnover" ch:"turnover"`
	LastPrice   float64   `db:"last_price" ch:"last_price"`
}

func newTurnoverSampleRow(runID string, s model.TurnoverSample) turnoverSampleRow {
	return turnoverSampleRow{
		RunID:       runID,
		Symbol:      s.Symbol,
		IndexName:   s.IndexName,
		TradingDate: marketctx.TradingDate(s.SampledAt),
		SampledAt:   s.SampledAt.UTC(),
		Turnover:    s.Turnover,
		LastPrice:   s.LastPrice,
	}
}

type turnoverSurgeRow struct {
	RunID            string    `db:"run_id" ch:"run_id"`
	Symbol           string    `db:"symbol" ch:"symbol"`
	IndexName        string    `db:"index_name" ch:"index_name"`
	TradingDate      string    `db:"trading_date" ch:"trading_date"`
	DetectedAt       time.Time `db:"detected_at" ch:"detected_at"`
	Turnover         float64   `db:"turnover" ch:"turnover"`
	PreviousTurnover float64   `db:"previous_turnover" ch:"previous_turnover"`
	Increase         float64   `db:"increase" ch:"increase"`
	IncreasePct      float64   `db:"increase_pct" ch:"increase_pct"`
	PreviousDate     string    `db:"previous_date" ch:"previous_date"`
}

func newTurnoverSurgeRow(runID string, s model.TurnoverSurge) turnoverSurgeRow {
	return turnoverSurgeRow{
		RunID:            runID,
		Symbol:           s.Symbol,
		IndexName:        s.IndexName,
		TradingDate:      marketctx.TradingDate(s.DetectedAt),
		DetectedAt:       s.DetectedAt.UTC(),
		Turnover:         s.Turnover,
		PreviousTurnover: s.PreviousTurnover,
		Increase:         s.Increase,
		IncreasePct:      s.IncreasePct,
		PreviousDate:     s.PreviousDate,
	}
}

// toJSON encodes list columns; nil encodes as "[]".
func toJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "[]"
	}
	return string(b)
}

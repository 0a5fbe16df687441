package model

import "time"

// Sentiment is the label set of the option-chain path.
type Sentiment string

const (
	StronglyBullish Sentiment = "STRONGLY_BULLISH"
	Bullish         Sentiment = "BULLISH"
	Neutral         Sentiment = "NEUTRAL"
	Bearish         Sentiment = "BEARISH"
	StronglyBearish Sentiment = "STRONGLY_BEARISH"
)

// Contribution is what a single sub-scorer adds to the final result.
type Contribution struct {
	Name       string   `json:"name"`
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Signals    []string `json:"signals,omitempty"`
	Reasoning  string   `json:"reasoning,omitempty"`
}

// Level is a support or resistance strike.
type Level struct {
	Strike   float64 `json:"strike"`
	Strength float64 `json:"strength"`
	Type     string  `json:"type"`
	OI       float64 `json:"oi"`
	OIChange float64 `json:"oi_change"`
	Volume   float64 `json:"volume"`
}

// Zone describes where spot sits relative to its nearest levels.
type Zone struct {
	Name              string  `json:"current_zone"`
	Bias              string  `json:"zone_bias"`
	NearestResistance float64 `json:"nearest_resistance,omitempty"`
	NearestSupport    float64 `json:"nearest_support,omitempty"`
	ResistanceDistPct float64 `json:"resistance_distance_pct"`
	SupportDistPct    float64 `json:"support_distance_pct"`
	RiskReward        float64 `json:"risk_reward_ratio"`
	Reasoning         string  `json:"zone_reasoning"`
}

// AnalysisResult is the scored output for one option-chain snapshot. It is
// written once and never updated.
type AnalysisResult struct {
	Symbol     string    `json:"symbol"`
	SpotPrice  float64   `json:"current_price"`
	Score      float64   `json:"score"`
	Sentiment  Sentiment `json:"institutional_sentiment"`
	Confidence float64   `json:"confidence"`

	PCR              float64  `json:"overall_pcr"`
	NormalizedPCR    float64  `json:"normalized_pcr"`
	PreviousPCR      *float64 `json:"previous_pcr,omitempty"`
	PCRChangePct     float64  `json:"pcr_change_percent"`
	PCRMomentumScore float64  `json:"pcr_momentum_score"`

	MaxPain          float64   `json:"max_pain"`
	SupportLevels    []float64 `json:"support_levels"`
	ResistanceLevels []float64 `json:"resistance_levels"`
	Zone             Zone      `json:"zone"`

	UnusualActivity []string `json:"unusual_activity"`
	Signals         []string `json:"strength_signals"`

	BullishFlow    float64 `json:"institutional_bullish_flow"`
	BearishFlow    float64 `json:"institutional_bearish_flow"`
	NetFlow        float64 `json:"net_institutional_flow"`
	NetCallBuildup float64 `json:"net_call_buildup"`
	NetPutBuildup  float64 `json:"net_put_buildup"`
	HedgingRatio   float64 `json:"hedging_ratio"`

	Target1    float64 `json:"target_1"`
	Target2    float64 `json:"target_2"`
	StopLoss   float64 `json:"stop_loss"`
	RiskReward float64 `json:"risk_reward_ratio"`

	Contributions []Contribution `json:"contributions"`
	Reasoning     string         `json:"reasoning"`
	AnalyzedAt    time.Time      `json:"analysis_timestamp"`
}

// Contribution returns the named contribution, if present.
func (r *AnalysisResult) Contribution(name string) (Contribution, bool) {
	for _, c := range r.Contributions {
		if c.Name == name {
			return c, true
		}
	}
	return Contribution{}, false
}

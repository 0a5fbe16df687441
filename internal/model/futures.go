package model

import "time"

// ContractRow is one futures contract of an underlying.
type ContractRow struct {
	ExpiryDate      string  `json:"expiry_date"`
	LastPrice       float64 `json:"last_price"`
	PriceChange     float64 `json:"price_change"`
	OpenInterest    float64 `json:"open_interest"`
	OIChange        float64 `json:"oi_change"`
	Volume          float64 `json:"volume"`
	UnderlyingValue float64 `json:"underlying_value"`
}

// FuturesSnapshot holds the listed contracts of one symbol, current month first.
type FuturesSnapshot struct {
	Symbol    string
	SpotPrice float64
	Contracts []ContractRow
	FetchedAt time.Time
}

// FuturesSignal is the label set of the futures path. It is deliberately a
// separate type from Sentiment.
type FuturesSignal string

const (
	FuturesBullish   FuturesSignal = "BULLISH"
	FuturesBearish   FuturesSignal = "BEARISH"
	FuturesNeutral   FuturesSignal = "NEUTRAL"
	FuturesArbitrage FuturesSignal = "ARBITRAGE"
)

// Buildup classifies OI change against price direction.
type Buildup string

const (
	LongBuildup   Buildup = "LONG_BUILDUP"
	ShortBuildup  Buildup = "SHORT_BUILDUP"
	LongUnwinding Buildup = "LONG_UNWINDING"
	ShortCovering Buildup = "SHORT_COVERING"
	NoBuildup     Buildup = "NEUTRAL"
)

// FuturesResult is the scored output for one futures snapshot.
type FuturesResult struct {
	Symbol string `json:"symbol"`

	CurrentExpiry   string  `json:"current_month_expiry"`
	CurrentPrice    float64 `json:"current_price"`
	CurrentOI       float64 `json:"current_open_interest"`
	CurrentVolume   float64 `json:"current_volume"`
	CurrentOIChange float64 `json:"current_change_in_oi"`
	NextExpiry      string  `json:"next_month_expiry"`
	NextPrice       float64 `json:"next_month_price"`
	NextOI          float64 `json:"next_month_oi"`
	SpotPrice       float64 `json:"spot_price"`

	Basis           float64 `json:"basis"`
	BasisPct        float64 `json:"basis_percentage"`
	AnnualizedBasis float64 `json:"annualized_basis"`
	Structure       string  `json:"market_structure"`
	Arbitrage       bool    `json:"arbitrage_opportunity"`

	Buildup         Buildup `json:"oi_buildup_type"`
	BuildupStrength string  `json:"oi_strength"`
	OIChangePct     float64 `json:"oi_change_percentage"`

	DaysToExpiry     int     `json:"days_to_expiry"`
	RolloverPressure string  `json:"rollover_pressure"`
	RolloverCost     float64 `json:"rollover_cost"`

	Signal     FuturesSignal `json:"signal_type"`
	Strength   float64       `json:"signal_strength"`
	Confidence float64       `json:"confidence"`
	Target1    float64       `json:"target_1"`
	Target2    float64       `json:"target_2"`
	StopLoss   float64       `json:"stop_loss"`
	RiskReward float64       `json:"risk_reward_ratio"`
	Reasoning  string        `json:"reasoning"`

	AnalyzedAt time.Time `json:"analysis_timestamp"`
}

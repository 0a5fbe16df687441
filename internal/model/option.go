package model

import "time"

// OptionLeg is one side (CE or PE) of a strike.
type OptionLeg struct {
	OpenInterest float64 `json:"open_interest"`
	OIChange     float64 `json:"oi_change"`
	Volume       float64 `json:"volume"`
	LastPrice    float64 `json:"last_price"`
	PriceChange  float64 `json:"price_change"`
}

// StrikeRow is one strike of the option chain.
type StrikeRow struct {
	Strike float64   `json:"strike"`
	Call   OptionLeg `json:"call"`
	Put    OptionLeg `json:"put"`
}

// InstrumentSnapshot is the option chain of one symbol at one point in time.
// It is built once by the collector and not modified afterwards.
type InstrumentSnapshot struct {
	Symbol    string
	SpotPrice float64
	Expiry    string
	Rows      []StrikeRow
	FetchedAt time.Time
}

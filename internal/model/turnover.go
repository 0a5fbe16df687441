package model

import "time"

// Crore is ten million rupees, the unit turnover is reported in.
const Crore = 1e7

// TurnoverSample is one index constituent's cumulative traded value for the
// session at SampledAt.
type TurnoverSample struct {
	Symbol    string    `json:"symbol"`
	IndexName string    `json:"index_name"`
	Turnover  float64   `json:"turnover"`
	LastPrice float64   `json:"last_price"`
	SampledAt time.Time `json:"sampled_at"`
}

// TurnoverSurge flags a symbol trading well ahead of its pace at the same
// time of day on the previous session.
type TurnoverSurge struct {
	Symbol           string    `json:"symbol"`
	IndexName        string    `json:"index_name"`
	Turnover         float64   `json:"turnover"`
	PreviousTurnover float64   `json:"previous_turnover"`
	Increase         float64   `json:"increase"`
	IncreasePct      float64   `json:"increase_pct"`
	PreviousDate     string    `json:"previous_date"`
	DetectedAt       time.Time `json:"detected_at"`
}

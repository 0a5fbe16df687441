package model

import "time"

// Cycle kinds.
const (
	CycleOptions  = "options"
	CycleFutures  = "futures"
	CycleTurnover = "turnover"
)

// CycleStats summarizes one scheduled pass over the active symbols.
type CycleStats struct {
	Kind       string    `json:"kind"`
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Symbols    int       `json:"symbols"`
	Analyzed   int       `json:"analyzed"`
	Stored     int       `json:"stored"`
	Skipped    int       `json:"skipped"`
	Errors     int       `json:"errors"`
}

// Duration is the wall time of the cycle.
func (s CycleStats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

package analyzer

import (
	"sort"
	"time"

	"FnoSentinel/internal/model"
)

// DetectTurnoverSurges compares each sample with the symbol's turnover at the
// same time of day on the previous session. A surge needs today's turnover of
// at least TurnoverMin, growth of at least TurnoverSurgeMultiple and an
// absolute increase of at least TurnoverMinIncrease. Symbols without a
// positive previous turnover are skipped. Surges are ordered by percentage
// increase, largest first, and capped at TurnoverMaxAlerts when it is set.
func DetectTurnoverSurges(today []model.TurnoverSample, previous map[string]float64, previousDate string, p Params, now time.Time) []model.TurnoverSurge {
	minPct := (p.TurnoverSurgeMultiple - 1) * 100

	var out []model.TurnoverSurge
	for _, s := range today {
		prev, ok := previous[s.Symbol]
		if !ok || prev <= 0 {
			continue
		}
		if s.Turnover < p.TurnoverMin {
			continue
		}
		increase := s.Turnover - prev
		pct := increase / prev * 100
		if pct < minPct || increase < p.TurnoverMinIncrease {
			continue
		}
		out = append(out, model.TurnoverSurge{
			Symbol:           s.Symbol,
			IndexName:        s.IndexName,
			Turnover:         s.Turnover,
			PreviousTurnover: prev,
			Increase:         increase,
			IncreasePct:      pct,
			PreviousDate:     previousDate,
			DetectedAt:       now,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].IncreasePct > out[j].IncreasePct })
	if p.TurnoverMaxAlerts > 0 && len(out) > p.TurnoverMaxAlerts {
		out = out[:p.TurnoverMaxAlerts]
	}
	return out
}

package analyzer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FnoSentinel/internal/model"
)

func TestDetectTurnoverSurges_Thresholds(t *testing.T) {
	const cr = model.Crore
	tests := []struct {
		name     string
		today    float64
		previous float64
		hasPrev  bool
		want     bool
	}{
		{"fifty percent and 25 cr", 75 * cr, 50 * cr, true, true},
		{"just under fifty percent", 74.9 * cr, 50 * cr, true, false},
		{"fifty percent but under 25 cr", 30 * cr, 20 * cr, true, false},
		{"exactly 25 cr increase", 35 * cr, 10 * cr, true, true},
		{"under 5 cr today", 4.9 * cr, 0.1 * cr, true, false},
		{"turnover fell", 40 * cr, 80 * cr, true, false},
		{"no previous sample", 500 * cr, 0, false, false},
		{"zero previous turnover", 500 * cr, 0, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := map[string]float64{}
			if tt.hasPrev {
				prev["CUMMINS"] = tt.previous
			}
			today := []model.TurnoverSample{{Symbol: "CUMMINS", IndexName: "NIFTY MIDCAP 50", Turnover: tt.today}}

			got := DetectTurnoverSurges(today, prev, "2026-03-09", DefaultParams(), quietDay)
			if !tt.want {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.InDelta(t, tt.today-tt.previous, got[0].Increase, 1e-6)
			assert.InDelta(t, (tt.today-tt.previous)/tt.previous*100, got[0].IncreasePct, 1e-9)
			assert.Equal(t, "2026-03-09", got[0].PreviousDate)
			assert.Equal(t, quietDay, got[0].DetectedAt)
		})
	}
}

func TestDetectTurnoverSurges_OrderAndCap(t *testing.T) {
	const cr = model.Crore
	var today []model.TurnoverSample
	prev := map[string]float64{}
	for i := 0; i < 12; i++ {
		sym := fmt.Sprintf("S%02d", i)
		prev[sym] = 50 * cr
		today = append(today, model.TurnoverSample{Symbol: sym, Turnover: float64(100+10*i) * cr})
	}

	got := DetectTurnoverSurges(today, prev, "", DefaultParams(), quietDay)
	require.Len(t, got, 10)
	assert.Equal(t, "S11", got[0].Symbol)
	assert.InDelta(t, 320, got[0].IncreasePct, 1e-9)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].IncreasePct, got[i].IncreasePct)
	}

	p := DefaultParams()
	p.TurnoverMaxAlerts = 0
	assert.Len(t, DetectTurnoverSurges(today, prev, "", p, quietDay), 12, "zero disables the cap")
}

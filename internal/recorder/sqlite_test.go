package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FnoSentinel/internal/marketctx"
	"FnoSentinel/internal/model"
	"FnoSentinel/pkg/errors"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "sentinel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func optionResult(symbol string, pcr float64, at time.Time) *model.AnalysisResult {
	return &model.AnalysisResult{
		Symbol:           symbol,
		SpotPrice:        1000,
		Score:            42,
		Sentiment:        model.StronglyBullish,
		Confidence:       70,
		PCR:              pcr,
		NormalizedPCR:    pcr,
		SupportLevels:    []float64{950, 900},
		ResistanceLevels: []float64{1050},
		Zone:             model.Zone{Name: "BETWEEN_LEVELS", Bias: "NEUTRAL"},
		Signals:          []string{"HEAVY_CALL_BUYING_1000"},
		Contributions:    []model.Contribution{{Name: "flow", Score: 30}},
		AnalyzedAt:       at,
	}
}

func TestSQLiteRecorder_PreviousPCR(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()
	morning := time.Date(2026, 3, 10, 10, 0, 0, 0, marketctx.IST)
	date := marketctx.TradingDate(morning)

	_, err := r.PreviousPCR(ctx, "TCS", date)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	require.NoError(t, r.SaveOptionResults(ctx, "run-1", []*model.AnalysisResult{
		optionResult("TCS", 0.9, morning),
		optionResult("INFY", 1.4, morning),
	}))
	require.NoError(t, r.SaveOptionResults(ctx, "run-2", []*model.AnalysisResult{
		optionResult("TCS", 1.1, morning.Add(15*time.Minute)),
	}))

	pcr, err := r.PreviousPCR(ctx, "TCS", date)
	require.NoError(t, err)
	assert.Equal(t, 1.1, pcr)

	_, err = r.PreviousPCR(ctx, "TCS", "2026-03-11")
	assert.True(t, errors.Is(err, errors.ErrNotFound), "previous pcr is scoped to the trading day")
}

func TestSQLiteRecorder_PreviousPCRSameTimestamp(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, marketctx.IST)

	require.NoError(t, r.SaveOptionResults(ctx, "run-1", []*model.AnalysisResult{optionResult("TCS", 0.7, at)}))
	require.NoError(t, r.SaveOptionResults(ctx, "run-2", []*model.AnalysisResult{optionResult("TCS", 1.3, at)}))

	pcr, err := r.PreviousPCR(ctx, "TCS", marketctx.TradingDate(at))
	require.NoError(t, err)
	assert.Equal(t, 1.3, pcr, "later insert wins a timestamp tie")
	assert.Contains(t, previousPCRQuery, "ORDER BY analyzed_at DESC, id DESC")
}

func TestSQLiteRecorder_TurnoverAsOf(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()
	day := func(hh, mm int) time.Time { return time.Date(2026, 3, 9, hh, mm, 0, 0, marketctx.IST) }
	sample := func(symbol string, turnover float64, at time.Time) model.TurnoverSample {
		return model.TurnoverSample{Symbol: symbol, IndexName: "NIFTY MIDCAP 50", Turnover: turnover, SampledAt: at}
	}

	_, err := r.TurnoverAsOf(ctx, day(11, 40))
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	require.NoError(t, r.SaveTurnoverSamples(ctx, "run-1", []model.TurnoverSample{
		sample("CUMMINS", 1e8, day(11, 10)),
		sample("DIXON", 2e8, day(12, 10)),
		sample("IEX", 0, day(11, 10)),
	}))
	require.NoError(t, r.SaveTurnoverSamples(ctx, "run-2", []model.TurnoverSample{
		sample("CUMMINS", 3e8, day(11, 40)),
		sample("DIXON", 4e8, day(12, 40)),
	}))
	require.NoError(t, r.SaveTurnoverSamples(ctx, "run-3", []model.TurnoverSample{
		sample("CUMMINS", 9e8, time.Date(2026, 3, 10, 11, 10, 0, 0, marketctx.IST)),
	}))

	got, err := r.TurnoverAsOf(ctx, day(11, 40))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		"CUMMINS": 3e8, // latest at or before the cutoff
		"DIXON":   4e8, // nothing before the cutoff, latest of the day
	}, got)
}

func TestSQLiteRecorder_SavesTurnoverSurges(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 10, 11, 40, 0, 0, marketctx.IST)

	require.NoError(t, r.SaveTurnoverSurges(ctx, "run-1", []model.TurnoverSurge{{
		Symbol: "CUMMINS", IndexName: "NIFTY MIDCAP 50", Turnover: 9e8, PreviousTurnover: 3e8,
		Increase: 6e8, IncreasePct: 200, PreviousDate: "2026-03-09", DetectedAt: at,
	}}))
	assert.NoError(t, r.SaveTurnoverSurges(ctx, "run-2", nil))

	var (
		date string
		pct  float64
	)
	require.NoError(t, r.db.QueryRow(`SELECT trading_date, increase_pct FROM turnover_surges WHERE symbol = 'CUMMINS'`).
		Scan(&date, &pct))
	assert.Equal(t, "2026-03-10", date)
	assert.Equal(t, 200.0, pct)
}

func TestSQLiteRecorder_StoresRows(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 10, 11, 0, 0, 0, marketctx.IST)

	prev := 0.8
	res := optionResult("SBIN", 1.0, at)
	res.PreviousPCR = &prev
	require.NoError(t, r.SaveOptionResults(ctx, "run-1", []*model.AnalysisResult{res}))

	require.NoError(t, r.SaveFuturesResults(ctx, "run-1", []*model.FuturesResult{{
		Symbol:        "SBIN",
		CurrentExpiry: "26-Mar-2026",
		CurrentPrice:  1004,
		SpotPrice:     1000,
		Arbitrage:     true,
		Buildup:       model.LongBuildup,
		Signal:        model.FuturesBullish,
		DaysToExpiry:  16,
		AnalyzedAt:    at,
	}}))

	var (
		levels, date string
		storedPrev   float64
	)
	require.NoError(t, r.db.QueryRow(`SELECT support_levels, trading_date, previous_pcr
		FROM option_chain_analysis WHERE symbol = 'SBIN'`).Scan(&levels, &date, &storedPrev))
	assert.Equal(t, "[950,900]", levels)
	assert.Equal(t, "2026-03-10", date)
	assert.Equal(t, 0.8, storedPrev)

	var (
		buildup string
		days    int
	)
	require.NoError(t, r.db.QueryRow(`SELECT buildup, days_to_expiry FROM futures_analysis WHERE run_id = 'run-1'`).
		Scan(&buildup, &days))
	assert.Equal(t, "LONG_BUILDUP", buildup)
	assert.Equal(t, 16, days)
}

func TestSQLiteRecorder_EmptyBatch(t *testing.T) {
	r := newTestRecorder(t)
	assert.NoError(t, r.SaveOptionResults(context.Background(), "run", nil))
	assert.NoError(t, r.SaveFuturesResults(context.Background(), "run", nil))
}

func TestStaticSymbols(t *testing.T) {
	got, err := StaticSymbols{"tcs", " INFY ", "TCS", ""}.ActiveSymbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"TCS", "INFY"}, got)

	_, err = StaticSymbols{}.ActiveSymbols(context.Background())
	assert.True(t, errors.Is(err, errors.ErrNoData))
}

func TestInsertBuilders(t *testing.T) {
	assert.Equal(t, "INSERT INTO t (a, b) VALUES (?,?)", positionalInsert("t", []string{"a", "b"}))
	assert.Equal(t, "INSERT INTO t (a, b) VALUES (:a, :b)", namedInsert("t", []string{"a", "b"}))
	assert.Len(t, newOptionRow("r", optionResult("X", 1, time.Now())).sqliteArgs(), len(optionColumns))
	assert.Len(t, newFuturesRow("r", &model.FuturesResult{}).sqliteArgs(), len(futuresColumns))
	assert.Len(t, newTurnoverSampleRow("r", model.TurnoverSample{}).sqliteArgs(), len(turnoverColumns))
	assert.Len(t, newTurnoverSurgeRow("r", model.TurnoverSurge{}).sqliteArgs(), len(surgeColumns))
}

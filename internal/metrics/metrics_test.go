package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	return rec.Body.String()
}

func TestInitIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Init()
		Init()
	})
}

func TestObserveCycle(t *testing.T) {
	Init()
	ObserveCycle("options", "success", time.Now().Add(-time.Second))

	body := scrape(t)
	assert.Contains(t, body, `fno_sentinel_cycle_runs_total{kind="options",status="success"}`)
	assert.Contains(t, body, `fno_sentinel_cycle_duration_seconds_count{kind="options"}`)
	assert.Contains(t, body, `fno_sentinel_cycle_last_run_timestamp{kind="options"}`)
}

func TestHandlerExposesCollectors(t *testing.T) {
	Init()
	SymbolsAnalyzed.WithLabelValues("futures", "analyzed").Inc()
	assert.Contains(t, scrape(t), "fno_sentinel_symbols_total")
}

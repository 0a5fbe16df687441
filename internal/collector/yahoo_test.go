package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FnoSentinel/pkg/errors"
)

const chartBody = `{"chart": {"result": [{
  "timestamp": [1773100800, 1772928000, 1773014400, 1773187200],
  "indicators": {"quote": [{
    "open":   [102, 100, null, 103],
    "high":   [104, 101, null, 105],
    "low":    [101, 99, null, 102],
    "close":  [103, 100.5, null, 104],
    "volume": [2000, 1000, null, 3000]
  }]}
}], "error": null}}`

func TestParseYahooChart(t *testing.T) {
	bars, err := parseYahooChart([]byte(chartBody))
	require.NoError(t, err)
	require.Len(t, bars, 3, "null bar is skipped")

	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i-1].Time.Before(bars[i].Time))
	}
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, 104.0, bars[2].Close)
	assert.Equal(t, 3000.0, bars[2].Volume)
}

func TestParseYahooChart_Errors(t *testing.T) {
	_, err := parseYahooChart([]byte(`{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found"}}}`))
	assert.ErrorContains(t, err, "No data found")

	_, err = parseYahooChart([]byte(`{"chart": {"result": []}}`))
	assert.True(t, errors.Is(err, errors.ErrNoData))
}

func TestYahooFetcher_FetchDailyBars(t *testing.T) {
	var gotPath, gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		_, _ = w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", time.Second, nil)
	f.BaseURL = srv.URL

	bars, err := f.FetchDailyBars(context.Background(), "RELIANCE", 2)
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/RELIANCE.NS", gotPath)
	assert.Equal(t, "5d", gotRange)
	require.Len(t, bars, 2, "trimmed to the most recent bars")
	assert.Equal(t, 104.0, bars[1].Close)
}

func TestYahooFetcher_SymbolMapping(t *testing.T) {
	f := NewYahooFetcher("", 0, nil)
	assert.Equal(t, "^NSEI", f.yahooSymbol("NIFTY"))
	assert.Equal(t, "TCS.NS", f.yahooSymbol("TCS"))
	assert.Equal(t, "M&M.NS", f.yahooSymbol("M&M"))
	assert.Equal(t, "AAPL.US", f.yahooSymbol("AAPL.US"))
}

func TestYahooFetcher_StatusError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"throttled", http.StatusTooManyRequests, errors.ErrRateLimitExceeded},
		{"bad gateway", http.StatusBadGateway, errors.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			f := NewYahooFetcher("", time.Second, nil)
			f.BaseURL = srv.URL
			_, err := f.FetchDailyBars(context.Background(), "TCS", 5)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

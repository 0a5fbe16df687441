package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"FnoSentinel/pkg/logger"
)

var (
	// Cycle metrics
	CycleRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fno_sentinel_cycle_runs_total",
			Help: "Total number of analysis cycles",
		},
		[]string{"kind", "status"}, // status: success|error|skipped|locked
	)

	CycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fno_sentinel_cycle_duration_seconds",
			Help:    "Cycle duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	CycleLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fno_sentinel_cycle_last_run_timestamp",
			Help: "Unix timestamp of the last completed cycle",
		},
		[]string{"kind"},
	)

	// Symbol metrics
	SymbolsAnalyzed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fno_sentinel_symbols_total",
			Help: "Per-symbol analysis outcomes",
		},
		[]string{"kind", "status"}, // status: analyzed|skipped|error
	)

	SignalsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fno_sentinel_signals_total",
			Help: "Emitted results by label",
		},
		[]string{"kind", "label"},
	)

	SentimentScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fno_sentinel_sentiment_score",
			Help:    "Distribution of option-chain sentiment scores",
			Buckets: prometheus.LinearBuckets(-100, 20, 11),
		},
	)

	// Collaborator metrics
	FetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fno_sentinel_fetch_errors_total",
			Help: "Snapshot fetch failures",
		},
		[]string{"source"},
	)

	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fno_sentinel_store_errors_total",
			Help: "Store, publish and notify failures",
		},
		[]string{"sink"}, // sink: recorder|publisher|notifier
	)
)

var initOnce sync.Once

// Init registers all collectors with the default registry. Safe to call
// more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(CycleRuns)
		prometheus.MustRegister(CycleDuration)
		prometheus.MustRegister(CycleLastRun)
		prometheus.MustRegister(SymbolsAnalyzed)
		prometheus.MustRegister(SignalsEmitted)
		prometheus.MustRegister(SentimentScore)
		prometheus.MustRegister(FetchErrors)
		prometheus.MustRegister(StoreErrors)
	})
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ObserveCycle records one finished cycle.
func ObserveCycle(kind, status string, started time.Time) {
	CycleRuns.WithLabelValues(kind, status).Inc()
	CycleDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	CycleLastRun.WithLabelValues(kind).Set(float64(time.Now().Unix()))
}

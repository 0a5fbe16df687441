package scheduler

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"FnoSentinel/internal/analyzer"
	"FnoSentinel/internal/collector"
	"FnoSentinel/internal/marketctx"
	"FnoSentinel/internal/metrics"
	"FnoSentinel/internal/model"
	"FnoSentinel/internal/publisher"
	"FnoSentinel/internal/recorder"
	"FnoSentinel/pkg/errors"
	"FnoSentinel/pkg/logger"
)

// errSkipped marks a symbol whose snapshot could not be scored.
var errSkipped = errors.New("snapshot not scorable")

// Deps are the collaborators of a Runner. Publisher and Recorder may be nil.
type Deps struct {
	Engine    *analyzer.Engine
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Publisher publisher.Publisher
	Symbols   recorder.SymbolSource
}

// RunnerConfig tunes a Runner.
type RunnerConfig struct {
	Workers     int
	MinAbsScore float64
	// TurnoverIndices are the NSE indices sampled by RunTurnover.
	TurnoverIndices []string
}

// OptionCycle is the outcome of one option-chain cycle.
type OptionCycle struct {
	Stats model.CycleStats
	// Results holds every scored symbol, strongest |score| first.
	Results []*model.AnalysisResult
	// Meaningful is the stored subset with |score| >= MinAbsScore.
	Meaningful []*model.AnalysisResult
}

// FuturesCycle is the outcome of one futures cycle.
type FuturesCycle struct {
	Stats model.CycleStats
	// Results holds every scored symbol, strongest first.
	Results []*model.FuturesResult
}

// TurnoverCycle is the outcome of one turnover-surge cycle.
type TurnoverCycle struct {
	Stats model.CycleStats
	// Surges are ordered by percentage increase, largest first.
	Surges []model.TurnoverSurge
}

// Runner analyzes all active symbols on a bounded worker pool. A failing
// or panicking symbol is counted and logged; the batch continues.
type Runner struct {
	deps        Deps
	workers     int
	minAbsScore float64
	indices     []string
	log         *logger.Logger
	now         func() time.Time
}

// NewRunner creates a Runner. Workers are clamped to 1..10.
func NewRunner(deps Deps, cfg RunnerConfig) *Runner {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > 10 {
		workers = 10
	}
	if deps.Publisher == nil {
		deps.Publisher = publisher.NoopPublisher{}
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	return &Runner{
		deps:        deps,
		workers:     workers,
		minAbsScore: cfg.MinAbsScore,
		indices:     cfg.TurnoverIndices,
		log:         logger.Component("runner"),
		now:         time.Now,
	}
}

// RunOptions scores the option chain of every active symbol, stores the
// meaningful results and publishes them.
func (r *Runner) RunOptions(ctx context.Context) (*OptionCycle, error) {
	stats, symbols, err := r.begin(ctx, model.CycleOptions)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results []*model.AnalysisResult
	)
	r.forEachSymbol(ctx, &stats, symbols, func(ctx context.Context, symbol string) error {
		res, err := r.analyzeOptions(ctx, symbol)
		if err != nil {
			return err
		}
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
		return nil
	})

	sort.SliceStable(results, func(i, j int) bool {
		return math.Abs(results[i].Score) > math.Abs(results[j].Score)
	})
	meaningful := make([]*model.AnalysisResult, 0, len(results))
	for _, res := range results {
		metrics.SignalsEmitted.WithLabelValues(model.CycleOptions, string(res.Sentiment)).Inc()
		metrics.SentimentScore.Observe(res.Score)
		if math.Abs(res.Score) >= r.minAbsScore {
			meaningful = append(meaningful, res)
		}
	}

	if err := r.deps.Recorder.SaveOptionResults(ctx, stats.RunID, meaningful); err != nil {
		r.sinkFailed(ctx, "recorder", model.CycleOptions, err)
	} else {
		stats.Stored = len(meaningful)
	}
	if err := r.deps.Publisher.PublishOptionResults(ctx, stats.RunID, meaningful); err != nil {
		r.sinkFailed(ctx, "publisher", model.CycleOptions, err)
	}

	stats.FinishedAt = r.now()
	r.log.Infof("options cycle %s: %d symbols, %d analyzed, %d stored, %d skipped, %d errors in %s",
		stats.RunID, stats.Symbols, stats.Analyzed, stats.Stored, stats.Skipped, stats.Errors, stats.Duration())
	return &OptionCycle{Stats: stats, Results: results, Meaningful: meaningful}, nil
}

func (r *Runner) analyzeOptions(ctx context.Context, symbol string) (*model.AnalysisResult, error) {
	bundle, err := r.deps.Collector.CollectOptions(ctx, symbol)
	if err != nil {
		metrics.FetchErrors.WithLabelValues(r.deps.Collector.Derivatives.Name()).Inc()
		return nil, err
	}

	now := r.now()
	var prev *float64
	v, err := r.deps.Recorder.PreviousPCR(ctx, symbol, marketctx.TradingDate(now))
	switch {
	case err == nil:
		prev = &v
	case !errors.Is(err, errors.ErrNotFound):
		r.log.Warnf("[%s] previous pcr lookup failed: %v", symbol, err)
	}

	res, ok := r.deps.Engine.Analyze(analyzer.Input{
		Snapshot:    bundle.Snapshot,
		History:     bundle.History,
		PreviousPCR: prev,
		Now:         now,
	})
	if !ok {
		return nil, errSkipped
	}
	return res, nil
}

// RunFutures scores the futures of every active symbol and stores all results.
func (r *Runner) RunFutures(ctx context.Context) (*FuturesCycle, error) {
	stats, symbols, err := r.begin(ctx, model.CycleFutures)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results []*model.FuturesResult
	)
	r.forEachSymbol(ctx, &stats, symbols, func(ctx context.Context, symbol string) error {
		snap, err := r.deps.Collector.CollectFutures(ctx, symbol)
		if err != nil {
			metrics.FetchErrors.WithLabelValues(r.deps.Collector.Derivatives.Name()).Inc()
			return err
		}
		res, ok := r.deps.Engine.AnalyzeFutures(analyzer.FuturesInput{Snapshot: snap, Now: r.now()})
		if !ok {
			return errSkipped
		}
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
		return nil
	})

	sort.SliceStable(results, func(i, j int) bool { return results[i].Strength > results[j].Strength })
	for _, res := range results {
		metrics.SignalsEmitted.WithLabelValues(model.CycleFutures, string(res.Signal)).Inc()
	}

	if err := r.deps.Recorder.SaveFuturesResults(ctx, stats.RunID, results); err != nil {
		r.sinkFailed(ctx, "recorder", model.CycleFutures, err)
	} else {
		stats.Stored = len(results)
	}
	if err := r.deps.Publisher.PublishFuturesResults(ctx, stats.RunID, results); err != nil {
		r.sinkFailed(ctx, "publisher", model.CycleFutures, err)
	}

	stats.FinishedAt = r.now()
	r.log.Infof("futures cycle %s: %d symbols, %d analyzed, %d stored, %d skipped, %d errors in %s",
		stats.RunID, stats.Symbols, stats.Analyzed, stats.Stored, stats.Skipped, stats.Errors, stats.Duration())
	return &FuturesCycle{Stats: stats, Results: results}, nil
}

// TurnoverEnabled reports whether RunTurnover has indices to sample.
func (r *Runner) TurnoverEnabled() bool { return len(r.indices) > 0 }

// RunTurnover samples the constituents of the configured indices, stores the
// samples and flags symbols trading well ahead of their pace at the same time
// on the previous session. The first session has nothing to compare against
// and yields no surges.
func (r *Runner) RunTurnover(ctx context.Context) (*TurnoverCycle, error) {
	if len(r.indices) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "no turnover indices configured")
	}
	stats := model.CycleStats{Kind: model.CycleTurnover, RunID: uuid.NewString(), StartedAt: r.now()}
	r.log.Infof("turnover cycle %s started for %v", stats.RunID, r.indices)

	samples, err := r.deps.Collector.CollectTurnover(ctx, r.indices)
	if err != nil {
		metrics.FetchErrors.WithLabelValues(r.deps.Collector.Derivatives.Name()).Inc()
		return nil, err
	}
	stats.Symbols = len(samples)
	if err := r.deps.Recorder.SaveTurnoverSamples(ctx, stats.RunID, samples); err != nil {
		r.sinkFailed(ctx, "recorder", model.CycleTurnover, err)
	}

	now := r.now()
	prevAt := marketctx.PreviousSession(now)
	prevDate := marketctx.TradingDate(prevAt)
	previous, err := r.deps.Recorder.TurnoverAsOf(ctx, prevAt)
	switch {
	case errors.Is(err, errors.ErrNotFound):
		r.log.Infof("no turnover samples for %s, nothing to compare", prevDate)
	case err != nil:
		stats.Errors++
		r.log.ErrorWithContext(ctx, fmt.Errorf("previous turnover lookup failed: %w", err),
			map[string]string{"cycle": model.CycleTurnover, "date": prevDate})
	}
	for _, smp := range samples {
		if _, ok := previous[smp.Symbol]; ok {
			stats.Analyzed++
		} else {
			stats.Skipped++
		}
	}

	surges := analyzer.DetectTurnoverSurges(samples, previous, prevDate, r.deps.Engine.Params(), now)
	for _, sg := range surges {
		metrics.SignalsEmitted.WithLabelValues(model.CycleTurnover, "SURGE").Inc()
		r.log.Infof("[%s] turnover %.2f Cr vs %.2f Cr on %s (%+.1f%%)",
			sg.Symbol, sg.Turnover/model.Crore, sg.PreviousTurnover/model.Crore, prevDate, sg.IncreasePct)
	}

	if err := r.deps.Recorder.SaveTurnoverSurges(ctx, stats.RunID, surges); err != nil {
		r.sinkFailed(ctx, "recorder", model.CycleTurnover, err)
	} else {
		stats.Stored = len(surges)
	}
	if err := r.deps.Publisher.PublishTurnoverSurges(ctx, stats.RunID, surges); err != nil {
		r.sinkFailed(ctx, "publisher", model.CycleTurnover, err)
	}

	stats.FinishedAt = r.now()
	r.log.Infof("turnover cycle %s: %d symbols, %d compared, %d surges in %s",
		stats.RunID, stats.Symbols, stats.Analyzed, len(surges), stats.Duration())
	return &TurnoverCycle{Stats: stats, Surges: surges}, nil
}

func (r *Runner) begin(ctx context.Context, kind string) (model.CycleStats, []string, error) {
	stats := model.CycleStats{Kind: kind, RunID: uuid.NewString(), StartedAt: r.now()}
	symbols, err := r.deps.Symbols.ActiveSymbols(ctx)
	if err != nil {
		return stats, nil, errors.Wrap(err, "list active symbols")
	}
	stats.Symbols = len(symbols)
	r.log.Infof("%s cycle %s started for %d symbols", kind, stats.RunID, len(symbols))
	return stats, symbols, nil
}

// forEachSymbol runs fn for every symbol on at most r.workers goroutines
// and tallies the outcomes into stats.
func (r *Runner) forEachSymbol(ctx context.Context, stats *model.CycleStats, symbols []string, fn func(context.Context, string) error) {
	sem := make(chan struct{}, r.workers)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

dispatch:
	for _, sym := range symbols {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()

			err := safeCall(ctx, symbol, fn)
			status := r.outcome(ctx, stats.Kind, symbol, err)
			metrics.SymbolsAnalyzed.WithLabelValues(stats.Kind, status).Inc()

			mu.Lock()
			defer mu.Unlock()
			switch status {
			case "analyzed":
				stats.Analyzed++
			case "skipped":
				stats.Skipped++
			default:
				stats.Errors++
			}
		}(sym)
	}
	wg.Wait()
}

func (r *Runner) outcome(ctx context.Context, kind, symbol string, err error) string {
	switch {
	case err == nil:
		return "analyzed"
	case errors.Is(err, errSkipped), errors.Is(err, errors.ErrNoData):
		r.log.Infof("[%s] %s skipped: %v", symbol, kind, err)
		return "skipped"
	default:
		r.log.ErrorWithContext(ctx, fmt.Errorf("%s analysis failed: %w", kind, err),
			map[string]string{"symbol": symbol, "cycle": kind})
		return "error"
	}
}

func safeCall(ctx context.Context, symbol string, fn func(context.Context, string) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Wrapf(errors.ErrInternal, "panic analyzing %s: %v", symbol, p)
		}
	}()
	return fn(ctx, symbol)
}

func (r *Runner) sinkFailed(ctx context.Context, sink, kind string, err error) {
	metrics.StoreErrors.WithLabelValues(sink).Inc()
	r.log.ErrorWithContext(ctx, fmt.Errorf("%s %s failed: %w", kind, sink, err),
		map[string]string{"sink": sink, "cycle": kind})
}

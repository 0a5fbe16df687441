package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"FnoSentinel/internal/lock"
	"FnoSentinel/internal/marketctx"
	"FnoSentinel/internal/metrics"
	"FnoSentinel/internal/model"
	"FnoSentinel/internal/notifier"
	"FnoSentinel/pkg/errors"
	"FnoSentinel/pkg/logger"
)

// Config holds the scheduling knobs.
type Config struct {
	OptionsCron  string
	FuturesCron  string
	TurnoverCron string
	DigestSize   int
	LockTTL      time.Duration
}

// Scheduler manages the cron jobs and the Telegram command surface.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   *Runner
	Notifier notifier.Notifier
	Locker   lock.Locker
	Ctx      context.Context

	cfg Config
	log *logger.Logger
	now func() time.Time

	mu          sync.RWMutex
	lastStats   map[string]model.CycleStats
	lastOptions []*model.AnalysisResult
	lastFutures []*model.FuturesResult
	lastSurges  []model.TurnoverSurge
}

// NewScheduler creates a new Scheduler. notif may be nil when Telegram is
// not configured; locker may be nil for no cross-cycle locking.
func NewScheduler(ctx context.Context, runner *Runner, notif notifier.Notifier, locker lock.Locker, cfg Config) *Scheduler {
	if locker == nil {
		locker = lock.NewLocalLock()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 14 * time.Minute
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLocation(marketctx.IST)),
		Runner:    runner,
		Notifier:  notif,
		Locker:    locker,
		Ctx:       ctx,
		cfg:       cfg,
		log:       logger.Component("scheduler"),
		now:       time.Now,
		lastStats: make(map[string]model.CycleStats),
	}
}

// RegisterAll registers the option-chain and futures jobs, and the turnover
// job when it has a schedule and indices to sample.
func (s *Scheduler) RegisterAll() error {
	if _, err := s.Cron.AddFunc(s.cfg.OptionsCron, func() { s.runOptionsJob(false) }); err != nil {
		return fmt.Errorf("register options task: %w", err)
	}
	if _, err := s.Cron.AddFunc(s.cfg.FuturesCron, func() { s.runFuturesJob(false) }); err != nil {
		return fmt.Errorf("register futures task: %w", err)
	}
	if s.cfg.TurnoverCron == "" || !s.Runner.TurnoverEnabled() {
		s.log.Infof("turnover job disabled")
		return nil
	}
	if _, err := s.Cron.AddFunc(s.cfg.TurnoverCron, func() { s.runTurnoverJob(false) }); err != nil {
		return fmt.Errorf("register turnover task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Infof("scheduler started (options %q, futures %q)", s.cfg.OptionsCron, s.cfg.FuturesCron)
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Infof("scheduler stopped")
}

func (s *Scheduler) runOptionsJob(force bool) {
	if err := s.RunOptions(s.Ctx, force); err != nil && !errors.Is(err, errors.ErrMarketClosed) {
		s.log.Errorf("options cycle: %v", err)
	}
}

func (s *Scheduler) runFuturesJob(force bool) {
	if err := s.RunFutures(s.Ctx, force); err != nil && !errors.Is(err, errors.ErrMarketClosed) {
		s.log.Errorf("futures cycle: %v", err)
	}
}

func (s *Scheduler) runTurnoverJob(force bool) {
	if err := s.RunTurnover(s.Ctx, force); err != nil && !errors.Is(err, errors.ErrMarketClosed) {
		s.log.Errorf("turnover cycle: %v", err)
	}
}

// RunOptions runs one option-chain cycle and sends the digest. Outside
// market hours it returns ErrMarketClosed unless force is set.
func (s *Scheduler) RunOptions(ctx context.Context, force bool) error {
	return s.guarded(ctx, model.CycleOptions, force, func(ctx context.Context) error {
		cycle, err := s.Runner.RunOptions(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.lastStats[model.CycleOptions] = cycle.Stats
		s.lastOptions = cycle.Meaningful
		s.mu.Unlock()

		if top := topN(cycle.Meaningful, s.cfg.DigestSize); len(top) > 0 {
			s.trySend(ctx, notifier.FormatOptionDigest(top, s.now()))
		}
		return nil
	})
}

// RunFutures runs one futures cycle and sends the digest of non-neutral
// signals.
func (s *Scheduler) RunFutures(ctx context.Context, force bool) error {
	return s.guarded(ctx, model.CycleFutures, force, func(ctx context.Context) error {
		cycle, err := s.Runner.RunFutures(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.lastStats[model.CycleFutures] = cycle.Stats
		s.lastFutures = cycle.Results
		s.mu.Unlock()

		signals := make([]*model.FuturesResult, 0, len(cycle.Results))
		for _, r := range cycle.Results {
			if r.Signal != model.FuturesNeutral {
				signals = append(signals, r)
			}
		}
		if top := topN(signals, s.cfg.DigestSize); len(top) > 0 {
			s.trySend(ctx, notifier.FormatFuturesDigest(top, s.now()))
		}
		return nil
	})
}

// RunTurnover runs one turnover-surge cycle and sends the alerts.
func (s *Scheduler) RunTurnover(ctx context.Context, force bool) error {
	return s.guarded(ctx, model.CycleTurnover, force, func(ctx context.Context) error {
		cycle, err := s.Runner.RunTurnover(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.lastStats[model.CycleTurnover] = cycle.Stats
		s.lastSurges = cycle.Surges
		s.mu.Unlock()

		if len(cycle.Surges) > 0 {
			s.trySend(ctx, notifier.FormatTurnoverAlerts(cycle.Surges, s.now()))
		}
		return nil
	})
}

// guarded applies the market-hours gate and the cycle lock around fn.
func (s *Scheduler) guarded(ctx context.Context, kind string, force bool, fn func(context.Context) error) error {
	started := time.Now()
	if !force && !marketctx.IsMarketOpen(s.now()) {
		s.log.Debugf("%s cycle skipped: market closed", kind)
		metrics.ObserveCycle(kind, "skipped", started)
		return errors.Wrapf(errors.ErrMarketClosed, "%s cycle", kind)
	}

	key := "fno_sentinel:" + kind
	ok, err := s.Locker.Acquire(ctx, key, s.cfg.LockTTL)
	if err != nil {
		metrics.ObserveCycle(kind, "error", started)
		return errors.Wrapf(err, "%s cycle lock", kind)
	}
	if !ok {
		s.log.Warnf("%s cycle already running, skipping", kind)
		metrics.ObserveCycle(kind, "locked", started)
		return nil
	}
	defer func() {
		if err := s.Locker.Release(context.Background(), key); err != nil {
			s.log.Warnf("release %s lock: %v", kind, err)
		}
	}()

	if err := fn(ctx); err != nil {
		metrics.ObserveCycle(kind, "error", started)
		return err
	}
	metrics.ObserveCycle(kind, "success", started)
	return nil
}

// HandleCommand processes a user command and returns a reply. Only the
// first word selects the command; trailing arguments are ignored.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(strings.ToLower(command))
	if len(fields) == 0 {
		return notifier.HelpText()
	}
	switch fields[0] {
	case "/status":
		reply := s.summary(model.CycleOptions) + "\n" + s.summary(model.CycleFutures)
		s.mu.RLock()
		_, ran := s.lastStats[model.CycleTurnover]
		s.mu.RUnlock()
		if ran {
			reply += "\n" + s.summary(model.CycleTurnover)
		}
		return reply
	case "/run":
		if err := s.RunOptions(ctx, true); err != nil {
			return fmt.Sprintf("❌ options cycle failed: %v", err)
		}
		return s.summary(model.CycleOptions)
	case "/futures":
		if err := s.RunFutures(ctx, true); err != nil {
			return fmt.Sprintf("❌ futures cycle failed: %v", err)
		}
		return s.summary(model.CycleFutures)
	case "/turnover":
		if !s.Runner.TurnoverEnabled() {
			return "Turnover tracking is not configured."
		}
		if err := s.RunTurnover(ctx, true); err != nil {
			return fmt.Sprintf("❌ turnover cycle failed: %v", err)
		}
		s.mu.RLock()
		surges := s.lastSurges
		s.mu.RUnlock()
		if len(surges) == 0 {
			return s.summary(model.CycleTurnover)
		}
		return notifier.FormatTurnoverAlerts(surges, s.now())
	case "/top":
		s.mu.RLock()
		top := topN(s.lastOptions, s.cfg.DigestSize)
		s.mu.RUnlock()
		if len(top) == 0 {
			return "No option-chain results yet."
		}
		if len(top) == 1 {
			return notifier.FormatOptionDetail(top[0])
		}
		return notifier.FormatOptionDigest(top, s.now())
	default:
		return notifier.HelpText()
	}
}

func (s *Scheduler) summary(kind string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats, ok := s.lastStats[kind]
	if !ok {
		stats = model.CycleStats{Kind: kind}
	}
	return notifier.FormatCycleSummary(stats)
}

// LastOptions returns the meaningful results of the last option cycle.
func (s *Scheduler) LastOptions() []*model.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastOptions
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		metrics.StoreErrors.WithLabelValues("notifier").Inc()
		s.log.Errorf("send notification: %v", err)
	}
}

func topN[T any](items []T, n int) []T {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"FnoSentinel/internal/analyzer"
	"FnoSentinel/internal/collector"
	"FnoSentinel/internal/collector/ratelimit"
	"FnoSentinel/internal/config"
	"FnoSentinel/internal/lock"
	"FnoSentinel/internal/marketctx"
	"FnoSentinel/internal/metrics"
	"FnoSentinel/internal/model"
	"FnoSentinel/internal/notifier"
	"FnoSentinel/internal/publisher"
	"FnoSentinel/internal/recorder"
	"FnoSentinel/internal/scheduler"
	"FnoSentinel/internal/tracker"
	"FnoSentinel/pkg/logger"
)

func main() {
	cfgPath := flag.String("config", "", "path to config.yaml (default $CONFIG_PATH or configs/config.yaml)")
	once := flag.String("once", "", "run a single cycle (options|futures|turnover) and exit")
	force := flag.Bool("force", false, "ignore the market-hours gate")
	flag.Parse()

	path := *cfgPath
	if path == "" {
		path = "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, cfg.Env); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	errTracker, err := tracker.New(cfg.Sentry.DSN, cfg.Env, cfg.Sentry.Release)
	if err != nil {
		logger.Warnf("init sentry failed, errors are only logged: %v", err)
		errTracker = tracker.NewNoop()
	}
	logger.SetErrorTracker(errTracker)
	defer errTracker.Flush(context.Background())

	log := logger.Component("main")
	log.Infof("FnoSentinel starting (env=%s)", cfg.Env)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reference tables and scorer
	ref, err := marketctx.LoadReference(cfg.ReferencePath)
	if err != nil {
		log.Fatalf("load reference tables: %v", err)
	}
	engine := analyzer.NewEngine(cfg.Analyzer, ref, cfg.Normalization)

	// Collectors
	session, err := collector.NewNSESession(collector.NSEConfig{
		BaseURL:    cfg.NSE.BaseURL,
		CookiePath: cfg.NSE.CookiePath,
		ProxyURL:   cfg.Proxy,
		Timeout:    cfg.NSE.Timeout,
	}, ratelimit.NewLimiter("nse", cfg.NSE.RequestsPerMinute))
	if err != nil {
		log.Fatalf("init nse session: %v", err)
	}
	var history collector.HistoryFetcher
	if cfg.Yahoo.Enabled {
		history = collector.NewYahooFetcher(cfg.Proxy, cfg.Yahoo.Timeout,
			ratelimit.NewLimiter("yahoo", cfg.Yahoo.RequestsPerMinute))
	}
	col := collector.NewCollector(collector.NewNSEFetcher(session), history)

	// Postgres is shared by the recorder and the symbol source.
	var pg *sqlx.DB
	if cfg.Storage.Driver == config.StoragePostgres || cfg.Symbols.Source == config.SymbolsPostgres {
		pg, err = recorder.OpenPostgres(cfg.Storage.PostgresDSN, cfg.Storage.PostgresMaxConns)
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer pg.Close()
	}

	rec, err := openRecorder(ctx, cfg, pg)
	if err != nil {
		log.Warnf("init %s recorder failed, using noop: %v", cfg.Storage.Driver, err)
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	var symbols recorder.SymbolSource = recorder.StaticSymbols(cfg.Symbols.Static)
	if cfg.Symbols.Source == config.SymbolsPostgres {
		symbols = recorder.NewPostgresSymbols(pg)
	}

	var pub publisher.Publisher = publisher.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := publisher.NewKafkaPublisher(publisher.KafkaConfig{
			Brokers:       cfg.Kafka.Brokers,
			OptionTopic:   cfg.Kafka.OptionTopic,
			FuturesTopic:  cfg.Kafka.FuturesTopic,
			TurnoverTopic: cfg.Kafka.TurnoverTopic,
		})
		defer kp.Close()
		pub = kp
	}

	var locker lock.Locker = lock.NewLocalLock()
	if cfg.Redis.Addr != "" {
		rl, err := lock.NewRedisLock(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warnf("redis lock unavailable, using in-process lock: %v", err)
		} else {
			defer rl.Close()
			locker = rl
		}
	}

	var (
		notif notifier.Notifier
		tn    *notifier.TelegramNotifier
	)
	if cfg.Telegram.BotToken != "" {
		tn, err = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, "")
		if err != nil {
			log.Warnf("telegram disabled: %v", err)
			tn = nil
		} else {
			notif = tn
		}
	}

	if cfg.Metrics.Enabled {
		metrics.Init()
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.Errorf("metrics server: %v", err)
			}
		}()
	}

	runner := scheduler.NewRunner(scheduler.Deps{
		Engine:    engine,
		Collector: col,
		Recorder:  rec,
		Publisher: pub,
		Symbols:   symbols,
	}, scheduler.RunnerConfig{
		Workers:         cfg.Schedule.Workers,
		MinAbsScore:     cfg.Schedule.MinAbsScore,
		TurnoverIndices: cfg.Turnover.Indices,
	})
	sched := scheduler.NewScheduler(ctx, runner, notif, locker, scheduler.Config{
		OptionsCron:  cfg.Schedule.OptionsCron,
		FuturesCron:  cfg.Schedule.FuturesCron,
		TurnoverCron: cfg.Schedule.TurnoverCron,
		DigestSize:   cfg.Schedule.DigestSize,
		LockTTL:      cfg.Schedule.LockTTL,
	})

	if *once != "" {
		if err := runOnce(ctx, sched, *once, *force); err != nil {
			log.Errorf("%s cycle: %v", *once, err)
			os.Exit(1)
		}
		return
	}

	if err := sched.RegisterAll(); err != nil {
		log.Fatalf("register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil && cfg.Telegram.PollCommands {
		go tn.StartPolling(ctx, sched.HandleCommand)
	}

	// Optional: run immediately on start
	if cfg.Schedule.RunOnStart {
		log.Infof("run_on_start enabled, executing both cycles now")
		go func() {
			if err := sched.RunOptions(ctx, *force); err != nil {
				log.Warnf("startup options cycle: %v", err)
			}
			if err := sched.RunFutures(ctx, *force); err != nil {
				log.Warnf("startup futures cycle: %v", err)
			}
		}()
	}

	log.Infof("FnoSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Infof("shutdown signal received, stopping...")
	cancel()
	time.Sleep(100 * time.Millisecond)
	log.Infof("FnoSentinel stopped")
}

func openRecorder(ctx context.Context, cfg *config.Config, pg *sqlx.DB) (recorder.Recorder, error) {
	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o755); err != nil {
			return nil, err
		}
		return recorder.NewSQLiteRecorder(cfg.Storage.SQLitePath)
	case config.StoragePostgres:
		return recorder.NewPostgresRecorder(ctx, pg)
	case config.StorageClickHouse:
		return recorder.NewClickHouseRecorder(ctx, recorder.ClickHouseConfig{
			Addr:     cfg.Storage.ClickHouse.Addr,
			Database: cfg.Storage.ClickHouse.Database,
			Username: cfg.Storage.ClickHouse.Username,
			Password: cfg.Storage.ClickHouse.Password,
		})
	default:
		return recorder.NewNoopRecorder(), nil
	}
}

func runOnce(ctx context.Context, sched *scheduler.Scheduler, kind string, force bool) error {
	switch kind {
	case model.CycleOptions:
		return sched.RunOptions(ctx, force)
	case model.CycleFutures:
		return sched.RunFutures(ctx, force)
	case model.CycleTurnover:
		return sched.RunTurnover(ctx, force)
	default:
		return fmt.Errorf("unknown cycle %q, want options, futures or turnover", kind)
	}
}

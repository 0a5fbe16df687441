package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"FnoSentinel/internal/analyzer"
	"FnoSentinel/internal/marketctx"
	"FnoSentinel/pkg/errors"
)

// Storage drivers.
const (
	StorageSQLite     = "sqlite"
	StoragePostgres   = "postgres"
	StorageClickHouse = "clickhouse"
	StorageNone       = "none"
)

// Symbol sources.
const (
	SymbolsStatic   = "static"
	SymbolsPostgres = "postgres"
)

// envPrefix prefixes every override; each field also accepts its bare tag
// name (TELEGRAM_BOT_TOKEN works as well as SENTINEL_TELEGRAM_TELEGRAM_BOT_TOKEN).
const envPrefix = "SENTINEL"

// Config holds all application configuration.
type Config struct {
	Env           string `yaml:"env" envconfig:"ENV"`
	LogLevel      string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	Proxy         string `yaml:"proxy" envconfig:"HTTPS_PROXY"`
	ReferencePath string `yaml:"reference_path" envconfig:"REFERENCE_PATH"`

	Telegram struct {
		BotToken     string `yaml:"bot_token" envconfig:"TELEGRAM_BOT_TOKEN"`
		ChatID       string `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID"`
		PollCommands bool   `yaml:"poll_commands" envconfig:"TELEGRAM_POLL_COMMANDS"`
	} `yaml:"telegram"`

	NSE struct {
		BaseURL           string        `yaml:"base_url" envconfig:"NSE_BASE_URL"`
		CookiePath        string        `yaml:"cookie_path" envconfig:"NSE_COOKIE_PATH"`
		RequestsPerMinute int           `yaml:"requests_per_minute" envconfig:"NSE_RPM"`
		Timeout           time.Duration `yaml:"timeout" envconfig:"NSE_TIMEOUT"`
	} `yaml:"nse"`

	Yahoo struct {
		Enabled           bool          `yaml:"enabled" envconfig:"YAHOO_ENABLED"`
		RequestsPerMinute int           `yaml:"requests_per_minute" envconfig:"YAHOO_RPM"`
		Timeout           time.Duration `yaml:"timeout" envconfig:"YAHOO_TIMEOUT"`
	} `yaml:"yahoo"`

	Symbols struct {
		Source string   `yaml:"source" envconfig:"SYMBOL_SOURCE"`
		Static []string `yaml:"static" envconfig:"SYMBOLS"`
	} `yaml:"symbols"`

	Schedule struct {
		OptionsCron  string        `yaml:"options_cron" envconfig:"CRON_OPTIONS"`
		FuturesCron  string        `yaml:"futures_cron" envconfig:"CRON_FUTURES"`
		TurnoverCron string        `yaml:"turnover_cron" envconfig:"CRON_TURNOVER"`
		Workers      int           `yaml:"workers" envconfig:"WORKERS"`
		MinAbsScore  float64       `yaml:"min_abs_score" envconfig:"MIN_ABS_SCORE"`
		DigestSize   int           `yaml:"digest_size" envconfig:"DIGEST_SIZE"`
		LockTTL      time.Duration `yaml:"lock_ttl" envconfig:"LOCK_TTL"`
		RunOnStart   bool          `yaml:"run_on_start" envconfig:"RUN_ON_START"`
	} `yaml:"schedule"`

	// Turnover lists the NSE indices whose constituents are watched for
	// turnover surges. Empty disables the job.
	Turnover struct {
		Indices []string `yaml:"indices" envconfig:"TURNOVER_INDICES"`
	} `yaml:"turnover"`

	Storage struct {
		Driver           string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
		SQLitePath       string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
		PostgresDSN      string `yaml:"postgres_dsn" envconfig:"POSTGRES_DSN"`
		PostgresMaxConns int    `yaml:"postgres_max_conns" envconfig:"POSTGRES_MAX_CONNS"`
		ClickHouse       struct {
			Addr     string `yaml:"addr" envconfig:"CLICKHOUSE_ADDR"`
			Database string `yaml:"database" envconfig:"CLICKHOUSE_DATABASE"`
			Username string `yaml:"username" envconfig:"CLICKHOUSE_USER"`
			Password string `yaml:"password" envconfig:"CLICKHOUSE_PASSWORD"`
		} `yaml:"clickhouse"`
	} `yaml:"storage"`

	Kafka struct {
		Brokers       []string `yaml:"brokers" envconfig:"KAFKA_BROKERS"`
		OptionTopic   string   `yaml:"option_topic" envconfig:"KAFKA_OPTION_TOPIC"`
		FuturesTopic  string   `yaml:"futures_topic" envconfig:"KAFKA_FUTURES_TOPIC"`
		TurnoverTopic string   `yaml:"turnover_topic" envconfig:"KAFKA_TURNOVER_TOPIC"`
	} `yaml:"kafka"`

	Redis struct {
		Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
		Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" envconfig:"REDIS_DB"`
	} `yaml:"redis"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" envconfig:"METRICS_ENABLED"`
		Addr    string `yaml:"addr" envconfig:"METRICS_ADDR"`
	} `yaml:"metrics"`

	Sentry struct {
		DSN     string `yaml:"dsn" envconfig:"SENTRY_DSN"`
		Release string `yaml:"release" envconfig:"SENTRY_RELEASE"`
	} `yaml:"sentry"`

	Analyzer      analyzer.Params              `yaml:"analyzer" ignored:"true"`
	Normalization marketctx.NormalizationTable `yaml:"normalization" ignored:"true"`
}

// Default returns the configuration used when neither the file nor the
// environment sets a field. Load decodes on top of it, so an explicit zero
// in YAML or env survives.
func Default() *Config {
	cfg := &Config{
		Env:           "development",
		LogLevel:      "info",
		Analyzer:      analyzer.DefaultParams(),
		Normalization: marketctx.DefaultNormalizationTable(),
	}
	cfg.NSE.RequestsPerMinute = 30
	cfg.NSE.Timeout = 15 * time.Second
	cfg.Yahoo.Enabled = true
	cfg.Yahoo.RequestsPerMinute = 60
	cfg.Yahoo.Timeout = 20 * time.Second
	cfg.Symbols.Source = SymbolsStatic
	cfg.Schedule.OptionsCron = "0 */15 9-15 * * 1-5"
	cfg.Schedule.FuturesCron = "0 5 9-15 * * 1-5"
	cfg.Schedule.TurnoverCron = "0 10,40 9-15 * * 1-5"
	cfg.Schedule.Workers = 5
	cfg.Schedule.MinAbsScore = 10
	cfg.Schedule.DigestSize = 10
	cfg.Schedule.LockTTL = 14 * time.Minute
	cfg.Turnover.Indices = []string{"NIFTY MIDCAP 50", "NIFTY SMALLCAP 50"}
	cfg.Storage.Driver = StorageSQLite
	cfg.Storage.SQLitePath = "data/fno_sentinel.db"
	cfg.Storage.ClickHouse.Database = "default"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Addr = ":9108"
	return cfg
}

// Load reads config from a YAML file, then .env, then environment variable
// overrides, each layered over Default. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "env overrides")
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return errors.NewValidationError("telegram.chat_id", "required when bot_token is set", c.Telegram.ChatID)
	}
	if c.Schedule.Workers < 1 || c.Schedule.Workers > 10 {
		return errors.NewValidationError("schedule.workers", "must be between 1 and 10", c.Schedule.Workers)
	}
	if c.Schedule.MinAbsScore < 0 {
		return errors.NewValidationError("schedule.min_abs_score", "must not be negative", c.Schedule.MinAbsScore)
	}
	if c.Schedule.DigestSize < 0 {
		return errors.NewValidationError("schedule.digest_size", "must not be negative", c.Schedule.DigestSize)
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"schedule.options_cron":  c.Schedule.OptionsCron,
		"schedule.futures_cron":  c.Schedule.FuturesCron,
		"schedule.turnover_cron": c.Schedule.TurnoverCron,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return errors.NewValidationError(name, err.Error(), spec)
		}
	}
	if c.NSE.RequestsPerMinute < 0 {
		return errors.NewValidationError("nse.requests_per_minute", "must not be negative", c.NSE.RequestsPerMinute)
	}

	switch c.Storage.Driver {
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.NewValidationError("storage.sqlite_path", "required for the sqlite driver", c.Storage.SQLitePath)
		}
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.NewValidationError("storage.postgres_dsn", "required for the postgres driver", "")
		}
	case StorageClickHouse:
		if c.Storage.ClickHouse.Addr == "" {
			return errors.NewValidationError("storage.clickhouse.addr", "required for the clickhouse driver", "")
		}
	case StorageNone:
	default:
		return errors.NewValidationError("storage.driver", "must be one of sqlite, postgres, clickhouse, none", c.Storage.Driver)
	}

	switch c.Symbols.Source {
	case SymbolsStatic:
		if len(c.Symbols.Static) == 0 {
			return errors.NewValidationError("symbols.static", "must list at least one symbol", c.Symbols.Static)
		}
	case SymbolsPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.NewValidationError("storage.postgres_dsn", "required for the postgres symbol source", "")
		}
	default:
		return errors.NewValidationError("symbols.source", "must be static or postgres", c.Symbols.Source)
	}

	if c.Analyzer.Threshold <= 0 || c.Analyzer.StrongThreshold <= c.Analyzer.Threshold {
		return errors.NewValidationError("analyzer.threshold", "must satisfy 0 < threshold < strong_threshold", c.Analyzer.Threshold)
	}
	if c.Analyzer.TurnoverSurgeMultiple <= 1 {
		return errors.NewValidationError("analyzer.turnover_surge_multiple", "must be greater than 1", c.Analyzer.TurnoverSurgeMultiple)
	}
	return nil
}

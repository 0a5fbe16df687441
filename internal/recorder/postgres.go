package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"FnoSentinel/internal/marketctx"
	"FnoSentinel/internal/model"
	"FnoSentinel/pkg/errors"
	"FnoSentinel/pkg/logger"
)

// Compile-time check
var _ Recorder = (*PostgresRecorder)(nil)

// OpenPostgres connects to Postgres with connection pooling.
func OpenPostgres(dsn string, maxConns int) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns / 2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)
	return db, nil
}

// PostgresRecorder persists results to a hosted Postgres database.
type PostgresRecorder struct {
	db *sqlx.DB
}

// NewPostgresRecorder wraps db and runs migrations against the service's
// own tables.
func NewPostgresRecorder(ctx context.Context, db *sqlx.DB) (*PostgresRecorder, error) {
	r := &PostgresRecorder{db: db}
	if err := r.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Infof("postgres recorder ready")
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS option_chain_analysis (
			id                 BIGSERIAL PRIMARY KEY,
			run_id             UUID NOT NULL,
			symbol             TEXT NOT NULL,
			trading_date       DATE NOT NULL,
			analyzed_at        TIMESTAMPTZ NOT NULL,
			spot_price         DOUBLE PRECISION,
			score              DOUBLE PRECISION,
			sentiment          TEXT,
			confidence         DOUBLE PRECISION,
			overall_pcr        DOUBLE PRECISION,
			normalized_pcr     DOUBLE PRECISION,
			previous_pcr       DOUBLE PRECISION,
			pcr_change_pct     DOUBLE PRECISION,
			pcr_momentum_score DOUBLE PRECISION,
			max_pain           DOUBLE PRECISION,
			support_levels     JSONB,
			resistance_levels  JSONB,
			zone               TEXT,
			zone_bias          TEXT,
			unusual_activity   JSONB,
			signals            JSONB,
			bullish_flow       DOUBLE PRECISION,
			bearish_flow       DOUBLE PRECISION,
			net_flow           DOUBLE PRECISION,
			net_call_buildup   DOUBLE PRECISION,
			net_put_buildup    DOUBLE PRECISION,
			hedging_ratio      DOUBLE PRECISION,
			target_1           DOUBLE PRECISION,
			target_2           DOUBLE PRECISION,
			stop_loss          DOUBLE PRECISION,
			risk_reward        DOUBLE PRECISION,
			contributions      JSONB,
			reasoning          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_option_symbol_date ON option_chain_analysis(symbol, trading_date, analyzed_at DESC)`,

		`CREATE TABLE IF NOT EXISTS futures_analysis (
			id                BIGSERIAL PRIMARY KEY,
			run_id            UUID NOT NULL,
			symbol            TEXT NOT NULL,
			trading_date      DATE NOT NULL,
			analyzed_at       TIMESTAMPTZ NOT NULL,
			current_expiry    TEXT,
			current_price     DOUBLE PRECISION,
			current_oi        DOUBLE PRECISION,
			current_volume    DOUBLE PRECISION,
			current_oi_change DOUBLE PRECISION,
			next_expiry       TEXT,
			next_price        DOUBLE PRECISION,
			next_oi           DOUBLE PRECISION,
			spot_price        DOUBLE PRECISION,
			basis             DOUBLE PRECISION,
			basis_pct         DOUBLE PRECISION,
			annualized_basis  DOUBLE PRECISION,
			market_structure  TEXT,
			arbitrage         BOOLEAN,
			buildup           TEXT,
			buildup_strength  TEXT,
			oi_change_pct     DOUBLE PRECISION,
			days_to_expiry    INTEGER,
			rollover_pressure TEXT,
			rollover_cost     DOUBLE PRECISION,
			signal            TEXT,
			strength          DOUBLE PRECISION,
			confidence        DOUBLE PRECISION,
			target_1          DOUBLE PRECISION,
			target_2          DOUBLE PRECISION,
			stop_loss         DOUBLE PRECISION,
			risk_reward       DOUBLE PRECISION,
			reasoning         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_futures_symbol_date ON futures_analysis(symbol, trading_date)`,

		`CREATE TABLE IF NOT EXISTS turnover_samples (
			id           BIGSERIAL PRIMARY KEY,
			run_id       UUID NOT NULL,
			symbol       TEXT NOT NULL,
			index_name   TEXT,
			trading_date DATE NOT NULL,
			sampled_at   TIMESTAMPTZ NOT NULL,
			turnover     DOUBLE PRECISION,
			last_price   DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turnover_date_symbol ON turnover_samples(trading_date, symbol, sampled_at DESC)`,

		`CREATE TABLE IF NOT EXISTS turnover_surges (
			id                BIGSERIAL PRIMARY KEY,
			run_id            UUID NOT NULL,
			symbol            TEXT NOT NULL,
			index_name        TEXT,
			trading_date      DATE NOT NULL,
			detected_at       TIMESTAMPTZ NOT NULL,
			turnover          DOUBLE PRECISION,
			previous_turnover DOUBLE PRECISION,
			increase          DOUBLE PRECISION,
			increase_pct      DOUBLE PRECISION,
			previous_date     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_surges_date ON turnover_surges(trading_date, detected_at DESC)`,
	}

	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *PostgresRecorder) SaveOptionResults(ctx context.Context, runID string, results []*model.AnalysisResult) error {
	if len(results) == 0 {
		return nil
	}
	rows := make([]optionRow, len(results))
	for i, res := range results {
		rows[i] = newOptionRow(runID, res)
	}
	if _, err := r.db.NamedExecContext(ctx, namedInsert(optionTable, optionColumns), rows); err != nil {
		return errors.Wrap(err, "insert option results")
	}
	return nil
}

func (r *PostgresRecorder) SaveFuturesResults(ctx context.Context, runID string, results []*model.FuturesResult) error {
	if len(results) == 0 {
		return nil
	}
	rows := make([]futuresRow, len(results))
	for i, res := range results {
		rows[i] = newFuturesRow(runID, res)
	}
	if _, err := r.db.NamedExecContext(ctx, namedInsert(futuresTable, futuresColumns), rows); err != nil {
		return errors.Wrap(err, "insert futures results")
	}
	return nil
}

func (r *PostgresRecorder) PreviousPCR(ctx context.Context, symbol, tradingDate string) (float64, error) {
	var pcr float64
	err := r.db.GetContext(ctx, &pcr, r.db.Rebind(previousPCRQuery), symbol, tradingDate)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errors.Wrapf(errors.ErrNotFound, "previous pcr %s", symbol)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "previous pcr %s", symbol)
	}
	return pcr, nil
}

func (r *PostgresRecorder) SaveTurnoverSamples(ctx context.Context, runID string, samples []model.TurnoverSample) error {
	if len(samples) == 0 {
		return nil
	}
	rows := make([]turnoverSampleRow, len(samples))
	for i, smp := range samples {
		rows[i] = newTurnoverSampleRow(runID, smp)
	}
	if _, err := r.db.NamedExecContext(ctx, namedInsert(turnoverTable, turnoverColumns), rows); err != nil {
		return errors.Wrap(err, "insert turnover samples")
	}
	return nil
}

func (r *PostgresRecorder) SaveTurnoverSurges(ctx context.Context, runID string, surges []model.TurnoverSurge) error {
	if len(surges) == 0 {
		return nil
	}
	rows := make([]turnoverSurgeRow, len(surges))
	for i, sg := range surges {
		rows[i] = newTurnoverSurgeRow(runID, sg)
	}
	if _, err := r.db.NamedExecContext(ctx, namedInsert(surgeTable, surgeColumns), rows); err != nil {
		return errors.Wrap(err, "insert turnover surges")
	}
	return nil
}

func (r *PostgresRecorder) TurnoverAsOf(ctx context.Context, at time.Time) (map[string]float64, error) {
	var rows []symbolTurnover
	date := marketctx.TradingDate(at)
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(turnoverAsOfQuery), date, at.UTC()); err != nil {
		return nil, errors.Wrapf(err, "turnover as of %s", date)
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "turnover as of %s", date)
	}
	return firstPerSymbol(rows), nil
}

// Close closes the connection pool.
func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}

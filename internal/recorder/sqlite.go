package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"FnoSentinel/internal/marketctx"
	"FnoSentinel/internal/model"
	"FnoSentinel/pkg/errors"
	"FnoSentinel/pkg/logger"
)

// SQLiteRecorder persists results to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while cycles write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS option_chain_analysis (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id             TEXT NOT NULL,
			symbol             TEXT NOT NULL,
			trading_date       TEXT NOT NULL,
			analyzed_at        INTEGER NOT NULL,
			spot_price         REAL,
			score              REAL,
			sentiment          TEXT,
			confidence         REAL,
			overall_pcr        REAL,
			normalized_pcr     REAL,
			previous_pcr       REAL,
			pcr_change_pct     REAL,
			pcr_momentum_score REAL,
			max_pain           REAL,
			support_levels     TEXT,
			resistance_levels  TEXT,
			zone               TEXT,
			zone_bias          TEXT,
			unusual_activity   TEXT,
			signals            TEXT,
			bullish_flow       REAL,
			bearish_flow       REAL,
			net_flow           REAL,
			net_call_buildup   REAL,
			net_put_buildup    REAL,
			hedging_ratio      REAL,
			target_1           REAL,
			target_2           REAL,
			stop_loss          REAL,
			risk_reward        REAL,
			contributions      TEXT,
			reasoning          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_option_symbol_date ON option_chain_analysis(symbol, trading_date, analyzed_at)`,

		`CREATE TABLE IF NOT EXISTS futures_analysis (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL,
			symbol            TEXT NOT NULL,
			trading_date      TEXT NOT NULL,
			analyzed_at       INTEGER NOT NULL,
			current_expiry    TEXT,
			current_price     REAL,
			current_oi        REAL,
			current_volume    REAL,
			current_oi_change REAL,
			next_expiry       TEXT,
			next_price        REAL,
			next_oi           REAL,
			spot_price        REAL,
			basis             REAL,
			basis_pct         REAL,
			annualized_basis  REAL,
			market_structure  TEXT,
			arbitrage         INTEGER,
			buildup           TEXT,
			buildup_strength  TEXT,
			oi_change_pct     REAL,
			days_to_expiry    INTEGER,
			rollover_pressure TEXT,
			rollover_cost     REAL,
			signal            TEXT,
			strength          REAL,
			confidence        REAL,
			target_1          REAL,
			target_2          REAL,
			stop_loss         REAL,
			risk_reward       REAL,
			reasoning         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_futures_symbol_date ON futures_analysis(symbol, trading_date)`,

		`CREATE TABLE IF NOT EXISTS turnover_samples (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			symbol       TEXT NOT NULL,
			index_name   TEXT,
			trading_date TEXT NOT NULL,
			sampled_at   INTEGER NOT NULL,
			turnover     REAL,
			last_price   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turnover_date_symbol ON turnover_samples(trading_date, symbol, sampled_at)`,

		`CREATE TABLE IF NOT EXISTS turnover_surges (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL,
			symbol            TEXT NOT NULL,
			index_name        TEXT,
			trading_date      TEXT NOT NULL,
			detected_at       INTEGER NOT NULL,
			turnover          REAL,
			previous_turnover REAL,
			increase          REAL,
			increase_pct      REAL,
			previous_date     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_surges_date ON turnover_surges(trading_date, detected_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) SaveOptionResults(ctx context.Context, runID string, results []*model.AnalysisResult) error {
	if len(results) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin option insert")
	}
	query := positionalInsert(optionTable, optionColumns)
	for _, res := range results {
		if _, err := tx.ExecContext(ctx, query, newOptionRow(runID, res).sqliteArgs()...); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "insert option result %s", res.Symbol)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) SaveFuturesResults(ctx context.Context, runID string, results []*model.FuturesResult) error {
	if len(results) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin futures insert")
	}
	query := positionalInsert(futuresTable, futuresColumns)
	for _, res := range results {
		if _, err := tx.ExecContext(ctx, query, newFuturesRow(runID, res).sqliteArgs()...); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "insert futures result %s", res.Symbol)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) PreviousPCR(ctx context.Context, symbol, tradingDate string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pcr float64
	err := r.db.QueryRowContext(ctx, previousPCRQuery, symbol, tradingDate).Scan(&pcr)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errors.Wrapf(errors.ErrNotFound, "previous pcr %s", symbol)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "previous pcr %s", symbol)
	}
	return pcr, nil
}

func (r *SQLiteRecorder) SaveTurnoverSamples(ctx context.Context, runID string, samples []model.TurnoverSample) error {
	args := make([][]interface{}, len(samples))
	for i, smp := range samples {
		args[i] = newTurnoverSampleRow(runID, smp).sqliteArgs()
	}
	return errors.Wrap(r.insertAll(ctx, positionalInsert(turnoverTable, turnoverColumns), args), "insert turnover samples")
}

func (r *SQLiteRecorder) SaveTurnoverSurges(ctx context.Context, runID string, surges []model.TurnoverSurge) error {
	args := make([][]interface{}, len(surges))
	for i, sg := range surges {
		args[i] = newTurnoverSurgeRow(runID, sg).sqliteArgs()
	}
	return errors.Wrap(r.insertAll(ctx, positionalInsert(surgeTable, surgeColumns), args), "insert turnover surges")
}

// insertAll runs query once per argument list in a single transaction.
func (r *SQLiteRecorder) insertAll(ctx context.Context, query string, args [][]interface{}) error {
	if len(args) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, a := range args {
		if _, err := tx.ExecContext(ctx, query, a...); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) TurnoverAsOf(ctx context.Context, at time.Time) (map[string]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	date := marketctx.TradingDate(at)
	rows, err := r.db.QueryContext(ctx, turnoverAsOfQuery, date, at.Unix())
	if err != nil {
		return nil, errors.Wrapf(err, "turnover as of %s", date)
	}
	defer rows.Close()

	var list []symbolTurnover
	for rows.Next() {
		var st symbolTurnover
		if err := rows.Scan(&st.Symbol, &st.Turnover); err != nil {
			return nil, errors.Wrap(err, "scan turnover")
		}
		list = append(list, st)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "turnover as of %s", date)
	}
	if len(list) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "turnover as of %s", date)
	}
	return firstPerSymbol(list), nil
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

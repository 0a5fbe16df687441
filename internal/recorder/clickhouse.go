package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"FnoSentinel/internal/marketctx"
	"FnoSentinel/internal/model"
	"FnoSentinel/pkg/errors"
	"FnoSentinel/pkg/logger"
)

// Compile-time check
var _ Recorder = (*ClickHouseRecorder)(nil)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// ClickHouseRecorder appends results to MergeTree tables in ClickHouse.
type ClickHouseRecorder struct {
	conn driver.Conn
}

// NewClickHouseRecorder connects, pings and creates the tables.
func NewClickHouseRecorder(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseRecorder, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	r := &ClickHouseRecorder{conn: conn}
	if err := r.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Infof("clickhouse recorder ready: %s/%s", cfg.Addr, cfg.Database)
	return r, nil
}

func (r *ClickHouseRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS option_chain_analysis (
			run_id             String,
			symbol             LowCardinality(String),
			trading_date       String,
			analyzed_at        DateTime,
			spot_price         Float64,
			score              Float64,
			sentiment          LowCardinality(String),
			confidence         Float64,
			overall_pcr        Float64,
			normalized_pcr     Float64,
			previous_pcr       Nullable(Float64),
			pcr_change_pct     Float64,
			pcr_momentum_score Float64,
			max_pain           Float64,
			support_levels     String,
			resistance_levels  String,
			zone               LowCardinality(String),
			zone_bias          LowCardinality(String),
			unusual_activity   String,
			signals            String,
			bullish_flow       Float64,
			bearish_flow       Float64,
			net_flow           Float64,
			net_call_buildup   Float64,
			net_put_buildup    Float64,
			hedging_ratio      Float64,
			target_1           Float64,
			target_2           Float64,
			stop_loss          Float64,
			risk_reward        Float64,
			contributions      String,
			reasoning          String
		) ENGINE = MergeTree
		ORDER BY (symbol, analyzed_at)`,

		`CREATE TABLE IF NOT EXISTS futures_analysis (
			run_id            String,
			symbol            LowCardinality(String),
			trading_date      String,
			analyzed_at       DateTime,
			current_expiry    String,
			current_price     Float64,
			current_oi        Float64,
			current_volume    Float64,
			current_oi_change Float64,
			next_expiry       String,
			next_price        Float64,
			next_oi           Float64,
			spot_price        Float64,
			basis             Float64,
			basis_pct         Float64,
			annualized_basis  Float64,
			market_structure  LowCardinality(String),
			arbitrage         Bool,
			buildup           LowCardinality(String),
			buildup_strength  LowCardinality(String),
			oi_change_pct     Float64,
			days_to_expiry    Int64,
			rollover_pressure LowCardinality(String),
			rollover_cost     Float64,
			signal            LowCardinality(String),
			strength          Float64,
			confidence        Float64,
			target_1          Float64,
			target_2          Float64,
			stop_loss         Float64,
			risk_reward       Float64,
			reasoning         String
		) ENGINE = MergeTree
		ORDER BY (symbol, analyzed_at)`,

		`CREATE TABLE IF NOT EXISTS turnover_samples (
			run_id       String,
			symbol       LowCardinality(String),
			index_name   LowCardinality(String),
			trading_date String,
			sampled_at   DateTime,
			turnover     Float64,
			last_price   Float64
		) ENGINE = MergeTree
		ORDER BY (trading_date, symbol, sampled_at)`,

		`CREATE TABLE IF NOT EXISTS turnover_surges (
			run_id            String,
			symbol            LowCardinality(String),
			index_name        LowCardinality(String),
			trading_date      String,
			detected_at       DateTime,
			turnover          Float64,
			previous_turnover Float64,
			increase          Float64,
			increase_pct      Float64,
			previous_date     String
		) ENGINE = MergeTree
		ORDER BY (trading_date, detected_at)`,
	}
	for _, s := range stmts {
		if err := r.conn.Exec(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *ClickHouseRecorder) SaveOptionResults(ctx context.Context, runID string, results []*model.AnalysisResult) error {
	if len(results) == 0 {
		return nil
	}
	batch, err := r.conn.PrepareBatch(ctx, columnInsert(optionTable, optionColumns))
	if err != nil {
		return errors.Wrap(err, "prepare option batch")
	}
	for _, res := range results {
		row := newOptionRow(runID, res)
		if err := batch.AppendStruct(&row); err != nil {
			return errors.Wrapf(err, "append option result %s", res.Symbol)
		}
	}
	return errors.Wrap(batch.Send(), "send option batch")
}

func (r *ClickHouseRecorder) SaveFuturesResults(ctx context.Context, runID string, results []*model.FuturesResult) error {
	if len(results) == 0 {
		return nil
	}
	batch, err := r.conn.PrepareBatch(ctx, columnInsert(futuresTable, futuresColumns))
	if err != nil {
		return errors.Wrap(err, "prepare futures batch")
	}
	for _, res := range results {
		row := newFuturesRow(runID, res)
		if err := batch.AppendStruct(&row); err != nil {
			return errors.Wrapf(err, "append futures result %s", res.Symbol)
		}
	}
	return errors.Wrap(batch.Send(), "send futures batch")
}

// PreviousPCR takes the day's latest row; run_id breaks timestamp ties.
func (r *ClickHouseRecorder) PreviousPCR(ctx context.Context, symbol, tradingDate string) (float64, error) {
	var (
		pcr   float64
		count uint64
	)
	row := r.conn.QueryRow(ctx, `SELECT argMax(overall_pcr, (analyzed_at, run_id)), count()
		FROM option_chain_analysis
		WHERE symbol = ? AND trading_date = ?`, symbol, tradingDate)
	if err := row.Scan(&pcr, &count); err != nil {
		return 0, errors.Wrapf(err, "previous pcr %s", symbol)
	}
	if count == 0 {
		return 0, errors.Wrapf(errors.ErrNotFound, "previous pcr %s", symbol)
	}
	return pcr, nil
}

func (r *ClickHouseRecorder) SaveTurnoverSamples(ctx context.Context, runID string, samples []model.TurnoverSample) error {
	if len(samples) == 0 {
		return nil
	}
	batch, err := r.conn.PrepareBatch(ctx, columnInsert(turnoverTable, turnoverColumns))
	if err != nil {
		return errors.Wrap(err, "prepare turnover batch")
	}
	for _, smp := range samples {
		row := newTurnoverSampleRow(runID, smp)
		if err := batch.AppendStruct(&row); err != nil {
			return errors.Wrapf(err, "append turnover sample %s", smp.Symbol)
		}
	}
	return errors.Wrap(batch.Send(), "send turnover batch")
}

func (r *ClickHouseRecorder) SaveTurnoverSurges(ctx context.Context, runID string, surges []model.TurnoverSurge) error {
	if len(surges) == 0 {
		return nil
	}
	batch, err := r.conn.PrepareBatch(ctx, columnInsert(surgeTable, surgeColumns))
	if err != nil {
		return errors.Wrap(err, "prepare surge batch")
	}
	for _, sg := range surges {
		row := newTurnoverSurgeRow(runID, sg)
		if err := batch.AppendStruct(&row); err != nil {
			return errors.Wrapf(err, "append turnover surge %s", sg.Symbol)
		}
	}
	return errors.Wrap(batch.Send(), "send surge batch")
}

// TurnoverAsOf ranks each symbol's samples by (at or before cutoff, time) so
// argMax lands on the latest sample not after the cutoff when one exists.
func (r *ClickHouseRecorder) TurnoverAsOf(ctx context.Context, at time.Time) (map[string]float64, error) {
	var rows []symbolTurnover
	date := marketctx.TradingDate(at)
	err := r.conn.Select(ctx, &rows, `SELECT symbol, argMax(turnover, (sampled_at <= ?, sampled_at)) AS turnover
		FROM turnover_samples
		WHERE trading_date = ? AND turnover > 0
		GROUP BY symbol`, at.UTC(), date)
	if err != nil {
		return nil, errors.Wrapf(err, "turnover as of %s", date)
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "turnover as of %s", date)
	}
	return firstPerSymbol(rows), nil
}

// Close closes the connection.
func (r *ClickHouseRecorder) Close() error {
	return r.conn.Close()
}

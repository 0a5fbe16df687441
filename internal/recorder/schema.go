package recorder

import (
	"fmt"
	"strings"
)

const (
	optionTable   = "option_chain_analysis"
	futuresTable  = "futures_analysis"
	turnoverTable = "turnover_samples"
	surgeTable    = "turnover_surges"
)

var optionColumns = []string{
	"run_id", "symbol", "trading_date", "analyzed_at", "spot_price",
	"score", "sentiment", "confidence", "overall_pcr", "normalized_pcr",
	"previous_pcr", "pcr_change_pct", "pcr_momentum_score", "max_pain",
	"support_levels", "resistance_levels", "zone", "zone_bias",
	"unusual_activity", "signals", "bullish_flow", "bearish_flow", "net_flow",
	"net_call_buildup", "net_put_buildup", "hedging_ratio",
	"target_1", "target_2", "stop_loss", "risk_reward", "contributions", "reasoning",
}

var futuresColumns = []string{
	"run_id", "symbol", "trading_date", "analyzed_at", "current_expiry",
	"current_price", "current_oi", "current_volume", "current_oi_change",
	"next_expiry", "next_price", "next_oi", "spot_price", "basis", "basis_pct",
	"annualized_basis", "market_structure", "arbitrage", "buildup", "buildup_strength",
	"oi_change_pct", "days_to_expiry", "rollover_pressure", "rollover_cost",
	"signal", "strength", "confidence", "target_1", "target_2", "stop_loss",
	"risk_reward", "reasoning",
}

var turnoverColumns = []string{
	"run_id", "symbol", "index_name", "trading_date", "sampled_at", "turnover", "last_price",
}

var surgeColumns = []string{
	"run_id", "symbol", "index_name", "trading_date", "detected_at", "turnover",
	"previous_turnover", "increase", "increase_pct", "previous_date",
}

// previousPCRQuery picks the latest row of the day; id breaks timestamp ties
// in insertion order. Placeholders are rebound per driver.
const previousPCRQuery = `SELECT overall_pcr FROM option_chain_analysis
	WHERE symbol = ? AND trading_date = ?
	ORDER BY analyzed_at DESC, id DESC LIMIT 1`

// turnoverAsOfQuery lists the day's positive samples with, per symbol, the
// latest one at or before the cutoff first and later samples after it.
const turnoverAsOfQuery = `SELECT symbol, turnover FROM turnover_samples
	WHERE trading_date = ? AND turnover > 0
	ORDER BY symbol, (sampled_at <= ?) DESC, sampled_at DESC, id DESC`

// firstPerSymbol keeps the first turnover of each symbol from rows ordered
// as turnoverAsOfQuery orders them.
func firstPerSymbol(rows []symbolTurnover) map[string]float64 {
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		if _, ok := out[r.Symbol]; !ok {
			out[r.Symbol] = r.Turnover
		}
	}
	return out
}

type symbolTurnover struct {
	Symbol   string  `db:"symbol" ch:"symbol"`
	Turnover float64 `db:"turnover" ch:"turnover"`
}

// positionalInsert builds INSERT ... VALUES (?,?,...) for sqlite.
func positionalInsert(table string, cols []string) string {
	marks := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), marks)
}

// namedInsert builds INSERT ... VALUES (:col, ...) for sqlx named binds.
func namedInsert(table string, cols []string) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = ":" + c
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(names, ", "))
}

// columnInsert builds INSERT ... (cols) for ClickHouse batches.
func columnInsert(table string, cols []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(cols, ", "))
}

// sqliteArgs returns r in optionColumns order with analyzed_at as unix seconds.
func (r optionRow) sqliteArgs() []interface{} {
	return []interface{}{
		r.RunID, r.Symbol, r.TradingDate, r.AnalyzedAt.Unix(), r.SpotPrice,
		r.Score, r.Sentiment, r.Confidence, r.PCR, r.NormalizedPCR,
		r.PreviousPCR, r.PCRChangePct, r.PCRMomentumScore, r.MaxPain,
		r.SupportLevels, r.ResistanceLevels, r.Zone, r.ZoneBias,
		r.UnusualActivity, r.Signals, r.BullishFlow, r.BearishFlow, r.NetFlow,
		r.NetCallBuildup, r.NetPutBuildup, r.HedgingRatio,
		r.Target1, r.Target2, r.StopLoss, r.RiskReward, r.Contributions, r.Reasoning,
	}
}

// sqliteArgs returns r in futuresColumns order with analyzed_at as unix seconds.
func (r futuresRow) sqliteArgs() []interface{} {
	return []interface{}{
		r.RunID, r.Symbol, r.TradingDate, r.AnalyzedAt.Unix(), r.CurrentExpiry,
		r.CurrentPrice, r.CurrentOI, r.CurrentVolume, r.CurrentOIChange,
		r.NextExpiry, r.NextPrice, r.NextOI, r.SpotPrice, r.Basis, r.BasisPct,
		r.AnnualizedBasis, r.Structure, r.Arbitrage, r.Buildup, r.BuildupStrength,
		r.OIChangePct, r.DaysToExpiry, r.RolloverPressure, r.RolloverCost,
		r.Signal, r.Strength, r.Confidence, r.Target1, r.Target2, r.StopLoss,
		r.RiskReward, r.Reasoning,
	}
}

func (r turnoverSampleRow) sqliteArgs() []interface{} {
	return []interface{}{
		r.RunID, r.Symbol, r.IndexName, r.TradingDate, r.SampledAt.Unix(), r.Turnover, r.LastPrice,
	}
}

func (r turnoverSurgeRow) sqliteArgs() []interface{} {
	return []interface{}{
		r.RunID, r.Symbol, r.IndexName, r.TradingDate, r.DetectedAt.Unix(), r.Turnover,
		r.PreviousTurnover, r.Increase, r.IncreasePct, r.PreviousDate,
	}
}

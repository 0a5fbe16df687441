package collector

import (
	"context"
	"fmt"

	"FnoSentinel/internal/model"
	"FnoSentinel/pkg/errors"
	"FnoSentinel/pkg/logger"
)

// HistoryDays is the length of the daily series fetched for momentum.
const HistoryDays = 5

// OptionBundle is everything fetched for one option-chain analysis.
type OptionBundle struct {
	Snapshot *model.InstrumentSnapshot
	// History is nil when the history source failed.
	History []model.OHLCV
}

// Collector orchestrates snapshot and history fetching for one symbol.
type Collector struct {
	Derivatives DerivativesFetcher
	History     HistoryFetcher
	// Turnover is nil when the derivatives source cannot list index
	// constituents.
	Turnover TurnoverFetcher
	log      *logger.Logger
}

// NewCollector creates a new Collector. history may be nil.
func NewCollector(derivatives DerivativesFetcher, history HistoryFetcher) *Collector {
	c := &Collector{
		Derivatives: derivatives,
		History:     history,
		log:         logger.Component("collector"),
	}
	if tf, ok := derivatives.(TurnoverFetcher); ok {
		c.Turnover = tf
	}
	return c
}

// CollectOptions fetches the option chain and the daily history of symbol.
// A history failure is logged and leaves History empty.
func (c *Collector) CollectOptions(ctx context.Context, symbol string) (*OptionBundle, error) {
	snap, err := c.Derivatives.FetchOptionChain(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch option chain: %w", err)
	}

	bundle := &OptionBundle{Snapshot: snap}
	if c.History == nil {
		return bundle, nil
	}
	bars, err := c.History.FetchDailyBars(ctx, symbol, HistoryDays)
	if err != nil {
		c.log.Warnf("[%s] %s history failed: %v, momentum disabled", symbol, c.History.Name(), err)
		return bundle, nil
	}
	bundle.History = bars
	return bundle, nil
}

// CollectFutures fetches the futures snapshot of symbol.
func (c *Collector) CollectFutures(ctx context.Context, symbol string) (*model.FuturesSnapshot, error) {
	snap, err := c.Derivatives.FetchFutures(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch futures: %w", err)
	}
	return snap, nil
}

// CollectTurnover fetches the constituents of every index. A symbol listed in
// several indices keeps its first sample. A failing index is logged and
// skipped; the call fails only when no index returned data.
func (c *Collector) CollectTurnover(ctx context.Context, indices []string) ([]model.TurnoverSample, error) {
	if c.Turnover == nil {
		return nil, errors.Wrapf(errors.ErrUnavailable, "%s cannot list index constituents", c.Derivatives.Name())
	}

	seen := make(map[string]bool)
	var (
		out     []model.TurnoverSample
		lastErr error
	)
	for _, index := range indices {
		samples, err := c.Turnover.FetchIndexTurnover(ctx, index)
		if err != nil {
			c.log.Warnf("index %s failed: %v", index, err)
			lastErr = err
			continue
		}
		for _, s := range samples {
			if seen[s.Symbol] {
				continue
			}
			seen[s.Symbol] = true
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		if lastErr != nil {
			return nil, errors.Wrap(lastErr, "collect turnover")
		}
		return nil, errors.Wrap(errors.ErrNoData, "collect turnover: no constituents")
	}
	return out, nil
}

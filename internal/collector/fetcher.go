package collector

import (
	"context"

	"FnoSentinel/internal/model"
)

// DerivativesFetcher fetches option-chain and futures snapshots.
type DerivativesFetcher interface {
	FetchOptionChain(ctx context.Context, symbol string) (*model.InstrumentSnapshot, error)
	FetchFutures(ctx context.Context, symbol string) (*model.FuturesSnapshot, error)
	Name() string
}

// HistoryFetcher fetches a trailing daily price series of the underlying.
type HistoryFetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	Name() string
}

// TurnoverFetcher fetches the per-constituent traded value of an index.
type TurnoverFetcher interface {
	FetchIndexTurnover(ctx context.Context, index string) ([]model.TurnoverSample, error)
}

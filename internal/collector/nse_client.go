package collector

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"FnoSentinel/internal/model"
	"FnoSentinel/pkg/errors"
)

// NSE API paths, relative to the session base URL.
const (
	pathExpiryDropdown = "/api/NextApi/apiClient/GetQuoteApi?functionName=getOptionChainDropdown&symbol="
	pathOptionChain    = "/api/NextApi/apiClient/GetQuoteApi?functionName=getOptionChainData&symbol=%s&params=expiryDate=%s"
	pathFutures        = "/api/equity-derivatives?symbol="
	pathSpot           = "/api/quote-equity?symbol="
	pathIndexStocks    = "/api/equity-stockIndices?index="
)

// NSEFetcher implements DerivativesFetcher against the NSE JSON API.
type NSEFetcher struct {
	session *NSESession
	now     func() time.Time
}

// NewNSEFetcher creates a fetcher over an existing session.
func NewNSEFetcher(session *NSESession) *NSEFetcher {
	return &NSEFetcher{session: session, now: time.Now}
}

func (f *NSEFetcher) Name() string { return "nse" }

// ExpiryDates lists the option expiries of symbol, nearest first.
func (f *NSEFetcher) ExpiryDates(ctx context.Context, symbol string) ([]string, error) {
	body, err := f.session.Get(ctx, pathExpiryDropdown+url.QueryEscape(symbol))
	if err != nil {
		return nil, errors.Wrapf(err, "expiry dates %s", symbol)
	}
	return ParseExpiryDates(body)
}

// FetchOptionChain fetches the nearest-expiry option chain of symbol.
func (f *NSEFetcher) FetchOptionChain(ctx context.Context, symbol string) (*model.InstrumentSnapshot, error) {
	expiries, err := f.ExpiryDates(ctx, symbol)
	if err != nil {
		return nil, err
	}
	nearest := expiries[0]

	body, err := f.session.Get(ctx, fmt.Sprintf(pathOptionChain, url.QueryEscape(symbol), url.QueryEscape(nearest)))
	if err != nil {
		return nil, errors.Wrapf(err, "option chain %s", symbol)
	}
	rows, spot, err := ParseOptionChain(body)
	if err != nil {
		return nil, errors.Wrapf(err, "option chain %s", symbol)
	}
	if spot <= 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "option chain %s: no underlying value", symbol)
	}
	return &model.InstrumentSnapshot{
		Symbol:    symbol,
		SpotPrice: spot,
		Expiry:    nearest,
		Rows:      rows,
		FetchedAt: f.now(),
	}, nil
}

// FetchFutures fetches the listed futures of symbol together with its spot.
// When the quote endpoint fails, the contract's underlying value is used.
func (f *NSEFetcher) FetchFutures(ctx context.Context, symbol string) (*model.FuturesSnapshot, error) {
	body, err := f.session.Get(ctx, pathFutures+url.QueryEscape(symbol))
	if err != nil {
		return nil, errors.Wrapf(err, "futures %s", symbol)
	}
	contracts, err := ParseFutures(body)
	if err != nil {
		return nil, errors.Wrapf(err, "futures %s", symbol)
	}

	spot, err := f.FetchSpot(ctx, symbol)
	if err != nil {
		spot = contracts[0].UnderlyingValue
	}
	if spot <= 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "futures %s: no spot price", symbol)
	}
	return &model.FuturesSnapshot{
		Symbol:    symbol,
		SpotPrice: spot,
		Contracts: contracts,
		FetchedAt: f.now(),
	}, nil
}

// FetchSpot returns the last traded price of the underlying.
func (f *NSEFetcher) FetchSpot(ctx context.Context, symbol string) (float64, error) {
	body, err := f.session.Get(ctx, pathSpot+url.QueryEscape(symbol))
	if err != nil {
		return 0, errors.Wrapf(err, "spot %s", symbol)
	}
	return ParseSpot(body)
}

// FetchIndexTurnover fetches the constituents of an NSE index with their
// cumulative traded value for the session.
func (f *NSEFetcher) FetchIndexTurnover(ctx context.Context, index string) ([]model.TurnoverSample, error) {
	body, err := f.session.Get(ctx, pathIndexStocks+url.QueryEscape(index))
	if err != nil {
		return nil, errors.Wrapf(err, "index %s", index)
	}
	return ParseIndexConstituents(body, index, f.now())
}

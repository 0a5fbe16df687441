package collector

import (
	"context"
	"time"

	"FnoSentinel/internal/model"
	"FnoSentinel/pkg/errors"
)

// MockFetcher returns controllable fixed data for development and testing.
// It implements both DerivativesFetcher and HistoryFetcher.
type MockFetcher struct {
	Price     float64
	Chains    map[string]*model.InstrumentSnapshot
	Futures   map[string]*model.FuturesSnapshot
	DailyData []model.OHLCV
	// Indices maps an index name to its constituent samples.
	Indices map[string][]model.TurnoverSample
	// Err, when set, is returned by every fetch.
	Err error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchOptionChain(_ context.Context, symbol string) (*model.InstrumentSnapshot, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if snap, ok := m.Chains[symbol]; ok {
		return snap, nil
	}
	if m.Price <= 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "mock chain %s", symbol)
	}
	return generateMockChain(symbol, m.Price), nil
}

func (m *MockFetcher) FetchFutures(_ context.Context, symbol string) (*model.FuturesSnapshot, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if snap, ok := m.Futures[symbol]; ok {
		return snap, nil
	}
	if m.Price <= 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "mock futures %s", symbol)
	}
	return generateMockFutures(symbol, m.Price), nil
}

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, days int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	return generateMockBars(m.Price, days), nil
}

func (m *MockFetcher) FetchIndexTurnover(_ context.Context, index string) ([]model.TurnoverSample, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	samples, ok := m.Indices[index]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNoData, "mock index %s", index)
	}
	return samples, nil
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   time.Now().AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// generateMockChain builds eleven strikes around spot with call OI rising
// above spot and put OI rising below it.
func generateMockChain(symbol string, spot float64) *model.InstrumentSnapshot {
	step := spot * 0.01
	rows := make([]model.StrikeRow, 0, 11)
	for i := -5; i <= 5; i++ {
		strike := spot + float64(i)*step
		callOI := 50000 + float64(i+5)*10000
		putOI := 50000 + float64(5-i)*10000
		rows = append(rows, model.StrikeRow{
			Strike: strike,
			Call:   model.OptionLeg{OpenInterest: callOI, OIChange: callOI * 0.05, Volume: callOI / 2, LastPrice: step},
			Put:    model.OptionLeg{OpenInterest: putOI, OIChange: putOI * 0.05, Volume: putOI / 2, LastPrice: step},
		})
	}
	return &model.InstrumentSnapshot{
		Symbol:    symbol,
		SpotPrice: spot,
		Rows:      rows,
		FetchedAt: time.Now(),
	}
}

func generateMockFutures(symbol string, spot float64) *model.FuturesSnapshot {
	now := time.Now()
	return &model.FuturesSnapshot{
		Symbol:    symbol,
		SpotPrice: spot,
		Contracts: []model.ContractRow{
			{
				ExpiryDate:   now.AddDate(0, 0, 20).Format("02-Jan-2006"),
				LastPrice:    spot * 1.004,
				PriceChange:  spot * 0.005,
				OpenInterest: 1000000,
				OIChange:     60000,
				Volume:       150000,
			},
			{
				ExpiryDate:   now.AddDate(0, 0, 48).Format("02-Jan-2006"),
				LastPrice:    spot * 1.009,
				OpenInterest: 200000,
			},
		},
		FetchedAt: now,
	}
}

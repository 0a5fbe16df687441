package collector

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"FnoSentinel/internal/marketctx"
	"FnoSentinel/internal/model"
	"FnoSentinel/pkg/errors"
)

// number decodes NSE numeric fields, which arrive as numbers, numeric
// strings, "-" or null.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = number(v)
	return nil
}

type nseLeg struct {
	StrikePrice          number `json:"strikePrice"`
	OpenInterest         number `json:"openInterest"`
	ChangeInOpenInterest number `json:"changeinOpenInterest"`
	TotalTradedVolume    number `json:"totalTradedVolume"`
	LastPrice            number `json:"lastPrice"`
	Change               number `json:"change"`
}

func (l *nseLeg) toModel() model.OptionLeg {
	if l == nil {
		return model.OptionLeg{}
	}
	return model.OptionLeg{
		OpenInterest: nonNegative(float64(l.OpenInterest)),
		OIChange:     float64(l.ChangeInOpenInterest),
		Volume:       nonNegative(float64(l.TotalTradedVolume)),
		LastPrice:    float64(l.LastPrice),
		PriceChange:  float64(l.Change),
	}
}

type nseChainRow struct {
	StrikePrice number  `json:"strikePrice"`
	ExpiryDate  string  `json:"expiryDate"`
	CE          *nseLeg `json:"CE"`
	PE          *nseLeg `json:"PE"`
}

func (r nseChainRow) strike() float64 {
	if r.StrikePrice > 0 {
		return float64(r.StrikePrice)
	}
	if r.CE != nil && r.CE.StrikePrice > 0 {
		return float64(r.CE.StrikePrice)
	}
	if r.PE != nil {
		return float64(r.PE.StrikePrice)
	}
	return 0
}

// nseChain covers both payload shapes: the current {data, underlyingValue}
// and the legacy {records: {data, underlyingValue}}.
type nseChain struct {
	Data            []nseChainRow `json:"data"`
	UnderlyingValue *number       `json:"underlyingValue"`
	Records         *struct {
		Data            []nseChainRow `json:"data"`
		UnderlyingValue number        `json:"underlyingValue"`
	} `json:"records"`
}

// ParseOptionChain decodes an option-chain payload into rows and spot.
func ParseOptionChain(body []byte) ([]model.StrikeRow, float64, error) {
	var chain nseChain
	if err := json.Unmarshal(body, &chain); err != nil {
		return nil, 0, errors.Wrap(err, "decode option chain")
	}

	var rows []nseChainRow
	var spot float64
	switch {
	case chain.UnderlyingValue != nil:
		rows, spot = chain.Data, float64(*chain.UnderlyingValue)
	case chain.Records != nil:
		rows, spot = chain.Records.Data, float64(chain.Records.UnderlyingValue)
	default:
		return nil, 0, errors.Wrap(errors.ErrNoData, "unknown option chain shape")
	}
	if len(rows) == 0 {
		return nil, spot, errors.Wrap(errors.ErrNoData, "option chain has no rows")
	}

	out := make([]model.StrikeRow, 0, len(rows))
	for _, r := range rows {
		strike := r.strike()
		if strike <= 0 {
			continue
		}
		out = append(out, model.StrikeRow{Strike: strike, Call: r.CE.toModel(), Put: r.PE.toModel()})
	}
	if len(out) == 0 {
		return nil, spot, errors.Wrap(errors.ErrNoData, "option chain has no strikes")
	}
	return out, spot, nil
}

// ParseExpiryDates decodes the option-chain dropdown payload.
func ParseExpiryDates(body []byte) ([]string, error) {
	var payload struct {
		ExpiryDates []string `json:"expiryDates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "decode expiry dates")
	}
	if len(payload.ExpiryDates) == 0 {
		return nil, errors.Wrap(errors.ErrNoData, "no expiry dates")
	}
	return payload.ExpiryDates, nil
}

type nseFuture struct {
	InstrumentType       string `json:"instrumentType"`
	ExpiryDate           string `json:"expiryDate"`
	LastPrice            number `json:"lastPrice"`
	Change               number `json:"change"`
	OpenInterest         number `json:"openInterest"`
	ChangeInOpenInterest number `json:"changeinOpenInterest"`
	TotalTradedVolume    number `json:"totalTradedVolume"`
	UnderlyingValue      number `json:"underlyingValue"`
}

// ParseFutures decodes the equity-derivatives payload into contract rows in
// listing order. Option entries are skipped when the payload labels them.
func ParseFutures(body []byte) ([]model.ContractRow, error) {
	var payload struct {
		Data []nseFuture `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "decode futures")
	}

	var out []model.ContractRow
	for _, f := range payload.Data {
		if f.InstrumentType != "" && !strings.HasPrefix(strings.ToUpper(f.InstrumentType), "FUT") &&
			!strings.Contains(strings.ToLower(f.InstrumentType), "future") {
			continue
		}
		out = append(out, model.ContractRow{
			ExpiryDate:      f.ExpiryDate,
			LastPrice:       float64(f.LastPrice),
			PriceChange:     float64(f.Change),
			OpenInterest:    nonNegative(float64(f.OpenInterest)),
			OIChange:        float64(f.ChangeInOpenInterest),
			Volume:          nonNegative(float64(f.TotalTradedVolume)),
			UnderlyingValue: float64(f.UnderlyingValue),
		})
	}
	if len(out) == 0 {
		return nil, errors.Wrap(errors.ErrNoData, "no futures contracts")
	}
	return out, nil
}

// ParseSpot decodes priceInfo.lastPrice from a quote-equity payload.
func ParseSpot(body []byte) (float64, error) {
	var payload struct {
		PriceInfo struct {
			LastPrice number `json:"lastPrice"`
		} `json:"priceInfo"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, errors.Wrap(err, "decode quote")
	}
	if payload.PriceInfo.LastPrice <= 0 {
		return 0, errors.Wrap(errors.ErrNoData, "quote has no last price")
	}
	return float64(payload.PriceInfo.LastPrice), nil
}

// nseTimestamp is the layout of the index snapshot timestamp, IST.
const nseTimestamp = "02-Jan-2006 15:04:05"

type nseIndexStock struct {
	Priority         int    `json:"priority"`
	Symbol           string `json:"symbol"`
	LastPrice        number `json:"lastPrice"`
	TotalTradedValue number `json:"totalTradedValue"`
}

// ParseIndexConstituents decodes an equity-stockIndices payload into one
// turnover sample per constituent. The index row itself (priority 1) is
// skipped. Samples are stamped with the payload timestamp, or fetchedAt when
// it is missing or unparseable.
func ParseIndexConstituents(body []byte, index string, fetchedAt time.Time) ([]model.TurnoverSample, error) {
	var payload struct {
		Timestamp string          `json:"timestamp"`
		Data      []nseIndexStock `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "decode index constituents")
	}

	at := fetchedAt
	if ts, err := time.ParseInLocation(nseTimestamp, strings.TrimSpace(payload.Timestamp), marketctx.IST); err == nil {
		at = ts
	}

	var out []model.TurnoverSample
	for _, d := range payload.Data {
		symbol := strings.ToUpper(strings.TrimSpace(d.Symbol))
		if d.Priority != 0 || symbol == "" {
			continue
		}
		out = append(out, model.TurnoverSample{
			Symbol:    symbol,
			IndexName: index,
			Turnover:  nonNegative(float64(d.TotalTradedValue)),
			LastPrice: float64(d.LastPrice),
			SampledAt: at,
		})
	}
	if len(out) == 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "index %s has no constituents", index)
	}
	return out, nil
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"FnoSentinel/internal/collector/ratelimit"
	"FnoSentinel/internal/model"
	"FnoSentinel/pkg/errors"
)

// DefaultYahooBaseURL is the Yahoo Finance chart API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements HistoryFetcher using the Yahoo Finance chart API.
// NSE symbols are mapped to <SYMBOL>.NS unless SymbolMap says otherwise.
type YahooFetcher struct {
	Client    *http.Client
	BaseURL   string
	SymbolMap map[string]string
	limiter   *ratelimit.Limiter
}

// NewYahooFetcher creates a new Yahoo Finance fetcher. A nil limiter means unlimited.
func NewYahooFetcher(proxyURL string, timeout time.Duration, limiter *ratelimit.Limiter) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited("yahoo")
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		BaseURL: DefaultYahooBaseURL,
		SymbolMap: map[string]string{
			"NIFTY":      "^NSEI",
			"BANKNIFTY":  "^NSEBANK",
			"FINNIFTY":   "NIFTY_FIN_SERVICE.NS",
			"MIDCPNIFTY": "NIFTY_MID_SELECT.NS",
		},
		limiter: limiter,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	if strings.Contains(symbol, ".") || strings.HasPrefix(symbol, "^") {
		return symbol
	}
	return symbol + ".NS"
}

// chartQuote holds one column per field; Yahoo sends null for
// sessions without trades.
type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type chartPayload struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []chartQuote `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func column(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		strings.TrimRight(f.BaseURL, "/"), url.PathEscape(f.yahooSymbol(symbol)), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "yahoo %s", symbol)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "yahoo read body")
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.Wrapf(errors.ErrRateLimitExceeded, "yahoo %s", symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrUnavailable, "yahoo: status %d, body: %.200s", resp.StatusCode, string(body))
	}
	return parseYahooChart(body)
}

func parseYahooChart(body []byte) ([]model.OHLCV, error) {
	var payload chartPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "yahoo decode")
	}
	if e := payload.Chart.Error; e != nil {
		return nil, errors.Wrapf(errors.ErrUnavailable, "yahoo %s: %s", e.Code, e.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errors.Wrap(errors.ErrNoData, "yahoo: empty chart")
	}

	res := payload.Chart.Result[0]
	q := res.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		c, ok := column(q.Close, i)
		if !ok {
			continue
		}
		o, _ := column(q.Open, i)
		h, _ := column(q.High, i)
		l, _ := column(q.Low, i)
		v, _ := column(q.Volume, i)
		bars = append(bars, model.OHLCV{Time: time.Unix(ts, 0), Open: o, High: h, Low: l, Close: c, Volume: v})
	}
	if len(bars) == 0 {
		return nil, errors.Wrap(errors.ErrNoData, "yahoo: only null bars")
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// FetchDailyBars returns up to days daily bars, oldest first.
func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	rng := "1mo"
	switch {
	case days <= 5:
		rng = "5d"
	case days > 90:
		rng = "1y"
	case days > 30:
		rng = "3mo"
	}
	bars, err := f.fetchChart(ctx, symbol, "1d", rng)
	if err != nil {
		return nil, err
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"FnoSentinel/internal/collector/ratelimit"
	"FnoSentinel/pkg/errors"
	"FnoSentinel/pkg/logger"
)

// Default NSE endpoints.
const (
	DefaultNSEBaseURL    = "https://www.nseindia.com"
	DefaultNSECookiePath = "/market-data/oi-spurts"
)

var nseHeaders = map[string]string{
	"User-Agent":         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Accept":             "application/json, text/plain, */*",
	"Accept-Language":    "en-US,en;q=0.9",
	"sec-ch-ua-mobile":   "?0",
	"sec-ch-ua-platform": `"macOS"`,
}

// NSEConfig configures an NSESession.
type NSEConfig struct {
	BaseURL    string
	CookiePath string
	ProxyURL   string
	Timeout    time.Duration
}

// NSESession is an explicit cookie-holding HTTP session against the NSE
// JSON API. All workers share one session; Refresh is serialized.
type NSESession struct {
	client    *http.Client
	limiter   *ratelimit.Limiter
	baseURL   string
	cookieURL string
	log       *logger.Logger

	mu     sync.Mutex
	primed bool
}

// NewNSESession creates a session. A nil limiter means unlimited.
func NewNSESession(cfg NSEConfig, limiter *ratelimit.Limiter) (*NSESession, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "create cookie jar")
	}
	transport := &http.Transport{}
	if cfg.ProxyURL != "" {
		if u, err := url.Parse(cfg.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNSEBaseURL
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = DefaultNSECookiePath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited("nse")
	}
	return &NSESession{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			Jar:       jar,
		},
		limiter:   limiter,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		cookieURL: strings.TrimRight(cfg.BaseURL, "/") + cfg.CookiePath,
		log:       logger.Component("nse_session"),
	}, nil
}

// Refresh primes the cookie jar from the warm-up page.
func (s *NSESession) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *NSESession) refreshLocked(ctx context.Context) error {
	req, err := s.newRequest(ctx, s.cookieURL)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "nse cookie refresh")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return errors.Wrapf(errors.ErrUnavailable, "nse cookie refresh: status %d", resp.StatusCode)
	}
	s.primed = true
	s.log.Debugf("cookies refreshed from %s", s.cookieURL)
	return nil
}

func (s *NSESession) ensurePrimed(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.primed {
		return
	}
	if err := s.refreshLocked(ctx); err != nil {
		// the API call itself may still succeed
		s.log.Warnf("initial cookie refresh failed: %v", err)
	}
}

// Get fetches path (relative to the base URL) and returns the body. On HTTP
// 401 it refreshes the cookies once and retries.
func (s *NSESession) Get(ctx context.Context, path string) ([]byte, error) {
	s.ensurePrimed(ctx)

	body, status, err := s.do(ctx, path)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		s.log.Infof("401 from %s, refreshing cookies", path)
		if err := s.Refresh(ctx); err != nil {
			return nil, errors.Wrapf(errors.ErrSessionExpired, "refresh after 401: %v", err)
		}
		body, status, err = s.do(ctx, path)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, errors.Wrapf(errors.ErrSessionExpired, "nse %s", path)
		}
	}
	switch status {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, errors.Wrapf(errors.ErrRateLimitExceeded, "nse %s", path)
	default:
		return nil, errors.Wrapf(errors.ErrUnavailable, "nse %s: status %d", path, status)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "nse %s: empty body", path)
	}
	return body, nil
}

func (s *NSESession) do(ctx context.Context, path string) ([]byte, int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}
	req, err := s.newRequest(ctx, s.baseURL+path)
	if err != nil {
		return nil, 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "nse fetch %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, errors.Wrap(err, "nse read body")
	}
	return body, resp.StatusCode, nil
}

func (s *NSESession) newRequest(ctx context.Context, u string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range nseHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("Referer", s.cookieURL)
	return req, nil
}

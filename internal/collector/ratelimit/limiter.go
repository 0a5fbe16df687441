package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"FnoSentinel/pkg/errors"
)

// Limiter throttles outbound calls to one upstream. It is shared by all
// workers of a cycle.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter creates a limiter allowing requestsPerMinute with a burst of
// 10% of that (at least 1).
func NewLimiter(name string, requestsPerMinute int) *Limiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	rps := float64(requestsPerMinute) / 60.0

	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

// Unlimited returns a limiter that never blocks.
func Unlimited(name string) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1), name: name}
}

// Wait blocks until the limiter allows the request or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limiter %s", l.name)
	}
	return nil
}

// Allow reports whether a request may happen now without blocking.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Name returns the limiter name.
func (l *Limiter) Name() string { return l.name }

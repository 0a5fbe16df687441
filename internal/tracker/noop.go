package tracker

import (
	"context"

	"FnoSentinel/pkg/errors"
)

// NoopTracker is used when no SENTRY_DSN is configured.
type NoopTracker struct{}

func NewNoop() *NoopTracker { return &NoopTracker{} }

func (NoopTracker) CaptureError(context.Context, error, map[string]string) error { return nil }
func (NoopTracker) CaptureMessage(context.Context, string, errors.Level, map[string]string) error {
	return nil
}
func (NoopTracker) AddBreadcrumb(context.Context, string, string, errors.Level, map[string]interface{}) {
}
func (NoopTracker) Flush(context.Context) error { return nil }

// New returns a Sentry tracker when dsn is set, otherwise a noop tracker.
func New(dsn, environment, release string) (errors.Tracker, error) {
	if dsn == "" {
		return NewNoop(), nil
	}
	return NewSentry(dsn, environment, release)
}

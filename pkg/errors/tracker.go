package errors

import (
	"context"
)

// Tracker receives errors the sentinel could not handle locally. The Sentry
// implementation lives in internal/tracker.
type Tracker interface {
	CaptureError(ctx context.Context, err error, tags map[string]string) error

	CaptureMessage(ctx context.Context, message string, level Level, tags map[string]string) error

	// AddBreadcrumb records a cycle step leading up to a later error.
	AddBreadcrumb(ctx context.Context, message string, category string, level Level, data map[string]interface{})

	Flush(ctx context.Context) error
}

// Level is the tracker severity.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

func (l Level) String() string {
	return string(l)
}

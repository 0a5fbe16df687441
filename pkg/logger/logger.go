package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"FnoSentinel/pkg/errors"
)

var globalLogger *Logger

// Logger is the sentinel's zap logger. Errors logged through it are also
// forwarded to Sentry once SetErrorTracker has been called, tagged with the
// component that raised them.
type Logger struct {
	*zap.SugaredLogger
	component    string
	errorTracker errors.Tracker
}

// Init builds the process logger. Production emits JSON; every other env
// gets coloured console output. An unknown level falls back to info.
func Init(level string, env string) error {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	zl, err := config.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return err
	}

	globalLogger = &Logger{SugaredLogger: zl.Sugar(), component: "sentinel"}
	return nil
}

// SetErrorTracker attaches the Sentry tracker. Component loggers created
// afterwards inherit it.
func SetErrorTracker(tracker errors.Tracker) {
	if globalLogger != nil {
		globalLogger.errorTracker = tracker
	}
}

// Get returns the process logger, falling back to a development logger
// when Init has not run.
func Get() *Logger {
	if globalLogger == nil {
		zl, _ := zap.NewDevelopment()
		globalLogger = &Logger{SugaredLogger: zl.Sugar(), component: "sentinel"}
	}
	return globalLogger
}

// Component returns a child of the process logger for one subsystem
// (collector, runner, scheduler, ...).
func Component(name string) *Logger {
	return Get().Component(name)
}

// Component derives a child logger that stamps every line and every
// tracked error with the given component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With("component", name),
		component:     name,
		errorTracker:  l.errorTracker,
	}
}

// With adds structured fields such as symbol or run_id.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(args...),
		component:     l.component,
		errorTracker:  l.errorTracker,
	}
}

func (l *Logger) Error(args ...interface{}) {
	l.SugaredLogger.Error(args...)
	l.track(context.Background(), errors.Wrapf(errors.ErrInternal, "%s", fmt.Sprint(args...)), nil)
}

func (l *Logger) Errorf(template string, args ...interface{}) {
	l.SugaredLogger.Errorf(template, args...)
	l.track(context.Background(), fmt.Errorf(template, args...), nil)
}

// ErrorWithContext logs err with tags as fields and reports it to Sentry.
func (l *Logger) ErrorWithContext(ctx context.Context, err error, tags map[string]string) {
	l.SugaredLogger.Errorw(err.Error(), tagsToFields(tags)...)
	l.track(ctx, err, tags)
}

func (l *Logger) track(ctx context.Context, err error, tags map[string]string) {
	if l.errorTracker == nil {
		return
	}
	merged := map[string]string{"component": l.component}
	for k, v := range tags {
		merged[k] = v
	}
	_ = l.errorTracker.CaptureError(ctx, err, merged)
}

func tagsToFields(tags map[string]string) []interface{} {
	fields := make([]interface{}, 0, len(tags)*2)
	for k, v := range tags {
		fields = append(fields, k, v)
	}
	return fields
}

func Infof(template string, args ...interface{}) { Get().Infof(template, args...) }
func Warnf(template string, args ...interface{}) { Get().Warnf(template, args...) }

// Sync flushes buffered entries before exit.
func Sync() error {
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}

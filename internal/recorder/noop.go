package recorder

import (
	"context"
	"time"

	"FnoSentinel/internal/model"
	"FnoSentinel/pkg/errors"
)

// NoopRecorder is a no-op implementation used when no store is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) SaveOptionResults(context.Context, string, []*model.AnalysisResult) error {
	return nil
}

func (n *NoopRecorder) SaveFuturesResults(context.Context, string, []*model.FuturesResult) error {
	return nil
}

func (n *NoopRecorder) PreviousPCR(context.Context, string, string) (float64, error) {
	return 0, errors.ErrNotFound
}

func (n *NoopRecorder) SaveTurnoverSamples(context.Context, string, []model.TurnoverSample) error {
	return nil
}

func (n *NoopRecorder) SaveTurnoverSurges(context.Context, string, []model.TurnoverSurge) error {
	return nil
}

func (n *NoopRecorder) TurnoverAsOf(context.Context, time.Time) (map[string]float64, error) {
	return nil, errors.ErrNotFound
}

func (n *NoopRecorder) Close() error { return nil }

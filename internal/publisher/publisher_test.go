package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FnoSentinel/internal/model"
)

func TestKafkaPublisher_Message(t *testing.T) {
	p := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}})
	defer p.Close()
	fixed := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	assert.Equal(t, TopicOptionAnalysis, p.options.Topic)
	assert.Equal(t, TopicFuturesAnalysis, p.futures.Topic)
	assert.Equal(t, TopicTurnoverSurges, p.turnover.Topic)

	msg, err := p.message("run-1", "option", "TCS", &model.AnalysisResult{Symbol: "TCS", Score: 42})
	require.NoError(t, err)
	assert.Equal(t, "TCS", string(msg.Key))

	var env struct {
		RunID       string          `json:"run_id"`
		Kind        string          `json:"kind"`
		PublishedAt time.Time       `json:"published_at"`
		Result      json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, "run-1", env.RunID)
	assert.Equal(t, "option", env.Kind)
	assert.True(t, fixed.Equal(env.PublishedAt))
	assert.Contains(t, string(env.Result), `"score":42`)
}

func TestKafkaPublisher_EmptyBatchIsNoop(t *testing.T) {
	p := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}, OptionTopic: "custom"})
	defer p.Close()
	assert.Equal(t, "custom", p.options.Topic)
	assert.NoError(t, p.PublishOptionResults(context.Background(), "run", nil))
	assert.NoError(t, p.PublishFuturesResults(context.Background(), "run", nil))
	assert.NoError(t, p.PublishTurnoverSurges(context.Background(), "run", nil))
}

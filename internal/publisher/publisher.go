package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"FnoSentinel/internal/model"
	"FnoSentinel/pkg/errors"
	"FnoSentinel/pkg/logger"
)

// Default topics.
const (
	TopicOptionAnalysis  = "fno.option_analysis"
	TopicFuturesAnalysis = "fno.futures_analysis"
	TopicTurnoverSurges  = "fno.turnover_surges"
)

// Publisher streams scored results to downstream consumers.
type Publisher interface {
	PublishOptionResults(ctx context.Context, runID string, results []*model.AnalysisResult) error
	PublishFuturesResults(ctx context.Context, runID string, results []*model.FuturesResult) error
	PublishTurnoverSurges(ctx context.Context, runID string, surges []model.TurnoverSurge) error
	Close() error
}

// Envelope is the JSON value of every published message.
type Envelope struct {
	RunID       string      `json:"run_id"`
	Kind        string      `json:"kind"`
	Symbol      string      `json:"symbol"`
	PublishedAt time.Time   `json:"published_at"`
	Result      interface{} `json:"result"`
}

// KafkaConfig holds producer configuration.
type KafkaConfig struct {
	Brokers       []string
	OptionTopic   string
	FuturesTopic  string
	TurnoverTopic string
}

// KafkaPublisher writes one message per result, keyed by symbol.
type KafkaPublisher struct {
	options  *kafka.Writer
	futures  *kafka.Writer
	turnover *kafka.Writer
	log      *logger.Logger
	now      func() time.Time
}

// NewKafkaPublisher creates synchronous writers for every topic.
func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	if cfg.OptionTopic == "" {
		cfg.OptionTopic = TopicOptionAnalysis
	}
	if cfg.FuturesTopic == "" {
		cfg.FuturesTopic = TopicFuturesAnalysis
	}
	if cfg.TurnoverTopic == "" {
		cfg.TurnoverTopic = TopicTurnoverSurges
	}
	return &KafkaPublisher{
		options:  newWriter(cfg.Brokers, cfg.OptionTopic),
		futures:  newWriter(cfg.Brokers, cfg.FuturesTopic),
		turnover: newWriter(cfg.Brokers, cfg.TurnoverTopic),
		log:      logger.Component("kafka_publisher"),
		now:      time.Now,
	}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func (p *KafkaPublisher) PublishOptionResults(ctx context.Context, runID string, results []*model.AnalysisResult) error {
	msgs := make([]kafka.Message, 0, len(results))
	for _, r := range results {
		msg, err := p.message(runID, "option", r.Symbol, r)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return p.write(ctx, p.options, msgs)
}

func (p *KafkaPublisher) PublishFuturesResults(ctx context.Context, runID string, results []*model.FuturesResult) error {
	msgs := make([]kafka.Message, 0, len(results))
	for _, r := range results {
		msg, err := p.message(runID, "futures", r.Symbol, r)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return p.write(ctx, p.futures, msgs)
}

func (p *KafkaPublisher) PublishTurnoverSurges(ctx context.Context, runID string, surges []model.TurnoverSurge) error {
	msgs := make([]kafka.Message, 0, len(surges))
	for i := range surges {
		msg, err := p.message(runID, "turnover", surges[i].Symbol, &surges[i])
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return p.write(ctx, p.turnover, msgs)
}

func (p *KafkaPublisher) message(runID, kind, symbol string, result interface{}) (kafka.Message, error) {
	data, err := json.Marshal(Envelope{
		RunID:       runID,
		Kind:        kind,
		Symbol:      symbol,
		PublishedAt: p.now().UTC(),
		Result:      result,
	})
	if err != nil {
		return kafka.Message{}, errors.Wrapf(err, "encode %s result %s", kind, symbol)
	}
	return kafka.Message{Key: []byte(symbol), Value: data}, nil
}

func (p *KafkaPublisher) write(ctx context.Context, w *kafka.Writer, msgs []kafka.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if err := w.WriteMessages(ctx, msgs...); err != nil {
		p.log.Errorf("Failed to publish batch to %s: %v", w.Topic, err)
		return errors.Wrapf(err, "publish to %s", w.Topic)
	}
	p.log.Debugf("Published %d messages to %s", len(msgs), w.Topic)
	return nil
}

// Close closes every writer.
func (p *KafkaPublisher) Close() error {
	var merr errors.MultiError
	merr.Add(p.options.Close())
	merr.Add(p.futures.Close())
	merr.Add(p.turnover.Close())
	return merr.ToError()
}

// NoopPublisher drops everything; used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOptionResults(context.Context, string, []*model.AnalysisResult) error {
	return nil
}

func (NoopPublisher) PublishFuturesResults(context.Context, string, []*model.FuturesResult) error {
	return nil
}

func (NoopPublisher) PublishTurnoverSurges(context.Context, string, []model.TurnoverSurge) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }

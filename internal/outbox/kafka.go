package outbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// Producer is the slice of *kgo.Client the relay uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher writes entries to one topic keyed by aggregate.
type KafkaPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaPublisher(producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// NewKafkaClient dials brokers with idempotent, fully acknowledged writes.
func NewKafkaClient(brokers []string, topic string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, e *Entry) error {
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(e.Key()),
		Value: e.Payload,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(e.EventType)},
			{Key: "outbox_id", Value: []byte(e.ID.String())},
		},
		Timestamp: e.CreatedAt,
	}
	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s to %s: %w", e.EventType, p.topic, err)
	}
	return nil
}

// EnsureTopic creates topic if it does not exist yet.
func EnsureTopic(ctx context.Context, admin *kadm.Client, topic string, partitions int32, replicationFactor int16) error {
	resp, err := admin.CreateTopic(ctx, partitions, replicationFactor, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, resp.Err)
	}
	return nil
}

// LogPublisher stands in for Kafka when no brokers are configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, e *Entry) error {
	p.logger.Info("outbox entry",
		zap.String("id", e.ID.String()),
		zap.String("event_type", e.EventType),
		zap.String("key", e.Key()),
		zap.ByteString("payload", e.Payload),
	)
	return nil
}

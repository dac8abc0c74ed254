package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/attaboy/academy/internal/domain"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer wraps a kafka-go writer for publishing messages.
type KafkaProducer struct {
	writer  MessageWriter
	logger  *slog.Logger
	enabled bool
}

// NewKafkaProducer creates a Kafka producer. If brokers is empty or disabled, writes are no-ops.
func NewKafkaProducer(brokers string, enabled bool, logger *slog.Logger) *KafkaProducer {
	if !enabled || brokers == "" {
		logger.Info("kafka producer disabled")
		return &KafkaProducer{enabled: false, logger: logger}
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info("kafka producer initialized", "brokers", brokers)
	return &KafkaProducer{writer: w, logger: logger, enabled: true}
}

// Enabled reports whether messages actually leave the process.
func (p *KafkaProducer) Enabled() bool {
	return p.enabled
}

// Publish sends messages to the given topic. No-op if disabled.
func (p *KafkaProducer) Publish(ctx context.Context, topic string, msgs ...kafka.Message) error {
	if !p.enabled || len(msgs) == 0 {
		return nil
	}
	for i := range msgs {
		msgs[i].Topic = topic
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

// Close shuts down the Kafka writer.
func (p *KafkaProducer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// EventPublisher forwards progress events to a Kafka topic, keyed by learner id
// so one learner's events stay ordered within a partition.
type EventPublisher struct {
	producer *KafkaProducer
	topic    string
}

// NewEventPublisher creates a publisher for topic.
func NewEventPublisher(producer *KafkaProducer, topic string) *EventPublisher {
	return &EventPublisher{producer: producer, topic: topic}
}

// Notify publishes every event as one JSON message.
func (p *EventPublisher) Notify(ctx context.Context, _ *domain.Snapshot, events []domain.ProgressEvent) error {
	if !p.producer.Enabled() || len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		value, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", evt.EventType, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(evt.LearnerID.String()),
			Value: value,
			Time:  evt.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(evt.EventType)},
			},
		})
	}

	if err := p.producer.Publish(ctx, p.topic, msgs...); err != nil {
		return fmt.Errorf("publish %d events to %s: %w", len(msgs), p.topic, err)
	}
	return nil
}

// KafkaConsumer wraps a kafka-go reader for consuming messages.
type KafkaConsumer struct {
	reader  *kafka.Reader
	logger  *slog.Logger
	enabled bool
}

// NewKafkaConsumer creates a Kafka consumer for the given topic and group.
func NewKafkaConsumer(brokers, topic, groupID string, enabled bool, logger *slog.Logger) *KafkaConsumer {
	if !enabled || brokers == "" {
		return &KafkaConsumer{enabled: false, logger: logger}
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(brokers, ","),
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	return &KafkaConsumer{reader: r, logger: logger, enabled: true}
}

// ErrConsumerDisabled is returned by ReadEvent when Kafka is switched off.
var ErrConsumerDisabled = errors.New("kafka consumer disabled")

// ReadEvent blocks for the next message and decodes it as a progress event.
func (c *KafkaConsumer) ReadEvent(ctx context.Context) (domain.ProgressEvent, error) {
	var evt domain.ProgressEvent
	if !c.enabled {
		return evt, ErrConsumerDisabled
	}
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return evt, fmt.Errorf("read message: %w", err)
	}
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return evt, fmt.Errorf("decode event at offset %d: %w", msg.Offset, err)
	}
	return evt, nil
}

// Close shuts down the Kafka reader.
func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}

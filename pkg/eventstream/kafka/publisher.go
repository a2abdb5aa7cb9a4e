// Package kafka publishes generation events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	segmentio "github.com/segmentio/kafka-go"

	"github.com/chinmaymk/aikit-sub003/pkg/eventstream"
	"github.com/chinmaymk/aikit-sub003/pkg/logger"
)

// writer is the subset of *segmentio.Writer the publisher uses, extracted so
// tests can substitute an in-memory implementation.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...segmentio.Message) error
	Close() error
}

// Publisher publishes generation events to a Kafka topic, keyed by provider
// so per-provider ordering is preserved within a partition.
type Publisher struct {
	writer writer
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger used for publish diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = l
	}
}

// NewPublisher creates a Kafka-backed eventstream publisher.
func NewPublisher(brokers []string, topic string, opts ...Option) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka publisher requires a topic")
	}

	p := &Publisher{
		writer: &segmentio.Writer{
			Addr:     segmentio.TCP(brokers...),
			Topic:    topic,
			Balancer: &segmentio.Hash{},
		},
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// PublishGeneration marshals the event and writes it to the topic.
func (p *Publisher) PublishGeneration(ctx context.Context, event *eventstream.GenerationCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling generation event: %w", err)
	}

	msg := segmentio.Message{
		Key:   []byte(event.Source.Provider),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing generation event: %w", err)
	}

	p.logger.Debug("published generation event",
		"event_id", event.EventID,
		"provider", event.Source.Provider,
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

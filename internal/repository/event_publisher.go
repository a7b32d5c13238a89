package repository

import (
	"context"
	"time"

	"QuantForge/internal/domain/models"
	"QuantForge/internal/domain/repository"
	pkgkafka "QuantForge/pkg/kafka"
)

// KafkaEventPublisher implements EventPublisher over a Kafka topic.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a Kafka-backed audit publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, e *models.Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	key := e.Kind
	if e.Symbol != "" {
		key = e.Symbol
	}
	return p.producer.Publish(ctx, p.topic, []byte(key), e)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopEventPublisher is used when Kafka is disabled in config.
type NoopEventPublisher struct{}

func NewNoopEventPublisher() repository.EventPublisher { return NoopEventPublisher{} }

func (NoopEventPublisher) Publish(ctx context.Context, e *models.Event) error { return nil }
func (NoopEventPublisher) Close() error                                       { return nil }

package repository

import (
	"context"

	"StableBench/internal/domain/models"
	domrepo "StableBench/internal/domain/repository"
	pkgkafka "StableBench/pkg/kafka"
)

// KafkaTickPublisher fans published ticks out to the snapshot topic.
// Keyed by tick so partition ordering preserves tick order.
type KafkaTickPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaTickPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaTickPublisher{producer: producer, topic: topic}
}

func (p *KafkaTickPublisher) PublishTick(ctx context.Context, t *models.BenchmarkTick) error {
	return p.producer.Publish(ctx, p.topic, []byte("syi"), t)
}

func (p *KafkaTickPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// LogPublisher adapts the producer to the logger's aggregated-log sink.
type LogPublisher struct {
	producer *pkgkafka.Producer
}

func NewLogPublisher(producer *pkgkafka.Producer) *LogPublisher {
	return &LogPublisher{producer: producer}
}

func (p *LogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, []byte("logs"), payload)
}

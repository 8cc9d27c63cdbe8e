package repository

import (
	"context"

	"TokenWatch/internal/domain/models"
	"TokenWatch/internal/domain/repository"
	pkgkafka "TokenWatch/pkg/kafka"
)

// KafkaFirehose implements SignalPublisher on a Kafka topic. Messages are
// keyed by asset so per-asset ordering survives partitioning.
type KafkaFirehose struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaFirehose(producer *pkgkafka.Producer, topic string) repository.SignalPublisher {
	return &KafkaFirehose{producer: producer, topic: topic}
}

func (p *KafkaFirehose) Publish(ctx context.Context, s models.Signal) error {
	key := s.Asset
	if key == "" {
		key = s.Kind
	}
	return p.producer.Publish(ctx, p.topic, []byte(key), s)
}

func (p *KafkaFirehose) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

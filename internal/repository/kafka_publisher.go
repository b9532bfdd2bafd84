package repository

import (
	"context"

	"LottoStats/internal/domain/models"
	"LottoStats/internal/domain/repository"
	pkgkafka "LottoStats/pkg/kafka"
)

// messageProducer is the subset of pkg/kafka.Producer the publishers need.
type messageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaDrawPublisher implements DrawPublisher. Messages are keyed by lottery type
// so draws of one lottery stay ordered within a partition.
type KafkaDrawPublisher struct {
	producer messageProducer
	topic    string
}

func NewKafkaDrawPublisher(producer messageProducer, topic string) *KafkaDrawPublisher {
	return &KafkaDrawPublisher{producer: producer, topic: topic}
}

func (p *KafkaDrawPublisher) Publish(ctx context.Context, r *models.LotteryResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.LotteryType), r)
}

func (p *KafkaDrawPublisher) PublishBatch(ctx context.Context, rs []*models.LotteryResult) error {
	if len(rs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(rs))
	for i, r := range rs {
		msgs[i] = pkgkafka.Message{Key: []byte(r.LotteryType), Value: r}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaDrawPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// KafkaLogPublisher sends aggregated error logs from the logger collector to Kafka.
type KafkaLogPublisher struct {
	producer messageProducer
}

func NewKafkaLogPublisher(producer messageProducer) *KafkaLogPublisher {
	return &KafkaLogPublisher{producer: producer}
}

func (p *KafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

var _ repository.DrawPublisher = (*KafkaDrawPublisher)(nil)

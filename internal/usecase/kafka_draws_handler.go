package usecase

import (
	"context"
	"encoding/json"
	"time"

	"LottoStats/internal/domain/models"
	domrepo "LottoStats/internal/domain/repository"
	pkgkafka "LottoStats/pkg/kafka"
)

// KafkaDrawsHandler consumes draws from Kafka and ingests them.
type KafkaDrawsHandler struct {
	topic   string
	ingest  *Ingestor
	metrics domrepo.Metrics
}

func NewKafkaDrawsHandler(topic string, ingest *Ingestor, metrics domrepo.Metrics) *KafkaDrawsHandler {
	return &KafkaDrawsHandler{topic: topic, ingest: ingest, metrics: orNopMetrics(metrics)}
}

func (h *KafkaDrawsHandler) Topic() string { return h.topic }

// Handle expects a JSON LotteryResult. Invalid draws are dropped rather than retried.
func (h *KafkaDrawsHandler) Handle(ctx context.Context, b []byte) error {
	var r models.LotteryResult
	if err := json.Unmarshal(b, &r); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	start := time.Now()
	_, err := h.ingest.Ingest(ctx, r, SourceKafka)
	h.metrics.RecordLatency("consumer_ingest", time.Since(start).Seconds())
	if err != nil {
		if models.IsValidation(err) {
			h.metrics.RecordError("consumer_invalid")
			return nil
		}
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaDrawsHandler)(nil)

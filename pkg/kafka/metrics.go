package kafka

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type kafkaMetrics struct {
	published   *prometheus.CounterVec
	publishErrs *prometheus.CounterVec
	bytes       *prometheus.CounterVec
	publishTime *prometheus.HistogramVec

	queueDepth    *prometheus.GaugeVec
	queueFullness *prometheus.GaugeVec
	handleTime    *prometheus.HistogramVec
	dlqTotal      *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *kafkaMetrics
	registerer  prometheus.Registerer = prometheus.DefaultRegisterer
)

// SetMetricsRegisterer must be called before the first producer or consumer is built.
func SetMetricsRegisterer(reg prometheus.Registerer) {
	if reg != nil {
		registerer = reg
	}
}

func kafkaMetricsInstance() *kafkaMetrics {
	metricsOnce.Do(func() {
		m := &kafkaMetrics{
			published: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lottostats_kafka_producer_messages_total",
				Help: "Messages written to Kafka by result.",
			}, []string{"topic", "compression", "result"}),
			publishErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lottostats_kafka_producer_errors_total",
				Help: "Failed Kafka writes.",
			}, []string{"topic"}),
			bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lottostats_kafka_producer_bytes_total",
				Help: "Payload bytes written to Kafka.",
			}, []string{"topic", "compression"}),
			publishTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "lottostats_kafka_producer_publish_seconds",
				Help:    "Kafka write latency.",
				Buckets: prometheus.DefBuckets,
			}, []string{"topic"}),
			queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "lottostats_kafka_consumer_queue_depth",
				Help: "Messages read but not yet handled.",
			}, []string{"topic"}),
			queueFullness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "lottostats_kafka_consumer_queue_fullness",
				Help: "Worker buffer utilisation (len/cap).",
			}, []string{"topic"}),
			handleTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name: "lottostats_kafka_consumer_handle_seconds",
				Help: "Time spent handling one message, retries included.",
			}, []string{"topic"}),
			dlqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lottostats_kafka_consumer_dlq_total",
				Help: "Messages sent to the dead-letter topic.",
			}, []string{"topic"}),
		}
		for _, c := range []prometheus.Collector{
			m.published, m.publishErrs, m.bytes, m.publishTime,
			m.queueDepth, m.queueFullness, m.handleTime, m.dlqTotal,
		} {
			// a duplicate registration only loses the export, never the counting
			_ = registerer.Register(c)
		}
		metrics = m
	})
	return metrics
}

func (m *kafkaMetrics) observePublish(topic, codec string, bytes int64, count int, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		m.publishErrs.WithLabelValues(topic).Inc()
	}
	m.published.WithLabelValues(topic, codec, result).Add(float64(count))
	m.bytes.WithLabelValues(topic, codec).Add(float64(bytes))
	m.publishTime.WithLabelValues(topic).Observe(took.Seconds())
}

func (m *kafkaMetrics) observeBuffer(topic string, n, capacity int) {
	m.queueDepth.WithLabelValues(topic).Set(float64(n))
	if capacity > 0 {
		m.queueFullness.WithLabelValues(topic).Set(float64(n) / float64(capacity))
	}
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	drawsIngested *prometheus.CounterVec
	suggestions   *prometheus.CounterVec
	evaluated     *prometheus.CounterVec
	matches       *prometheus.HistogramVec
	accuracy      *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	queueDepth    *prometheus.GaugeVec
}

var (
	defaultOnce     sync.Once
	defaultRecorder *Recorder
)

// New returns the process-wide recorder registered on the default registry.
func New() *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = NewWithRegisterer(prometheus.DefaultRegisterer)
	})
	return defaultRecorder
}

// NewWithRegisterer creates a recorder whose collectors are registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		drawsIngested: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lottostats_draws_ingested_total",
				Help: "Total number of draws stored",
			},
			[]string{"lottery", "source"},
		),
		suggestions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lottostats_suggestions_total",
				Help: "Total number of suggestions generated",
			},
			[]string{"lottery", "algorithm"},
		),
		evaluated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lottostats_predictions_evaluated_total",
				Help: "Total number of predictions enriched with a real draw",
			},
			[]string{"lottery", "algorithm"},
		),
		matches: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lottostats_prediction_matches",
				Help:    "Matched numbers per evaluated prediction",
				Buckets: prometheus.LinearBuckets(0, 1, 7),
			},
			[]string{"lottery", "algorithm"},
		),
		accuracy: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lottostats_algorithm_accuracy",
				Help: "Mean accuracy of an algorithm's evaluated predictions",
			},
			[]string{"lottery", "algorithm"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lottostats_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lottostats_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		queueDepth: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lottostats_queue_depth",
				Help: "Messages waiting in the enrichment queue lists",
			},
			[]string{"list"},
		),
	}
}

// RecordDrawIngested records a draw stored from the given source (api, sync, feed, kafka).
func (r *Recorder) RecordDrawIngested(lotteryType, source string) {
	r.drawsIngested.WithLabelValues(lotteryType, source).Inc()
}

func (r *Recorder) RecordSuggestion(lotteryType, algorithm string) {
	r.suggestions.WithLabelValues(lotteryType, algorithm).Inc()
}

func (r *Recorder) RecordPredictionEvaluated(lotteryType, algorithm string, matches int) {
	r.evaluated.WithLabelValues(lotteryType, algorithm).Inc()
	r.matches.WithLabelValues(lotteryType, algorithm).Observe(float64(matches))
}

func (r *Recorder) RecordAccuracy(lotteryType, algorithm string, accuracy float64) {
	r.accuracy.WithLabelValues(lotteryType, algorithm).Set(accuracy)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordQueueDepth publishes the sizes of the pending, retry and dead-letter lists.
func (r *Recorder) RecordQueueDepth(pending, retry, dead int64) {
	r.queueDepth.WithLabelValues("pending").Set(float64(pending))
	r.queueDepth.WithLabelValues("retry").Set(float64(retry))
	r.queueDepth.WithLabelValues("dead").Set(float64(dead))
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordDrawIngested("mega645", "api")
	r.RecordDrawIngested("mega645", "api")
	r.RecordSuggestion("power655", "frequency")
	r.RecordPredictionEvaluated("power655", "frequency", 3)
	r.RecordAccuracy("power655", "frequency", 0.25)
	r.RecordError("ingest")

	if got := testutil.ToFloat64(r.drawsIngested.WithLabelValues("mega645", "api")); got != 2 {
		t.Fatalf("draws ingested = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.accuracy.WithLabelValues("power655", "frequency")); got != 0.25 {
		t.Fatalf("accuracy = %v, want 0.25", got)
	}
	if got := testutil.ToFloat64(r.evaluated.WithLabelValues("power655", "frequency")); got != 1 {
		t.Fatalf("evaluated = %v, want 1", got)
	}

	r.RecordQueueDepth(4, 1, 0)
	if got := testutil.ToFloat64(r.queueDepth.WithLabelValues("pending")); got != 4 {
		t.Fatalf("queue pending = %v, want 4", got)
	}
}

func TestNew_Singleton(t *testing.T) {
	if New() != New() {
		t.Fatalf("New() should return the shared recorder")
	}
}

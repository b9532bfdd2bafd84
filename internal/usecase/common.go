package usecase

import domrepo "LottoStats/internal/domain/repository"

type nopMetrics struct{}

func (nopMetrics) RecordDrawIngested(string, string) {}
func (nopMetrics) RecordSuggestion(string, string) {}
func (nopMetrics) RecordPredictionEvaluated(string, string, int) {}
func (nopMetrics) RecordAccuracy(string, string, float64) {}
func (nopMetrics) RecordError(string) {}
func (nopMetrics) RecordLatency(string, float64) {}

func orNopMetrics(m domrepo.Metrics) domrepo.Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}

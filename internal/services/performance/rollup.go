package performance

import (
	"math"
	"time"

	"LottoStats/internal/domain/models"
)

// HitThreshold is the match count at which a prediction counts as a hit.
const HitThreshold = 3

// Rollup aggregates the records of one algorithm. Records of other algorithms
// or lotteries are ignored. Pending records only count toward totals.
func Rollup(algorithm string, lt models.LotteryType, records []models.PredictionRecord, now time.Time) models.AlgorithmPerformance {
	p := models.AlgorithmPerformance{
		Algorithm:         algorithm,
		LotteryType:       lt,
		MatchDistribution: map[int]int{},
		LastUpdated:       now,
	}

	var matches, accuracy, confidence float64
	hits, powerHits, powerEvaluated := 0, 0, 0
	for i := range records {
		r := &records[i]
		if r.Algorithm != algorithm || r.LotteryType != lt {
			continue
		}
		p.TotalPredictions++
		if !r.IsEnriched() || r.Matches == nil {
			p.PendingPredictions++
			continue
		}
		p.EvaluatedPredictions++

		m := *r.Matches
		matches += float64(m)
		if m > p.BestMatches {
			p.BestMatches = m
		}
		if m >= HitThreshold {
			hits++
		}
		p.MatchDistribution[m]++
		if r.Accuracy != nil {
			accuracy += *r.Accuracy
		}
		confidence += models.ClampConfidence(r.Confidence)
		if r.PowerMatched != nil {
			powerEvaluated++
			if *r.PowerMatched {
				powerHits++
			}
		}
	}

	if p.EvaluatedPredictions == 0 {
		return p
	}
	n := float64(p.EvaluatedPredictions)
	p.AverageMatches = round4(matches / n)
	p.Accuracy = round4(accuracy / n)
	p.HitRate = round4(float64(hits) / n)
	p.ConfidenceScore = round4(confidence / n)
	if powerEvaluated > 0 {
		p.PowerHitRate = round4(float64(powerHits) / float64(powerEvaluated))
	}
	return p
}

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

package models

import (
	"fmt"
	"math"
	"time"

	"LottoStats/pkg/util"
)

// NumberSuggestionResult is the output of one strategy invocation.
type NumberSuggestionResult struct {
	LotteryType LotteryType `json:"lotteryType"`
	Numbers     []int       `json:"numbers"`
	PowerNumber *int        `json:"powerNumber,omitempty"`
	Algorithm   string      `json:"algorithm"`
	Confidence  float64     `json:"confidence"`
	Reasoning   string      `json:"reasoning"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

// ClampConfidence bounds c to [0,1].
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

const (
	PredictionPending   = "pending"
	PredictionEvaluated = "evaluated"
)

// PredictionRecord is a logged suggestion for a future draw.
// The Actual*/Matches/Accuracy fields are filled once by Enrich and never cleared.
type PredictionRecord struct {
	ID               string      `json:"id"`
	LotteryType      LotteryType `json:"lotteryType"`
	Algorithm        string      `json:"algorithm"`
	TargetDate       time.Time   `json:"targetDate"`
	PredictedNumbers []int       `json:"predictedNumbers"`
	PredictedPower   *int        `json:"predictedPower,omitempty"`
	Confidence       float64     `json:"confidence"`
	CreatedAt        time.Time   `json:"createdAt"`

	ActualNumbers []int      `json:"actualNumbers,omitempty"`
	ActualPower   *int       `json:"actualPower,omitempty"`
	Matches       *int       `json:"matches,omitempty"`
	PowerMatched  *bool      `json:"powerMatched,omitempty"`
	Accuracy      *float64   `json:"accuracy,omitempty"`
	DrawID        string     `json:"drawId,omitempty"`
	EvaluatedAt   *time.Time `json:"evaluatedAt,omitempty"`
}

// NewPredictionRecord logs a suggestion against a target draw date.
func NewPredictionRecord(id string, s NumberSuggestionResult, target, now time.Time) PredictionRecord {
	var power *int
	if s.PowerNumber != nil {
		power = IntPtr(*s.PowerNumber)
	}
	return PredictionRecord{
		ID:               id,
		LotteryType:      s.LotteryType,
		Algorithm:        s.Algorithm,
		TargetDate:       DateOnly(target),
		PredictedNumbers: append([]int(nil), s.Numbers...),
		PredictedPower:   power,
		Confidence:       ClampConfidence(s.Confidence),
		CreatedAt:        now,
	}
}

func (p *PredictionRecord) IsEnriched() bool { return p.ActualNumbers != nil }

func (p *PredictionRecord) Status() string {
	if p.IsEnriched() {
		return PredictionEvaluated
	}
	return PredictionPending
}

// Enrich records the actual draw outcome. It succeeds at most once.
func (p *PredictionRecord) Enrich(actual LotteryResult, cfg LotteryConfig, now time.Time) error {
	if p.IsEnriched() {
		return fmt.Errorf("prediction %s: %w", p.ID, ErrAlreadyEnriched)
	}
	if p.LotteryType != cfg.Type {
		return NewValidationError("lotteryType", fmt.Sprintf("prediction is for %s, config is %s", p.LotteryType, cfg.Type))
	}
	if actual.LotteryType != "" && actual.LotteryType != p.LotteryType {
		return NewValidationError("lotteryType", fmt.Sprintf("prediction is for %s, draw is %s", p.LotteryType, actual.LotteryType))
	}
	if !DateOnly(actual.Date).Equal(DateOnly(p.TargetDate)) {
		return NewValidationError("date", fmt.Sprintf("prediction targets %s, draw is on %s",
			util.FormatDate(p.TargetDate), util.FormatDate(actual.Date)))
	}
	if err := actual.Validate(cfg); err != nil {
		return err
	}

	matches := CountMatches(p.PredictedNumbers, actual.Result)
	accuracy := float64(matches) / float64(cfg.NumbersCount)
	evaluated := now

	p.ActualNumbers = append([]int{}, actual.Result...)
	if actual.PowerNumber != nil {
		p.ActualPower = IntPtr(*actual.PowerNumber)
		hit := p.PredictedPower != nil && *p.PredictedPower == *actual.PowerNumber
		p.PowerMatched = &hit
	}
	p.Matches = &matches
	p.Accuracy = &accuracy
	p.DrawID = actual.ID
	p.EvaluatedAt = &evaluated
	return nil
}

// AlgorithmPerformance is the rollup of one algorithm's predictions for one lottery.
type AlgorithmPerformance struct {
	Algorithm            string      `json:"algorithm"`
	LotteryType          LotteryType `json:"lotteryType"`
	TotalPredictions     int         `json:"totalPredictions"`
	EvaluatedPredictions int         `json:"evaluatedPredictions"`
	PendingPredictions   int         `json:"pendingPredictions"`
	AverageMatches       float64     `json:"averageMatches"`
	BestMatches          int         `json:"bestMatches"`
	Accuracy             float64     `json:"accuracy"`
	HitRate              float64     `json:"hitRate"`
	PowerHitRate         float64     `json:"powerHitRate"`
	MatchDistribution    map[int]int `json:"matchDistribution"`
	ConfidenceScore      float64     `json:"confidenceScore"`
	LastUpdated          time.Time   `json:"lastUpdated"`
}

// Suggestion pairs a generated set with the id of its logged prediction.
type Suggestion struct {
	Suggestion   NumberSuggestionResult `json:"suggestion"`
	PredictionID string                 `json:"predictionId"`
}

// SuggestionSet is the result of running every registered strategy.
type SuggestionSet struct {
	LotteryType LotteryType       `json:"lotteryType"`
	TargetDate  time.Time         `json:"targetDate"`
	Suggestions []Suggestion      `json:"suggestions"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// CountMatches returns how many predicted numbers appear in actual.
func CountMatches(predicted, actual []int) int {
	set := make(map[int]struct{}, len(actual))
	for _, n := range actual {
		set[n] = struct{}{}
	}
	m := 0
	for _, n := range predicted {
		if _, ok := set[n]; ok {
			m++
		}
	}
	return m
}

package suggestion

import (
	"fmt"
	"math"
	"sort"
	"time"

	"LottoStats/internal/domain/models"
	"LottoStats/internal/services/statistics"
)

// finish sorts and validates a picked set and wraps it as a suggestion.
func finish(cfg models.LotteryConfig, algorithm string, nums []int, power *int, confidence float64, reasoning string, now time.Time) (models.NumberSuggestionResult, error) {
	out := append([]int(nil), nums...)
	sort.Ints(out)
	if err := cfg.ValidateNumbers(out, power); err != nil {
		return models.NumberSuggestionResult{}, models.NewComputationError(algorithm, fmt.Sprintf("produced an invalid set: %v", err))
	}
	return models.NumberSuggestionResult{
		LotteryType: cfg.Type,
		Numbers:     out,
		PowerNumber: power,
		Algorithm:   algorithm,
		Confidence:  models.ClampConfidence(confidence),
		Reasoning:   reasoning,
		GeneratedAt: now,
	}, nil
}

func requireHistory(algorithm string, cfg models.LotteryConfig, history []models.LotteryResult) error {
	if len(history) == 0 {
		return models.NewComputationError(algorithm, fmt.Sprintf("no draw history for %s", cfg.Type))
	}
	return nil
}

// coverage is how much of the saturation history is available, in [0,1].
func coverage(history []models.LotteryResult) float64 {
	return math.Min(1, float64(len(history))/fullCoverage)
}

func recent(history []models.LotteryResult, n int) []models.LotteryResult {
	ordered := statistics.NewestFirst(history)
	if n > 0 && n < len(ordered) {
		return ordered[:n]
	}
	return ordered
}

func numbersOf(fs []models.NumberFrequency) []int {
	out := make([]int, len(fs))
	for i, f := range fs {
		out[i] = f.Number
	}
	return out
}

func toSet(nums []int) map[int]struct{} {
	set := make(map[int]struct{}, len(nums))
	for _, n := range nums {
		set[n] = struct{}{}
	}
	return set
}

// hotPower picks the most frequent power number not already among the mains.
func hotPower(history []models.LotteryResult, cfg models.LotteryConfig, mains []int) *int {
	if !cfg.HasPowerNumber {
		return nil
	}
	taken := toSet(mains)
	for _, f := range statistics.Top(statistics.PowerFrequencies(history, cfg), cfg.PowerMax) {
		if _, ok := taken[f.Number]; !ok {
			return models.IntPtr(f.Number)
		}
	}
	return nil
}

// overduePower picks the power number absent for the most draws, never-seen first.
func overduePower(history []models.LotteryResult, cfg models.LotteryConfig, mains []int) *int {
	if !cfg.HasPowerNumber {
		return nil
	}
	taken := toSet(mains)
	ordered := statistics.NewestFirst(history)
	best, bestGap := 0, -1
	for p := 1; p <= cfg.PowerMax; p++ {
		if _, ok := taken[p]; ok {
			continue
		}
		gap := len(ordered)
		for i, r := range ordered {
			if r.PowerNumber != nil && *r.PowerNumber == p {
				gap = i
				break
			}
		}
		if gap > bestGap {
			best, bestGap = p, gap
		}
	}
	if best == 0 {
		return nil
	}
	return models.IntPtr(best)
}

func joinInts(nums []int) string {
	s := ""
	for i, n := range nums {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%d", n)
	}
	return s
}

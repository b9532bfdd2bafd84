package suggestion

import (
	"context"
	"fmt"
	"math"

	"LottoStats/internal/domain/models"
	domsvc "LottoStats/internal/domain/service"
	"LottoStats/internal/services/statistics"
)

// BalancedStrategy picks hot numbers under an even/odd and low/high half split,
// then swaps within each bucket to pull the sum toward the historical mean.
type BalancedStrategy struct {
	settings
}

func NewBalancedStrategy(opts ...Option) *BalancedStrategy {
	return &BalancedStrategy{settings: newSettings(opts)}
}

func (s *BalancedStrategy) Name() string { return "balanced" }

func (s *BalancedStrategy) Description() string {
	return "Hot numbers constrained to an even/odd and low/high split with a typical sum"
}

// bucket indices: even-low, even-high, odd-low, odd-high
const (
	evenLow = iota
	evenHigh
	oddLow
	oddHigh
)

func bucketOf(n, half int) int {
	switch {
	case n%2 == 0 && n <= half:
		return evenLow
	case n%2 == 0:
		return evenHigh
	case n <= half:
		return oddLow
	default:
		return oddHigh
	}
}

func (s *BalancedStrategy) Suggest(ctx context.Context, cfg models.LotteryConfig, history []models.LotteryResult) (models.NumberSuggestionResult, error) {
	if err := requireHistory(s.Name(), cfg, history); err != nil {
		return models.NumberSuggestionResult{}, err
	}
	half := cfg.MaxNumber / 2
	evens := cfg.NumbersCount / 2
	odds := cfg.NumbersCount - evens
	lows := cfg.NumbersCount / 2

	// candidates per bucket, hottest first
	var buckets [4][]int
	for _, f := range statistics.Top(statistics.Frequencies(history, cfg), cfg.MaxNumber) {
		b := bucketOf(f.Number, half)
		buckets[b] = append(buckets[b], f.Number)
	}

	sums := make([]float64, len(history))
	for i, r := range history {
		for _, n := range r.Result {
			sums[i] += float64(n)
		}
	}
	target, std := statistics.MeanStd(sums)

	var best []int
	bestDist := math.Inf(1)
	for a := 0; a <= evens && a <= lows; a++ {
		need := [4]int{a, evens - a, lows - a, odds - (lows - a)}
		pick, ok := pickBalanced(buckets, need, target)
		if !ok {
			continue
		}
		if d := math.Abs(float64(sumOf(pick)) - target); d < bestDist {
			best, bestDist = pick, d
		}
	}
	if best == nil {
		return models.NumberSuggestionResult{}, models.NewComputationError(s.Name(), "no split satisfies the balance constraints")
	}

	closeness := 1.0
	if std > 0 {
		closeness = math.Max(0, 1-bestDist/(2*std))
	}
	conf := 0.15 + 0.3*coverage(history) + 0.15*closeness
	reason := fmt.Sprintf("%d even / %d odd, %d low / %d high, sum %d against a historical mean of %.1f",
		evens, odds, lows, cfg.NumbersCount-lows, sumOf(best), target)
	return finish(cfg, s.Name(), best, hotPower(history, cfg, best), conf, reason, s.now())
}

// pickBalanced takes the hottest need[b] numbers of each bucket and then
// swaps in colder candidates from the same bucket while that moves the sum closer to target.
func pickBalanced(buckets [4][]int, need [4]int, target float64) ([]int, bool) {
	chosen := [4][]int{}
	for b := range buckets {
		if need[b] < 0 || need[b] > len(buckets[b]) {
			return nil, false
		}
		chosen[b] = append([]int(nil), buckets[b][:need[b]]...)
	}

	flatten := func() []int {
		out := make([]int, 0, 8)
		for b := range chosen {
			out = append(out, chosen[b]...)
		}
		return out
	}

	for iter := 0; iter < 32; iter++ {
		cur := flatten()
		dist := math.Abs(float64(sumOf(cur)) - target)
		improved := false
		for b := range chosen {
			in := toSet(chosen[b])
			// only the next few candidates stay hot enough to matter
			limit := need[b] + 4
			if limit > len(buckets[b]) {
				limit = len(buckets[b])
			}
			for i, old := range chosen[b] {
				for _, cand := range buckets[b][:limit] {
					if _, ok := in[cand]; ok {
						continue
					}
					nd := math.Abs(float64(sumOf(cur)-old+cand) - target)
					if nd < dist {
						chosen[b][i] = cand
						improved = true
						break
					}
				}
				if improved {
					break
				}
			}
			if improved {
				break
			}
		}
		if !improved {
			break
		}
	}
	return flatten(), true
}

func sumOf(nums []int) int {
	s := 0
	for _, n := range nums {
		s += n
	}
	return s
}

var _ domsvc.SuggestionStrategy = (*BalancedStrategy)(nil)

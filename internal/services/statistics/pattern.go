package statistics

import (
	"fmt"
	"math"
	"sort"

	"LottoStats/internal/domain/models"
)

// Pattern describes the shape of r. previous may be nil for the first draw.
func Pattern(r models.LotteryResult, previous *models.LotteryResult, cfg models.LotteryConfig) models.NumberPattern {
	nums := r.SortedNumbers()
	p := models.NumberPattern{
		DrawID:          r.ID,
		Numbers:         nums,
		ConsecutiveRuns: consecutiveRuns(nums),
		Gaps:            make([]int, 0, len(nums)),
		Repeats:         []int{},
	}
	half := cfg.MaxNumber / 2
	for i, n := range nums {
		p.Sum += n
		if n%2 == 0 {
			p.EvenCount++
		} else {
			p.OddCount++
		}
		if n <= half {
			p.LowCount++
		} else {
			p.HighCount++
		}
		if i > 0 {
			p.Gaps = append(p.Gaps, n-nums[i-1])
		}
		if previous != nil && previous.Contains(n) {
			p.Repeats = append(p.Repeats, n)
		}
	}
	return p
}

func consecutiveRuns(sorted []int) [][]int {
	runs := [][]int{}
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i] == sorted[i-1]+1 {
			continue
		}
		if i-start >= 2 {
			runs = append(runs, append([]int(nil), sorted[start:i]...))
		}
		start = i
	}
	return runs
}

// Patterns aggregates per-draw patterns over history. recent limits the
// number of latest NumberPatterns returned, newest first.
func Patterns(history []models.LotteryResult, cfg models.LotteryConfig, recent int) (models.AdvancedPattern, error) {
	if len(history) == 0 {
		return models.AdvancedPattern{}, models.NewComputationError("patterns", fmt.Sprintf("no draws for %s", cfg.Type))
	}
	ordered := OldestFirst(history)

	out := models.AdvancedPattern{
		LotteryType:         cfg.Type,
		TotalDraws:          len(ordered),
		EvenOddDistribution: map[string]int{},
		LowHighDistribution: map[string]int{},
		NumberGaps:          Gaps(ordered, cfg),
	}

	patterns := make([]models.NumberPattern, len(ordered))
	sums := make([]float64, len(ordered))
	withRuns, runs, repeats := 0, 0, 0
	for i := range ordered {
		var prev *models.LotteryResult
		if i > 0 {
			prev = &ordered[i-1]
		}
		p := Pattern(ordered[i], prev, cfg)
		patterns[i] = p
		sums[i] = float64(p.Sum)

		if len(p.ConsecutiveRuns) > 0 {
			withRuns++
		}
		runs += len(p.ConsecutiveRuns)
		repeats += len(p.Repeats)
		out.EvenOddDistribution[fmt.Sprintf("%dE-%dO", p.EvenCount, p.OddCount)]++
		out.LowHighDistribution[fmt.Sprintf("%dL-%dH", p.LowCount, p.HighCount)]++
	}

	n := float64(len(ordered))
	out.ConsecutiveRate = round4(float64(withRuns) / n)
	out.AverageConsecutiveRuns = round4(float64(runs) / n)
	if len(ordered) > 1 {
		out.AverageRepeats = round4(float64(repeats) / float64(len(ordered)-1))
	}
	out.SumRange = sumRange(sums)

	if recent > len(patterns) {
		recent = len(patterns)
	}
	for i := 0; i < recent; i++ {
		out.Recent = append(out.Recent, patterns[len(patterns)-1-i])
	}
	return out, nil
}

func sumRange(sums []float64) models.SumRange {
	mean, std := MeanStd(sums)
	sorted := append([]float64(nil), sums...)
	sort.Float64s(sorted)
	return models.SumRange{
		Min:    int(sorted[0]),
		Max:    int(sorted[len(sorted)-1]),
		Mean:   round2(mean),
		StdDev: round2(std),
	}
}

// MeanStd returns the mean and population standard deviation of xs.
func MeanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sum, sum2 := 0.0, 0.0
	for _, x := range xs {
		sum += x
		sum2 += x * x
	}
	n := float64(len(xs))
	mean := sum / n
	variance := sum2/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

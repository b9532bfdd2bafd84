package statistics

import (
	"sort"

	"LottoStats/internal/domain/models"
)

// Gaps computes per-number absence stats over history, ordered by number.
// A gap is a run of consecutive draws without the number. CurrentGap is the
// trailing run, MaxGap the longest run, and AverageGap the mean run length
// over the count+1 runs that the appearances split history into.
func Gaps(history []models.LotteryResult, cfg models.LotteryConfig) []models.NumberGap {
	ordered := OldestFirst(history)
	total := len(ordered)

	lastIdx := make([]int, cfg.MaxNumber+1)
	counts := make([]int, cfg.MaxNumber+1)
	maxGap := make([]int, cfg.MaxNumber+1)
	for n := range lastIdx {
		lastIdx[n] = -1
	}
	for i, r := range ordered {
		for _, n := range r.Result {
			if n < 1 || n > cfg.MaxNumber {
				continue
			}
			if g := i - lastIdx[n] - 1; g > maxGap[n] {
				maxGap[n] = g
			}
			lastIdx[n] = i
			counts[n]++
		}
	}

	out := make([]models.NumberGap, 0, cfg.MaxNumber)
	for n := 1; n <= cfg.MaxNumber; n++ {
		current := total - lastIdx[n] - 1
		g := models.NumberGap{
			Number:     n,
			CurrentGap: current,
			MaxGap:     maxGap[n],
			AverageGap: round2(float64(total-counts[n]) / float64(counts[n]+1)),
		}
		if current > g.MaxGap {
			g.MaxGap = current
		}
		out = append(out, g)
	}
	return out
}

// MostOverdue returns the n numbers with the longest current gap, ties by number ascending.
func MostOverdue(gaps []models.NumberGap, n int) []models.NumberGap {
	out := append([]models.NumberGap(nil), gaps...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CurrentGap != out[j].CurrentGap {
			return out[i].CurrentGap > out[j].CurrentGap
		}
		return out[i].Number < out[j].Number
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

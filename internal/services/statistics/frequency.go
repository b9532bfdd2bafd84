package statistics

import (
	"math"
	"sort"
	"time"

	"LottoStats/internal/domain/models"
)

// Frequencies counts every main number 1..MaxNumber across history, zeros included.
// Percentage is the share of all drawn numbers and DrawRate the share of draws.
func Frequencies(history []models.LotteryResult, cfg models.LotteryConfig) []models.NumberFrequency {
	counts := make([]int, cfg.MaxNumber+1)
	last := make([]time.Time, cfg.MaxNumber+1)
	drawn := 0
	for _, r := range history {
		for _, n := range r.Result {
			if n < 1 || n > cfg.MaxNumber {
				continue
			}
			counts[n]++
			drawn++
			if r.Date.After(last[n]) {
				last[n] = r.Date
			}
		}
	}
	return buildDistribution(counts, last, drawn, len(history))
}

// PowerFrequencies counts power numbers 1..PowerMax. Nil for lotteries without one.
func PowerFrequencies(history []models.LotteryResult, cfg models.LotteryConfig) []models.NumberFrequency {
	if !cfg.HasPowerNumber {
		return nil
	}
	counts := make([]int, cfg.PowerMax+1)
	last := make([]time.Time, cfg.PowerMax+1)
	drawn := 0
	for _, r := range history {
		if r.PowerNumber == nil {
			continue
		}
		p := *r.PowerNumber
		if p < 1 || p > cfg.PowerMax {
			continue
		}
		counts[p]++
		drawn++
		if r.Date.After(last[p]) {
			last[p] = r.Date
		}
	}
	return buildDistribution(counts, last, drawn, drawn)
}

func buildDistribution(counts []int, last []time.Time, drawn, draws int) []models.NumberFrequency {
	out := make([]models.NumberFrequency, 0, len(counts)-1)
	for n := 1; n < len(counts); n++ {
		f := models.NumberFrequency{Number: n, Count: counts[n]}
		if drawn > 0 {
			f.Percentage = round2(float64(counts[n]) / float64(drawn) * 100)
		}
		if draws > 0 {
			f.DrawRate = round4(float64(counts[n]) / float64(draws))
		}
		if !last[n].IsZero() {
			seen := last[n]
			f.LastSeen = &seen
		}
		out = append(out, f)
	}
	return out
}

// Top returns the n most frequent entries: count descending, ties by number ascending.
func Top(dist []models.NumberFrequency, n int) []models.NumberFrequency {
	out := append([]models.NumberFrequency(nil), dist...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Number < out[j].Number
	})
	return head(out, n)
}

// Bottom returns the n least frequent entries: count ascending, ties by number ascending.
func Bottom(dist []models.NumberFrequency, n int) []models.NumberFrequency {
	out := append([]models.NumberFrequency(nil), dist...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count < out[j].Count
		}
		return out[i].Number < out[j].Number
	})
	return head(out, n)
}

func head(s []models.NumberFrequency, n int) []models.NumberFrequency {
	if n < 0 {
		n = 0
	}
	if n < len(s) {
		return s[:n]
	}
	return s
}

// CountSum returns the total count across a distribution.
func CountSum(dist []models.NumberFrequency) int {
	sum := 0
	for _, f := range dist {
		sum += f.Count
	}
	return sum
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

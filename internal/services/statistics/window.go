package statistics

import (
	"sort"
	"time"

	"LottoStats/internal/domain/models"
)

// Trend windows in days. All snapshots share one reference date so they nest.
const (
	Window30 = 30
	Window60 = 60
	Window90 = 90
)

// Window returns the draws with ref-days < date <= ref, compared on calendar days.
func Window(history []models.LotteryResult, ref time.Time, days int) []models.LotteryResult {
	end := models.DateOnly(ref)
	start := end.AddDate(0, 0, -days)
	out := make([]models.LotteryResult, 0, len(history))
	for _, r := range history {
		d := models.DateOnly(r.Date)
		if d.After(start) && !d.After(end) {
			out = append(out, r)
		}
	}
	return out
}

// Snapshot summarizes the window of days ending at ref.
func Snapshot(history []models.LotteryResult, cfg models.LotteryConfig, ref time.Time, days, topN int) models.TrendSnapshot {
	end := models.DateOnly(ref)
	w := Window(history, end, days)
	dist := Frequencies(w, cfg)
	return models.TrendSnapshot{
		Days:         days,
		From:         end.AddDate(0, 0, -days+1),
		To:           end,
		TotalDraws:   len(w),
		HotNumbers:   Top(dist, topN),
		ColdNumbers:  Bottom(dist, topN),
		Distribution: dist,
	}
}

// NewestFirst returns a copy of history ordered by date descending, then id descending.
func NewestFirst(history []models.LotteryResult) []models.LotteryResult {
	out := append([]models.LotteryResult(nil), history...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// OldestFirst returns a copy of history ordered by date ascending, then id ascending.
func OldestFirst(history []models.LotteryResult) []models.LotteryResult {
	out := append([]models.LotteryResult(nil), history...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Span returns the earliest and latest draw dates. Zero times for empty history.
func Span(history []models.LotteryResult) (from, to time.Time) {
	for i, r := range history {
		if i == 0 || r.Date.Before(from) {
			from = r.Date
		}
		if i == 0 || r.Date.After(to) {
			to = r.Date
		}
	}
	return from, to
}

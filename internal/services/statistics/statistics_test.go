package statistics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LottoStats/internal/domain/models"
)

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func mega(id, date string, nums ...int) models.LotteryResult {
	return models.LotteryResult{ID: id, Date: day(date), Result: nums, LotteryType: models.Mega645}
}

func power(id, date string, p int, nums ...int) models.LotteryResult {
	return models.LotteryResult{ID: id, Date: day(date), Result: nums, PowerNumber: models.IntPtr(p), LotteryType: models.Power655}
}

func megaHistory() []models.LotteryResult {
	return []models.LotteryResult{
		mega("m1", "2024-01-03", 1, 2, 3, 10, 20, 30),
		mega("m2", "2024-02-02", 2, 4, 6, 8, 10, 12),
		mega("m3", "2024-03-01", 5, 15, 25, 35, 44, 45),
		mega("m4", "2024-03-20", 1, 2, 3, 4, 5, 6),
		mega("m5", "2024-03-31", 7, 14, 21, 28, 35, 42),
	}
}

func megaCfg(t *testing.T) models.LotteryConfig {
	cfg, err := models.ConfigFor(models.Mega645)
	require.NoError(t, err)
	return cfg
}

func TestFrequencies_SumAndPercentages(t *testing.T) {
	cfg := megaCfg(t)
	h := megaHistory()
	dist := Frequencies(h, cfg)

	require.Len(t, dist, cfg.MaxNumber)
	assert.Equal(t, len(h)*cfg.NumbersCount, CountSum(dist))

	pct := 0.0
	for i, f := range dist {
		assert.Equal(t, i+1, f.Number)
		pct += f.Percentage
	}
	assert.InDelta(t, 100.0, pct, 0.5)

	two := dist[1]
	assert.Equal(t, 3, two.Count)
	assert.InDelta(t, 0.6, two.DrawRate, 1e-9)
	require.NotNil(t, two.LastSeen)
	assert.Equal(t, day("2024-03-20"), *two.LastSeen)
	assert.Nil(t, dist[8].LastSeen, "9 is never drawn")
}

func TestTopAndBottom_TieBreakByNumber(t *testing.T) {
	dist := []models.NumberFrequency{
		{Number: 1, Count: 2}, {Number: 2, Count: 5}, {Number: 3, Count: 2}, {Number: 4, Count: 0},
	}
	top := Top(dist, 3)
	assert.Equal(t, []int{2, 1, 3}, numbers(top))
	bottom := Bottom(dist, 2)
	assert.Equal(t, []int{4, 1}, numbers(bottom))
	assert.Len(t, Top(dist, 10), 4)
	assert.Empty(t, Top(dist, -1))
}

func numbers(fs []models.NumberFrequency) []int {
	out := make([]int, len(fs))
	for i, f := range fs {
		out[i] = f.Number
	}
	return out
}

func TestWindow_Bounds(t *testing.T) {
	h := megaHistory()
	ref := day("2024-03-31")
	w := Window(h, ref, 30)
	ids := []string{}
	for _, r := range w {
		ids = append(ids, r.ID)
	}
	// 2024-03-01 is exactly 30 days before the reference and falls outside.
	assert.ElementsMatch(t, []string{"m4", "m5"}, ids)
	assert.Len(t, Window(h, ref, 31), 3)
	assert.Empty(t, Window(h, day("2023-12-31"), 30))
}

func TestCompute_NestedTrends(t *testing.T) {
	cfg := megaCfg(t)
	now := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	stats, err := Compute(megaHistory(), cfg, 5, now)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalDraws)
	assert.Equal(t, day("2024-01-03"), stats.From)
	assert.Equal(t, day("2024-03-31"), stats.To)
	assert.Len(t, stats.MostFrequent, 5)
	assert.Len(t, stats.LeastFrequent, 5)
	assert.Nil(t, stats.PowerDistribution)
	assert.Equal(t, now, stats.GeneratedAt)

	t30, t60, t90 := stats.Trends.Last30Days, stats.Trends.Last60Days, stats.Trends.Last90Days
	assert.Equal(t, day("2024-03-31"), t30.To)
	assert.Equal(t, t30.To, t90.To)
	assert.LessOrEqual(t, t30.TotalDraws, t60.TotalDraws)
	assert.LessOrEqual(t, t60.TotalDraws, t90.TotalDraws)
	for i := range t30.Distribution {
		assert.LessOrEqual(t, t30.Distribution[i].Count, t60.Distribution[i].Count)
		assert.LessOrEqual(t, t60.Distribution[i].Count, t90.Distribution[i].Count)
	}
	assert.Equal(t, 2, t30.TotalDraws)
	assert.Equal(t, 4, t60.TotalDraws)
	assert.Equal(t, 5, t90.TotalDraws)
}

func TestCompute_Errors(t *testing.T) {
	cfg := megaCfg(t)

	_, err := Compute(nil, cfg, 10, time.Now())
	assert.True(t, models.IsComputation(err))

	bad := append(megaHistory(), mega("bad", "2024-04-03", 1, 1, 2, 3, 4, 5))
	_, err = Compute(bad, cfg, 10, time.Now())
	assert.True(t, models.IsValidation(err))
}

func TestCompute_PowerDistribution(t *testing.T) {
	cfg, err := models.ConfigFor(models.Power655)
	require.NoError(t, err)
	h := []models.LotteryResult{
		power("p1", "2024-05-02", 9, 1, 2, 3, 4, 5, 6),
		power("p2", "2024-05-04", 9, 10, 11, 12, 13, 14, 15),
		power("p3", "2024-05-07", 55, 20, 21, 22, 23, 24, 25),
	}
	stats, err := Compute(h, cfg, 0, time.Now())
	require.NoError(t, err)
	require.Len(t, stats.PowerDistribution, cfg.PowerMax)
	assert.Equal(t, 2, stats.PowerDistribution[8].Count)
	assert.Equal(t, 1, stats.PowerDistribution[54].Count)
	assert.Len(t, stats.MostFrequent, DefaultTopN)
}

func TestPattern(t *testing.T) {
	cfg := megaCfg(t)
	prev := mega("a", "2024-01-01", 3, 4, 9, 30, 31, 40)
	cur := mega("b", "2024-01-03", 30, 2, 3, 4, 22, 44)
	p := Pattern(cur, &prev, cfg)

	assert.Equal(t, []int{2, 3, 4, 22, 30, 44}, p.Numbers)
	assert.Equal(t, [][]int{{2, 3, 4}}, p.ConsecutiveRuns)
	assert.Equal(t, 5, p.EvenCount)
	assert.Equal(t, 1, p.OddCount)
	assert.Equal(t, 4, p.LowCount)
	assert.Equal(t, 2, p.HighCount)
	assert.Equal(t, 105, p.Sum)
	assert.Equal(t, []int{1, 1, 18, 8, 14}, p.Gaps)
	assert.Equal(t, []int{3, 4, 30}, p.Repeats)

	first := Pattern(prev, nil, cfg)
	assert.Empty(t, first.Repeats)
	assert.Equal(t, [][]int{{3, 4}, {30, 31}}, first.ConsecutiveRuns)
}

func TestPatterns(t *testing.T) {
	cfg := megaCfg(t)
	ap, err := Patterns(megaHistory(), cfg, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, ap.TotalDraws)
	assert.InDelta(t, 0.6, ap.ConsecutiveRate, 1e-9)
	assert.Equal(t, 5, sumValues(ap.EvenOddDistribution))
	assert.Equal(t, 5, sumValues(ap.LowHighDistribution))
	assert.Equal(t, 21, ap.SumRange.Min)
	assert.Equal(t, 169, ap.SumRange.Max)
	require.Len(t, ap.Recent, 2)
	assert.Equal(t, "m5", ap.Recent[0].DrawID)
	assert.Len(t, ap.NumberGaps, cfg.MaxNumber)

	_, err = Patterns(nil, cfg, 0)
	assert.True(t, models.IsComputation(err))
}

func sumValues(m map[string]int) int {
	s := 0
	for _, v := range m {
		s += v
	}
	return s
}

func TestGaps(t *testing.T) {
	cfg := megaCfg(t)
	gaps := Gaps(megaHistory(), cfg)

	one := gaps[0]
	assert.Equal(t, 1, one.Number)
	assert.Equal(t, 1, one.CurrentGap)
	assert.Equal(t, 2, one.MaxGap)
	assert.InDelta(t, 1.0, one.AverageGap, 1e-9)

	never := gaps[8]
	assert.Equal(t, 5, never.CurrentGap)
	assert.Equal(t, 5, never.MaxGap)

	latest := gaps[6]
	assert.Equal(t, 7, latest.Number)
	assert.Equal(t, 0, latest.CurrentGap)

	top := MostOverdue(gaps, 3)
	require.Len(t, top, 3)
	assert.Equal(t, 5, top[0].CurrentGap)
	assert.Less(t, top[0].Number, top[1].Number)
}

func TestMeanStd(t *testing.T) {
	m, s := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, m, 1e-9)
	assert.InDelta(t, 2.0, s, 1e-9)
	m, s = MeanStd(nil)
	assert.Zero(t, m)
	assert.Zero(t, s)
}

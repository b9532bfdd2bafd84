package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"LottoStats/internal/domain/models"
	domrepo "LottoStats/internal/domain/repository"
)

type memResults struct {
	mu      sync.Mutex
	rows    map[string]models.LotteryResult
	latestN int
	sinceN  int
	failErr error
}

func newMemResults() *memResults { return &memResults{rows: map[string]models.LotteryResult{}} }

func (m *memResults) key(t models.LotteryType, id string) string { return string(t) + "/" + id }

func (m *memResults) sorted(t models.LotteryType, f func(models.LotteryResult) bool) []models.LotteryResult {
	var out []models.LotteryResult
	for _, r := range m.rows {
		if r.LotteryType == t && (f == nil || f(r)) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func (m *memResults) Init(context.Context) error { return nil }

func (m *memResults) Save(ctx context.Context, r *models.LotteryResult) error {
	return m.SaveBatch(ctx, []*models.LotteryResult{r})
}

func (m *memResults) SaveBatch(_ context.Context, rs []*models.LotteryResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	for _, r := range rs {
		m.rows[m.key(r.LotteryType, r.ID)] = *r
	}
	return nil
}

func (m *memResults) Exists(_ context.Context, t models.LotteryType, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[m.key(t, id)]
	return ok, nil
}

func (m *memResults) Get(_ context.Context, t models.LotteryType, id string) (*models.LotteryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[m.key(t, id)]
	if !ok {
		return nil, models.NewNotFoundError("result", id)
	}
	return &r, nil
}

func inFilter(f domrepo.ResultFilter) func(models.LotteryResult) bool {
	return func(r models.LotteryResult) bool {
		if !f.From.IsZero() && r.Date.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && r.Date.After(f.To) {
			return false
		}
		return true
	}
}

func (m *memResults) List(_ context.Context, t models.LotteryType, f domrepo.ResultFilter) ([]models.LotteryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sorted(t, inFilter(f))
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memResults) Count(_ context.Context, t models.LotteryType, f domrepo.ResultFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.sorted(t, inFilter(f)))), nil
}

func (m *memResults) Latest(_ context.Context, t models.LotteryType, n int) ([]models.LotteryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latestN++
	out := m.sorted(t, nil)
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out, nil
}

func (m *memResults) Since(_ context.Context, t models.LotteryType, from time.Time) ([]models.LotteryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinceN++
	return m.sorted(t, func(r models.LotteryResult) bool { return !r.Date.Before(from) }), nil
}

func (m *memResults) Health(context.Context) error { return nil }
func (m *memResults) Close() error                 { return nil }

type memPredictions struct {
	mu   sync.Mutex
	rows map[string]models.PredictionRecord
}

func newMemPredictions() *memPredictions {
	return &memPredictions{rows: map[string]models.PredictionRecord{}}
}

func (m *memPredictions) Save(ctx context.Context, p *models.PredictionRecord) error {
	return m.SaveBatch(ctx, []*models.PredictionRecord{p})
}

func (m *memPredictions) SaveBatch(_ context.Context, ps []*models.PredictionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range ps {
		m.rows[p.ID] = *p
	}
	return nil
}

func (m *memPredictions) Get(_ context.Context, id string) (*models.PredictionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, models.NewNotFoundError("prediction", id)
	}
	return &p, nil
}

func (m *memPredictions) filter(f func(models.PredictionRecord) bool) []models.PredictionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PredictionRecord
	for _, p := range m.rows {
		if f(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memPredictions) List(_ context.Context, t models.LotteryType, f domrepo.PredictionFilter) ([]models.PredictionRecord, error) {
	out := m.filter(func(p models.PredictionRecord) bool {
		return p.LotteryType == t &&
			(f.Algorithm == "" || p.Algorithm == f.Algorithm) &&
			(f.Status == "" || p.Status() == f.Status)
	})
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memPredictions) Pending(_ context.Context, t models.LotteryType, date time.Time) ([]models.PredictionRecord, error) {
	return m.filter(func(p models.PredictionRecord) bool {
		return p.LotteryType == t && p.TargetDate.Equal(models.DateOnly(date)) && !p.IsEnriched()
	}), nil
}

func (m *memPredictions) ByAlgorithm(_ context.Context, t models.LotteryType, algorithm string) ([]models.PredictionRecord, error) {
	return m.filter(func(p models.PredictionRecord) bool {
		return p.LotteryType == t && p.Algorithm == algorithm
	}), nil
}

type countingMetrics struct {
	mu        sync.Mutex
	ingested  map[string]int
	suggested int
	evaluated int
	errs      map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{ingested: map[string]int{}, errs: map[string]int{}}
}

func (c *countingMetrics) RecordDrawIngested(_, source string) {
	c.mu.Lock()
	c.ingested[source]++
	c.mu.Unlock()
}

func (c *countingMetrics) RecordSuggestion(string, string) {
	c.mu.Lock()
	c.suggested++
	c.mu.Unlock()
}

func (c *countingMetrics) RecordPredictionEvaluated(string, string, int) {
	c.mu.Lock()
	c.evaluated++
	c.mu.Unlock()
}

func (c *countingMetrics) RecordAccuracy(string, string, float64) {}

func (c *countingMetrics) RecordError(kind string) {
	c.mu.Lock()
	c.errs[kind]++
	c.mu.Unlock()
}

func (c *countingMetrics) RecordLatency(string, float64) {}

type recordingNotifier struct {
	mu    sync.Mutex
	draws []models.LotteryResult
}

func (n *recordingNotifier) NotifyDraw(_ context.Context, r models.LotteryResult) {
	n.mu.Lock()
	n.draws = append(n.draws, r)
	n.mu.Unlock()
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.draws)
}

type recordingScheduler struct {
	mu    sync.Mutex
	draws []models.LotteryResult
}

func (s *recordingScheduler) Schedule(_ context.Context, r models.LotteryResult) error {
	s.mu.Lock()
	s.draws = append(s.draws, r)
	s.mu.Unlock()
	return nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []*models.LotteryResult
	fail      bool
}

func (p *recordingPublisher) Publish(_ context.Context, r *models.LotteryResult) error {
	return p.PublishBatch(context.Background(), []*models.LotteryResult{r})
}

func (p *recordingPublisher) PublishBatch(_ context.Context, rs []*models.LotteryResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.published = append(p.published, rs...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type staticSource struct {
	results []models.LotteryResult
	err     error
	limit   int
}

func (s *staticSource) Fetch(_ context.Context, _ models.LotteryType, limit int) ([]models.LotteryResult, error) {
	s.limit = limit
	return s.results, s.err
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// draws builds n valid results of t, one per day ending at last, newest first.
func draws(t models.LotteryType, n int, last time.Time) []models.LotteryResult {
	out := make([]models.LotteryResult, 0, n)
	for i := 0; i < n; i++ {
		base := i % 39
		r := models.LotteryResult{
			ID:          fmt.Sprintf("%05d", n-i),
			Date:        last.AddDate(0, 0, -i),
			Result:      []int{base + 1, base + 2, base + 3, base + 4, base + 5, base + 6},
			LotteryType: t,
		}
		if t == models.Power655 {
			r.PowerNumber = models.IntPtr(base + 7)
		}
		out = append(out, r)
	}
	return out
}

func seed(store *memResults, rs []models.LotteryResult) {
	for i := range rs {
		_ = store.Save(context.Background(), &rs[i])
	}
}

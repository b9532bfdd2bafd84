package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LottoStats/internal/domain/models"
)

type stubProc struct {
	mu    sync.Mutex
	got   []*models.LotteryResult
	fails int
}

func (s *stubProc) Process(_ context.Context, r *models.LotteryResult, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails > 0 {
		s.fails--
		return errors.New("downstream unavailable")
	}
	s.got = append(s.got, r)
	return nil
}

func (s *stubProc) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

type nopMetrics struct {
	mu   sync.Mutex
	errs map[string]int
}

func (m *nopMetrics) RecordDrawIngested(string, string)             {}
func (m *nopMetrics) RecordSuggestion(string, string)               {}
func (m *nopMetrics) RecordPredictionEvaluated(string, string, int) {}
func (m *nopMetrics) RecordAccuracy(string, string, float64)        {}
func (m *nopMetrics) RecordLatency(string, float64)                 {}
func (m *nopMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errs == nil {
		m.errs = map[string]int{}
	}
	m.errs[kind]++
}

func draw(id string) *models.LotteryResult {
	return &models.LotteryResult{
		ID:          id,
		Date:        time.Date(2024, 6, 2, 19, 0, 0, 0, time.UTC),
		Result:      []int{4, 8, 15, 16, 23, 42},
		LotteryType: models.Mega645,
	}
}

func TestDrawPipeline_ValidatesAndNormalizes(t *testing.T) {
	proc := &stubProc{}
	p := NewDrawPipeline(proc, &nopMetrics{})

	bad := draw("1")
	bad.Result = []int{1, 2}
	assert.True(t, models.IsValidation(p.Process(context.Background(), bad)))
	assert.Error(t, p.Process(context.Background(), nil))

	r := draw("2")
	require.NoError(t, p.Process(context.Background(), r))
	require.Equal(t, 1, proc.count())
	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), proc.got[0].Date)
}

func TestDrawPipeline_DropsOnlyRepeats(t *testing.T) {
	proc := &stubProc{}
	m := &nopMetrics{}
	p := NewDrawPipeline(proc, m, WithDedupeWindow(2))
	now := time.Date(2024, 6, 2, 19, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	// distinct draws of one lottery in the same second all go through
	require.NoError(t, p.Process(context.Background(), draw("1001")))
	require.NoError(t, p.Process(context.Background(), draw("1001")))
	require.NoError(t, p.Process(context.Background(), draw("1002")))
	assert.Equal(t, 2, proc.count())
	assert.Equal(t, 1, m.errs["pipeline_duplicate"])

	other := draw("1001")
	other.LotteryType = models.Power655
	other.Result = []int{1, 2, 3, 4, 5, 55}
	power := 7
	other.PowerNumber = &power
	require.NoError(t, p.Process(context.Background(), other))
	assert.Equal(t, 3, proc.count())

	// window of 2 has pushed 1001 out
	require.NoError(t, p.Process(context.Background(), draw("1001")))
	assert.Equal(t, 4, proc.count())
}

func TestDrawPipeline_FullBufferForgetsDraw(t *testing.T) {
	proc := &stubProc{fails: 2}
	m := &nopMetrics{}
	p := NewDrawPipeline(proc, m, WithBufferSize(1))

	require.Error(t, p.Process(context.Background(), draw("1001")))
	require.Error(t, p.Process(context.Background(), draw("1002")))
	assert.Equal(t, 1, p.Buffered())
	assert.Equal(t, 1, m.errs["pipeline_buffer_full"])

	// 1002 was neither delivered nor buffered, a redelivery must reach downstream
	require.NoError(t, p.Process(context.Background(), draw("1002")))
	assert.Equal(t, 1, proc.count())
	assert.Zero(t, m.errs["pipeline_duplicate"])

	require.NoError(t, p.Process(context.Background(), draw("1001")))
	assert.Equal(t, 1, m.errs["pipeline_duplicate"])
}

func TestDrawPipeline_BuffersAndFlushes(t *testing.T) {
	proc := &stubProc{fails: 1}
	p := NewDrawPipeline(proc, &nopMetrics{}, WithBufferSize(4))

	err := p.Process(context.Background(), draw("x"))
	assert.Error(t, err)
	assert.Equal(t, 1, p.Buffered())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	assert.Eventually(t, func() bool { return proc.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

package suggestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LottoStats/internal/domain/models"
	domsvc "LottoStats/internal/domain/service"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func cfgOf(t *testing.T, lt models.LotteryType) models.LotteryConfig {
	t.Helper()
	cfg, err := models.ConfigFor(lt)
	require.NoError(t, err)
	return cfg
}

// genHistory builds n valid draws, newest first, from a seeded generator.
func genHistory(cfg models.LotteryConfig, n int, seed uint32) []models.LotteryResult {
	rng := NewXorShift32(seed)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.LotteryResult, 0, n)
	for i := 0; i < n; i++ {
		pool := make([]int, cfg.MaxNumber)
		for j := range pool {
			pool[j] = j + 1
		}
		shuffle(pool, rng)
		r := models.LotteryResult{
			ID:          fmt.Sprintf("d%03d", i),
			Date:        start.AddDate(0, 0, 2*i),
			Result:      append([]int(nil), pool[:cfg.NumbersCount]...),
			LotteryType: cfg.Type,
		}
		if cfg.HasPowerNumber {
			r.PowerNumber = models.IntPtr(pool[cfg.NumbersCount])
		}
		out = append([]models.LotteryResult{r}, out...)
	}
	return out
}

func fixed(cfg models.LotteryConfig, n int, power *int, nums ...int) []models.LotteryResult {
	out := make([]models.LotteryResult, n)
	for i := range out {
		out[i] = models.LotteryResult{
			ID:          fmt.Sprintf("f%d", i),
			Date:        time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -2*i),
			Result:      nums,
			PowerNumber: power,
			LotteryType: cfg.Type,
		}
	}
	return out
}

type stubStrategy struct {
	name string
	res  models.NumberSuggestionResult
	err  error
}

func (s stubStrategy) Name() string        { return s.name }
func (s stubStrategy) Description() string { return "stub " + s.name }
func (s stubStrategy) Suggest(context.Context, models.LotteryConfig, []models.LotteryResult) (models.NumberSuggestionResult, error) {
	return s.res, s.err
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(stubStrategy{name: "b"})
	r.Register(stubStrategy{name: "a"})
	r.Register(stubStrategy{name: "b"})

	assert.Equal(t, []string{"a", "b"}, r.List())
	assert.Len(t, r.Describe(), 2)
	assert.Equal(t, "stub a", r.Describe()[0].Description)

	s, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", s.Name())

	_, err = r.Get("nope")
	assert.True(t, models.IsNotFound(err))
}

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, []string{"balanced", "ensemble", "frequency", "overdue", "random"}, r.List())
}

func TestStrategies_ProduceValidSets(t *testing.T) {
	for _, lt := range []models.LotteryType{models.Power655, models.Mega645} {
		cfg := cfgOf(t, lt)
		history := genHistory(cfg, 120, 42)
		reg := NewDefaultRegistry(WithClock(func() time.Time { return fixedNow }), WithSeed(7))
		for _, name := range reg.List() {
			t.Run(string(lt)+"/"+name, func(t *testing.T) {
				s, err := reg.Get(name)
				require.NoError(t, err)
				res, err := s.Suggest(context.Background(), cfg, history)
				require.NoError(t, err)

				assert.NoError(t, cfg.ValidateNumbers(res.Numbers, res.PowerNumber))
				assert.True(t, sort.IntsAreSorted(res.Numbers))
				assert.GreaterOrEqual(t, res.Confidence, 0.0)
				assert.LessOrEqual(t, res.Confidence, 1.0)
				assert.Equal(t, name, res.Algorithm)
				assert.Equal(t, lt, res.LotteryType)
				assert.NotEmpty(t, res.Reasoning)
				assert.Equal(t, fixedNow, res.GeneratedAt)
			})
		}
	}
}

func TestStrategies_EmptyHistory(t *testing.T) {
	cfg := cfgOf(t, models.Mega645)
	reg := NewDefaultRegistry(WithSeed(1))
	for _, name := range reg.List() {
		s, _ := reg.Get(name)
		_, err := s.Suggest(context.Background(), cfg, nil)
		if name == "random" {
			assert.NoError(t, err)
			continue
		}
		assert.True(t, models.IsComputation(err), name)
	}
}

func TestRandom_DeterministicWithSeed(t *testing.T) {
	cfg := cfgOf(t, models.Power655)
	a, err := NewRandomStrategy(WithSeed(99)).Suggest(context.Background(), cfg, nil)
	require.NoError(t, err)
	b, err := NewRandomStrategy(WithSeed(99)).Suggest(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, a.Numbers, b.Numbers)
	assert.Equal(t, *a.PowerNumber, *b.PowerNumber)
}

func TestXorShift32_ZeroSeed(t *testing.T) {
	assert.Equal(t, NewXorShift32(0x12345678).Next(), NewXorShift32(0).Next())
}

func TestFrequency_PicksHotNumbers(t *testing.T) {
	cfg := cfgOf(t, models.Power655)
	res, err := NewFrequencyStrategy().Suggest(context.Background(), cfg, fixed(cfg, 10, models.IntPtr(7), 6, 5, 4, 3, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, res.Numbers)
	require.NotNil(t, res.PowerNumber)
	assert.Equal(t, 7, *res.PowerNumber)
}

func TestFrequency_CoverageRaisesConfidence(t *testing.T) {
	cfg := cfgOf(t, models.Mega645)
	small, err := NewFrequencyStrategy().Suggest(context.Background(), cfg, genHistory(cfg, 5, 3))
	require.NoError(t, err)
	large, err := NewFrequencyStrategy().Suggest(context.Background(), cfg, fixed(cfg, 200, nil, 1, 2, 3, 4, 5, 6))
	require.NoError(t, err)
	assert.Less(t, small.Confidence, large.Confidence)
}

func TestOverdue_PicksNeverDrawn(t *testing.T) {
	cfg := cfgOf(t, models.Mega645)
	h := append(fixed(cfg, 3, nil, 1, 2, 3, 4, 5, 6), fixed(cfg, 3, nil, 7, 8, 9, 10, 11, 12)...)
	for i := range h {
		h[i].ID = fmt.Sprintf("o%d", i)
		h[i].Date = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
	}
	res, err := NewOverdueStrategy().Suggest(context.Background(), cfg, h)
	require.NoError(t, err)
	assert.Equal(t, []int{13, 14, 15, 16, 17, 18}, res.Numbers)
	assert.Nil(t, res.PowerNumber)
}

func TestOverdue_PowerNumber(t *testing.T) {
	cfg := cfgOf(t, models.Power655)
	res, err := NewOverdueStrategy().Suggest(context.Background(), cfg, fixed(cfg, 4, models.IntPtr(1), 10, 11, 12, 13, 14, 15))
	require.NoError(t, err)
	require.NotNil(t, res.PowerNumber)
	// mains take 1..6, so the lowest never-drawn power left is 7
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, res.Numbers)
	assert.Equal(t, 7, *res.PowerNumber)
}

func TestBalanced_Split(t *testing.T) {
	cfg := cfgOf(t, models.Mega645)
	res, err := NewBalancedStrategy().Suggest(context.Background(), cfg, genHistory(cfg, 80, 11))
	require.NoError(t, err)
	even, low := 0, 0
	for _, n := range res.Numbers {
		if n%2 == 0 {
			even++
		}
		if n <= cfg.MaxNumber/2 {
			low++
		}
	}
	assert.Equal(t, 3, even)
	assert.Equal(t, 3, low)
}

func TestEnsemble_Vote(t *testing.T) {
	cfg := cfgOf(t, models.Mega645)
	agree := models.NumberSuggestionResult{Numbers: []int{1, 2, 3, 4, 5, 6}, Confidence: 0.5}
	members := []domsvc.SuggestionStrategy{
		stubStrategy{name: "x", res: agree},
		stubStrategy{name: "y", res: agree},
		stubStrategy{name: "z", err: errors.New("boom")},
	}
	res, err := NewEnsembleStrategy(members).Suggest(context.Background(), cfg, genHistory(cfg, 10, 5))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, res.Numbers)
	assert.InDelta(t, 0.5, res.Confidence, 1e-9)
	assert.Contains(t, res.Reasoning, "x, y")
	assert.Equal(t, "Confidence-weighted vote over x, y, z", NewEnsembleStrategy(members).Description())

	failing := []domsvc.SuggestionStrategy{stubStrategy{name: "z", err: errors.New("boom")}}
	_, err = NewEnsembleStrategy(failing).Suggest(context.Background(), cfg, genHistory(cfg, 10, 5))
	assert.True(t, models.IsComputation(err))
}

func TestRemote(t *testing.T) {
	cfg := cfgOf(t, models.Power655)
	var got remoteReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/suggest" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"numbers":[5,1,2,3,4,6],"powerNumber":9,"confidence":1.7,"reasoning":"model v2"}`))
	}))
	defer srv.Close()

	history := genHistory(cfg, 20, 8)
	res, err := NewRemoteStrategy(srv.URL, time.Second, 1).Suggest(context.Background(), cfg, history)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, res.Numbers)
	assert.Equal(t, 9, *res.PowerNumber)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, "model v2", res.Reasoning)
	assert.Equal(t, models.Power655, got.LotteryType)
	assert.Len(t, got.History, 20)
}

func TestRemote_InvalidResponse(t *testing.T) {
	cfg := cfgOf(t, models.Mega645)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"numbers":[1,2,3,4,5],"confidence":0.4}`))
	}))
	defer srv.Close()

	_, err := NewRemoteStrategy(srv.URL, time.Second, 1).Suggest(context.Background(), cfg, genHistory(cfg, 3, 1))
	assert.True(t, models.IsComputation(err))
}

func TestRemote_RetriesThenFails(t *testing.T) {
	cfg := cfgOf(t, models.Mega645)
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewRemoteStrategy(srv.URL, time.Second, 3).Suggest(context.Background(), cfg, genHistory(cfg, 3, 1))
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRemote_DoesNotRetryClientErrors(t *testing.T) {
	cfg := cfgOf(t, models.Mega645)
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "unknown lottery", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewRemoteStrategy(srv.URL, time.Second, 3).Suggest(context.Background(), cfg, genHistory(cfg, 3, 1))
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

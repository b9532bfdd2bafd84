package suggestion

import (
	"context"

	"LottoStats/internal/domain/models"
	domsvc "LottoStats/internal/domain/service"
)

// randomConfidence is the stated confidence of a uniform pick.
const randomConfidence = 0.05

// RandomStrategy shuffles the full number range with a seeded XorShift32.
type RandomStrategy struct {
	settings
}

func NewRandomStrategy(opts ...Option) *RandomStrategy {
	return &RandomStrategy{settings: newSettings(opts)}
}

func (s *RandomStrategy) Name() string { return "random" }

func (s *RandomStrategy) Description() string { return "Uniform random pick, ignores history" }

func (s *RandomStrategy) Suggest(ctx context.Context, cfg models.LotteryConfig, _ []models.LotteryResult) (models.NumberSuggestionResult, error) {
	rng := NewXorShift32(s.seed())
	pool := make([]int, cfg.MaxNumber)
	for i := range pool {
		pool[i] = i + 1
	}
	shuffle(pool, rng)
	nums := pool[:cfg.NumbersCount]

	var power *int
	if cfg.HasPowerNumber {
		taken := toSet(nums)
		for {
			p := rng.Intn(cfg.PowerMax) + 1
			if _, ok := taken[p]; !ok {
				power = models.IntPtr(p)
				break
			}
		}
	}
	return finish(cfg, s.Name(), nums, power, randomConfidence, "Uniform random selection", s.now())
}

var _ domsvc.SuggestionStrategy = (*RandomStrategy)(nil)

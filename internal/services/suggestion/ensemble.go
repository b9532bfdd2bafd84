package suggestion

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"LottoStats/internal/domain/models"
	domsvc "LottoStats/internal/domain/service"
	"LottoStats/internal/services/statistics"
)

// minVoteWeight keeps zero-confidence members from being ignored entirely.
const minVoteWeight = 0.01

// EnsembleStrategy runs its members and keeps the numbers with the highest confidence-weighted vote.
type EnsembleStrategy struct {
	settings
	members []domsvc.SuggestionStrategy
}

func NewEnsembleStrategy(members []domsvc.SuggestionStrategy, opts ...Option) *EnsembleStrategy {
	return &EnsembleStrategy{settings: newSettings(opts), members: members}
}

func (s *EnsembleStrategy) Name() string { return "ensemble" }

func (s *EnsembleStrategy) Description() string {
	names := make([]string, len(s.members))
	for i, m := range s.members {
		names[i] = m.Name()
	}
	return "Confidence-weighted vote over " + strings.Join(names, ", ")
}

func (s *EnsembleStrategy) Suggest(ctx context.Context, cfg models.LotteryConfig, history []models.LotteryResult) (models.NumberSuggestionResult, error) {
	if err := requireHistory(s.Name(), cfg, history); err != nil {
		return models.NumberSuggestionResult{}, err
	}

	votes := make(map[int]float64)
	powerVotes := make(map[int]float64)
	used := make([]string, 0, len(s.members))
	confSum := 0.0
	for _, m := range s.members {
		if err := ctx.Err(); err != nil {
			return models.NumberSuggestionResult{}, fmt.Errorf("ensemble: %w", err)
		}
		r, err := m.Suggest(ctx, cfg, history)
		if err != nil {
			continue
		}
		w := r.Confidence
		if w < minVoteWeight {
			w = minVoteWeight
		}
		for _, n := range r.Numbers {
			votes[n] += w
		}
		if r.PowerNumber != nil {
			powerVotes[*r.PowerNumber] += w
		}
		confSum += r.Confidence
		used = append(used, m.Name())
	}
	if len(used) == 0 {
		return models.NumberSuggestionResult{}, models.NewComputationError(s.Name(), "no member strategy produced a set")
	}

	freq := statistics.Frequencies(history, cfg)
	nums := rankByVote(votes, freq, cfg.NumbersCount)
	if len(nums) < cfg.NumbersCount {
		// members agreed on too few numbers; fill from overall frequency
		taken := toSet(nums)
		for _, f := range statistics.Top(freq, cfg.MaxNumber) {
			if len(nums) == cfg.NumbersCount {
				break
			}
			if _, ok := taken[f.Number]; !ok {
				nums = append(nums, f.Number)
			}
		}
	}

	power := votedPower(powerVotes, nums)
	if power == nil {
		power = hotPower(history, cfg, nums)
	}

	agreement := 0.0
	total := 0.0
	for n, v := range votes {
		total += v
		for _, c := range nums {
			if c == n {
				agreement += v
			}
		}
	}
	if total > 0 {
		agreement /= total
	}
	mean := confSum / float64(len(used))
	conf := mean * (0.5 + 0.5*agreement)
	reason := fmt.Sprintf("Vote of %s, %.0f%% of the weight on the chosen numbers", strings.Join(used, ", "), agreement*100)
	return finish(cfg, s.Name(), nums, power, conf, reason, s.now())
}

// rankByVote orders voted numbers by weight, then overall frequency, then number.
func rankByVote(votes map[int]float64, freq []models.NumberFrequency, n int) []int {
	count := make(map[int]int, len(freq))
	for _, f := range freq {
		count[f.Number] = f.Count
	}
	cands := make([]int, 0, len(votes))
	for num := range votes {
		cands = append(cands, num)
	}
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if votes[a] != votes[b] {
			return votes[a] > votes[b]
		}
		if count[a] != count[b] {
			return count[a] > count[b]
		}
		return a < b
	})
	if len(cands) > n {
		cands = cands[:n]
	}
	return cands
}

func votedPower(votes map[int]float64, mains []int) *int {
	taken := toSet(mains)
	best, bestVote := 0, 0.0
	for p, v := range votes {
		if _, ok := taken[p]; ok {
			continue
		}
		if v > bestVote || (v == bestVote && p < best) {
			best, bestVote = p, v
		}
	}
	if best == 0 {
		return nil
	}
	return models.IntPtr(best)
}

var _ domsvc.SuggestionStrategy = (*EnsembleStrategy)(nil)

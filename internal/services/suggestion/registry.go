package suggestion

import (
	"sort"
	"sync"

	"LottoStats/internal/domain/models"
	domsvc "LottoStats/internal/domain/service"
)

// Registry manages the named suggestion strategies. It is safe for concurrent use.
type Registry struct {
	strategies map[string]domsvc.SuggestionStrategy
	mu         sync.RWMutex
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]domsvc.SuggestionStrategy),
	}
}

// Register adds s under s.Name(). An existing strategy with the same name is replaced.
func (r *Registry) Register(s domsvc.SuggestionStrategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name.
func (r *Registry) Get(name string) (domsvc.SuggestionStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[name]
	if !ok {
		return nil, models.NewNotFoundError("algorithm", name)
	}
	return s, nil
}

// List returns the names of all registered strategies in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.strategies))
	for n := range r.strategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Describe returns name and description of every strategy, sorted by name.
func (r *Registry) Describe() []domsvc.StrategyInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]domsvc.StrategyInfo, 0, len(r.strategies))
	for _, s := range r.strategies {
		infos = append(infos, domsvc.StrategyInfo{Name: s.Name(), Description: s.Description()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// NewDefaultRegistry registers the built-in local strategies plus an ensemble over them.
func NewDefaultRegistry(opts ...Option) *Registry {
	r := NewRegistry()
	locals := []domsvc.SuggestionStrategy{
		NewFrequencyStrategy(opts...),
		NewOverdueStrategy(opts...),
		NewBalancedStrategy(opts...),
		NewRandomStrategy(opts...),
	}
	for _, s := range locals {
		r.Register(s)
	}
	// random only adds noise to a vote
	r.Register(NewEnsembleStrategy(locals[:3], opts...))
	return r
}

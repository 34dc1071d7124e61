package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/domain/shared/strategy"
)

// StrategyRegistry manages cost strategy registrations
type StrategyRegistry struct {
	mu             sync.RWMutex
	costStrategies map[string]strategy.CostBasisStrategy
	defaultCost    string
}

// NewStrategyRegistry creates a new strategy registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		costStrategies: make(map[string]strategy.CostBasisStrategy),
	}
}

// RegisterCostStrategy registers a cost strategy
func (r *StrategyRegistry) RegisterCostStrategy(s strategy.CostBasisStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.costStrategies[name]; exists {
		return fmt.Errorf("%w: cost strategy '%s' already registered", shared.ErrInvalidInput, name)
	}
	r.costStrategies[name] = s
	return nil
}

// GetCostStrategy returns a cost strategy by name, or the default if name is empty
func (r *StrategyRegistry) GetCostStrategy(name string) (strategy.CostBasisStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultCost
		if name == "" {
			return nil, fmt.Errorf("%w: no default cost strategy set", shared.ErrNotFound)
		}
	}

	s, exists := r.costStrategies[name]
	if !exists {
		return nil, fmt.Errorf("%w: cost strategy '%s' not found", shared.ErrNotFound, name)
	}
	return s, nil
}

// SetDefaultCostStrategy selects the deployment's cost model
func (r *StrategyRegistry) SetDefaultCostStrategy(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.costStrategies[name]; !exists {
		return fmt.Errorf("%w: cost strategy '%s' not found", shared.ErrNotFound, name)
	}
	r.defaultCost = name
	return nil
}

// DefaultCostStrategy returns the selected cost strategy
func (r *StrategyRegistry) DefaultCostStrategy() (strategy.CostBasisStrategy, error) {
	return r.GetCostStrategy("")
}

// ListCostStrategies returns all registered cost strategy names
func (r *StrategyRegistry) ListCostStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.costStrategies))
	for name := range r.costStrategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package strategy

import (
	"fmt"

	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/domain/shared/strategy"
	"github.com/erp/salesledger/internal/infrastructure/strategy/cost"
)

// NewRegistryWithDefaults registers both cost models and selects method as
// the deployment default. Only one model is active for a record set.
func NewRegistryWithDefaults(method strategy.CostMethod) (*StrategyRegistry, error) {
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: unknown cost method '%s'", shared.ErrInvalidInput, method)
	}

	r := NewStrategyRegistry()
	if err := r.RegisterCostStrategy(cost.NewLotWeightedAverageStrategy()); err != nil {
		return nil, err
	}
	if err := r.RegisterCostStrategy(cost.NewDirectBatchStrategy()); err != nil {
		return nil, err
	}
	if err := r.SetDefaultCostStrategy(string(method)); err != nil {
		return nil, err
	}
	return r, nil
}

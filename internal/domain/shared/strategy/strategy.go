package strategy

// Named identifies a registered cost model
type Named interface {
	Name() string
	Description() string
}

// CostModel is embedded by cost strategies. The method doubles as the
// registry name so configuration and registry lookups share one key.
type CostModel struct {
	method      CostMethod
	description string
}

// NewCostModel creates the identity of a cost strategy
func NewCostModel(method CostMethod, description string) CostModel {
	return CostModel{method: method, description: description}
}

// Name returns the registry name
func (m CostModel) Name() string {
	return string(m.method)
}

// Method returns the costing method
func (m CostModel) Method() CostMethod {
	return m.method
}

// Description returns a human-readable summary of the formula
func (m CostModel) Description() string {
	return m.description
}

package report

import (
	"github.com/erp/salesledger/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitCostResult is the per-unit cost of one batch under the configured model
type UnitCostResult struct {
	BatchID  uuid.UUID
	Method   strategy.CostMethod
	UnitCost decimal.Decimal
}

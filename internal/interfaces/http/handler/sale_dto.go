package handler

import (
	"time"

	appsales "github.com/erp/salesledger/internal/application/sales"
	"github.com/google/uuid"
)

// SaleLineBody is one line of a sale submission. Amounts are minor units.
type SaleLineBody struct {
	BatchID   string `json:"batch_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Quantity  int64  `json:"quantity" example:"3"`
	UnitPrice int64  `json:"unit_price" example:"150"`
}

// RecordSaleBody is the request body of POST /sales
// @Description Sale submission; lines are committed atomically
type RecordSaleBody struct {
	Lines        []SaleLineBody `json:"lines" binding:"required,dive"`
	CustomerName string         `json:"customer_name" binding:"max=200" example:"Walk-in"`
	Tax          *int64         `json:"tax" example:"0"`
	Discount     *int64         `json:"discount" example:"0"`
	SoldAt       *time.Time     `json:"sold_at" example:"2024-03-01T10:00:00Z"`
}

// toRequest converts the body into the application request. Batch IDs have
// already passed the uuid binding rule.
func (b RecordSaleBody) toRequest(teamID uuid.UUID) appsales.RecordSaleRequest {
	lines := make([]appsales.SaleLineRequest, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = appsales.SaleLineRequest{
			BatchID:   uuid.MustParse(l.BatchID),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	return appsales.RecordSaleRequest{
		TeamID:       teamID,
		Lines:        lines,
		CustomerName: b.CustomerName,
		Tax:          b.Tax,
		Discount:     b.Discount,
		SoldAt:       b.SoldAt,
	}
}

// COGSReportQuery holds the inclusive report window
type COGSReportQuery struct {
	Start time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	End   time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

// COGSItemResponse is the cost of one sold record
type COGSItemResponse struct {
	RecordID     uuid.UUID `json:"record_id"`
	Kind         string    `json:"kind" enums:"sale_line,legacy"`
	BatchID      uuid.UUID `json:"batch_id"`
	QuantitySold int64     `json:"quantity_sold"`
	UnitCost     string    `json:"unit_cost" example:"100.00"`
	ItemCOGS     string    `json:"item_cogs" example:"300.00"`
}

// SkippedRecordResponse is a sold record whose batch could not be costed
type SkippedRecordResponse struct {
	RecordID uuid.UUID `json:"record_id"`
	Kind     string    `json:"kind"`
	BatchID  uuid.UUID `json:"batch_id"`
}

// COGSReportResponse summarises revenue and cost of goods sold for a window
// @Description COGS report; monetary amounts are minor units, costs are rounded to 2 places
type COGSReportResponse struct {
	TeamID           uuid.UUID               `json:"team_id"`
	PeriodStart      time.Time               `json:"period_start"`
	PeriodEnd        time.Time               `json:"period_end"`
	CostMethod       string                  `json:"cost_method" enums:"lot_weighted_average,direct_batch"`
	TransactionCount int                     `json:"transaction_count"`
	LegacyCount      int                     `json:"legacy_count"`
	Revenue          int64                   `json:"revenue" example:"450"`
	TotalCOGS        string                  `json:"total_cogs" example:"300.00"`
	GrossProfit      string                  `json:"gross_profit" example:"150.00"`
	Items            []COGSItemResponse      `json:"items"`
	Skipped          []SkippedRecordResponse `json:"skipped"`
}

// UnitCostResponse is the per-unit cost of a batch
type UnitCostResponse struct {
	BatchID    uuid.UUID `json:"batch_id"`
	CostMethod string    `json:"cost_method"`
	UnitCost   string    `json:"unit_cost" example:"100.00"`
}

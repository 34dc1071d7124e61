package handler

import (
	"context"
	"time"

	appreport "github.com/erp/salesledger/internal/application/report"
	"github.com/erp/salesledger/internal/domain/report"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/interfaces/http/dto"
	"github.com/erp/salesledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CostReporter is the part of the report service the handler needs
type CostReporter interface {
	ComputeCOGSForWindow(ctx context.Context, caller shared.Caller, teamID uuid.UUID, start, end time.Time) (*report.WindowReport, error)
	ComputeUnitCost(ctx context.Context, caller shared.Caller, teamID, batchID uuid.UUID) (*appreport.UnitCostResult, error)
}

// ReportHandler serves cost reports
type ReportHandler struct {
	BaseHandler
	reports CostReporter
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports CostReporter) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// COGS godoc
// @Summary      Cost of goods sold for a window
// @Description  Revenue and COGS of every sale of the team with start <= sold_at <= end
// @Tags         reports
// @Produce      json
// @Param        start query string true "Window start (RFC 3339)"
// @Param        end query string true "Window end (RFC 3339)"
// @Success      200 {object} dto.Response{data=COGSReportResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/cogs [get]
func (h *ReportHandler) COGS(c *gin.Context) {
	caller, teamID, err := requestScope(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var query COGSReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.reports.ComputeCOGSForWindow(c.Request.Context(), caller, teamID, query.Start, query.End)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCOGSReportResponse(teamID, result))
}

// UnitCost godoc
// @Summary      Unit cost of a batch
// @Tags         reports
// @Produce      json
// @Param        id path string true "Inventory batch ID" format(uuid)
// @Success      200 {object} dto.Response{data=UnitCostResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batches/{id}/unit-cost [get]
func (h *ReportHandler) UnitCost(c *gin.Context) {
	caller, teamID, err := requestScope(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.reports.ComputeUnitCost(c.Request.Context(), caller, teamID, uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, UnitCostResponse{
		BatchID:    result.BatchID,
		CostMethod: string(result.Method),
		UnitCost:   dto.FormatCost(result.UnitCost),
	})
}

func toCOGSReportResponse(teamID uuid.UUID, r *report.WindowReport) COGSReportResponse {
	items := make([]COGSItemResponse, len(r.COGS.Itemized))
	for i, item := range r.COGS.Itemized {
		items[i] = COGSItemResponse{
			RecordID:     item.RecordID,
			Kind:         string(item.Kind),
			BatchID:      item.BatchID,
			QuantitySold: item.QuantitySold,
			UnitCost:     dto.FormatCost(item.UnitCost),
			ItemCOGS:     dto.FormatCost(item.ItemCOGS),
		}
	}
	skipped := make([]SkippedRecordResponse, len(r.COGS.Skipped))
	for i, s := range r.COGS.Skipped {
		skipped[i] = SkippedRecordResponse{RecordID: s.RecordID, Kind: string(s.Kind), BatchID: s.BatchID}
	}
	return COGSReportResponse{
		TeamID:           teamID,
		PeriodStart:      r.PeriodStart,
		PeriodEnd:        r.PeriodEnd,
		CostMethod:       string(r.Method),
		TransactionCount: r.TransactionCount,
		LegacyCount:      r.LegacyCount,
		Revenue:          r.Revenue,
		TotalCOGS:        dto.FormatCost(r.COGS.TotalCOGS),
		GrossProfit:      dto.FormatCost(r.GrossProfit()),
		Items:            items,
		Skipped:          skipped,
	}
}

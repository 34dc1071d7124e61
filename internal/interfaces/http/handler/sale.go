package handler

import (
	"context"

	appsales "github.com/erp/salesledger/internal/application/sales"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/interfaces/http/dto"
	"github.com/erp/salesledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SaleCommitter is the part of the sale service the handler needs
type SaleCommitter interface {
	RecordSale(ctx context.Context, caller shared.Caller, req appsales.RecordSaleRequest) (*appsales.SaleTransactionResponse, error)
	GetSale(ctx context.Context, caller shared.Caller, teamID, id uuid.UUID) (*appsales.SaleTransactionResponse, error)
	DeleteSale(ctx context.Context, caller shared.Caller, teamID, id uuid.UUID) error
}

// SaleHandler handles sale transaction endpoints
type SaleHandler struct {
	BaseHandler
	sales SaleCommitter
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(sales SaleCommitter) *SaleHandler {
	return &SaleHandler{sales: sales}
}

// Record godoc
// @Summary      Record a sale
// @Description  Validate and atomically commit a multi-line sale, debiting stock from each batch
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        X-Team-ID header string false "Team to act for; defaults to the token's team"
// @Param        Idempotency-Key header string false "Client key rejecting repeated submissions"
// @Param        request body RecordSaleBody true "Sale submission"
// @Success      201 {object} dto.Response{data=appsales.SaleTransactionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales [post]
func (h *SaleHandler) Record(c *gin.Context) {
	caller, teamID, err := requestScope(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var body RecordSaleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	sale, err := h.sales.RecordSale(c.Request.Context(), caller, body.toRequest(teamID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// Get godoc
// @Summary      Get a sale
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale transaction ID" format(uuid)
// @Success      200 {object} dto.Response{data=appsales.SaleTransactionResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id} [get]
func (h *SaleHandler) Get(c *gin.Context) {
	caller, teamID, id, ok := h.scopeWithID(c)
	if !ok {
		return
	}
	sale, err := h.sales.GetSale(c.Request.Context(), caller, teamID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Delete godoc
// @Summary      Delete a sale
// @Description  Remove a sale and its lines. Stock is not returned to the batches.
// @Tags         sales
// @Param        id path string true "Sale transaction ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id} [delete]
func (h *SaleHandler) Delete(c *gin.Context) {
	caller, teamID, id, ok := h.scopeWithID(c)
	if !ok {
		return
	}
	if err := h.sales.DeleteSale(c.Request.Context(), caller, teamID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *SaleHandler) scopeWithID(c *gin.Context) (shared.Caller, uuid.UUID, uuid.UUID, bool) {
	caller, teamID, err := requestScope(c)
	if err != nil {
		h.HandleError(c, err)
		return shared.Caller{}, uuid.Nil, uuid.Nil, false
	}
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return shared.Caller{}, uuid.Nil, uuid.Nil, false
	}
	return caller, teamID, uuid.MustParse(uri.ID), true
}

package handler

import (
	"context"
	"errors"
	"net/http"

	appsales "github.com/erp/salesledger/internal/application/sales"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/infrastructure/logger"
	"github.com/erp/salesledger/internal/interfaces/http/dto"
	"github.com/erp/salesledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return c.GetString(logger.GinRequestIDKey)
}

// requestScope returns the authenticated caller and the team the request acts for
func requestScope(c *gin.Context) (shared.Caller, uuid.UUID, error) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return shared.Caller{}, uuid.Nil, shared.ErrUnauthorized
	}
	teamID, err := middleware.ResolveTeamID(c)
	if err != nil {
		return shared.Caller{}, uuid.Nil, err
	}
	return caller, teamID, nil
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.CodeBadRequest, message)
}

// HandleError converts an application error into a response. A failing
// sale line is reported with its index.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := getRequestID(c)

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.JSON(dto.GetHTTPStatus(dto.CodeCanceled),
			dto.NewErrorResponseWithRequestID(dto.CodeCanceled, "Request was canceled before completion", requestID))
		return
	}

	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		_ = c.Error(err)
		logger.GetGinLogger(c).Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError,
			dto.NewErrorResponseWithRequestID(dto.CodeInternal, "An unexpected error occurred", requestID))
		return
	}

	status := dto.GetHTTPStatus(domainErr.Code)
	var lineErr *appsales.LineError
	if errors.As(err, &lineErr) {
		c.JSON(status, dto.NewLineErrorResponse(domainErr.Code, err.Error(), requestID, lineErr.Index))
		return
	}
	c.JSON(status, dto.NewErrorResponseWithRequestID(domainErr.Code, err.Error(), requestID))
}

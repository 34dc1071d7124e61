package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/erp/salesledger/internal/infrastructure/logger"
	"github.com/erp/salesledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// MaxRequestIDLength bounds client-supplied request IDs
const MaxRequestIDLength = 128

// RequestID tags each request with an ID, keeping a client-supplied one when
// it is short enough.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > MaxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(logger.GinRequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Timeout bounds the request context. A handler that has not written
// anything by the deadline gets a 408.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusRequestTimeout,
				dto.NewErrorResponseWithRequestID(dto.CodeCanceled, "Request timed out", c.GetString(logger.GinRequestIDKey)))
		}
	}
}

package middleware

import (
	"net/http"

	"github.com/erp/salesledger/internal/infrastructure/logger"
	"github.com/erp/salesledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.CodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				c.GetString(logger.GinRequestIDKey),
			))
			return
		}

		// Streaming bodies without a declared length are capped while read
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

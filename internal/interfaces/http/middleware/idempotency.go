package middleware

import (
	"context"
	"net/http"

	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/infrastructure/logger"
	"github.com/erp/salesledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the client's submission key
const IdempotencyKeyHeader = "Idempotency-Key"

// MaxIdempotencyKeyLength bounds client-supplied keys
const MaxIdempotencyKeyLength = 255

// Idempotency rejects a repeated submission that carries the same
// Idempotency-Key for the same team while the key is remembered. A key is
// forgotten again when the guarded request fails, so the client may retry.
// Requests without the header pass through. It must run after JWT
// authentication.
func Idempotency(store shared.IdempotencyStore, cfg shared.IdempotencyConfig, log *zap.Logger) gin.HandlerFunc {
	if !cfg.Enabled || store == nil {
		return noop
	}
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		clientKey := c.GetHeader(IdempotencyKeyHeader)
		if clientKey == "" {
			c.Next()
			return
		}
		requestID := c.GetString(logger.GinRequestIDKey)
		if len(clientKey) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.CodeBadRequest, "Idempotency-Key is too long", requestID))
			return
		}
		teamID, err := ResolveTeamID(c)
		if err != nil {
			// Let the handler produce the authorization error
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := teamID.String() + ":" + clientKey
		fresh, err := store.MarkProcessed(ctx, key, cfg.TTL)
		if err != nil {
			log.Warn("Idempotency store unavailable, processing request without key",
				zap.String("request_id", requestID),
				zap.Error(err))
			c.Next()
			return
		}
		if !fresh {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.CodeDuplicateRequest, "A request with this Idempotency-Key was already submitted", requestID))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest || len(c.Errors) > 0 {
			if err := store.Release(context.WithoutCancel(ctx), key); err != nil {
				log.Warn("Failed to release idempotency key",
					zap.String("request_id", requestID),
					zap.Error(err))
			}
		}
	}
}

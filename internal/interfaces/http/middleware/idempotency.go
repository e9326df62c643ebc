package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/synexa/sis/internal/domain/shared"
	"github.com/synexa/sis/internal/infrastructure/logger"
	"github.com/synexa/sis/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader is the optional header naming a client retry key
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 200

// Idempotency rejects a POST whose Idempotency-Key was already used by the
// same tenant on the same route within ttl. The key is released when the
// request fails so the client may retry it. Requests without the header pass.
// Must run after JWTAuth.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if c.Request.Method != http.MethodPost || key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			abortWithError(c, shared.CodeValidation, "Idempotency-Key demasiado longa", map[string]any{"field": IdempotencyKeyHeader})
			return
		}

		rc, ok := GetRequestContext(c)
		if !ok {
			abortWithError(c, shared.CodeUnauthorized, shared.ErrUnauthorized.Message, nil)
			return
		}
		ctx := c.Request.Context()
		scoped := rc.TenantID.String() + ":" + c.FullPath() + ":" + c.Param("id") + ":" + key

		claimed, err := store.MarkProcessed(ctx, scoped, ttl)
		if err != nil {
			logger.For(ctx, log).Error("Idempotency store unavailable", zap.Error(err))
			abortWithError(c, dto.ErrCodeUnavailable, "Serviço temporariamente indisponível", nil)
			return
		}
		if !claimed {
			abortWithError(c, shared.CodeDuplicateRequest, shared.ErrDuplicateRequest.Message, map[string]any{"idempotency_key": key})
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(ctx, scoped); err != nil {
				logger.For(ctx, log).Warn("Failed to release idempotency key", zap.Error(err))
			}
		}
	}
}

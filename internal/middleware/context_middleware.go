package middleware

import (
	"github.com/daryls-hrplus/intellihrm-sub025/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContextLogger builds a request-scoped logger carrying the request id and
// actor, and propagates both into the standard context so service and
// repository layers can pick them up without knowing about gin.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetString("request_id")
		if rid == "" {
			rid = c.GetHeader("X-Request-ID")
		}
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Header("X-Request-ID", rid)

		actorID := c.GetString("employee_id")

		reqLogger := logger.With(
			zap.String("request_id", rid),
			zap.String("actor_id", actorID),
		)

		ctx := c.Request.Context()
		ctx = contextutil.WithRequestID(ctx, rid)
		ctx = contextutil.WithUserID(ctx, actorID)
		ctx = contextutil.WithLogger(ctx, reqLogger)

		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

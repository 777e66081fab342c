package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/shared/response"
)

// TenantContext reads the tenant and actor headers set by the API gateway
// and exposes them as gin context keys. Authentication itself happens
// upstream; this service only trusts and validates the forwarded ids.
func TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := c.GetHeader("X-Company-ID")
		if companyID == "" {
			response.Error(c, http.StatusBadRequest, "MISSING_TENANT", "X-Company-ID header is required", nil)
			c.Abort()
			return
		}
		if _, err := uuid.Parse(companyID); err != nil {
			response.Error(c, http.StatusBadRequest, "INVALID_TENANT", "X-Company-ID must be a valid UUID", nil)
			c.Abort()
			return
		}

		c.Set("company_id", companyID)

		if actorID := c.GetHeader("X-Employee-ID"); actorID != "" {
			c.Set("employee_id", actorID)
		}

		c.Next()
	}
}

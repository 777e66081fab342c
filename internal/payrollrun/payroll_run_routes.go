package payrollrun

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/middleware"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rdb ...*redis.Client,
) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	runs := r.Group("/payroll-runs")
	{
		runs.GET("", handler.GetAll)
		runs.GET("/:id", handler.GetById)
		runs.GET("/:id/employees", handler.GetEmployees)
		if redisClient != nil {
			runs.POST("", middleware.Idempotency(redisClient), handler.Create)
			runs.POST("/:id/calculate", middleware.Idempotency(redisClient), handler.Calculate)
		} else {
			runs.POST("", handler.Create)
			runs.POST("/:id/calculate", handler.Calculate)
		}
		runs.POST("/:id/rates", handler.SetRates)
		runs.POST("/:id/approve", handler.Approve)
		runs.POST("/:id/approve-recalculation", handler.ApproveRecalculation)
		runs.POST("/:id/mark-paid", handler.MarkAsPaid)
		runs.POST("/:id/reopen", handler.Reopen)
		runs.DELETE("/:id", handler.Delete)
	}
}

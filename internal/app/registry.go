package app

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/adjustments"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/benefits"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/compensation"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/currency"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/employee"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/messaging/kafka"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/middleware"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/payperiod"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/payrollrun"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/shared/counter"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/statutory"
)

func registerModules(
	router *gin.Engine,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	counterRepo := counter.NewRepository(gormDB)
	runRepo := payrollrun.NewRepository(gormDB)
	periodRepo := payperiod.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	compensationRepo := compensation.NewRepository(gormDB)
	adjustmentsRepo := adjustments.NewRepository(gormDB)
	benefitsRepo := benefits.NewRepository(gormDB)
	statutoryRepo := statutory.NewRepository(gormDB)
	ratesRepo := currency.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(gormDB)

	// --- Services ---
	runService := payrollrun.NewService(
		gormDB,
		payrollrun.Deps{
			Runs:         runRepo,
			Periods:      periodRepo,
			Employees:    employeeRepo,
			Compensation: compensationRepo,
			Adjustments:  adjustmentsRepo,
			Benefits:     benefitsRepo,
			Statutory:    statutoryRepo,
			Rates:        ratesRepo,
			Outbox:       outboxRepo,
			Counter:      counterRepo,
		},
		engineConfigFromEnv(),
	)

	// --- Handlers ---
	runHandler := payrollrun.NewHandlerWithRedis(runService, rdb)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	api.Use(
		middleware.RequestID(),
		middleware.TenantContext(),
		middleware.ContextLogger(zap.L()),
	)
	{
		payrollrun.RegisterRoutes(api, runHandler, rdb)
	}

	return nil
}

func engineConfigFromEnv() payrollrun.Config {
	cfg := payrollrun.DefaultConfig()
	if v := os.Getenv("DEFAULT_PAY_FREQUENCY"); v != "" {
		cfg.DefaultPayFrequency = compensation.PayFrequency(v)
	}
	if v := os.Getenv("DEFAULT_CURRENCY"); v != "" {
		cfg.DefaultCurrency = v
	}
	if v := os.Getenv("DEFAULT_COUNTRY_CODE"); v != "" {
		cfg.DefaultCountryCode = v
	}
	return cfg
}

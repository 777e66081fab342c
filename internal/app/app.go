package app

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/shared/connection"
)

func BuildApp(router *gin.Engine) error {
	// 1. Setup Infrastructure
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}
	log.Println("✅ Database connection established")

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	log.Println("✅ Redis connection established")

	// 2. Register Modules & Routes
	return registerModules(router, gormDB, redisClient)
}

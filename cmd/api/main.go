package main

import (
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/config"
	"github.com/jutorials/backend/internal/database"
	"github.com/jutorials/backend/internal/handlers"
	"github.com/jutorials/backend/internal/ledger"
	"github.com/jutorials/backend/internal/middleware"
	"github.com/jutorials/backend/internal/notify"
	"github.com/jutorials/backend/internal/routes"
	"github.com/jutorials/backend/internal/services/payment"
	"github.com/jutorials/backend/internal/services/referral"
	"github.com/jutorials/backend/internal/services/withdrawal"
)

func main() {
	cfg := config.LoadConfig()

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	store := ledger.NewGormStore(db)

	// Admin decisions made over the API still notify users through the bot
	// when a token is configured; otherwise they are only logged.
	var notifier notify.Dispatcher = notify.NewLogDispatcher(logger)
	if cfg.Telegram.BotToken != "" {
		if api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken); err == nil {
			notifier = notify.NewTelegramDispatcher(api, cfg.Telegram.AdminIDs, logger)
		} else {
			logger.Warn("failed to connect to Telegram, falling back to log notifications", zap.Error(err))
		}
	}

	engine := referral.NewEngine(store, notifier, cfg.Referral, logger)
	payments := payment.NewService(store, engine, notifier, cfg.Referral, logger)
	approvals := withdrawal.NewApprovalService(store, notifier, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{getEnv("FRONTEND_URL", "http://localhost:3000")},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	rateLimiter := middleware.NewRateLimiter(10, 20)
	defer rateLimiter.Stop()

	authHandler := handlers.NewAuthHandler(cfg)
	adminHandler := handlers.NewAdminHandler(store, approvals, payments)
	routes.SetupRoutes(router, authHandler, adminHandler, rateLimiter)

	logger.Info("admin API listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

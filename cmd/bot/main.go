package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/bot"
	"github.com/jutorials/backend/internal/config"
	"github.com/jutorials/backend/internal/database"
	"github.com/jutorials/backend/internal/jobs"
	"github.com/jutorials/backend/internal/ledger"
	"github.com/jutorials/backend/internal/notify"
	"github.com/jutorials/backend/internal/services/account"
	"github.com/jutorials/backend/internal/services/payment"
	"github.com/jutorials/backend/internal/services/referral"
	"github.com/jutorials/backend/internal/services/withdrawal"
	"github.com/jutorials/backend/internal/session"
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

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Fatal("invalid redis URL", zap.Error(err))
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	redisOpts.DB = cfg.Redis.DB
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Fatal("failed to connect to Telegram", zap.Error(err))
	}

	store := ledger.NewGormStore(db)
	sessions := session.NewRedisStore(redisClient, time.Duration(cfg.Telegram.SessionTTLMinutes)*time.Minute)
	notifier := notify.NewTelegramDispatcher(api, cfg.Telegram.AdminIDs, logger)

	engine := referral.NewEngine(store, notifier, cfg.Referral, logger)
	accounts := account.NewService(store, engine, notifier, cfg.Referral, logger)
	payments := payment.NewService(store, engine, notifier, cfg.Referral, logger)
	workflow := withdrawal.NewWorkflow(store, sessions, notifier, cfg.Referral, logger)
	approvals := withdrawal.NewApprovalService(store, notifier, logger)

	scheduler := jobs.NewScheduler(logger)
	if err := scheduler.ScheduleRecurringJobs(store); err != nil {
		logger.Fatal("failed to schedule jobs", zap.Error(err))
	}
	defer scheduler.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		cancel()
	}()

	b := bot.New(api, accounts, payments, workflow, approvals, store, cfg, logger)
	b.Run(ctx)
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

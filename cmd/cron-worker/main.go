package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/vendorhub-backend/internal/cron"
	"github.com/angelmondragon/vendorhub-backend/internal/refunds"
	"github.com/angelmondragon/vendorhub-backend/pkg/config"
	"github.com/angelmondragon/vendorhub-backend/pkg/db"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
	"github.com/angelmondragon/vendorhub-backend/pkg/metrics"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox"
	"github.com/angelmondragon/vendorhub-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.ForApp("cron-worker", cfg.App)

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker", envOrLocal(cfg.App.Env)), cfg.Cron.Interval)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	retention, err := cron.NewOutboxRetentionJob(logg, dbClient, outbox.NewRepository(dbClient.DB()), cfg.Cron.OutboxRetention)
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}
	backlog, err := cron.NewRefundBacklogJob(logg, refunds.NewRepository(dbClient.DB()), cfg.Cron.RefundSLA)
	if err != nil {
		logg.Error(context.Background(), "failed to create refund backlog job", err)
		os.Exit(1)
	}
	deadLetters, err := cron.NewDeadLetterJob(logg, outbox.NewDLQRepository(dbClient.DB()), cfg.Cron.Interval)
	if err != nil {
		logg.Error(context.Background(), "failed to create dead letter job", err)
		os.Exit(1)
	}
	jobs, err := cron.NewJobs(retention, backlog, deadLetters)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Jobs:     jobs,
		Lock:     lock,
		Metrics:  metrics.NewJobs(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func envOrLocal(env string) string {
	if env == "" {
		return "local"
	}
	return env
}

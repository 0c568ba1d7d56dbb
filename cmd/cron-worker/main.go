package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mathmindlabs/mathmind-backend/internal/calculations"
	"github.com/mathmindlabs/mathmind-backend/internal/credentials"
	"github.com/mathmindlabs/mathmind-backend/internal/cron"
	"github.com/mathmindlabs/mathmind-backend/internal/users"
	"github.com/mathmindlabs/mathmind-backend/pkg/config"
	"github.com/mathmindlabs/mathmind-backend/pkg/db"
	"github.com/mathmindlabs/mathmind-backend/pkg/logger"
	"github.com/mathmindlabs/mathmind-backend/pkg/metrics"
	"github.com/mathmindlabs/mathmind-backend/pkg/migrate"
	"github.com/mathmindlabs/mathmind-backend/pkg/redis"
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

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

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

	job, err := cron.NewInactiveUsersJob(cron.InactiveUsersJobParams{
		Logger:       logg,
		Users:        users.NewRepository(dbClient.DB()),
		Credentials:  credentials.NewRepository(dbClient.DB()),
		Calculations: calculations.NewRepository(dbClient.DB()),
		Locker:       redisClient,
		Metrics:      metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Retention:    cfg.Retention,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inactive users job", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := job.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/mathmindlabs/mathmind-backend/api/routes"
	"github.com/mathmindlabs/mathmind-backend/internal/auth"
	"github.com/mathmindlabs/mathmind-backend/internal/calculations"
	"github.com/mathmindlabs/mathmind-backend/internal/credentials"
	"github.com/mathmindlabs/mathmind-backend/internal/users"
	"github.com/mathmindlabs/mathmind-backend/pkg/auth/session"
	"github.com/mathmindlabs/mathmind-backend/pkg/config"
	"github.com/mathmindlabs/mathmind-backend/pkg/db"
	"github.com/mathmindlabs/mathmind-backend/pkg/logger"
	"github.com/mathmindlabs/mathmind-backend/pkg/migrate"
	"github.com/mathmindlabs/mathmind-backend/pkg/outbox"
	"github.com/mathmindlabs/mathmind-backend/pkg/redis"
	"github.com/mathmindlabs/mathmind-backend/pkg/upstream/assistant"
	"github.com/mathmindlabs/mathmind-backend/pkg/upstream/wolfram"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		Tx:             dbClient,
		UserRepo:       users.NewRepository(dbClient.DB()),
		CredentialRepo: credentials.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		Outbox:         outboxService,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	calculationService := calculations.NewService(
		dbClient,
		calculations.NewRepository(dbClient.DB()),
		outboxService,
		logg,
	)

	assistantClient := assistant.NewClient(cfg.Assistant, logg)
	wolframClient := wolfram.NewClient(cfg.Wolfram, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Sessions:     sessionManager,
			Auth:         authService,
			Calculations: calculationService,
			Assistant:    assistantClient,
			Wolfram:      wolframClient,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

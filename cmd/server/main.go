// Package main is the entry point for the upload API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/imggen/internal/api"
	"github.com/dharsanguruparan/imggen/internal/auth"
	"github.com/dharsanguruparan/imggen/internal/config"
	"github.com/dharsanguruparan/imggen/internal/database"
	"github.com/dharsanguruparan/imggen/internal/logging"
	"github.com/dharsanguruparan/imggen/internal/queue"
	"github.com/dharsanguruparan/imggen/internal/repository"
	"github.com/dharsanguruparan/imggen/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL, database.Options{
		MaxConns:       cfg.DBMaxConns,
		IdleTimeout:    cfg.DBIdleTimeout,
		ConnectTimeout: cfg.DBConnectTimeout,
	}, logger)
	if err != nil {
		// Nothing works without the database.
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init storage: %v", err)
	}

	deps := api.Deps{
		Uploads: repository.NewUploadRepository(pool),
		Objects: store,
		Auth:    auth.NewVerifier(cfg.TokenSecret, repository.NewUserRepository(pool), logger),
		Logger:  logger,
	}
	if cfg.QueueEnabled() {
		client := asynq.NewClient(queue.RedisOpt(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
		defer client.Close()
		deps.Compensator = queue.NewClient(client)
		logger.Info(ctx, "orphan cleanup enabled", "redis", cfg.RedisAddr)
	}

	srv := api.New(cfg, deps)
	if err := srv.Run(ctx); err != nil {
		logger.Error(ctx, "server stopped", "err", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/imggen/internal/config"
	"github.com/dharsanguruparan/imggen/internal/logging"
	"github.com/dharsanguruparan/imggen/internal/queue"
	"github.com/dharsanguruparan/imggen/internal/storage"
	"github.com/dharsanguruparan/imggen/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if !cfg.QueueEnabled() {
		log.Fatalf("REDIS_ADDR is required for the worker")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init storage: %v", err)
	}

	server := asynq.NewServer(queue.RedisOpt(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
	})
	processor := worker.NewProcessor(store, logger)
	mux := processor.Handler()

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	logger.Info(ctx, "worker started", "bucket", store.Bucket(), "concurrency", cfg.WorkerConcurrency)
	if err := server.Run(mux); err != nil {
		logger.Error(ctx, "worker stopped", "err", err)
		os.Exit(1)
	}
}

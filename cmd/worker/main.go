// Package main is the entrypoint for the jobloader ingestion worker.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/jobloader/internal/ai"
	"github.com/kiranshivaraju/jobloader/internal/cache"
	"github.com/kiranshivaraju/jobloader/internal/compress"
	"github.com/kiranshivaraju/jobloader/internal/config"
	"github.com/kiranshivaraju/jobloader/internal/fetch"
	"github.com/kiranshivaraju/jobloader/internal/ingest"
	"github.com/kiranshivaraju/jobloader/internal/queue"
	"github.com/kiranshivaraju/jobloader/internal/store"
)

// Ingester runs one ingestion attempt. *ingest.Service implements it.
type Ingester interface {
	Ingest(ctx context.Context, id uuid.UUID, sourceURL string) error
}

func main() {
	// a local .env is optional; real environment variables win
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(); err != nil {
		slog.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog := config.SetupLogger(cfg.Log)
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	redisQueue, err := queue.NewRedisQueue(cfg.Redis.URL, cfg.Queue.Name)
	if err != nil {
		return fmt.Errorf("create redis queue: %w", err)
	}
	defer redisQueue.Close()
	if err := redisQueue.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	model, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", model.Name())

	fetcher, err := fetch.NewFromConfig(cfg.Fetch, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}

	pgStore := store.NewPostgresStore(pool)
	svc := ingest.NewService(
		pgStore,
		redisCache,
		fetcher,
		compress.New(compress.WithBudgets(cfg.Fetch.HTMLBudget, cfg.Fetch.TextBudget), compress.WithLogger(logger)),
		model,
		ingest.Config{
			SoftTimeout: cfg.Ingest.SoftTimeout,
			HardTimeout: cfg.Ingest.HardTimeout,
			StatusTTL:   cfg.Ingest.StatusTTL,
		},
		logger,
	)

	reconciler := ingest.NewReconciler(pgStore, redisCache, cfg.Ingest.StalePendingAfter, cfg.Ingest.StatusTTL, logger)
	go reconciler.Run(ctx, cfg.Ingest.ReconcileInterval)

	worker := queue.NewWorker(redisQueue, newHandler(svc), queue.WorkerConfig{
		Concurrency: cfg.Queue.Concurrency,
		HardTimeout: cfg.Ingest.HardTimeout,
		PollWait:    cfg.Queue.PollWait,
	}, logger)

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker: %w", err)
	}
	slog.Info("shutdown complete")
	return nil
}

func newHandler(in Ingester) queue.Handler {
	return func(ctx context.Context, task queue.Task) error {
		return in.Ingest(ctx, task.JobLoadingID, task.SourceURL)
	}
}

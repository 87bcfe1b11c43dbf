// Package main is the entrypoint for the jobloader API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/jobloader/internal/api"
	"github.com/kiranshivaraju/jobloader/internal/api/handler"
	mw "github.com/kiranshivaraju/jobloader/internal/api/middleware"
	"github.com/kiranshivaraju/jobloader/internal/cache"
	"github.com/kiranshivaraju/jobloader/internal/config"
	"github.com/kiranshivaraju/jobloader/internal/ingest"
	"github.com/kiranshivaraju/jobloader/internal/queue"
	"github.com/kiranshivaraju/jobloader/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// a local .env is optional; real environment variables win
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog := config.SetupLogger(cfg.Log)
	defer closeLog()
	slog.SetDefault(logger)
	slog.Info("config loaded", "env", cfg.Server.Env, "queue", cfg.Queue.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 3. Redis status cache and task queue
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	redisQueue, err := queue.NewRedisQueue(cfg.Redis.URL, cfg.Queue.Name)
	if err != nil {
		return fmt.Errorf("create redis queue: %w", err)
	}
	defer redisQueue.Close()

	// 4. Handlers
	pgStore := store.NewPostgresStore(pool)
	trigger := ingest.NewTrigger(pgStore, redisCache, redisQueue, cfg.Ingest.StatusTTL, logger)

	router := api.NewRouter(api.Dependencies{
		RateLimit: mw.NewRateLimit(redisCache, cfg.Server.RateLimitPerMinute),

		HealthHandler: handler.NewHealthHandler(map[string]handler.Pinger{
			"database": pgStore,
			"cache":    redisCache,
			"queue":    redisQueue,
		}),
		CreateJobLoading: handler.NewCreateJobLoadingHandler(trigger),
		ListJobLoadings:  handler.NewListJobLoadingsHandler(pgStore),
		GetJobLoading:    handler.NewGetJobLoadingHandler(pgStore),
		DeleteJobLoading: handler.NewDeleteJobLoadingHandler(pgStore, redisCache),
	})

	// 5. HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// Package cli provides the jobloadctl operator commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/jobloader/internal/cache"
	"github.com/kiranshivaraju/jobloader/internal/config"
	"github.com/kiranshivaraju/jobloader/internal/queue"
	"github.com/kiranshivaraju/jobloader/internal/store"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jobloadctl",
		Short: "Operate the jobloader ingestion pipeline",
		Long: `jobloadctl inspects and repairs job-loading records outside the API.

It reads the same environment as the server and worker.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFetchCmd(), newStatusCmd(), newEnqueueCmd(), newReconcileCmd())
	return root
}

// Execute runs the root command until it finishes or the process is signalled.
func Execute() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// backends holds the connections commands that touch stored state share.
type backends struct {
	cfg   *config.Config
	pool  *pgxpool.Pool
	store *store.PostgresStore
	cache *cache.RedisCache
	queue *queue.RedisQueue
}

func connect(ctx context.Context) (*backends, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	// stdout carries command output
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	b := &backends{cfg: cfg, pool: pool, store: store.NewPostgresStore(pool)}

	if b.cache, err = cache.NewRedisCache(cfg.Redis.URL); err != nil {
		b.Close()
		return nil, fmt.Errorf("create redis cache: %w", err)
	}
	if b.queue, err = queue.NewRedisQueue(cfg.Redis.URL, cfg.Queue.Name); err != nil {
		b.Close()
		return nil, fmt.Errorf("create redis queue: %w", err)
	}
	return b, nil
}

func (b *backends) Close() {
	if b.queue != nil {
		_ = b.queue.Close()
	}
	if b.cache != nil {
		_ = b.cache.Close()
	}
	b.pool.Close()
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/jobloader/internal/cache"
	"github.com/kiranshivaraju/jobloader/internal/store"
	"github.com/kiranshivaraju/jobloader/internal/telemetry"
	"github.com/kiranshivaraju/jobloader/pkg/models"
)

// Reconciler closes records that no attempt will ever finish: those whose
// hard deadline passed while still pending, and those that were never
// started at all.
type Reconciler struct {
	store      store.Store
	cache      cache.Cache
	staleAfter time.Duration
	statusTTL  time.Duration
	logger     *slog.Logger
}

func NewReconciler(st store.Store, ca cache.Cache, staleAfter, statusTTL time.Duration, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	if statusTTL <= 0 {
		statusTTL = 30 * time.Minute
	}
	return &Reconciler{store: st, cache: ca, staleAfter: staleAfter, statusTTL: statusTTL, logger: logger}
}

// Sweep marks every orphaned pending record as timed out and returns their ids.
// A record that reaches a terminal state during the sweep is left alone.
func (r *Reconciler) Sweep(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	orphans, err := r.store.ListOrphanedJobLoadings(ctx, now, now.Add(-r.staleAfter))
	if err != nil {
		return nil, err
	}

	var swept []uuid.UUID
	var errs []error
	for _, jl := range orphans {
		tel := jl.Telemetry
		tel.ErrorDetail += reconcileReason(jl, r.staleAfter) + "\n"
		if tel.TotalTime == nil && jl.StartedAt != nil {
			total := max(telemetry.Seconds(now.Sub(*jl.StartedAt)), 0)
			tel.TotalTime = &total
		}

		err := r.store.FailJobLoading(ctx, jl.ID, MsgTimeout, tel)
		if errors.Is(err, store.ErrInvalidTransition) || errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("reconcile %s: %w", jl.ID, err))
			continue
		}
		if err := r.cache.SetJobLoadingStatus(ctx, jl.ID, models.JobLoadingStatusError, r.statusTTL); err != nil {
			r.logger.Warn("failed to cache job loading status", "job_loading_id", jl.ID, "error", err)
		}
		r.logger.Warn("reconciled orphaned job loading", "job_loading_id", jl.ID, "source_url", jl.SourceURL)
		swept = append(swept, jl.ID)
	}
	return swept, errors.Join(errs...)
}

// Run sweeps every interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := r.Sweep(ctx, time.Now().UTC())
			if err != nil {
				r.logger.Error("reconciliation sweep failed", "error", err)
			}
			if len(swept) > 0 {
				r.logger.Info("reconciliation sweep finished", "swept", len(swept))
			}
		}
	}
}

func reconcileReason(jl *models.JobLoading, staleAfter time.Duration) string {
	if jl.DeadlineAt != nil {
		return fmt.Sprintf("reconciled: hard deadline %s passed without a terminal state",
			jl.DeadlineAt.UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf("reconciled: not started within %s of creation", staleAfter)
}

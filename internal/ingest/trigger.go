package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/jobloader/internal/cache"
	"github.com/kiranshivaraju/jobloader/internal/queue"
	"github.com/kiranshivaraju/jobloader/internal/store"
	"github.com/kiranshivaraju/jobloader/pkg/models"
)

// Requester identifies who asked for an ingestion.
type Requester struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
}

// Trigger creates job loadings and hands them to the workers.
type Trigger struct {
	store     store.Store
	cache     cache.Cache
	queue     queue.Queue
	statusTTL time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewTrigger creates a new Trigger. A nil logger means slog.Default().
func NewTrigger(st store.Store, ca cache.Cache, q queue.Queue, statusTTL time.Duration, logger *slog.Logger) *Trigger {
	if logger == nil {
		logger = slog.Default()
	}
	if statusTTL <= 0 {
		statusTTL = 30 * time.Minute
	}
	return &Trigger{store: st, cache: ca, queue: q, statusTTL: statusTTL, logger: logger, now: time.Now}
}

// Create stores a pending record for sourceURL and enqueues exactly one task
// for it. The record is returned without waiting for the ingestion. If the
// task cannot be queued the record is marked as error and ErrEnqueue is
// returned along with it.
func (t *Trigger) Create(ctx context.Context, req Requester, sourceURL string) (*models.JobLoading, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" || utf8.RuneCountInString(sourceURL) > models.MaxSourceURLLength {
		return nil, ErrInvalidSourceURL
	}

	now := t.now().UTC()
	jl := &models.JobLoading{
		ID:             uuid.New(),
		OrganizationID: req.OrganizationID,
		UserID:         req.UserID,
		SourceURL:      sourceURL,
		Status:         models.JobLoadingStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := t.store.CreateJobLoading(ctx, jl); err != nil {
		return nil, fmt.Errorf("creating job loading: %w", err)
	}

	log := t.logger.With("job_loading_id", jl.ID, "source_url", sourceURL)
	if err := t.cache.SetJobLoadingStatus(ctx, jl.ID, jl.Status, t.statusTTL); err != nil {
		log.Warn("failed to cache job loading status", "error", err)
	}

	err := t.queue.Enqueue(ctx, queue.Task{JobLoadingID: jl.ID, SourceURL: sourceURL, EnqueuedAt: now})
	if err == nil {
		log.Info("job loading queued")
		return jl, nil
	}

	log.Error("failed to enqueue job loading", "error", err)
	tel := models.Telemetry{ErrorDetail: err.Error() + "\n"}
	wctx := context.WithoutCancel(ctx)
	if ferr := t.store.FailJobLoading(wctx, jl.ID, MsgEnqueueFailed, tel); ferr != nil {
		log.Error("failed to mark unqueued job loading as error", "error", ferr)
	} else {
		_ = t.cache.SetJobLoadingStatus(wctx, jl.ID, models.JobLoadingStatusError, t.statusTTL)
	}
	jl.Status = models.JobLoadingStatusError
	jl.ErrorMessage = MsgEnqueueFailed
	jl.Telemetry = tel
	return jl, fmt.Errorf("%w: %v", ErrEnqueue, err)
}

// Requeue pushes another task for a record that never started, e.g. after a
// lost queue message. A record already claimed by a worker is skipped by it.
func (t *Trigger) Requeue(ctx context.Context, id uuid.UUID, sourceURL string) error {
	if id == uuid.Nil {
		return fmt.Errorf("job loading id is required")
	}
	if err := t.queue.Enqueue(ctx, queue.Task{JobLoadingID: id, SourceURL: sourceURL, EnqueuedAt: t.now().UTC()}); err != nil {
		return fmt.Errorf("%w: %v", ErrEnqueue, err)
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/jobloader/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// ErrInvalidTransition is returned when a write expects a pending (or not yet
// started) record and finds something else.
var ErrInvalidTransition = errors.New("invalid job loading status transition")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateJobLoading(ctx context.Context, jl *models.JobLoading) error
	GetJobLoading(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*models.JobLoading, error)
	ListJobLoadings(ctx context.Context, filter JobLoadingFilter) ([]*models.JobLoading, int, error)
	SoftDeleteJobLoading(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error

	// MarkJobLoadingStarted claims a pending, never-started record for one attempt.
	MarkJobLoadingStarted(ctx context.Context, id uuid.UUID, startedAt, deadline time.Time) error
	CompleteJobLoading(ctx context.Context, id uuid.UUID, posting models.JobPosting, tel models.Telemetry) error
	FailJobLoading(ctx context.Context, id uuid.UUID, message string, tel models.Telemetry) error

	// ListOrphanedJobLoadings returns pending records whose deadline passed before
	// now, or that were never started and were created before staleBefore.
	ListOrphanedJobLoadings(ctx context.Context, now, staleBefore time.Time) ([]*models.JobLoading, error)

	ListJobCategories(ctx context.Context) ([]*models.JobCategory, error)
}

type JobLoadingFilter struct {
	OrganizationID uuid.UUID
	Status         string
	Page           int
	Limit          int
}

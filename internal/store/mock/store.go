// Package mock provides an in-memory store.Store for tests.
package mock

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/jobloader/internal/store"
	"github.com/kiranshivaraju/jobloader/pkg/models"
)

// Store keeps job loadings in a map and applies the same state guards as
// PostgresStore. Set the *Err fields to make the matching call fail.
type Store struct {
	mu         sync.Mutex
	loadings   map[uuid.UUID]*models.JobLoading
	Categories []*models.JobCategory

	PingErr       error
	CreateErr     error
	MarkErr       error
	CompleteErr   error
	FailErr       error
	CategoriesErr error
	ListErr       error

	// CategoriesHook runs inside ListJobCategories, before it returns.
	CategoriesHook func(ctx context.Context)

	completeCalls int
	failCalls     int
}

func NewStore(categories ...string) *Store {
	s := &Store{loadings: make(map[uuid.UUID]*models.JobLoading)}
	now := time.Now().UTC()
	for _, name := range categories {
		s.Categories = append(s.Categories, &models.JobCategory{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now})
	}
	return s
}

func (s *Store) Ping(_ context.Context) error { return s.PingErr }

func (s *Store) CreateJobLoading(_ context.Context, jl *models.JobLoading) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loadings[jl.ID]; ok {
		return store.ErrDuplicateKey
	}
	if jl.Status == "" {
		jl.Status = models.JobLoadingStatusPending
	}
	cp := *jl
	s.loadings[jl.ID] = &cp
	return nil
}

// Put inserts or replaces a record without any checks.
func (s *Store) Put(jl *models.JobLoading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *jl
	s.loadings[jl.ID] = &cp
}

// Get returns a copy of the record regardless of organization or deletion.
func (s *Store) Get(id uuid.UUID) (*models.JobLoading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jl, ok := s.loadings[id]
	if !ok {
		return nil, false
	}
	cp := *jl
	return &cp, true
}

func (s *Store) GetJobLoading(_ context.Context, id uuid.UUID, orgID uuid.UUID) (*models.JobLoading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jl, ok := s.loadings[id]
	if !ok || jl.OrganizationID != orgID || jl.IsDeleted {
		return nil, store.ErrNotFound
	}
	cp := *jl
	return &cp, nil
}

func (s *Store) ListJobLoadings(_ context.Context, filter store.JobLoadingFilter) ([]*models.JobLoading, int, error) {
	if s.ListErr != nil {
		return nil, 0, s.ListErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []*models.JobLoading
	for _, jl := range s.loadings {
		if jl.OrganizationID != filter.OrganizationID || jl.IsDeleted {
			continue
		}
		if filter.Status != "" && jl.Status != filter.Status {
			continue
		}
		cp := *jl
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := max(filter.Page, 1)
	start := min((page-1)*limit, len(all))
	end := min(start+limit, len(all))
	return append([]*models.JobLoading{}, all[start:end]...), len(all), nil
}

func (s *Store) SoftDeleteJobLoading(_ context.Context, id uuid.UUID, orgID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	jl, ok := s.loadings[id]
	if !ok || jl.OrganizationID != orgID {
		return store.ErrNotFound
	}
	jl.IsDeleted = true
	return nil
}

func (s *Store) MarkJobLoadingStarted(_ context.Context, id uuid.UUID, startedAt, deadline time.Time) error {
	if s.MarkErr != nil {
		return s.MarkErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	jl, ok := s.loadings[id]
	if !ok {
		return store.ErrNotFound
	}
	if jl.Status != models.JobLoadingStatusPending || jl.StartedAt != nil {
		return fmt.Errorf("%w: %s -> started", store.ErrInvalidTransition, jl.Status)
	}
	jl.StartedAt = &startedAt
	jl.DeadlineAt = &deadline
	return nil
}

func (s *Store) CompleteJobLoading(_ context.Context, id uuid.UUID, posting models.JobPosting, tel models.Telemetry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completeCalls++
	if s.CompleteErr != nil {
		return s.CompleteErr
	}
	jl, err := s.pending(id, models.JobLoadingStatusCompleted)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	jl.Status = models.JobLoadingStatusCompleted
	jl.JobPosting = posting
	jl.Telemetry = cloneTelemetry(tel)
	jl.CompletedAt = &now
	return nil
}

func (s *Store) FailJobLoading(_ context.Context, id uuid.UUID, message string, tel models.Telemetry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCalls++
	if s.FailErr != nil {
		return s.FailErr
	}
	jl, err := s.pending(id, models.JobLoadingStatusError)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	jl.Status = models.JobLoadingStatusError
	jl.ErrorMessage = message
	jl.Telemetry = cloneTelemetry(tel)
	jl.CompletedAt = &now
	return nil
}

func (s *Store) pending(id uuid.UUID, target string) (*models.JobLoading, error) {
	jl, ok := s.loadings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if jl.Status != models.JobLoadingStatusPending {
		return nil, fmt.Errorf("%w: %s -> %s", store.ErrInvalidTransition, jl.Status, target)
	}
	return jl, nil
}

func (s *Store) ListOrphanedJobLoadings(_ context.Context, now, staleBefore time.Time) ([]*models.JobLoading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.JobLoading
	for _, jl := range s.loadings {
		if jl.Status != models.JobLoadingStatusPending {
			continue
		}
		expired := jl.DeadlineAt != nil && jl.DeadlineAt.Before(now)
		stale := jl.DeadlineAt == nil && jl.CreatedAt.Before(staleBefore)
		if expired || stale {
			cp := *jl
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListJobCategories(ctx context.Context) ([]*models.JobCategory, error) {
	if s.CategoriesHook != nil {
		s.CategoriesHook(ctx)
	}
	if s.CategoriesErr != nil {
		return nil, s.CategoriesErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.Categories), nil
}

// TerminalWrites returns how many Complete and Fail calls were made.
func (s *Store) TerminalWrites() (complete, fail int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completeCalls, s.failCalls
}

func cloneTelemetry(t models.Telemetry) models.Telemetry {
	t.HTMLProcessingNames = slices.Clone(t.HTMLProcessingNames)
	t.HTMLProcessingResults = slices.Clone(t.HTMLProcessingResults)
	return t
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

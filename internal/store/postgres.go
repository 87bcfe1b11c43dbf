package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/jobloader/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const postingColumns = `company_name, position, layer, employment_status, job_category_name, address,
	remote, benefit, holiday, working_hours, trial_period, min_salary, max_salary, salary,
	smoking_prevention_measure, min_qualifications, pfd_qualifications, ideal_profile, summary, other`

const telemetryColumns = `telemetry_fetch_method, telemetry_scraping_time, telemetry_html_processing_names,
	telemetry_html_processing_results, telemetry_gpt_time, telemetry_gpt_tokens_prompt,
	telemetry_gpt_tokens_completion, telemetry_error_detail, telemetry_total_time`

const jobLoadingColumns = `id, organization_id, user_id, source_url, status, error_message, is_deleted, ` +
	postingColumns + `, ` + telemetryColumns + `, started_at, deadline_at, completed_at, created_at, updated_at`

func scanJobLoading(row pgx.Row) (*models.JobLoading, error) {
	var j models.JobLoading
	p := &j.JobPosting
	t := &j.Telemetry
	err := row.Scan(&j.ID, &j.OrganizationID, &j.UserID, &j.SourceURL, &j.Status, &j.ErrorMessage, &j.IsDeleted,
		&p.CompanyName, &p.Position, &p.Layer, &p.EmploymentStatus, &p.JobCategoryName, &p.Address,
		&p.Remote, &p.Benefit, &p.Holiday, &p.WorkingHours, &p.TrialPeriod, &p.MinSalary, &p.MaxSalary, &p.Salary,
		&p.SmokingPreventionMeasure, &p.MinQualifications, &p.PfdQualifications, &p.IdealProfile, &p.Summary, &p.Other,
		&t.FetchMethod, &t.ScrapingTime, &t.HTMLProcessingNames, &t.HTMLProcessingResults, &t.GPTTime,
		&t.GPTTokensPrompt, &t.GPTTokensCompletion, &t.ErrorDetail, &t.TotalTime,
		&j.StartedAt, &j.DeadlineAt, &j.CompletedAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func telemetryArgs(t models.Telemetry) []any {
	names := t.HTMLProcessingNames
	if names == nil {
		names = []string{}
	}
	results := t.HTMLProcessingResults
	if results == nil {
		results = []int{}
	}
	return []any{t.FetchMethod, t.ScrapingTime, names, results, t.GPTTime,
		t.GPTTokensPrompt, t.GPTTokensCompletion, t.ErrorDetail, t.TotalTime}
}

// --- Job loadings ---

func (s *PostgresStore) CreateJobLoading(ctx context.Context, jl *models.JobLoading) error {
	if jl.Status == "" {
		jl.Status = models.JobLoadingStatusPending
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_loadings (id, organization_id, user_id, source_url, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		jl.ID, jl.OrganizationID, jl.UserID, jl.SourceURL, jl.Status, jl.CreatedAt, jl.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job loading: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJobLoading(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*models.JobLoading, error) {
	j, err := scanJobLoading(s.pool.QueryRow(ctx,
		`SELECT `+jobLoadingColumns+`
		 FROM job_loadings WHERE id = $1 AND organization_id = $2 AND is_deleted = FALSE`, id, orgID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job loading: %w", err)
	}
	return j, nil
}

func (s *PostgresStore) ListJobLoadings(ctx context.Context, filter JobLoadingFilter) ([]*models.JobLoading, int, error) {
	conditions := []string{"organization_id = $1", "is_deleted = FALSE"}
	args := []any{filter.OrganizationID}
	argIdx := 2

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM job_loadings WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count job loadings: %w", err)
	}

	// Normalize pagination
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	dataQuery := fmt.Sprintf(
		`SELECT %s FROM job_loadings WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		jobLoadingColumns, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list job loadings: %w", err)
	}
	defer rows.Close()

	loadings := []*models.JobLoading{}
	for rows.Next() {
		j, err := scanJobLoading(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan job loading: %w", err)
		}
		loadings = append(loadings, j)
	}
	return loadings, total, rows.Err()
}

// SoftDeleteJobLoading hides the record from reads. Deleting twice is not an
// error; an unknown id or another organization's record is ErrNotFound.
func (s *PostgresStore) SoftDeleteJobLoading(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE job_loadings SET is_deleted = TRUE, updated_at = NOW()
		 WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("soft delete job loading: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkJobLoadingStarted(ctx context.Context, id uuid.UUID, startedAt, deadline time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE job_loadings SET started_at = $2, deadline_at = $3, updated_at = NOW()
		 WHERE id = $1 AND status = 'pending' AND started_at IS NULL`, id, startedAt, deadline)
	if err != nil {
		return fmt.Errorf("mark job loading started: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionError(ctx, id, "started")
	}
	return nil
}

func (s *PostgresStore) CompleteJobLoading(ctx context.Context, id uuid.UUID, posting models.JobPosting, tel models.Telemetry) error {
	p := posting
	args := []any{id, models.JobLoadingStatusCompleted,
		p.CompanyName, p.Position, p.Layer, p.EmploymentStatus, p.JobCategoryName, p.Address,
		p.Remote, p.Benefit, p.Holiday, p.WorkingHours, p.TrialPeriod, p.MinSalary, p.MaxSalary, p.Salary,
		p.SmokingPreventionMeasure, p.MinQualifications, p.PfdQualifications, p.IdealProfile, p.Summary, p.Other}
	args = append(args, telemetryArgs(tel)...)

	tag, err := s.pool.Exec(ctx,
		`UPDATE job_loadings SET status = $2,
		   company_name = $3, position = $4, layer = $5, employment_status = $6, job_category_name = $7,
		   address = $8, remote = $9, benefit = $10, holiday = $11, working_hours = $12, trial_period = $13,
		   min_salary = $14, max_salary = $15, salary = $16, smoking_prevention_measure = $17,
		   min_qualifications = $18, pfd_qualifications = $19, ideal_profile = $20, summary = $21, other = $22,
		   telemetry_fetch_method = $23, telemetry_scraping_time = $24, telemetry_html_processing_names = $25,
		   telemetry_html_processing_results = $26, telemetry_gpt_time = $27, telemetry_gpt_tokens_prompt = $28,
		   telemetry_gpt_tokens_completion = $29, telemetry_error_detail = $30, telemetry_total_time = $31,
		   completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND status = 'pending'`, args...)
	if err != nil {
		return fmt.Errorf("complete job loading: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionError(ctx, id, models.JobLoadingStatusCompleted)
	}
	return nil
}

func (s *PostgresStore) FailJobLoading(ctx context.Context, id uuid.UUID, message string, tel models.Telemetry) error {
	args := append([]any{id, models.JobLoadingStatusError, message}, telemetryArgs(tel)...)

	tag, err := s.pool.Exec(ctx,
		`UPDATE job_loadings SET status = $2, error_message = $3,
		   telemetry_fetch_method = $4, telemetry_scraping_time = $5, telemetry_html_processing_names = $6,
		   telemetry_html_processing_results = $7, telemetry_gpt_time = $8, telemetry_gpt_tokens_prompt = $9,
		   telemetry_gpt_tokens_completion = $10, telemetry_error_detail = $11, telemetry_total_time = $12,
		   completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND status = 'pending'`, args...)
	if err != nil {
		return fmt.Errorf("fail job loading: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionError(ctx, id, models.JobLoadingStatusError)
	}
	return nil
}

// transitionError tells a missing record apart from one in the wrong state
// after a guarded UPDATE matched nothing.
func (s *PostgresStore) transitionError(ctx context.Context, id uuid.UUID, target string) error {
	var current string
	err := s.pool.QueryRow(ctx, `SELECT status FROM job_loadings WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get job loading status: %w", err)
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
}

func (s *PostgresStore) ListOrphanedJobLoadings(ctx context.Context, now, staleBefore time.Time) ([]*models.JobLoading, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobLoadingColumns+`
		 FROM job_loadings
		 WHERE status = 'pending'
		   AND ((deadline_at IS NOT NULL AND deadline_at < $1)
		     OR (deadline_at IS NULL AND created_at < $2))
		 ORDER BY created_at`, now, staleBefore)
	if err != nil {
		return nil, fmt.Errorf("list orphaned job loadings: %w", err)
	}
	defer rows.Close()

	var loadings []*models.JobLoading
	for rows.Next() {
		j, err := scanJobLoading(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job loading: %w", err)
		}
		loadings = append(loadings, j)
	}
	return loadings, rows.Err()
}

// --- Job categories ---

func (s *PostgresStore) ListJobCategories(ctx context.Context) ([]*models.JobCategory, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM job_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list job categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.JobCategory
	for rows.Next() {
		var c models.JobCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan job category: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

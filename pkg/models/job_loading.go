package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobLoadingStatusPending   = "pending"
	JobLoadingStatusCompleted = "completed"
	JobLoadingStatusError     = "error"
)

// MaxSourceURLLength is the column width of job_loadings.source_url.
const MaxSourceURLLength = 500

// JobLoading is one ingestion attempt of a job-posting URL. It is created pending by
// POST /api/v1/job-loadings; the worker moves it to completed or error exactly once.
type JobLoading struct {
	ID             uuid.UUID `db:"id"              json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	UserID         uuid.UUID `db:"user_id"         json:"user_id"`
	SourceURL      string    `db:"source_url"      json:"source_url"`
	Status         string    `db:"status"          json:"status"`
	ErrorMessage   string    `db:"error_message"   json:"error_message"`
	IsDeleted      bool      `db:"is_deleted"      json:"-"`

	JobPosting
	Telemetry Telemetry `json:"telemetry"`

	StartedAt   *time.Time `db:"started_at"   json:"started_at,omitempty"`
	DeadlineAt  *time.Time `db:"deadline_at"  json:"deadline_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"   json:"updated_at"`
}

// IsTerminal reports whether the record has left the pending state.
func (j *JobLoading) IsTerminal() bool {
	return j.Status == JobLoadingStatusCompleted || j.Status == JobLoadingStatusError
}

// Telemetry is the per-attempt metrics block persisted in the telemetry_* columns.
// Nil pointers are stored as NULL.
type Telemetry struct {
	FetchMethod           string   `db:"telemetry_fetch_method"            json:"fetch_method"`
	ScrapingTime          *int     `db:"telemetry_scraping_time"           json:"scraping_time"`
	HTMLProcessingNames   []string `db:"telemetry_html_processing_names"   json:"html_processing_names"`
	HTMLProcessingResults []int    `db:"telemetry_html_processing_results" json:"html_processing_results"`
	GPTTime               *int     `db:"telemetry_gpt_time"                json:"gpt_time"`
	GPTTokensPrompt       *int     `db:"telemetry_gpt_tokens_prompt"       json:"gpt_tokens_prompt"`
	GPTTokensCompletion   *int     `db:"telemetry_gpt_tokens_completion"   json:"gpt_tokens_completion"`
	ErrorDetail           string   `db:"telemetry_error_detail"            json:"error_detail"`
	TotalTime             *int     `db:"telemetry_total_time"              json:"total_time"`
}

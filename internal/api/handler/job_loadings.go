package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/jobloader/internal/api/middleware"
	"github.com/kiranshivaraju/jobloader/internal/api/response"
	"github.com/kiranshivaraju/jobloader/internal/ingest"
	"github.com/kiranshivaraju/jobloader/internal/store"
	"github.com/kiranshivaraju/jobloader/pkg/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// JobLoadingCreator starts an ingestion. *ingest.Trigger implements it.
type JobLoadingCreator interface {
	Create(ctx context.Context, req ingest.Requester, sourceURL string) (*models.JobLoading, error)
}

// JobLoadingReader is the part of store.Store the read handlers need.
type JobLoadingReader interface {
	GetJobLoading(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*models.JobLoading, error)
	ListJobLoadings(ctx context.Context, filter store.JobLoadingFilter) ([]*models.JobLoading, int, error)
}

// JobLoadingDeleter is the part of store.Store the delete handler needs.
type JobLoadingDeleter interface {
	SoftDeleteJobLoading(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error
}

// StatusInvalidator drops a cached job-loading status.
type StatusInvalidator interface {
	DeleteJobLoadingStatus(ctx context.Context, id uuid.UUID) error
}

// NewCreateJobLoadingHandler returns an http.HandlerFunc for POST /api/v1/job-loadings.
func NewCreateJobLoadingHandler(creator JobLoadingCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, ok := mw.GetOrganizationID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "MISSING_REQUESTER", "Missing requester", nil)
			return
		}
		userID, _ := mw.GetUserID(r)

		var req struct {
			SourceURL string `json:"source_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		sourceURL := strings.TrimSpace(req.SourceURL)
		if sourceURL == "" {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "source_url is required",
				map[string][]string{"source_url": {"source_url is required"}})
			return
		}
		if utf8.RuneCountInString(sourceURL) > models.MaxSourceURLLength {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "source_url is too long",
				map[string][]string{"source_url": {"source_url must be at most 500 characters"}})
			return
		}

		jl, err := creator.Create(r.Context(), ingest.Requester{OrganizationID: orgID, UserID: userID}, sourceURL)
		if err != nil {
			switch {
			case errors.Is(err, ingest.ErrInvalidSourceURL):
				response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			case errors.Is(err, ingest.ErrEnqueue):
				var details any
				if jl != nil {
					details = map[string]string{"id": jl.ID.String(), "status": jl.Status}
				}
				response.Error(w, http.StatusServiceUnavailable, "ENQUEUE_FAILED", ingest.MsgEnqueueFailed, details)
			default:
				slog.Error("failed to create job loading", "organization_id", orgID, "error", err)
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.Created(w, jl)
	}
}

// NewListJobLoadingsHandler returns an http.HandlerFunc for GET /api/v1/job-loadings.
func NewListJobLoadingsHandler(st JobLoadingReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, ok := mw.GetOrganizationID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "MISSING_REQUESTER", "Missing requester", nil)
			return
		}

		q := r.URL.Query()
		page, err := queryInt(q.Get("page"), 1)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "page must be an integer", nil)
			return
		}
		limit, err := queryInt(q.Get("limit"), defaultPageLimit)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be an integer", nil)
			return
		}
		page = max(page, 1)
		if limit <= 0 {
			limit = defaultPageLimit
		}
		limit = min(limit, maxPageLimit)

		status := q.Get("status")
		switch status {
		case "", models.JobLoadingStatusPending, models.JobLoadingStatusCompleted, models.JobLoadingStatusError:
		default:
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"status must be one of pending, completed, error", nil)
			return
		}

		items, total, err := st.ListJobLoadings(r.Context(), store.JobLoadingFilter{
			OrganizationID: orgID,
			Status:         status,
			Page:           page,
			Limit:          limit,
		})
		if err != nil {
			slog.Error("failed to list job loadings", "organization_id", orgID, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.Collection(w, items, response.NewPaginationMeta(page, limit, total))
	}
}

// NewGetJobLoadingHandler returns an http.HandlerFunc for GET /api/v1/job-loadings/{jobLoadingID}.
func NewGetJobLoadingHandler(st JobLoadingReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, id, ok := scopedID(w, r)
		if !ok {
			return
		}

		jl, err := st.GetJobLoading(r.Context(), id, orgID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Job loading not found", nil)
			return
		}
		if err != nil {
			slog.Error("failed to get job loading", "job_loading_id", id, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, jl)
	}
}

// NewDeleteJobLoadingHandler returns an http.HandlerFunc for DELETE
// /api/v1/job-loadings/{jobLoadingID}. Deleting twice is not an error.
func NewDeleteJobLoadingHandler(st JobLoadingDeleter, statuses StatusInvalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, id, ok := scopedID(w, r)
		if !ok {
			return
		}

		err := st.SoftDeleteJobLoading(r.Context(), id, orgID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Job loading not found", nil)
			return
		}
		if err != nil {
			slog.Error("failed to delete job loading", "job_loading_id", id, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		if err := statuses.DeleteJobLoadingStatus(r.Context(), id); err != nil {
			slog.Warn("failed to drop cached job loading status", "job_loading_id", id, "error", err)
		}
		response.NoContent(w)
	}
}

func scopedID(w http.ResponseWriter, r *http.Request) (orgID, id uuid.UUID, ok bool) {
	orgID, ok = mw.GetOrganizationID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "MISSING_REQUESTER", "Missing requester", nil)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "jobLoadingID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid job loading ID", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return orgID, id, true
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

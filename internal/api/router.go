// Package api exposes the job-loading trigger and read endpoints over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/jobloader/internal/api/middleware"
	"github.com/kiranshivaraju/jobloader/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler    http.HandlerFunc
	CreateJobLoading http.HandlerFunc
	ListJobLoadings  http.HandlerFunc
	GetJobLoading    http.HandlerFunc
	DeleteJobLoading http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Identity is asserted by the gateway in front of this service.
	r.Group(func(r chi.Router) {
		r.Use(mw.Requester)
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Route("/api/v1/job-loadings", func(r chi.Router) {
			r.Post("/", orNotImplemented(deps.CreateJobLoading))
			r.Get("/", orNotImplemented(deps.ListJobLoadings))
			r.Get("/{jobLoadingID}", orNotImplemented(deps.GetJobLoading))
			r.Delete("/{jobLoadingID}", orNotImplemented(deps.DeleteJobLoading))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}

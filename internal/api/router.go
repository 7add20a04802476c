package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/medleyhq/medley/internal/api/middleware"
	"github.com/medleyhq/medley/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler       http.HandlerFunc
	UploadHandler       http.HandlerFunc
	UploadStatusHandler http.HandlerFunc
	JobStatusHandler    http.HandlerFunc
	SequenceHandler     http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Identity-scoped routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Identity)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/uploads", orNotImplemented(deps.UploadHandler))
		r.Get("/api/v1/uploads/{uploadID}", orNotImplemented(deps.UploadStatusHandler))
		r.Get("/api/v1/jobs/{jobID}", orNotImplemented(deps.JobStatusHandler))

		r.Post("/api/v1/sequences", orNotImplemented(deps.SequenceHandler))
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

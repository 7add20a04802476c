package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medleyhq/medley/internal/api/response"
	"github.com/medleyhq/medley/internal/cache"
	"github.com/medleyhq/medley/internal/store"
	"github.com/medleyhq/medley/pkg/models"
)

// UploadStatusProvider defines the store surface the status handler uses.
type UploadStatusProvider interface {
	GetUpload(ctx context.Context, id uuid.UUID) (*models.ClipUpload, error)
	GetLatestJobForUpload(ctx context.Context, uploadID uuid.UUID) (*models.ProcessingJob, error)
}

type uploadStatusResponse struct {
	Upload *models.ClipUpload    `json:"upload"`
	Job    *models.ProcessingJob `json:"job,omitempty"`
}

// NewUploadStatusHandler returns an http.HandlerFunc for
// GET /api/v1/uploads/{uploadID}. It reports the upload record and its most
// recent processing job. Reads never mutate state.
func NewUploadStatusHandler(st UploadStatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "uploadID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "uploadID must be a valid UUID", nil)
			return
		}

		upload, err := st.GetUpload(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound,
				"NOT_FOUND", "Upload not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to load upload", nil)
			return
		}

		job, err := st.GetLatestJobForUpload(r.Context(), id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to load job", nil)
			return
		}

		response.JSON(w, uploadStatusResponse{Upload: upload, Job: job})
	}
}

// JobGetter defines the store surface the job poll handler uses.
type JobGetter interface {
	GetJob(ctx context.Context, id uuid.UUID) (*models.ProcessingJob, error)
}

type jobStatusResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// jobStatusCacheTTL matches the worker's published-status lifetime.
const jobStatusCacheTTL = 10 * time.Minute

// NewJobStatusHandler returns an http.HandlerFunc for
// GET /api/v1/jobs/{jobID}: a lightweight status poll answered from the
// cache when the worker has published a status, falling back to the store.
func NewJobStatusHandler(ca cache.Cache, st JobGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "jobID must be a valid UUID", nil)
			return
		}

		if status, ok, err := ca.GetJobStatus(r.Context(), id); err == nil && ok {
			response.JSON(w, jobStatusResponse{ID: id, Status: status})
			return
		}

		job, err := st.GetJob(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound,
				"NOT_FOUND", "Job not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to load job", nil)
			return
		}

		// Best effort; a cache miss on the next poll just hits the store again.
		ca.SetJobStatus(r.Context(), id, job.Status, jobStatusCacheTTL)

		response.JSON(w, jobStatusResponse{ID: job.ID, Status: job.Status})
	}
}

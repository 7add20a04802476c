package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// ProcessingJob is one attempt (with bounded retries) to derive catalog
// metadata from an upload. The API returns a job_id on POST /api/v1/uploads;
// the client polls GET /api/v1/jobs/{job_id} until status is completed or
// failed. Seq preserves insertion order so the worker always claims the
// oldest pending job first.
type ProcessingJob struct {
	ID           uuid.UUID `db:"id"         json:"id"`
	Seq          int64     `db:"seq"        json:"-"`
	UploadID     uuid.UUID `db:"upload_id"  json:"upload_id"`
	Status       string    `db:"status"     json:"status"`
	Retries      int       `db:"retries"    json:"retries"`
	ErrorMessage *string   `db:"error"      json:"error,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

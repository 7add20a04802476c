package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/medleyhq/medley/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// ErrNoPendingJobs is returned by ClaimNextPendingJob when the queue is empty.
var ErrNoPendingJobs = errors.New("no pending jobs")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateUpload(ctx context.Context, upload *models.ClipUpload) error
	GetUpload(ctx context.Context, id uuid.UUID) (*models.ClipUpload, error)
	SetUploadDuration(ctx context.Context, id uuid.UUID, seconds int) error

	EnqueueJob(ctx context.Context, uploadID uuid.UUID) (*models.ProcessingJob, error)
	GetJob(ctx context.Context, id uuid.UUID) (*models.ProcessingJob, error)
	GetLatestJobForUpload(ctx context.Context, uploadID uuid.UUID) (*models.ProcessingJob, error)

	// ClaimNextPendingJob atomically transitions the oldest pending job to
	// processing and returns it. The claim is guarded by the current status,
	// so concurrent workers can never double-claim a job.
	ClaimNextPendingJob(ctx context.Context) (*models.ProcessingJob, error)
	CompleteJob(ctx context.Context, id uuid.UUID) error
	// RequeueJob records a transient failure: the job goes back to pending
	// with the incremented retry count and the error message persisted.
	RequeueJob(ctx context.Context, id uuid.UUID, retries int, errMsg string) error
	// FailJob is terminal; retries and the error message are persisted.
	FailJob(ctx context.Context, id uuid.UUID, retries int, errMsg string) error
	// ReclaimStaleJobs moves jobs stuck in processing longer than olderThan
	// back to pending. Retry counts are left untouched.
	ReclaimStaleJobs(ctx context.Context, olderThan time.Duration) (int64, error)

	UpsertClip(ctx context.Context, clip *models.Clip) (*models.Clip, error)
	ListClipCandidates(ctx context.Context, language string, maxLevel int) ([]*ClipCandidate, error)
}

// ClipCandidate is a catalog clip joined to its upload's storage location,
// as consumed by the sequence assembler.
type ClipCandidate struct {
	ClipID   uuid.UUID
	UserID   string
	Filename string
	Duration int
}

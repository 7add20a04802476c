// Package worker runs the background job pipeline: it polls the queue,
// probes stored media, and resolves each job to a terminal or retry state.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medleyhq/medley/internal/cache"
	"github.com/medleyhq/medley/internal/config"
	"github.com/medleyhq/medley/internal/probe"
	"github.com/medleyhq/medley/internal/store"
	"github.com/medleyhq/medley/pkg/models"
)

// cachedStatusTTL bounds how long a published job status lives in the cache.
// The store remains the source of truth; the cache only absorbs poll traffic.
const cachedStatusTTL = 10 * time.Minute

// Worker is a single-threaded polling loop. At most one job is claimed and
// processed per tick; the claim itself is a status-guarded update in the
// store, so running multiple workers is safe.
type Worker struct {
	store       store.Store
	cache       cache.Cache
	prober      probe.Prober
	storageRoot string
	cfg         config.WorkerConfig
}

// New creates a Worker. storageRoot is the durable uploads root shared with
// the intake service.
func New(st store.Store, c cache.Cache, p probe.Prober, storageRoot string, cfg config.WorkerConfig) *Worker {
	return &Worker{
		store:       st,
		cache:       c,
		prober:      p,
		storageRoot: storageRoot,
		cfg:         cfg,
	}
}

// Run polls the queue at the configured interval until ctx is cancelled.
// Jobs stuck in processing longer than the stale timeout (for example after
// a crash mid-job) are periodically reclaimed as pending.
func (w *Worker) Run(ctx context.Context) error {
	slog.Info("worker started",
		"poll_interval", w.cfg.PollInterval,
		"max_retries", w.cfg.MaxRetries,
		"stale_timeout", w.cfg.StaleTimeout,
	)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	reclaimTicker := time.NewTicker(w.cfg.StaleTimeout)
	defer reclaimTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped")
			return nil
		case <-reclaimTicker.C:
			w.reclaimStale(ctx)
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick claims and processes at most one pending job. An empty queue is a
// no-op. No job failure is fatal to the loop.
func (w *Worker) Tick(ctx context.Context) {
	job, err := w.store.ClaimNextPendingJob(ctx)
	if errors.Is(err, store.ErrNoPendingJobs) {
		return
	}
	if err != nil {
		slog.Error("claim pending job", "error", err)
		return
	}

	w.publishStatus(ctx, job.ID, models.JobStatusProcessing)

	if err := w.process(ctx, job); err != nil {
		w.resolveFailure(ctx, job, err)
		return
	}

	if err := w.store.CompleteJob(ctx, job.ID); err != nil {
		slog.Error("complete job", "job_id", job.ID, "error", err)
		return
	}
	w.publishStatus(ctx, job.ID, models.JobStatusCompleted)
	slog.Info("job completed", "job_id", job.ID, "upload_id", job.UploadID)
}

// process probes the stored file and writes the derived catalog state. Any
// error is treated as a transient failure and resolved by the caller.
func (w *Worker) process(ctx context.Context, job *models.ProcessingJob) error {
	upload, err := w.store.GetUpload(ctx, job.UploadID)
	if err != nil {
		return fmt.Errorf("resolve upload %s: %w", job.UploadID, err)
	}

	mediaPath := filepath.Join(w.storageRoot, upload.UserID, upload.Filename)

	probeCtx, cancel := context.WithTimeout(ctx, w.cfg.ProbeTimeout)
	defer cancel()
	meta, err := w.prober.Probe(probeCtx, mediaPath)
	if err != nil {
		return fmt.Errorf("probe %s: %w", upload.Filename, err)
	}
	duration := int(math.Round(meta.DurationSeconds))

	if err := w.store.SetUploadDuration(ctx, job.UploadID, duration); err != nil {
		return fmt.Errorf("record duration: %w", err)
	}

	// Level, voice and type are placeholders until a classification
	// collaborator exists.
	if _, err := w.store.UpsertClip(ctx, &models.Clip{
		ID:       uuid.New(),
		UploadID: job.UploadID,
		Language: upload.Language,
		Level:    models.DefaultClipLevel,
		Voice:    models.DefaultClipVoice,
		Duration: duration,
		Type:     models.DefaultClipType,
	}); err != nil {
		return fmt.Errorf("catalog clip: %w", err)
	}

	if err := writeSubtitlePlaceholder(mediaPath); err != nil {
		return fmt.Errorf("write subtitle placeholder: %w", err)
	}

	return nil
}

// resolveFailure increments the retry count and either requeues the job or,
// at the cap, fails it permanently. The error message is persisted either way.
func (w *Worker) resolveFailure(ctx context.Context, job *models.ProcessingJob, procErr error) {
	retries := job.Retries + 1
	msg := procErr.Error()

	if retries >= w.cfg.MaxRetries {
		if err := w.store.FailJob(ctx, job.ID, retries, msg); err != nil {
			slog.Error("fail job", "job_id", job.ID, "error", err)
			return
		}
		w.publishStatus(ctx, job.ID, models.JobStatusFailed)
		slog.Error("job failed permanently",
			"job_id", job.ID, "upload_id", job.UploadID, "retries", retries, "error", msg)
		return
	}

	if err := w.store.RequeueJob(ctx, job.ID, retries, msg); err != nil {
		slog.Error("requeue job", "job_id", job.ID, "error", err)
		return
	}
	w.publishStatus(ctx, job.ID, models.JobStatusPending)
	slog.Warn("job requeued",
		"job_id", job.ID, "upload_id", job.UploadID, "retries", retries, "error", msg)
}

func (w *Worker) reclaimStale(ctx context.Context) {
	n, err := w.store.ReclaimStaleJobs(ctx, w.cfg.StaleTimeout)
	if err != nil {
		slog.Error("reclaim stale jobs", "error", err)
		return
	}
	if n > 0 {
		slog.Warn("reclaimed stale processing jobs", "count", n)
	}
}

// publishStatus mirrors the job status into the cache for cheap polling.
// Cache failures are logged and ignored; the store stays authoritative.
func (w *Worker) publishStatus(ctx context.Context, jobID uuid.UUID, status string) {
	if err := w.cache.SetJobStatus(ctx, jobID, status, cachedStatusTTL); err != nil {
		slog.Warn("publish job status", "job_id", jobID, "error", err)
	}
}

// writeSubtitlePlaceholder writes an empty-but-valid WebVTT container next
// to the media file, sharing its base name. No transcription happens here.
func writeSubtitlePlaceholder(mediaPath string) error {
	vttPath := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + ".vtt"
	return os.WriteFile(vttPath, []byte("WEBVTT\n\n"), 0o644)
}

// Package intake accepts raw audio uploads, moves them into durable
// per-user storage, and enqueues a processing job for each accepted file.
package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medleyhq/medley/internal/config"
	"github.com/medleyhq/medley/internal/store"
	"github.com/medleyhq/medley/pkg/models"
)

var ErrUnsupportedMediaType = errors.New("declared media type is not audio")

const (
	DefaultUserID   = "anonymous"
	DefaultLanguage = "unknown"
)

// Service owns the upload intake flow.
type Service struct {
	store   store.Store
	root    string
	tempDir string
}

// Result identifies the accepted upload and its queued processing job.
type Result struct {
	UploadID uuid.UUID `json:"upload_id"`
	JobID    uuid.UUID `json:"job_id"`
}

// NewService creates an intake service writing under cfg.Root and staging
// uploads in cfg.TempDir.
func NewService(st store.Store, cfg config.StorageConfig) *Service {
	return &Service{store: st, root: cfg.Root, tempDir: cfg.TempDir}
}

// Accept validates the declared media type, streams src into durable
// per-user storage, records the upload, and enqueues exactly one pending
// processing job. The file is staged in the scratch directory and moved
// into place with a rename, so the worker never sees a partial write.
// Processing happens asynchronously; Accept does not wait for it.
func (s *Service) Accept(ctx context.Context, userID, language, originalName, contentType string, src io.Reader) (*Result, error) {
	if !strings.HasPrefix(contentType, "audio/") {
		return nil, ErrUnsupportedMediaType
	}
	if userID == "" {
		userID = DefaultUserID
	}
	if language == "" {
		language = DefaultLanguage
	}

	filename := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))

	tmpPath, err := s.stage(src)
	if err != nil {
		return nil, err
	}

	userDir := filepath.Join(s.root, userID)
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("create user directory: %w", err)
	}

	destPath := filepath.Join(userDir, filename)
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("move upload into storage: %w", err)
	}

	upload := &models.ClipUpload{
		ID:           uuid.New(),
		UserID:       userID,
		Filename:     filename,
		OriginalName: originalName,
		Language:     language,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUpload(ctx, upload); err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("record upload: %w", err)
	}

	job, err := s.store.EnqueueJob(ctx, upload.ID)
	if err != nil {
		return nil, fmt.Errorf("enqueue processing job: %w", err)
	}

	return &Result{UploadID: upload.ID, JobID: job.ID}, nil
}

// stage writes src to a temporary file in the scratch directory and returns
// its path. The scratch directory lives on the same filesystem as the
// uploads root so the later rename is atomic.
func (s *Service) stage(src io.Reader) (string, error) {
	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.tempDir, "upload-*")
	if err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("flush upload: %w", err)
	}

	return tmp.Name(), nil
}

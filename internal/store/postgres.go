package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medleyhq/medley/pkg/models"
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

// --- Uploads ---

func (s *PostgresStore) CreateUpload(ctx context.Context, upload *models.ClipUpload) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO clip_uploads (id, user_id, filename, originalname, language, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		upload.ID, upload.UserID, upload.Filename, upload.OriginalName, upload.Language, upload.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create upload: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUpload(ctx context.Context, id uuid.UUID) (*models.ClipUpload, error) {
	var u models.ClipUpload
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, filename, originalname, duration, language, created_at
		 FROM clip_uploads WHERE id = $1`, id,
	).Scan(&u.ID, &u.UserID, &u.Filename, &u.OriginalName, &u.Duration, &u.Language, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) SetUploadDuration(ctx context.Context, id uuid.UUID, seconds int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE clip_uploads SET duration = $2 WHERE id = $1`, id, seconds)
	if err != nil {
		return fmt.Errorf("set upload duration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Jobs ---

func (s *PostgresStore) EnqueueJob(ctx context.Context, uploadID uuid.UUID) (*models.ProcessingJob, error) {
	var j models.ProcessingJob
	err := s.pool.QueryRow(ctx,
		`INSERT INTO processing_jobs (id, upload_id, status)
		 VALUES ($1, $2, 'pending')
		 RETURNING id, seq, upload_id, status, retries, error, created_at, updated_at`,
		uuid.New(), uploadID,
	).Scan(&j.ID, &j.Seq, &j.UploadID, &j.Status, &j.Retries, &j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	return &j, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.ProcessingJob, error) {
	var j models.ProcessingJob
	err := s.pool.QueryRow(ctx,
		`SELECT id, seq, upload_id, status, retries, error, created_at, updated_at
		 FROM processing_jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.Seq, &j.UploadID, &j.Status, &j.Retries, &j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &j, nil
}

func (s *PostgresStore) GetLatestJobForUpload(ctx context.Context, uploadID uuid.UUID) (*models.ProcessingJob, error) {
	var j models.ProcessingJob
	err := s.pool.QueryRow(ctx,
		`SELECT id, seq, upload_id, status, retries, error, created_at, updated_at
		 FROM processing_jobs WHERE upload_id = $1 ORDER BY seq DESC LIMIT 1`, uploadID,
	).Scan(&j.ID, &j.Seq, &j.UploadID, &j.Status, &j.Retries, &j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest job for upload: %w", err)
	}
	return &j, nil
}

func (s *PostgresStore) ClaimNextPendingJob(ctx context.Context) (*models.ProcessingJob, error) {
	var j models.ProcessingJob
	err := s.pool.QueryRow(ctx,
		`UPDATE processing_jobs SET status = 'processing', updated_at = NOW()
		 WHERE id = (
		   SELECT id FROM processing_jobs WHERE status = 'pending'
		   ORDER BY seq LIMIT 1
		   FOR UPDATE SKIP LOCKED
		 ) AND status = 'pending'
		 RETURNING id, seq, upload_id, status, retries, error, created_at, updated_at`,
	).Scan(&j.ID, &j.Seq, &j.UploadID, &j.Status, &j.Retries, &j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoPendingJobs
	}
	if err != nil {
		return nil, fmt.Errorf("claim next pending job: %w", err)
	}
	return &j, nil
}

func (s *PostgresStore) CompleteJob(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE processing_jobs SET status = 'completed', updated_at = NOW()
		 WHERE id = $1 AND status = 'processing'`, id)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RequeueJob(ctx context.Context, id uuid.UUID, retries int, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE processing_jobs SET status = 'pending', retries = $2, error = $3, updated_at = NOW()
		 WHERE id = $1 AND status = 'processing'`, id, retries, errMsg)
	if err != nil {
		return fmt.Errorf("requeue job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FailJob(ctx context.Context, id uuid.UUID, retries int, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE processing_jobs SET status = 'failed', retries = $2, error = $3, updated_at = NOW()
		 WHERE id = $1 AND status = 'processing'`, id, retries, errMsg)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ReclaimStaleJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	tag, err := s.pool.Exec(ctx,
		`UPDATE processing_jobs SET status = 'pending', updated_at = NOW()
		 WHERE status = 'processing' AND updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- Clips ---

func (s *PostgresStore) UpsertClip(ctx context.Context, clip *models.Clip) (*models.Clip, error) {
	var result models.Clip
	err := s.pool.QueryRow(ctx,
		`INSERT INTO clips (id, upload_id, language, level, voice, duration, type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (upload_id) DO UPDATE SET
		   duration = EXCLUDED.duration,
		   language = EXCLUDED.language
		 RETURNING id, upload_id, language, level, voice, duration, type`,
		clip.ID, clip.UploadID, clip.Language, clip.Level, clip.Voice, clip.Duration, clip.Type,
	).Scan(&result.ID, &result.UploadID, &result.Language, &result.Level,
		&result.Voice, &result.Duration, &result.Type)
	if err != nil {
		return nil, fmt.Errorf("upsert clip: %w", err)
	}
	return &result, nil
}

func (s *PostgresStore) ListClipCandidates(ctx context.Context, language string, maxLevel int) ([]*ClipCandidate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id, cu.user_id, cu.filename, c.duration
		 FROM clips c
		 JOIN clip_uploads cu ON cu.id = c.upload_id
		 WHERE c.language = $1 AND c.level <= $2`, language, maxLevel)
	if err != nil {
		return nil, fmt.Errorf("list clip candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*ClipCandidate
	for rows.Next() {
		var c ClipCandidate
		if err := rows.Scan(&c.ClipID, &c.UserID, &c.Filename, &c.Duration); err != nil {
			return nil, fmt.Errorf("scan clip candidate: %w", err)
		}
		candidates = append(candidates, &c)
	}
	return candidates, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

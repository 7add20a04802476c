package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medleyhq/medley/internal/store"
	"github.com/medleyhq/medley/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool + cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("medley_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

// seedUpload inserts an upload row and returns it.
func seedUpload(t *testing.T, s store.Store, userID, language string) *models.ClipUpload {
	t.Helper()
	upload := &models.ClipUpload{
		ID:           uuid.New(),
		UserID:       userID,
		Filename:     uuid.NewString() + ".mp3",
		OriginalName: "original.mp3",
		Language:     language,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, s.CreateUpload(context.Background(), upload))
	return upload
}

// --- Upload Tests ---

func TestUpload_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	upload := seedUpload(t, s, "user-1", "en")

	got, err := s.GetUpload(ctx, upload.ID)
	require.NoError(t, err)
	assert.Equal(t, upload.ID, got.ID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, upload.Filename, got.Filename)
	assert.Equal(t, "original.mp3", got.OriginalName)
	assert.Equal(t, "en", got.Language)
	assert.Nil(t, got.Duration)
}

func TestUpload_GetMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	_, err := s.GetUpload(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpload_DuplicateID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	upload := seedUpload(t, s, "user-1", "en")
	err := s.CreateUpload(ctx, upload)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestUpload_SetDuration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	upload := seedUpload(t, s, "user-1", "en")

	require.NoError(t, s.SetUploadDuration(ctx, upload.ID, 42))

	got, err := s.GetUpload(ctx, upload.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Duration)
	assert.Equal(t, 42, *got.Duration)

	assert.ErrorIs(t, s.SetUploadDuration(ctx, uuid.New(), 10), store.ErrNotFound)
}

// --- Job Tests ---

func TestJob_EnqueueDefaults(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	upload := seedUpload(t, s, "user-1", "en")

	job, err := s.EnqueueJob(ctx, upload.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, 0, job.Retries)
	assert.Nil(t, job.ErrorMessage)
	assert.Equal(t, upload.ID, job.UploadID)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}

func TestJob_ClaimOldestFirst(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	first, err := s.EnqueueJob(ctx, seedUpload(t, s, "user-1", "en").ID)
	require.NoError(t, err)
	second, err := s.EnqueueJob(ctx, seedUpload(t, s, "user-1", "en").ID)
	require.NoError(t, err)

	claimed, err := s.ClaimNextPendingJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, claimed.ID)
	assert.Equal(t, models.JobStatusProcessing, claimed.Status)

	claimed, err = s.ClaimNextPendingJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, claimed.ID)

	_, err = s.ClaimNextPendingJob(ctx)
	assert.ErrorIs(t, err, store.ErrNoPendingJobs)
}

func TestJob_ClaimEmptyQueue(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	_, err := s.ClaimNextPendingJob(context.Background())
	assert.ErrorIs(t, err, store.ErrNoPendingJobs)
}

func TestJob_CompleteRequiresProcessing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job, err := s.EnqueueJob(ctx, seedUpload(t, s, "user-1", "en").ID)
	require.NoError(t, err)

	// Still pending; the guarded transition must refuse.
	assert.ErrorIs(t, s.CompleteJob(ctx, job.ID), store.ErrNotFound)

	_, err = s.ClaimNextPendingJob(ctx)
	require.NoError(t, err)

	require.NoError(t, s.CompleteJob(ctx, job.ID))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)

	// Completing twice must refuse as well.
	assert.ErrorIs(t, s.CompleteJob(ctx, job.ID), store.ErrNotFound)
}

func TestJob_RequeueRecordsRetryAndError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job, err := s.EnqueueJob(ctx, seedUpload(t, s, "user-1", "en").ID)
	require.NoError(t, err)
	_, err = s.ClaimNextPendingJob(ctx)
	require.NoError(t, err)

	require.NoError(t, s.RequeueJob(ctx, job.ID, 1, "probe failed"))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, got.Status)
	assert.Equal(t, 1, got.Retries)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "probe failed", *got.ErrorMessage)

	// Requeued jobs become claimable again.
	claimed, err := s.ClaimNextPendingJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, job.ID, claimed.ID)
}

func TestJob_FailRecordsTerminalState(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job, err := s.EnqueueJob(ctx, seedUpload(t, s, "user-1", "en").ID)
	require.NoError(t, err)
	_, err = s.ClaimNextPendingJob(ctx)
	require.NoError(t, err)

	require.NoError(t, s.FailJob(ctx, job.ID, 3, "probe failed"))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Equal(t, 3, got.Retries)

	// Failed jobs are never claimed.
	_, err = s.ClaimNextPendingJob(ctx)
	assert.ErrorIs(t, err, store.ErrNoPendingJobs)
}

func TestJob_GetLatestForUpload(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	upload := seedUpload(t, s, "user-1", "en")
	_, err := s.EnqueueJob(ctx, upload.ID)
	require.NoError(t, err)
	second, err := s.EnqueueJob(ctx, upload.ID)
	require.NoError(t, err)

	got, err := s.GetLatestJobForUpload(ctx, upload.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	_, err = s.GetLatestJobForUpload(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJob_ReclaimStale(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job, err := s.EnqueueJob(ctx, seedUpload(t, s, "user-1", "en").ID)
	require.NoError(t, err)
	_, err = s.ClaimNextPendingJob(ctx)
	require.NoError(t, err)

	// Nothing stale yet.
	n, err := s.ReclaimStaleJobs(ctx, time.Minute)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Age the claim past the threshold.
	_, err = pool.Exec(ctx,
		`UPDATE processing_jobs SET updated_at = NOW() - INTERVAL '10 minutes' WHERE id = $1`, job.ID)
	require.NoError(t, err)

	n, err = s.ReclaimStaleJobs(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, got.Status)
	assert.Equal(t, 0, got.Retries)
}

// --- Clip Tests ---

func TestClip_UpsertIsIdempotentPerUpload(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	upload := seedUpload(t, s, "user-1", "en")

	first, err := s.UpsertClip(ctx, &models.Clip{
		ID:       uuid.New(),
		UploadID: upload.ID,
		Language: "en",
		Level:    models.DefaultClipLevel,
		Voice:    models.DefaultClipVoice,
		Duration: 30,
		Type:     models.DefaultClipType,
	})
	require.NoError(t, err)
	assert.Equal(t, 30, first.Duration)

	// Reprocessing the same upload updates in place.
	second, err := s.UpsertClip(ctx, &models.Clip{
		ID:       uuid.New(),
		UploadID: upload.ID,
		Language: "fr",
		Level:    models.DefaultClipLevel,
		Voice:    models.DefaultClipVoice,
		Duration: 55,
		Type:     models.DefaultClipType,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 55, second.Duration)
	assert.Equal(t, "fr", second.Language)
}

func TestClip_ListCandidatesFiltersLanguageAndLevel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	seed := func(language string, level, duration int) uuid.UUID {
		upload := seedUpload(t, s, "user-1", language)
		clip, err := s.UpsertClip(ctx, &models.Clip{
			ID:       uuid.New(),
			UploadID: upload.ID,
			Language: language,
			Level:    level,
			Voice:    models.DefaultClipVoice,
			Duration: duration,
			Type:     models.DefaultClipType,
		})
		require.NoError(t, err)
		return clip.ID
	}

	enLevel1 := seed("en", 1, 30)
	enLevel2 := seed("en", 2, 40)
	seed("en", 3, 50)
	seed("fr", 1, 60)

	candidates, err := s.ListClipCandidates(ctx, "en", 2)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	ids := []uuid.UUID{candidates[0].ClipID, candidates[1].ClipID}
	assert.Contains(t, ids, enLevel1)
	assert.Contains(t, ids, enLevel2)
	for _, c := range candidates {
		assert.Equal(t, "user-1", c.UserID)
		assert.NotEmpty(t, c.Filename)
		assert.Positive(t, c.Duration)
	}
}

func TestClip_ListCandidatesEmptyCatalog(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	candidates, err := s.ListClipCandidates(context.Background(), "xx", 5)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

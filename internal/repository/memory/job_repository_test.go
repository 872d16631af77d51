package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"video-concat-service/internal/entity"
)

func newJob() *entity.Job {
	return &entity.Job{
		ID:         uuid.New(),
		Status:     entity.StatusQueued,
		URLs:       []string{"https://example.com/a.mp4", "https://example.com/b.mp4"},
		OutputName: "out.mp4",
		MaxSizeMB:  100,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestCreateThenGet_Queued(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository()
	j := newJob()

	require.NoError(t, repo.Create(ctx, j))

	got, err := repo.GetByID(ctx, j.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusQueued, got.Status)
	require.Equal(t, j.URLs, got.URLs)

	// Mutating the returned copy must not leak into the store.
	got.URLs[0] = "mutated"
	again, err := repo.GetByID(ctx, j.ID)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/a.mp4", again.URLs[0])
}

func TestCreate_DuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository()
	j := newJob()

	require.NoError(t, repo.Create(ctx, j))
	require.ErrorIs(t, repo.Create(ctx, j), ErrConflict)
}

func TestGetByID_Unknown(t *testing.T) {
	repo := NewJobRepository()
	_, err := repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransitions_Monotonic(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository()
	j := newJob()
	require.NoError(t, repo.Create(ctx, j))

	require.NoError(t, repo.SetStatus(ctx, j.ID, entity.StatusDownloading, "downloading video 1/2"))
	require.NoError(t, repo.SetStatus(ctx, j.ID, entity.StatusConcatenating, ""))
	require.NoError(t, repo.SetCompleted(ctx, j.ID, entity.ArtifactInfo{Filename: "out.mp4", SizeBytes: 123}))

	// No transition out of a terminal state succeeds.
	require.ErrorIs(t, repo.SetStatus(ctx, j.ID, entity.StatusDownloading, ""), ErrInvalidTransition)
	require.ErrorIs(t, repo.SetFailed(ctx, j.ID, "boom"), ErrInvalidTransition)
	require.ErrorIs(t, repo.SetCompleted(ctx, j.ID, entity.ArtifactInfo{}), ErrInvalidTransition)

	got, err := repo.GetByID(ctx, j.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusCompleted, got.Status)
	require.Nil(t, got.Error)
	require.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.Artifact)
}

func TestSetCompleted_SecondCallKeepsArtifact(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository()
	j := newJob()
	require.NoError(t, repo.Create(ctx, j))

	require.NoError(t, repo.SetStatus(ctx, j.ID, entity.StatusDownloading, ""))
	require.NoError(t, repo.SetStatus(ctx, j.ID, entity.StatusConcatenating, ""))
	require.NoError(t, repo.SetCompleted(ctx, j.ID, entity.ArtifactInfo{Filename: "out.mp4", SizeBytes: 123, WasCompressed: true}))

	first, err := repo.GetByID(ctx, j.ID)
	require.NoError(t, err)

	require.ErrorIs(t, repo.SetCompleted(ctx, j.ID, entity.ArtifactInfo{}), ErrInvalidTransition)

	got, err := repo.GetByID(ctx, j.ID)
	require.NoError(t, err)
	require.Equal(t, entity.ArtifactInfo{Filename: "out.mp4", SizeBytes: 123, WasCompressed: true}, *got.Artifact)
	require.Equal(t, first.CompletedAt, got.CompletedAt)
}

func TestSetFailed_SetsErrorDetail(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository()
	j := newJob()
	require.NoError(t, repo.Create(ctx, j))

	require.NoError(t, repo.SetStatus(ctx, j.ID, entity.StatusDownloading, ""))
	require.NoError(t, repo.SetFailed(ctx, j.ID, "failed to download: https://example.com/a.mp4"))

	got, err := repo.GetByID(ctx, j.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusFailed, got.Status)
	require.NotNil(t, got.Error)
	require.Contains(t, *got.Error, "a.mp4")
}

func TestListStale_OnlyOldTerminalJobs(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository()

	now := time.Now().UTC()
	repo.clock = func() time.Time { return now.Add(-2 * time.Hour) }

	oldDone := newJob()
	require.NoError(t, repo.Create(ctx, oldDone))
	require.NoError(t, repo.SetStatus(ctx, oldDone.ID, entity.StatusDownloading, ""))
	require.NoError(t, repo.SetFailed(ctx, oldDone.ID, "x"))

	repo.clock = func() time.Time { return now }

	freshDone := newJob()
	require.NoError(t, repo.Create(ctx, freshDone))
	require.NoError(t, repo.SetStatus(ctx, freshDone.ID, entity.StatusDownloading, ""))
	require.NoError(t, repo.SetFailed(ctx, freshDone.ID, "x"))

	running := newJob()
	require.NoError(t, repo.Create(ctx, running))
	require.NoError(t, repo.SetStatus(ctx, running.ID, entity.StatusDownloading, ""))

	stale, err := repo.ListStale(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{oldDone.ID}, stale)

	require.NoError(t, repo.Delete(ctx, oldDone.ID))
	_, err = repo.GetByID(ctx, oldDone.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentWritersDistinctJobs(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository()

	ids := make([]uuid.UUID, 32)
	for i := range ids {
		j := newJob()
		ids[i] = j.ID
		require.NoError(t, repo.Create(ctx, j))
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_ = repo.SetStatus(ctx, id, entity.StatusDownloading, "")
			_ = repo.SetStatus(ctx, id, entity.StatusConcatenating, "")
			_ = repo.SetCompleted(ctx, id, entity.ArtifactInfo{Filename: "out.mp4"})
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, entity.StatusCompleted, got.Status)
	}
}

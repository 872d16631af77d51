package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *ArtifactStore {
	t.Helper()
	s, err := New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return s
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.mp4")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPutThenOpen(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	jobID := uuid.New()

	ref, err := s.Put(ctx, jobID, writeSource(t, "final-video"), "out.mp4")
	require.NoError(t, err)
	require.Equal(t, "out.mp4", ref.Filename)
	require.Equal(t, int64(len("final-video")), ref.SizeBytes)

	rc, got, err := s.Open(jobID)
	require.NoError(t, err)
	defer rc.Close()

	require.Equal(t, ref.Filename, got.Filename)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "final-video", string(data))
}

func TestOpen_UnknownJob(t *testing.T) {
	s := newStore(t)
	_, _, err := s.Open(uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEvictOlderThan(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	oldJob := uuid.New()
	_, err := s.Put(ctx, oldJob, writeSource(t, "old"), "old.mp4")
	require.NoError(t, err)

	freshJob := uuid.New()
	_, err = s.Put(ctx, freshJob, writeSource(t, "fresh"), "fresh.mp4")
	require.NoError(t, err)

	// Age the first artifact past the cutoff.
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(s.root, oldJob.String(), "old.mp4"), past, past))

	removed, err := s.EvictOlderThan(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, _, err = s.Open(oldJob)
	require.ErrorIs(t, err, ErrNotFound)

	_, got, err := s.Open(freshJob)
	require.NoError(t, err)
	require.Equal(t, "fresh.mp4", got.Filename)
}

func TestEvict_SkipsPartialWrites(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	jobID := uuid.New()
	jobDir := filepath.Join(s.root, jobID.String())
	require.NoError(t, os.MkdirAll(jobDir, 0o755))

	partial := filepath.Join(jobDir, "out.mp4"+partialSuffix)
	require.NoError(t, os.WriteFile(partial, []byte("half"), 0o644))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(partial, past, past))

	removed, err := s.EvictOlderThan(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Zero(t, removed)
	require.DirExists(t, jobDir)
}

func TestPut_NoPartialVisibleAfterPublish(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	jobID := uuid.New()

	_, err := s.Put(ctx, jobID, writeSource(t, "x"), "out.mp4")
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(s.root, jobID.String()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "out.mp4", entries[0].Name())
}

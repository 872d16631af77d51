// Package store owns the artifact filesystem namespace: one directory per job
// under <root>/artifacts, written atomically and evicted after a retention
// window. Evicting an artifact never touches the job registry.
package store

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
	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("artifact not found")

const partialSuffix = ".partial"

// ArtifactRef points at a stored artifact.
type ArtifactRef struct {
	JobID     uuid.UUID
	Filename  string
	SizeBytes int64
}

type ArtifactStore struct {
	root   string
	logger zerolog.Logger
}

func New(root string, logger zerolog.Logger) (*ArtifactStore, error) {
	dir := filepath.Join(root, "artifacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir %s: %w", dir, err)
	}
	return &ArtifactStore{
		root:   dir,
		logger: logger.With().Str("component", "artifact_store").Logger(),
	}, nil
}

// Put copies srcPath into the store under jobID. The file is staged with a
// .partial name and renamed into place only once fully written, so a
// concurrent eviction sweep or download never observes a half-written
// artifact.
func (s *ArtifactStore) Put(ctx context.Context, jobID uuid.UUID, srcPath, filename string) (ArtifactRef, error) {
	if err := ctx.Err(); err != nil {
		return ArtifactRef{}, err
	}

	jobDir := s.jobDir(jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return ArtifactRef{}, fmt.Errorf("create job dir: %w", err)
	}

	final := filepath.Join(jobDir, filename)
	staging := final + partialSuffix

	size, err := copyTo(srcPath, staging)
	if err != nil {
		os.Remove(staging)
		return ArtifactRef{}, err
	}
	if err := os.Rename(staging, final); err != nil {
		os.Remove(staging)
		return ArtifactRef{}, fmt.Errorf("publish artifact: %w", err)
	}

	return ArtifactRef{JobID: jobID, Filename: filename, SizeBytes: size}, nil
}

// Open returns a reader over the job's artifact, or ErrNotFound when the
// artifact was evicted or never created.
func (s *ArtifactStore) Open(jobID uuid.UUID) (io.ReadSeekCloser, ArtifactRef, error) {
	jobDir := s.jobDir(jobID)

	entries, err := os.ReadDir(jobDir)
	if err != nil {
		return nil, ArtifactRef{}, ErrNotFound
	}

	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), partialSuffix) {
			continue
		}
		path := filepath.Join(jobDir, e.Name())
		info, err := e.Info()
		if err != nil {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, ArtifactRef{}, ErrNotFound
		}
		return f, ArtifactRef{JobID: jobID, Filename: e.Name(), SizeBytes: info.Size()}, nil
	}
	return nil, ArtifactRef{}, ErrNotFound
}

// EvictOlderThan removes job directories whose artifacts were all published
// before cutoff. Directories containing only partial files are left alone.
func (s *ArtifactStore) EvictOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("read artifact dir: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !e.IsDir() {
			continue
		}

		jobDir := filepath.Join(s.root, e.Name())
		if !evictable(jobDir, cutoff) {
			continue
		}
		if err := os.RemoveAll(jobDir); err != nil {
			s.logger.Error().Err(err).Str("dir", jobDir).Msg("evict failed")
			continue
		}
		removed++
	}
	return removed, nil
}

// Sweep runs the eviction loop until ctx is done.
func (s *ArtifactStore) Sweep(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.EvictOlderThan(ctx, time.Now().Add(-ttl))
			if err != nil {
				s.logger.Error().Err(err).Msg("eviction sweep failed")
				continue
			}
			if n > 0 {
				s.logger.Info().Int("removed", n).Msg("evicted expired artifacts")
			}
		}
	}
}

// evictable reports whether every fully-written file in dir predates cutoff.
// An in-flight Put (partial file present) keeps the directory alive.
func evictable(dir string, cutoff time.Time) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}

	sawArtifact := false
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), partialSuffix) {
			return false
		}
		info, err := e.Info()
		if err != nil {
			return false
		}
		sawArtifact = true
		if !info.ModTime().Before(cutoff) {
			return false
		}
	}
	return sawArtifact
}

func (s *ArtifactStore) jobDir(jobID uuid.UUID) string {
	return filepath.Join(s.root, jobID.String())
}

func copyTo(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create staging file: %w", err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return 0, fmt.Errorf("copy artifact: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return 0, err
	}
	return n, out.Close()
}

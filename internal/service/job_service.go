package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"video-concat-service/internal/entity"
)

var ErrInvalidRequest = errors.New("invalid request")

const (
	DefaultMaxSizeMB = 100
	MinMaxSizeMB     = 10
	MaxMaxSizeMB     = 500

	defaultOutputName = "concatenated_video.mp4"
)

// Port of the job registry (implementation: memory.JobRepository).
type JobRepository interface {
	Create(ctx context.Context, j *entity.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Port of the job runner, for synchronous execution on the caller's context.
type JobRunner interface {
	Process(ctx context.Context, jobID uuid.UUID) error
}

type JobService struct {
	repo   JobRepository
	queue  Queue
	runner JobRunner

	clock func() time.Time
	idGen func() uuid.UUID
}

func NewJobService(repo JobRepository, queue Queue, runner JobRunner) *JobService {
	return &JobService{
		repo:   repo,
		queue:  queue,
		runner: runner,
		clock:  time.Now,
		idGen:  uuid.New,
	}
}

type CreateJobRequest struct {
	URLs       []string
	OutputName string
	MaxSizeMB  int
	Sync       bool
	KeepTemp   bool
}

// CreateJob validates the request, registers a queued job and either hands it
// to the worker pool or, in sync mode, runs it to a terminal state on the
// caller's context. The returned job reflects the state after dispatch.
func (s *JobService) CreateJob(ctx context.Context, req CreateJobRequest) (*entity.Job, error) {
	if len(req.URLs) == 0 {
		return nil, fmt.Errorf("%w: at least one URL is required", ErrInvalidRequest)
	}
	for _, raw := range req.URLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: invalid source URL %q", ErrInvalidRequest, raw)
		}
	}

	maxSize := req.MaxSizeMB
	if maxSize == 0 {
		maxSize = DefaultMaxSizeMB
	}
	if maxSize < MinMaxSizeMB || maxSize > MaxMaxSizeMB {
		return nil, fmt.Errorf("%w: max_size_mb must be between %d and %d", ErrInvalidRequest, MinMaxSizeMB, MaxMaxSizeMB)
	}

	j := &entity.Job{
		ID:         s.idGen(),
		Status:     entity.StatusQueued,
		URLs:       append([]string(nil), req.URLs...),
		OutputName: sanitizeOutputName(req.OutputName),
		MaxSizeMB:  maxSize,
		KeepTemp:   req.KeepTemp,
		CreatedAt:  s.clock().UTC(),
	}

	if err := s.repo.Create(ctx, j); err != nil {
		return nil, err
	}

	if req.Sync {
		// Terminal status is recorded by the runner; the returned error is
		// already reflected in the job record.
		_ = s.runner.Process(ctx, j.ID)
		return s.repo.GetByID(ctx, j.ID)
	}

	if err := s.queue.Enqueue(ctx, j.ID); err != nil {
		// Nothing will ever pick the record up; do not leave it behind.
		_ = s.repo.Delete(ctx, j.ID)
		return nil, err
	}
	return s.repo.GetByID(ctx, j.ID)
}

func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	return s.repo.GetByID(ctx, id)
}

var videoExts = []string{".mp4", ".avi", ".mkv", ".mov", ".wmv"}

// sanitizeOutputName reduces the requested name to a bare filename with a
// video extension. Anything path-like is stripped.
func sanitizeOutputName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultOutputName
	}

	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return defaultOutputName
	}

	lower := strings.ToLower(name)
	for _, ext := range videoExts {
		if strings.HasSuffix(lower, ext) {
			return name
		}
	}
	return name + ".mp4"
}

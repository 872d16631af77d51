package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"video-concat-service/internal/entity"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid transition")
)

// record pairs a job with its own lock so that writers to different jobs
// never contend. The outer map lock only guards insertion and lookup.
type record struct {
	mu  sync.Mutex
	job entity.Job
}

// JobRepository is the in-memory source of truth for job state.
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*record

	clock func() time.Time
}

func NewJobRepository() *JobRepository {
	return &JobRepository{
		jobs:  make(map[uuid.UUID]*record),
		clock: time.Now,
	}
}

func (r *JobRepository) Create(ctx context.Context, j *entity.Job) error {
	if j == nil || j.ID == uuid.Nil {
		return errors.New("invalid job")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[j.ID]; exists {
		return ErrConflict
	}

	// Defensive copy so the caller cannot mutate the stored record.
	cp := *j
	cp.URLs = append([]string(nil), j.URLs...)
	r.jobs[j.ID] = &record{job: cp}
	return nil
}

func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	cp := rec.job
	cp.URLs = append([]string(nil), rec.job.URLs...)
	return &cp, nil
}

// SetStatus moves a job to a non-terminal status and records a progress detail.
func (r *JobRepository) SetStatus(ctx context.Context, id uuid.UUID, status entity.JobStatus, detail string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rec, err := r.lookup(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if err := entity.ValidateTransition(rec.job.Status, status); err != nil {
		return ErrInvalidTransition
	}
	rec.job.Status = status
	rec.job.Detail = detail
	return nil
}

// SetCompleted terminally marks a job completed with its artifact info.
func (r *JobRepository) SetCompleted(ctx context.Context, id uuid.UUID, art entity.ArtifactInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rec, err := r.lookup(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if err := entity.ValidateTransition(rec.job.Status, entity.StatusCompleted); err != nil {
		return ErrInvalidTransition
	}
	now := r.clock().UTC()
	rec.job.Status = entity.StatusCompleted
	rec.job.Detail = ""
	rec.job.Artifact = &art
	rec.job.CompletedAt = &now
	return nil
}

// SetFailed terminally marks a job failed with a human-readable error.
func (r *JobRepository) SetFailed(ctx context.Context, id uuid.UUID, errText string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rec, err := r.lookup(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if err := entity.ValidateTransition(rec.job.Status, entity.StatusFailed); err != nil {
		return ErrInvalidTransition
	}
	now := r.clock().UTC()
	rec.job.Status = entity.StatusFailed
	rec.job.Detail = ""
	rec.job.Error = &errText
	rec.job.CompletedAt = &now
	return nil
}

// ListStale returns ids of terminal jobs whose completion time precedes cutoff.
// Used by the record pruning sweep, never by artifact eviction.
func (r *JobRepository) ListStale(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	recs := make([]*record, 0, len(r.jobs))
	for _, rec := range r.jobs {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	var stale []uuid.UUID
	for _, rec := range recs {
		rec.mu.Lock()
		if entity.Terminal(rec.job.Status) && rec.job.CompletedAt != nil && rec.job.CompletedAt.Before(cutoff) {
			stale = append(stale, rec.job.ID)
		}
		rec.mu.Unlock()
	}
	return stale, nil
}

func (r *JobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(r.jobs, id)
	return nil
}

func (r *JobRepository) lookup(id uuid.UUID) (*record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrQueueFull = errors.New("job queue is full")

type Queue interface {
	Enqueue(ctx context.Context, jobID uuid.UUID) error
	Claim(ctx context.Context) (uuid.UUID, error)
}

// memoryQueue is a bounded in-process queue. The capacity bound is the
// admission control seam: a full queue rejects new work instead of letting
// it pile up unboundedly.
type memoryQueue struct {
	ch chan uuid.UUID
}

func NewMemoryQueue(capacity int) Queue {
	if capacity <= 0 {
		capacity = 64
	}
	return &memoryQueue{ch: make(chan uuid.UUID, capacity)}
}

func (q *memoryQueue) Enqueue(ctx context.Context, jobID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- jobID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Claim blocks until a job is available or ctx is done.
func (q *memoryQueue) Claim(ctx context.Context) (uuid.UUID, error) {
	select {
	case jobID := <-q.ch:
		return jobID, nil
	case <-ctx.Done():
		return uuid.Nil, ctx.Err()
	}
}

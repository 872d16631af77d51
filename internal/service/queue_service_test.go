package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_FIFO(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(4)

	a, b := uuid.New(), uuid.New()
	require.NoError(t, q.Enqueue(ctx, a))
	require.NoError(t, q.Enqueue(ctx, b))

	got, err := q.Claim(ctx)
	require.NoError(t, err)
	require.Equal(t, a, got)

	got, err = q.Claim(ctx)
	require.NoError(t, err)
	require.Equal(t, b, got)
}

func TestMemoryQueue_Full(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(1)

	require.NoError(t, q.Enqueue(ctx, uuid.New()))
	require.ErrorIs(t, q.Enqueue(ctx, uuid.New()), ErrQueueFull)
}

func TestMemoryQueue_ClaimHonorsContext(t *testing.T) {
	q := NewMemoryQueue(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Claim(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

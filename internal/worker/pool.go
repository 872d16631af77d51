package worker

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"video-concat-service/internal/service"
)

// Pool runs a fixed number of workers that claim queued jobs and process
// them. Each job is enqueued exactly once, so a job never has more than one
// in-flight execution.
type Pool struct {
	queue     service.Queue
	processor *Processor
	workers   int
	logger    zerolog.Logger
}

func NewPool(queue service.Queue, processor *Processor, workers int, logger zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	return &Pool{
		queue:     queue,
		processor: processor,
		workers:   workers,
		logger:    logger.With().Str("component", "worker_pool").Logger(),
	}
}

// Run blocks until ctx is cancelled.
func (p *Pool) Run(ctx context.Context) {
	p.logger.Info().Int("workers", p.workers).Msg("worker pool started")

	jobCh := make(chan uuid.UUID)

	for i := 0; i < p.workers; i++ {
		go func(n int) {
			for jobID := range jobCh {
				if err := p.processor.Process(ctx, jobID); err != nil {
					p.logger.Error().Int("worker", n).Str("job_id", jobID.String()).Err(err).Msg("process job")
				}
			}
		}(i + 1)
	}

	for {
		jobID, err := p.queue.Claim(ctx)
		if err != nil {
			// Only context cancellation stops the claim loop.
			close(jobCh)
			p.logger.Info().Msg("worker pool stopped")
			return
		}
		select {
		case jobCh <- jobID:
		case <-ctx.Done():
			close(jobCh)
			return
		}
	}
}

// Package worker provides a bounded pool for background jobs.
package worker

import (
	"context"
	"sync"

	"github.com/bhagyaj/Markr/internal/logger"

	"github.com/rs/zerolog"
)

type Pool struct {
	workerCount int
	jobChan     chan func(context.Context) error
	wg          sync.WaitGroup
	log         zerolog.Logger
}

func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{
		workerCount: workerCount,
		jobChan:     make(chan func(context.Context) error, workerCount*2),
		log:         logger.For("worker"),
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.log.Info().Int("worker_count", p.workerCount).Msg("Starting worker pool")

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) Stop() {
	close(p.jobChan)
	p.wg.Wait()
	p.log.Info().Msg("Worker pool stopped")
}

// Submit hands a job to the pool. Jobs are best-effort: when the queue
// is full the job is dropped with a warning rather than blocking the
// caller.
func (p *Pool) Submit(job func(context.Context) error) {
	select {
	case p.jobChan <- job:
	default:
		p.log.Warn().Msg("Worker pool job queue full, job dropped")
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	log := p.log.With().Int("worker_id", id).Logger()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobChan:
			if !ok {
				return
			}
			if err := job(ctx); err != nil {
				log.Error().Err(err).Msg("Job execution failed")
			}
		}
	}
}

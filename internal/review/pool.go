package review

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/roasbeef/scrutiny/internal/analysis"
)

// ErrPoolSaturated is returned when the pending-review queue is full.
var ErrPoolSaturated = errors.New("review queue full")

// ErrPoolStopped is returned when a submission arrives after shutdown.
var ErrPoolStopped = errors.New("review pool stopped")

// queueDepthFactor sizes the pending queue relative to the worker count.
const queueDepthFactor = 4

// reviewJob is one unit of work for the pool: the source to review plus
// the channel the terminal outcome is delivered on.
type reviewJob struct {
	id   string
	unit analysis.SourceUnit
	mode Mode
	done chan Outcome
}

// Pool runs review pipelines on a fixed set of workers. Submissions queue
// up to a bounded depth; beyond that the pool reports saturation rather
// than accepting unbounded work.
type Pool struct {
	orch *Orchestrator

	jobs chan reviewJob

	// complete is invoked with every terminal outcome before it is
	// delivered, letting the owner persist results.
	complete func(ctx context.Context, id string, outcome Outcome)

	wg   sync.WaitGroup
	quit chan struct{}
	stop sync.Once

	log *slog.Logger
}

// NewPool creates a pool with the given number of workers. The complete
// callback may be nil.
func NewPool(workers int, orch *Orchestrator,
	complete func(ctx context.Context, id string, outcome Outcome)) *Pool {

	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		orch:     orch,
		jobs:     make(chan reviewJob, workers*queueDepthFactor),
		complete: complete,
		quit:     make(chan struct{}),
		log:      slog.With("component", "review-pool"),
	}
}

// Start launches the workers. The context bounds the lifetime of every
// review the pool runs.
func (p *Pool) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.log.InfoContext(ctx, "Review pool started", "workers", workers)
}

// Stop prevents further submissions and waits for in-flight reviews to
// finish. Queued jobs that never ran complete with ErrPoolStopped.
func (p *Pool) Stop() {
	p.stop.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()

	// Drain anything still queued so waiters unblock.
	for {
		select {
		case job := <-p.jobs:
			job.done <- Outcome{Err: ErrPoolStopped}
		default:
			return
		}
	}
}

// Submit enqueues a review. The returned channel delivers exactly one
// Outcome when the review reaches a terminal state.
func (p *Pool) Submit(id string, unit analysis.SourceUnit,
	mode Mode) (<-chan Outcome, error) {

	job := reviewJob{
		id:   id,
		unit: unit,
		mode: mode,
		done: make(chan Outcome, 1),
	}

	select {
	case <-p.quit:
		return nil, ErrPoolStopped
	default:
	}

	select {
	case p.jobs <- job:
		return job.done, nil
	default:
		return nil, ErrPoolSaturated
	}
}

// worker processes jobs until shutdown.
func (p *Pool) worker(ctx context.Context, n int) {
	defer p.wg.Done()

	log := p.log.With("worker", n)

	for {
		select {
		case <-p.quit:
			return
		case <-ctx.Done():
			return

		case job := <-p.jobs:
			final, err := p.orch.Run(ctx, job.id, job.unit, job.mode)
			outcome := Outcome{Review: final, Err: err}

			if p.complete != nil {
				p.complete(ctx, job.id, outcome)
			}

			job.done <- outcome

			if err != nil {
				log.WarnContext(ctx, "Review pipeline failed",
					"review_id", job.id, "err", err)
			}
		}
	}
}

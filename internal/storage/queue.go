package storage

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultQueueSize    = 1024
	DefaultDrainTimeout = 5 * time.Second
)

// Job is one unit of persistence work.
type Job func(ctx context.Context) error

type queuedJob struct {
	name string
	run  Job
}

// JobQueue runs persistence jobs one at a time in submission order, so writes
// for the same character land in the order they were issued. Enqueue never
// blocks the caller.
type JobQueue struct {
	jobs         chan queuedJob
	drainTimeout time.Duration
}

type JobQueueOpt func(*JobQueue)

func WithQueueSize(n int) JobQueueOpt {
	return func(q *JobQueue) {
		q.jobs = make(chan queuedJob, n)
	}
}

func WithDrainTimeout(d time.Duration) JobQueueOpt {
	return func(q *JobQueue) {
		q.drainTimeout = d
	}
}

func NewJobQueue(opts ...JobQueueOpt) *JobQueue {
	q := &JobQueue{
		jobs:         make(chan queuedJob, DefaultQueueSize),
		drainTimeout: DefaultDrainTimeout,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue schedules job and returns ErrQueueFull instead of waiting when the
// queue has no room.
func (q *JobQueue) Enqueue(name string, job Job) error {
	select {
	case q.jobs <- queuedJob{name: name, run: job}:
		return nil
	default:
		slog.Warn("dropping persistence job", "job", name, "error", ErrQueueFull)
		return ErrQueueFull
	}
}

// Start runs queued jobs until ctx is cancelled, then works through whatever
// is still queued within the drain timeout.
func (q *JobQueue) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			q.drain(ctx)
			return nil
		case j := <-q.jobs:
			q.run(ctx, j)
		}
	}
}

func (q *JobQueue) drain(ctx context.Context) {
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.drainTimeout)
	defer cancel()

	for {
		select {
		case j := <-q.jobs:
			q.run(drainCtx, j)
		default:
			return
		}
	}
}

func (q *JobQueue) run(ctx context.Context, j queuedJob) {
	if err := j.run(ctx); err != nil {
		slog.ErrorContext(ctx, "persistence job failed", "job", j.name, "error", err)
	}
}

// internal/jobs/queue.go
package jobs

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Task is a unit of deferred work. Tasks are fire-and-forget: failures are
// logged by the worker that ran them and never surfaced to the submitter.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue is a buffered in-process work queue drained by a fixed pool of
// workers. It provides no ordering or completion guarantees between tasks;
// every task must be independently idempotent.
type Queue struct {
	tasks   chan Task
	workers int
	logger  *slog.Logger
}

func NewQueue(workers, buffer int, logger *slog.Logger) *Queue {
	return &Queue{
		tasks:   make(chan Task, buffer),
		workers: workers,
		logger:  logger,
	}
}

// Start runs the worker pool until ctx is cancelled. It blocks; run it in
// its own goroutine.
func (q *Queue) Start(ctx context.Context) {
	q.logger.Info("Starting job workers", "workers", q.workers)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < q.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case task := <-q.tasks:
					if err := task.Run(gctx); err != nil {
						q.logger.Error("Job failed", "job", task.Name, "error", err)
					} else {
						q.logger.Info("Job finished", "job", task.Name)
					}
				}
			}
		})
	}

	_ = g.Wait()
	q.logger.Info("Job workers stopped", "reason", ctx.Err())
}

// Enqueue submits a task without blocking the caller. When the buffer is
// full the task is dropped and logged; all jobs are idempotent re-syncs, so
// a dropped one is recovered by the next sign-in.
func (q *Queue) Enqueue(task Task) {
	select {
	case q.tasks <- task:
	default:
		q.logger.Warn("Job queue full, dropping task", "job", task.Name)
	}
}

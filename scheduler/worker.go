package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Handler func(ctx context.Context, job Job) error

// Worker runs a fixed pool of goroutines that pull jobs and dispatch them
// by name. A failing or panicking handler is logged and the pool carries on.
type Worker struct {
	queue       Dequeuer
	concurrency int
	log         *slog.Logger
	backoff     time.Duration

	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewWorker(q Dequeuer, concurrency int, log *slog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{
		queue:       q,
		concurrency: concurrency,
		log:         log,
		backoff:     time.Second,
		handlers:    map[string]Handler{},
	}
}

func (w *Worker) Handle(name string, h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[name] = h
}

func (w *Worker) handler(name string) (Handler, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	h, ok := w.handlers[name]
	return h, ok
}

// Run blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			w.loop(ctx, i)
			return nil
		})
	}
	return g.Wait()
}

func (w *Worker) loop(ctx context.Context, id int) {
	log := w.log.With("worker", id)
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("dequeue failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.backoff):
			}
			continue
		}
		_ = w.Process(ctx, job)
	}
}

// Process runs one job synchronously and reports its outcome.
func (w *Worker) Process(ctx context.Context, job Job) (err error) {
	h, ok := w.handler(job.Name)
	if !ok {
		jobsProcessed.WithLabelValues(job.Name, "unknown").Inc()
		w.log.Warn("no handler for job", "job", job.Name, "job_id", job.ID)
		return fmt.Errorf("no handler for job %q", job.Name)
	}

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, p)
		}
		jobDuration.WithLabelValues(job.Name).Observe(time.Since(start).Seconds())
		if err != nil {
			jobsProcessed.WithLabelValues(job.Name, "error").Inc()
			w.log.Error("job failed", "job", job.Name, "job_id", job.ID, "error", err)
			return
		}
		jobsProcessed.WithLabelValues(job.Name, "ok").Inc()
		w.log.Info("job done", "job", job.Name, "job_id", job.ID, "duration", time.Since(start))
	}()
	return h(ctx, job)
}

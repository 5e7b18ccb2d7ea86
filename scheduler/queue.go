package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Job is one unit of work on the task queue.
type Job struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// Dequeuer blocks until a job is available or ctx is done.
type Dequeuer interface {
	Dequeue(ctx context.Context) (Job, error)
}

type Queue interface {
	Enqueuer
	Dequeuer
}

var ErrQueueFull = errors.New("job queue is full")

// MemoryQueue is an in-process queue for tests and Redis-less runs. Jobs do
// not survive a restart.
type MemoryQueue struct {
	ch chan Job
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 64
	}
	return &MemoryQueue{ch: make(chan Job, capacity)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case job := <-q.ch:
		return job, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

func (q *MemoryQueue) Len() int { return len(q.ch) }

package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Clock is the time source of the trigger; tests swap in a manual one.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Trigger turns schedules into jobs on an injected queue. It never runs a
// job itself. Fires missed while the process was down are not replayed.
type Trigger struct {
	queue Enqueuer
	clock Clock
	log   *slog.Logger

	mu        sync.Mutex
	schedules []Schedule
}

type TriggerOption func(*Trigger)

func WithClock(c Clock) TriggerOption { return func(t *Trigger) { t.clock = c } }

func NewTrigger(q Enqueuer, log *slog.Logger, opts ...TriggerOption) *Trigger {
	t := &Trigger{queue: q, clock: realClock{}, log: log}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Register adds a schedule. Call it before Run.
func (t *Trigger) Register(s Schedule) error {
	if err := s.validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.schedules = append(t.schedules, s)
	t.log.Info("schedule registered", "job", s.Job, "interval", s.Interval, "start_offset", s.StartOffset,
		"next", s.Next(t.clock.Now()).Format(time.RFC3339))
	return nil
}

// Enqueue puts one job on the queue now. payload may be nil.
func (t *Trigger) Enqueue(ctx context.Context, name string, payload any) (Job, error) {
	return t.enqueue(ctx, name, payload, "on_demand")
}

func (t *Trigger) enqueue(ctx context.Context, name string, payload any, origin string) (Job, error) {
	job := Job{ID: uuid.NewString(), Name: name, EnqueuedAt: t.clock.Now().UTC()}
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		job.Payload = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return Job{}, fmt.Errorf("encode %s payload: %w", name, err)
		}
		job.Payload = b
	}
	if err := t.queue.Enqueue(ctx, job); err != nil {
		return Job{}, fmt.Errorf("enqueue %s: %w", name, err)
	}
	jobsEnqueued.WithLabelValues(name, origin).Inc()
	t.log.Info("job enqueued", "job", name, "job_id", job.ID, "origin", origin)
	return job, nil
}

// Run blocks until ctx is done, firing every registered schedule.
func (t *Trigger) Run(ctx context.Context) error {
	t.mu.Lock()
	schedules := append([]Schedule(nil), t.schedules...)
	t.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range schedules {
		g.Go(func() error {
			t.loop(ctx, s)
			return nil
		})
	}
	return g.Wait()
}

func (t *Trigger) loop(ctx context.Context, s Schedule) {
	var last time.Time
	for {
		now := t.clock.Now()
		// a wall clock reading just short of the last fire must not repeat it
		next := s.Next(maxTime(now, last))
		select {
		case <-ctx.Done():
			return
		case <-t.clock.After(next.Sub(now)):
		}
		last = next
		var payload any
		if len(s.Payload) > 0 {
			payload = s.Payload
		}
		if _, err := t.enqueue(ctx, s.Job, payload, "schedule"); err != nil {
			// the next fire retries; nothing is queued up in between
			t.log.Error("scheduled enqueue failed", "job", s.Job, "error", err)
		}
	}
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// JobName is the queue name of the scheduled aggregation.
const JobName = "generate_report"

// Runner generates a report and saves it. It is the body of the
// generate_report job.
type Runner struct {
	agg   *Aggregator
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewRunner(agg *Aggregator, store Store, log *slog.Logger) *Runner {
	return &Runner{agg: agg, store: store, log: log, now: time.Now}
}

// Run decodes an optional Window payload, aggregates and stores the
// result. Nothing is stored when aggregation fails.
func (r *Runner) Run(ctx context.Context, jobID string, payload []byte) (*Stored, error) {
	var w Window
	if len(payload) > 0 && string(payload) != "null" {
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
		}
	}
	rep, err := r.agg.Generate(ctx, w)
	if err != nil {
		return nil, err
	}
	st := Stored{JobID: jobID, GeneratedAt: r.now().UTC(), Report: *rep}
	if err := r.store.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	r.log.Info("report stored", "job_id", jobID, "total_borrows", rep.TotalBorrows)
	return &st, nil
}

func (r *Runner) Store() Store { return r.store }

func (r *Runner) Aggregator() *Aggregator { return r.agg }

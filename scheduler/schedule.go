package scheduler

import (
	"encoding/json"
	"errors"
	"time"
)

const day = 24 * time.Hour

// Schedule fires Job every Interval, aligned to UTC midnight plus
// StartOffset. Schedule{Job: "generate_report", Interval: 24 * time.Hour}
// fires at 00:00 UTC daily.
type Schedule struct {
	Job         string
	Interval    time.Duration
	StartOffset time.Duration
	Payload     json.RawMessage
}

func (s Schedule) validate() error {
	switch {
	case s.Job == "":
		return errors.New("schedule: job name is required")
	case s.Interval <= 0:
		return errors.New("schedule: interval must be positive")
	case s.StartOffset < 0:
		return errors.New("schedule: start offset must not be negative")
	}
	return nil
}

// Next returns the first fire instant strictly after now.
func (s Schedule) Next(now time.Time) time.Time {
	now = now.UTC()
	anchor := now.Truncate(day).Add(s.StartOffset)
	if anchor.After(now) {
		steps := anchor.Sub(now)/s.Interval + 1
		anchor = anchor.Add(-steps * s.Interval)
	}
	k := now.Sub(anchor)/s.Interval + 1
	return anchor.Add(k * s.Interval)
}

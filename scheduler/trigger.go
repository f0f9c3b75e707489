// Package scheduler runs persisted background jobs on interval, cron, or
// one-shot date triggers. Job definitions live in the store; execution state
// (status, last run, last result) is written back after every run.
package scheduler

import (
	"fmt"
	"time"
)

// Trigger types.
const (
	TriggerInterval = "interval"
	TriggerCron     = "cron"
	TriggerDate     = "date"
)

// Trigger computes fire times for a job.
type Trigger interface {
	// Next returns the first fire time strictly after the given instant,
	// or the zero time when the trigger will never fire again.
	Next(after time.Time) time.Time
}

// ParseTrigger parses a trigger spec. Interval specs use Go duration syntax
// ("90s", "1h30m"), cron specs the five-field form, date specs RFC 3339.
func ParseTrigger(triggerType, spec string) (Trigger, error) {
	switch triggerType {
	case TriggerInterval:
		d, err := time.ParseDuration(spec)
		if err != nil {
			return nil, fmt.Errorf("parse interval %q: %w", spec, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("interval must be positive, got %s", d)
		}
		return intervalTrigger{every: d}, nil

	case TriggerCron:
		sched, err := parseCron(spec)
		if err != nil {
			return nil, err
		}
		return sched, nil

	case TriggerDate:
		at, err := time.Parse(time.RFC3339, spec)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", spec, err)
		}
		return dateTrigger{at: at}, nil

	default:
		return nil, fmt.Errorf("unknown trigger type %q", triggerType)
	}
}

type intervalTrigger struct {
	every time.Duration
}

func (t intervalTrigger) Next(after time.Time) time.Time {
	return after.Add(t.every)
}

type dateTrigger struct {
	at time.Time
}

func (t dateTrigger) Next(after time.Time) time.Time {
	if t.at.After(after) {
		return t.at
	}
	return time.Time{}
}

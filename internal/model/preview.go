package model

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

var rruleWeekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Preview lists the next count firings of the rule strictly after now,
// in chronological order.
func (r ReminderRule) Preview(now time.Time, count int) ([]time.Time, error) {
	if count <= 0 {
		return []time.Time{}, nil
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.Recurrence.Kind == RecurrenceOnce {
		return r.Triggers(now), nil
	}

	rule, err := r.toRRule(now)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, count)
	next := rule.Iterator()
	for len(out) < count {
		at, ok := next()
		if !ok {
			break
		}
		if at.After(now) {
			out = append(out, at)
		}
	}
	return out, nil
}

func (r ReminderRule) toRRule(now time.Time) (*rrule.RRule, error) {
	opt := rrule.ROption{
		Dtstart: atClock(now, 0, r.Hour, r.Minute, r.Meridiem),
	}
	switch r.Recurrence.Kind {
	case RecurrenceDaily:
		opt.Freq = rrule.DAILY
	case RecurrenceWeekly:
		opt.Freq = rrule.WEEKLY
		for _, d := range r.Recurrence.Days {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecurrence, r.Recurrence.Kind)
	}
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("build rrule: %w", err)
	}
	return rule, nil
}

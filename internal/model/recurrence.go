package model

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

type RecurrenceKind string

const (
	RecurrenceDaily  RecurrenceKind = "daily"
	RecurrenceWeekly RecurrenceKind = "weekly"
	RecurrenceOnce   RecurrenceKind = "once"
)

var (
	ErrInvalidRecurrence = errors.New("model: invalid recurrence")
	ErrNoWeekdays        = errors.New("model: weekly recurrence requires at least one weekday")
	ErrInvalidWeekday    = errors.New("model: invalid weekday")
	ErrDuplicateWeekday  = errors.New("model: duplicate weekday in recurrence")
	ErrInvalidDate       = errors.New("model: invalid calendar date")
)

// CalendarDate is a wall-clock date with a 0-based month, the shape the
// mobile client stores for one-time reminders.
type CalendarDate struct {
	Year  int
	Month int
	Day   int
}

func (d CalendarDate) Validate() error {
	if d.Month < 0 || d.Month > 11 {
		return fmt.Errorf("%w: month %d", ErrInvalidDate, d.Month)
	}
	if d.Day < 1 {
		return fmt.Errorf("%w: day %d", ErrInvalidDate, d.Day)
	}
	normalized := time.Date(d.Year, time.Month(d.Month+1), d.Day, 0, 0, 0, 0, time.UTC)
	if normalized.Day() != d.Day {
		return fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, d.Year, d.Month+1, d.Day)
	}
	return nil
}

func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month+1, d.Day)
}

// SameDay reports whether t falls on this date in t's location.
func (d CalendarDate) SameDay(t time.Time) bool {
	y, m, day := t.Date()
	return y == d.Year && int(m)-1 == d.Month && day == d.Day
}

// Recurrence is a tagged variant: exactly one of the shapes selected by Kind
// carries data. Days is only meaningful for weekly rules and Date only for
// one-time rules.
type Recurrence struct {
	Kind RecurrenceKind
	Days []time.Weekday
	Date *CalendarDate
}

func Daily() Recurrence {
	return Recurrence{Kind: RecurrenceDaily}
}

func WeeklyOn(days ...time.Weekday) Recurrence {
	out := make([]time.Weekday, len(days))
	copy(out, days)
	return Recurrence{Kind: RecurrenceWeekly, Days: out}
}

func OnceOn(year, month0, day int) Recurrence {
	return Recurrence{Kind: RecurrenceOnce, Date: &CalendarDate{Year: year, Month: month0, Day: day}}
}

func (r Recurrence) Validate() error {
	switch r.Kind {
	case RecurrenceDaily:
		if len(r.Days) > 0 || r.Date != nil {
			return fmt.Errorf("%w: daily rule carries weekly or date fields", ErrInvalidRecurrence)
		}
	case RecurrenceWeekly:
		if r.Date != nil {
			return fmt.Errorf("%w: weekly rule carries a date", ErrInvalidRecurrence)
		}
		if len(r.Days) == 0 {
			return ErrNoWeekdays
		}
		s := make([]int, 0, len(r.Days))
		for _, d := range r.Days {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("%w: %d", ErrInvalidWeekday, d)
			}
			s = append(s, int(d))
		}
		sort.Ints(s)
		for i := 1; i < len(s); i++ {
			if s[i] == s[i-1] {
				return fmt.Errorf("%w: %d", ErrDuplicateWeekday, s[i])
			}
		}
	case RecurrenceOnce:
		if len(r.Days) > 0 {
			return fmt.Errorf("%w: one-time rule carries weekdays", ErrInvalidRecurrence)
		}
		if r.Date == nil {
			return fmt.Errorf("%w: one-time rule requires a date", ErrInvalidRecurrence)
		}
		return r.Date.Validate()
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRecurrence, r.Kind)
	}
	return nil
}

// HasDay reports whether a weekly recurrence includes d.
func (r Recurrence) HasDay(d time.Weekday) bool {
	for _, day := range r.Days {
		if day == d {
			return true
		}
	}
	return false
}

func (r Recurrence) String() string {
	switch r.Kind {
	case RecurrenceDaily:
		return "daily"
	case RecurrenceWeekly:
		names := make([]string, 0, len(r.Days))
		for _, d := range r.Days {
			names = append(names, d.String()[:3])
		}
		return fmt.Sprintf("weekly %v", names)
	case RecurrenceOnce:
		if r.Date != nil {
			return "once " + r.Date.String()
		}
	}
	return string(r.Kind)
}

package model

import "time"

// NextDailyTrigger returns today's instant at the given time, or tomorrow's
// when today's has already passed. The result is always after now.
func NextDailyTrigger(hour12, minute int, meridiem Meridiem, now time.Time) time.Time {
	next := atClock(now, 0, hour12, minute, meridiem)
	if !next.After(now) {
		next = atClock(now, 1, hour12, minute, meridiem)
	}
	return next
}

// NextWeeklyTriggers returns one instant per requested weekday: the soonest
// occurrence of that weekday at the given time, a week out when it is today
// and the time has passed. Results follow the order of days.
func NextWeeklyTriggers(days []time.Weekday, hour12, minute int, meridiem Meridiem, now time.Time) []time.Time {
	out := make([]time.Time, 0, len(days))
	for _, target := range days {
		delta := (int(target) - int(now.Weekday()) + 7) % 7
		next := atClock(now, delta, hour12, minute, meridiem)
		if delta == 0 && !next.After(now) {
			next = atClock(now, 7, hour12, minute, meridiem)
		}
		out = append(out, next)
	}
	return out
}

// OneTimeTrigger returns the exact instant of a one-time rule. ok is false
// when that instant is not after now; past one-time rules never fire.
func OneTimeTrigger(year, month0, day, hour12, minute int, meridiem Meridiem, now time.Time) (time.Time, bool) {
	at := time.Date(year, time.Month(month0+1), day, To24Hour(hour12, meridiem), minute, 0, 0, now.Location())
	if !at.After(now) {
		return time.Time{}, false
	}
	return at, true
}

// Triggers dispatches on the rule's recurrence. It returns nil for a
// one-time rule in the past or an unknown recurrence.
func (r ReminderRule) Triggers(now time.Time) []time.Time {
	switch r.Recurrence.Kind {
	case RecurrenceDaily:
		return []time.Time{NextDailyTrigger(r.Hour, r.Minute, r.Meridiem, now)}
	case RecurrenceWeekly:
		return NextWeeklyTriggers(r.Recurrence.Days, r.Hour, r.Minute, r.Meridiem, now)
	case RecurrenceOnce:
		if r.Recurrence.Date == nil {
			return nil
		}
		d := r.Recurrence.Date
		at, ok := OneTimeTrigger(d.Year, d.Month, d.Day, r.Hour, r.Minute, r.Meridiem, now)
		if !ok {
			return nil
		}
		return []time.Time{at}
	default:
		return nil
	}
}

// RepeatEveryDays is the re-arm period of a registered trigger: 1 for daily
// rules, 7 for weekly ones, 0 for one-time rules.
func (r ReminderRule) RepeatEveryDays() int {
	switch r.Recurrence.Kind {
	case RecurrenceDaily:
		return 1
	case RecurrenceWeekly:
		return 7
	default:
		return 0
	}
}

func atClock(now time.Time, addDays, hour12, minute int, meridiem Meridiem) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+addDays, To24Hour(hour12, meridiem), minute, 0, 0, now.Location())
}

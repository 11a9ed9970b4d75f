// Package completion derives per-day completion state and the streak from
// rule completion dates.
package completion

import (
	"math"
	"time"

	"github.com/sandeepkv93/bottle/internal/model"
)

// StreakTarget is the streak length at which progress is full.
const StreakTarget = 7

func IsCompletedOn(rule model.ReminderRule, date string) bool {
	return rule.IsCompletedOn(date)
}

// IsApplicableToday reports whether an enabled rule is due on now's date.
func IsApplicableToday(rule model.ReminderRule, now time.Time) bool {
	if !rule.Enabled {
		return false
	}
	switch rule.Recurrence.Kind {
	case model.RecurrenceDaily:
		return true
	case model.RecurrenceWeekly:
		return rule.Recurrence.HasDay(now.Weekday())
	case model.RecurrenceOnce:
		return rule.Recurrence.Date != nil && rule.Recurrence.Date.SameDay(now)
	default:
		return false
	}
}

// TodayRules keeps the rules applicable on now's date, in order.
func TodayRules(rules []model.ReminderRule, now time.Time) []model.ReminderRule {
	out := make([]model.ReminderRule, 0, len(rules))
	for _, r := range rules {
		if IsApplicableToday(r, now) {
			out = append(out, r)
		}
	}
	return out
}

// CurrentStreak counts consecutive days with at least one completion,
// walking back from now's date. Dates that do not parse are ignored.
func CurrentStreak(dates []string, now time.Time) int {
	seen := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		if _, err := time.Parse(model.DateLayout, d); err != nil {
			continue
		}
		seen[d] = struct{}{}
	}

	streak := 0
	y, m, d := now.Date()
	for {
		day := time.Date(y, m, d-streak, 0, 0, 0, 0, now.Location())
		if _, ok := seen[model.FormatDate(day)]; !ok {
			return streak
		}
		streak++
	}
}

// Progress maps a streak to [0, 1] against StreakTarget.
func Progress(streak int) float64 {
	if streak <= 0 {
		return 0
	}
	return math.Min(float64(streak)/StreakTarget, 1)
}

// DatesFromRules flattens every rule's completion dates.
func DatesFromRules(rules []model.ReminderRule) []string {
	out := make([]string, 0)
	for _, r := range rules {
		out = append(out, r.CompletedDates...)
	}
	return out
}

// Summary is the day view of the tracker.
type Summary struct {
	Today     []model.ReminderRule
	Completed int
	Streak    int
	Progress  float64
}

// Summarize combines today's rules with the streak over extra dates, such as
// mission completion days, and the rules' own completion dates.
func Summarize(rules []model.ReminderRule, extraDates []string, now time.Time) Summary {
	today := TodayRules(rules, now)
	date := model.FormatDate(now)
	done := 0
	for _, r := range today {
		if r.IsCompletedOn(date) {
			done++
		}
	}
	streak := CurrentStreak(append(DatesFromRules(rules), extraDates...), now)
	return Summary{Today: today, Completed: done, Streak: streak, Progress: Progress(streak)}
}

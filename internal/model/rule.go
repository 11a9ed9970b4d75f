package model

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultMessage = "Pack a tumbler before leaving"
	DefaultEmoji   = "🌱"

	// DateLayout is the layout of completion date strings.
	DateLayout = "2006-01-02"
)

var (
	ErrMissingID       = errors.New("model: rule id is required")
	ErrInvalidHour     = errors.New("model: hour must be within 1-12")
	ErrInvalidMinute   = errors.New("model: minute must be within 0-59")
	ErrInvalidMeridiem = errors.New("model: invalid meridiem")

	ErrDuplicateCompletion = errors.New("model: duplicate completion date")
)

type Meridiem string

const (
	AM Meridiem = "AM"
	PM Meridiem = "PM"
)

func (m Meridiem) IsValid() bool {
	switch m {
	case AM, PM:
		return true
	default:
		return false
	}
}

// To24Hour converts a 12-hour clock value. 12 AM is 0 and 12 PM is 12.
func To24Hour(hour12 int, meridiem Meridiem) int {
	if meridiem == PM {
		return hour12%12 + 12
	}
	return hour12 % 12
}

// ClockFrom24 is the inverse of To24Hour.
func ClockFrom24(hour24 int) (int, Meridiem) {
	meridiem := AM
	if hour24 >= 12 {
		meridiem = PM
	}
	hour12 := hour24 % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return hour12, meridiem
}

// ReminderRule is a user-declared reminder: a time of day, a recurrence and
// the message shown when it fires.
type ReminderRule struct {
	ID             string
	Hour           int
	Minute         int
	Meridiem       Meridiem
	Message        string
	Enabled        bool
	Recurrence     Recurrence
	Emoji          string
	CompletedDates []string
}

// NewRuleID returns a timestamp-based identifier.
func NewRuleID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

func (r ReminderRule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrMissingID
	}
	if r.Hour < 1 || r.Hour > 12 {
		return fmt.Errorf("%w: %d", ErrInvalidHour, r.Hour)
	}
	if r.Minute < 0 || r.Minute > 59 {
		return fmt.Errorf("%w: %d", ErrInvalidMinute, r.Minute)
	}
	if !r.Meridiem.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMeridiem, r.Meridiem)
	}
	if err := validateCompletedDates(r.CompletedDates); err != nil {
		return err
	}
	return r.Recurrence.Validate()
}

func validateCompletedDates(dates []string) error {
	seen := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		if _, err := time.Parse(DateLayout, d); err != nil {
			return fmt.Errorf("%w: completion %q", ErrInvalidDate, d)
		}
		if _, dup := seen[d]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateCompletion, d)
		}
		seen[d] = struct{}{}
	}
	return nil
}

// WithDefaults fills the message and emoji placeholders.
func (r ReminderRule) WithDefaults() ReminderRule {
	if strings.TrimSpace(r.Message) == "" {
		r.Message = DefaultMessage
	}
	if strings.TrimSpace(r.Emoji) == "" {
		r.Emoji = DefaultEmoji
	}
	return r
}

func (r ReminderRule) Hour24() int {
	return To24Hour(r.Hour, r.Meridiem)
}

// TimeLabel renders the rule's time as "07:30 AM".
func (r ReminderRule) TimeLabel() string {
	return fmt.Sprintf("%02d:%02d %s", r.Hour, r.Minute, r.Meridiem)
}

func (r ReminderRule) IsCompletedOn(date string) bool {
	return slices.Contains(r.CompletedDates, date)
}

// MarkCompleted appends date unless it is already recorded. It reports
// whether the rule changed.
func (r *ReminderRule) MarkCompleted(date string) bool {
	if r.IsCompletedOn(date) {
		return false
	}
	r.CompletedDates = append(r.CompletedDates, date)
	return true
}

// Clone returns a deep copy so callers cannot alias slices held by a store.
func (r ReminderRule) Clone() ReminderRule {
	out := r
	out.CompletedDates = slices.Clone(r.CompletedDates)
	out.Recurrence.Days = slices.Clone(r.Recurrence.Days)
	if r.Recurrence.Date != nil {
		d := *r.Recurrence.Date
		out.Recurrence.Date = &d
	}
	return out
}

func CloneRules(rules []ReminderRule) []ReminderRule {
	if rules == nil {
		return nil
	}
	out := make([]ReminderRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Clone())
	}
	return out
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

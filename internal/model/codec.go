package model

import (
	"encoding/json"
	"strings"
	"time"
)

// ruleWire is the persisted shape of a rule. Field names match the documents
// written by the mobile client so both can read each other's data.
type ruleWire struct {
	ID             string   `json:"id"`
	Hour           int      `json:"hour"`
	Minute         int      `json:"minute"`
	Meridiem       string   `json:"ampm"`
	Message        string   `json:"message"`
	Enabled        bool     `json:"enabled"`
	Emoji          string   `json:"emoji,omitempty"`
	RepeatDaily    bool     `json:"repeatDaily,omitempty"`
	RepeatDays     []int    `json:"repeatDays,omitempty"`
	SelectedYMD    *ymdWire `json:"selectedYMD,omitempty"`
	CompletedDates []string `json:"completedDates,omitempty"`
}

type ymdWire struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (r ReminderRule) MarshalJSON() ([]byte, error) {
	w := ruleWire{
		ID:             r.ID,
		Hour:           r.Hour,
		Minute:         r.Minute,
		Meridiem:       string(r.Meridiem),
		Message:        r.Message,
		Enabled:        r.Enabled,
		Emoji:          r.Emoji,
		CompletedDates: r.CompletedDates,
	}
	switch r.Recurrence.Kind {
	case RecurrenceDaily:
		w.RepeatDaily = true
	case RecurrenceWeekly:
		w.RepeatDays = make([]int, 0, len(r.Recurrence.Days))
		for _, d := range r.Recurrence.Days {
			w.RepeatDays = append(w.RepeatDays, int(d))
		}
	case RecurrenceOnce:
		if r.Recurrence.Date != nil {
			w.SelectedYMD = &ymdWire{Year: r.Recurrence.Date.Year, Month: r.Recurrence.Date.Month, Day: r.Recurrence.Date.Day}
		}
	}
	return json.Marshal(w)
}

func (r *ReminderRule) UnmarshalJSON(data []byte) error {
	var w ruleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	hour, meridiem := normalizeHour(w.Hour, Meridiem(strings.ToUpper(strings.TrimSpace(w.Meridiem))))
	out := ReminderRule{
		ID:             w.ID,
		Hour:           hour,
		Minute:         w.Minute,
		Meridiem:       meridiem,
		Message:        w.Message,
		Enabled:        w.Enabled,
		Emoji:          w.Emoji,
		CompletedDates: w.CompletedDates,
	}
	switch {
	case w.RepeatDaily:
		out.Recurrence = Daily()
	case len(w.RepeatDays) > 0:
		days := make([]time.Weekday, 0, len(w.RepeatDays))
		for _, d := range w.RepeatDays {
			days = append(days, time.Weekday(d))
		}
		out.Recurrence = Recurrence{Kind: RecurrenceWeekly, Days: days}
	case w.SelectedYMD != nil:
		out.Recurrence = OnceOn(w.SelectedYMD.Year, w.SelectedYMD.Month, w.SelectedYMD.Day)
	}
	*r = out
	return nil
}

// normalizeHour folds legacy 24-hour values (0, 13-23) into the 12-hour
// range without changing the instant they convert to.
func normalizeHour(hour int, meridiem Meridiem) (int, Meridiem) {
	if hour < 0 || hour > 23 {
		return hour, meridiem
	}
	if !meridiem.IsValid() {
		h12, m := ClockFrom24(hour)
		return h12, m
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return hour, meridiem
}

func EncodeRules(rules []ReminderRule) ([]byte, error) {
	if rules == nil {
		rules = []ReminderRule{}
	}
	return json.Marshal(rules)
}

func DecodeRules(data []byte) ([]ReminderRule, error) {
	var out []ReminderRule
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

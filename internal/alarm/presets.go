package alarm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/bottle/internal/model"
)

var ErrUnknownPreset = errors.New("alarm: unknown preset")

// Preset is a suggested reminder the user can add with one command.
type Preset struct {
	ID       string
	Hour     int
	Minute   int
	Meridiem model.Meridiem
	Message  string
	Days     []time.Weekday
	Emoji    string
}

var weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

var everyDay = []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}

var recommended = []Preset{
	{ID: "rec1", Hour: 7, Minute: 30, Meridiem: model.AM, Message: "Pack a tumbler in the morning", Days: weekdays, Emoji: "🌱"},
	{ID: "rec2", Hour: 2, Minute: 0, Meridiem: model.PM, Message: "Bring a shopping bag", Days: weekdays, Emoji: "🌿"},
	{ID: "rec3", Hour: 9, Minute: 0, Meridiem: model.PM, Message: "Use a cup while brushing teeth", Days: everyDay, Emoji: "💧"},
}

// Recommended lists the built-in presets.
func Recommended() []Preset {
	out := make([]Preset, len(recommended))
	copy(out, recommended)
	return out
}

func FindPreset(id string) (Preset, bool) {
	for _, p := range recommended {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Rule builds an enabled weekly rule from the preset. The id is left empty.
func (p Preset) Rule() model.ReminderRule {
	return model.ReminderRule{
		Hour:       p.Hour,
		Minute:     p.Minute,
		Meridiem:   p.Meridiem,
		Message:    p.Message,
		Enabled:    true,
		Recurrence: model.WeeklyOn(p.Days...),
		Emoji:      p.Emoji,
	}
}

// AddRecommended appends a new rule built from the named preset.
func (s *Store) AddRecommended(ctx context.Context, presetID string) (model.ReminderRule, error) {
	p, ok := FindPreset(presetID)
	if !ok {
		return model.ReminderRule{}, fmt.Errorf("%w: %q", ErrUnknownPreset, presetID)
	}
	return s.Upsert(ctx, p.Rule())
}

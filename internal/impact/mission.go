// Package impact records environmental mission completions and turns the
// running totals into level stages.
package impact

import "time"

type TimeSlot string

const (
	Morning   TimeSlot = "morning"
	Afternoon TimeSlot = "afternoon"
	Evening   TimeSlot = "evening"
)

// TimeSlotAt buckets the local hour: before noon, before 18:00, otherwise
// evening.
func TimeSlotAt(now time.Time) TimeSlot {
	switch h := now.Hour(); {
	case h < 12:
		return Morning
	case h < 18:
		return Afternoon
	default:
		return Evening
	}
}

// Mission is an eco action with its saved water (ml), waste (g) and CO2 (g).
type Mission struct {
	ID    string
	Name  string
	Water float64
	Waste float64
	CO2   float64
	Emoji string
}

var catalog = []Mission{
	{ID: "tumbler", Name: "Use a tumbler instead of a paper cup", Water: 500, Waste: 0.2, CO2: 60, Emoji: "🥤"},
	{ID: "bag", Name: "Bring a shopping bag", Waste: 0.5, CO2: 40, Emoji: "🛍️"},
	{ID: "cup", Name: "Use a cup while brushing teeth", Water: 4000, CO2: 5, Emoji: "💧"},
	{ID: "stairs", Name: "Take the stairs", CO2: 30, Emoji: "🚶"},
	{ID: "unplug", Name: "Unplug idle chargers", CO2: 20, Emoji: "🔌"},
	{ID: "leftovers", Name: "Finish every plate", Waste: 0.3, CO2: 100, Emoji: "🍽️"},
	{ID: "shower", Name: "Shower in five minutes", Water: 3000, CO2: 80, Emoji: "🚿"},
}

// Catalog returns the built-in missions.
func Catalog() []Mission {
	out := make([]Mission, len(catalog))
	copy(out, catalog)
	return out
}

func FindMission(id string) (Mission, bool) {
	for _, m := range catalog {
		if m.ID == id {
			return m, true
		}
	}
	return Mission{}, false
}

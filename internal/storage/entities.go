package storage

import "time"

// MissionEntry is one locally logged mission completion.
type MissionEntry struct {
	ID          string
	UserID      string
	MissionID   string
	Name        string
	Water       float64
	Waste       float64
	CO2         float64
	TimeSlot    string
	Date        string
	CompletedAt time.Time
}

type MissionListFilter struct {
	UserID string
	Date   string
	Limit  int
	Offset int
}

type missionRow struct {
	ID          string  `db:"id"`
	UserID      string  `db:"user_id"`
	MissionID   string  `db:"mission_id"`
	Name        string  `db:"name"`
	Water       float64 `db:"water"`
	Waste       float64 `db:"waste"`
	CO2         float64 `db:"co2"`
	TimeSlot    string  `db:"time_slot"`
	Date        string  `db:"date"`
	CompletedAt string  `db:"completed_at"`
}

func (r missionRow) entry() (MissionEntry, error) {
	at, err := parseRequiredTime(r.CompletedAt)
	if err != nil {
		return MissionEntry{}, err
	}
	return MissionEntry{
		ID:          r.ID,
		UserID:      r.UserID,
		MissionID:   r.MissionID,
		Name:        r.Name,
		Water:       r.Water,
		Waste:       r.Waste,
		CO2:         r.CO2,
		TimeSlot:    r.TimeSlot,
		Date:        r.Date,
		CompletedAt: at,
	}, nil
}

func rowFromEntry(in MissionEntry) missionRow {
	return missionRow{
		ID:          in.ID,
		UserID:      in.UserID,
		MissionID:   in.MissionID,
		Name:        in.Name,
		Water:       in.Water,
		Waste:       in.Waste,
		CO2:         in.CO2,
		TimeSlot:    in.TimeSlot,
		Date:        in.Date,
		CompletedAt: mustTime(in.CompletedAt),
	}
}

package impact

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/bottle/internal/model"
	"github.com/sandeepkv93/bottle/internal/remote"
	"github.com/sandeepkv93/bottle/internal/storage"
	"go.uber.org/zap"
)

// AnonymousUserID keys local mission entries recorded while signed out.
const AnonymousUserID = "local"

const (
	fieldTotalWater     = "totalWater"
	fieldTotalWaste     = "totalWaste"
	fieldTotalCO2       = "totalCO2"
	fieldTotalCompleted = "totalCompleted"
)

// Stats are the cumulative totals of a user's completed missions.
type Stats struct {
	TotalWater     float64
	TotalWaste     float64
	TotalCO2       float64
	TotalCompleted int
}

// Completion is one recorded mission.
type Completion struct {
	ID          string
	Mission     Mission
	TimeSlot    TimeSlot
	CompletedAt time.Time
}

// Recorder writes mission completions to the remote document store and the
// local mission log. Either may be nil.
type Recorder struct {
	docs   remote.DocumentStore
	local  storage.MissionLog
	logger *zap.Logger
}

func NewRecorder(docs remote.DocumentStore, local storage.MissionLog, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{docs: docs, local: local, logger: logger}
}

// RecordCompletion logs the mission locally, adds it to the user's
// completedMissions collection and bumps the stats totals. Remote failures
// are logged; the local entry is kept either way. A signed-out completion
// (uid "") is only logged locally under AnonymousUserID.
func (r *Recorder) RecordCompletion(ctx context.Context, uid string, m Mission, now time.Time) (Completion, error) {
	c := Completion{
		ID:          uuid.NewString(),
		Mission:     m,
		TimeSlot:    TimeSlotAt(now),
		CompletedAt: now,
	}

	if r.local != nil {
		entry := storage.MissionEntry{
			ID:          c.ID,
			UserID:      localUser(uid),
			MissionID:   m.ID,
			Name:        m.Name,
			Water:       m.Water,
			Waste:       m.Waste,
			CO2:         m.CO2,
			TimeSlot:    string(c.TimeSlot),
			Date:        model.FormatDate(now),
			CompletedAt: now,
		}
		if err := r.local.AppendMission(ctx, entry); err != nil {
			r.logger.Warn("log mission locally", zap.String("mission_id", m.ID), zap.Error(err))
		}
	}

	if r.docs == nil || uid == "" {
		return c, nil
	}
	doc := map[string]any{
		"missionId":   m.ID,
		"missionName": m.Name,
		"water":       m.Water,
		"waste":       m.Waste,
		"co2":         m.CO2,
		"completedAt": localTime(now),
		"timeSlot":    string(c.TimeSlot),
		"createdAt":   remote.ServerTime,
	}
	if _, err := r.docs.AddDocument(ctx, remote.CompletedMissionsPath(uid), doc); err != nil {
		r.logger.Warn("record mission remotely", zap.String("uid", uid), zap.String("mission_id", m.ID), zap.Error(err))
		return c, nil
	}
	deltas := map[string]float64{
		fieldTotalWater:     m.Water,
		fieldTotalWaste:     m.Waste,
		fieldTotalCO2:       m.CO2,
		fieldTotalCompleted: 1,
	}
	if err := r.docs.Increment(ctx, remote.StatsDocPath(uid), deltas); err != nil {
		r.logger.Warn("update mission stats", zap.String("uid", uid), zap.Error(err))
	}
	return c, nil
}

// Stats reads the remote totals, summing the local log when signed out or
// when the remote store cannot be read.
func (r *Recorder) Stats(ctx context.Context, uid string) (Stats, error) {
	if r.docs != nil && uid != "" {
		doc, ok, err := r.docs.GetDocument(ctx, remote.StatsDocPath(uid))
		if err == nil {
			if !ok {
				return Stats{}, nil
			}
			return statsFromDoc(doc), nil
		}
		r.logger.Warn("read mission stats", zap.String("uid", uid), zap.Error(err))
	}
	entries, err := r.localEntries(ctx, uid)
	if err != nil {
		return Stats{}, err
	}
	var s Stats
	for _, e := range entries {
		s.TotalWater += e.Water
		s.TotalWaste += e.Waste
		s.TotalCO2 += e.CO2
		s.TotalCompleted++
	}
	return s, nil
}

// CompletionDates lists the local dates on which the user completed at least
// one mission, for the streak.
func (r *Recorder) CompletionDates(ctx context.Context, uid string) ([]string, error) {
	if r.docs != nil && uid != "" {
		docs, err := r.docs.ListDocuments(ctx, remote.CompletedMissionsPath(uid))
		if err == nil {
			out := make([]string, 0, len(docs))
			for _, d := range docs {
				if date, ok := dateFromLocalTime(d.Data["completedAt"]); ok {
					out = append(out, date)
				}
			}
			return out, nil
		}
		r.logger.Warn("list completed missions", zap.String("uid", uid), zap.Error(err))
	}
	entries, err := r.localEntries(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Date)
	}
	return out, nil
}

func (r *Recorder) localEntries(ctx context.Context, uid string) ([]storage.MissionEntry, error) {
	if r.local == nil {
		return nil, nil
	}
	return r.local.ListMissions(ctx, storage.MissionListFilter{UserID: localUser(uid)})
}

func localUser(uid string) string {
	if uid == "" {
		return AnonymousUserID
	}
	return uid
}

func statsFromDoc(doc map[string]any) Stats {
	water, _ := remote.AsFloat(doc[fieldTotalWater])
	waste, _ := remote.AsFloat(doc[fieldTotalWaste])
	co2, _ := remote.AsFloat(doc[fieldTotalCO2])
	completed, _ := remote.AsFloat(doc[fieldTotalCompleted])
	return Stats{TotalWater: water, TotalWaste: waste, TotalCO2: co2, TotalCompleted: int(completed)}
}

// localTime is the wall-clock breakdown stored with each completion, with a
// 0-based month as the mobile client writes it.
func localTime(t time.Time) map[string]any {
	return map[string]any{
		"year":      t.Year(),
		"month":     int(t.Month()) - 1,
		"date":      t.Day(),
		"hours":     t.Hour(),
		"minutes":   t.Minute(),
		"seconds":   t.Second(),
		"timestamp": t.UnixMilli(),
	}
}

func dateFromLocalTime(v any) (string, bool) {
	switch lt := v.(type) {
	case map[string]any:
		y, ok1 := remote.AsFloat(lt["year"])
		m, ok2 := remote.AsFloat(lt["month"])
		d, ok3 := remote.AsFloat(lt["date"])
		if !ok1 || !ok2 || !ok3 {
			return "", false
		}
		return model.CalendarDate{Year: int(y), Month: int(m), Day: int(d)}.String(), true
	case string:
		t, err := time.Parse(time.RFC3339, lt)
		if err != nil {
			return "", false
		}
		return model.FormatDate(t), true
	case time.Time:
		return model.FormatDate(lt), true
	default:
		return "", false
	}
}


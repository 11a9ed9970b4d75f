package impact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/sandeepkv93/bottle/internal/model"
	"github.com/sandeepkv93/bottle/internal/storage"
	"go.uber.org/zap"
)

const (
	DailyDateKey      = "dailyDate"
	DailyMissionsKey  = "dailyMissions"
	DailyCompletedKey = "completedDailyIds"

	DailyMissionCount = 3
)

var (
	ErrNotInDaily     = errors.New("impact: mission is not in today's set")
	ErrNoReplacement  = errors.New("impact: no mission left to swap in")
	ErrInvalidDailyAt = errors.New("impact: daily mission index out of range")
)

// DailySet is the day's missions and which of them are done.
type DailySet struct {
	Date      string
	Missions  []Mission
	Completed []string
}

func (d DailySet) IsCompleted(id string) bool {
	return slices.Contains(d.Completed, id)
}

func (d DailySet) indexOf(id string) int {
	return slices.IndexFunc(d.Missions, func(m Mission) bool { return m.ID == id })
}

// DailyPlanner draws DailyMissionCount random catalog missions per local
// date and keeps them in the local cache until the date changes.
type DailyPlanner struct {
	mu     sync.Mutex
	cache  storage.Cache
	rng    *rand.Rand
	logger *zap.Logger
}

// NewDailyPlanner uses src for the draw, or a time-seeded source when nil.
func NewDailyPlanner(cache storage.Cache, src rand.Source, logger *zap.Logger) *DailyPlanner {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>1|1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyPlanner{cache: cache, rng: rand.New(src), logger: logger}
}

// Today returns the cached set for now's date, drawing a fresh one with no
// completions when the stored date differs.
func (p *DailyPlanner) Today(ctx context.Context, now time.Time) (DailySet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.today(ctx, now)
}

// Complete marks a mission of today's set done. done is false when it was
// already marked.
func (p *DailyPlanner) Complete(ctx context.Context, missionID string, now time.Time) (DailySet, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, err := p.today(ctx, now)
	if err != nil {
		return DailySet{}, false, err
	}
	if set.indexOf(missionID) < 0 {
		return set, false, fmt.Errorf("%w: %q", ErrNotInDaily, missionID)
	}
	if set.IsCompleted(missionID) {
		return set, false, nil
	}
	set.Completed = append(set.Completed, missionID)
	if err := p.writeJSON(ctx, DailyCompletedKey, set.Completed); err != nil {
		return set, false, err
	}
	return set, true, nil
}

// Replace swaps the mission at index for a random catalog mission not in
// today's set.
func (p *DailyPlanner) Replace(ctx context.Context, index int, now time.Time) (DailySet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, err := p.today(ctx, now)
	if err != nil {
		return DailySet{}, err
	}
	if index < 0 || index >= len(set.Missions) {
		return set, fmt.Errorf("%w: %d", ErrInvalidDailyAt, index)
	}
	candidates := make([]Mission, 0, len(catalog))
	for _, m := range catalog {
		if set.indexOf(m.ID) < 0 {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return set, ErrNoReplacement
	}
	set.Missions[index] = candidates[p.rng.IntN(len(candidates))]
	if err := p.writeJSON(ctx, DailyMissionsKey, missionIDs(set.Missions)); err != nil {
		return set, err
	}
	return set, nil
}

func (p *DailyPlanner) today(ctx context.Context, now time.Time) (DailySet, error) {
	date := model.FormatDate(now)
	if set, ok := p.readCached(ctx, date); ok {
		return set, nil
	}

	picked := make([]Mission, 0, DailyMissionCount)
	for _, i := range p.rng.Perm(len(catalog)) {
		if len(picked) == DailyMissionCount {
			break
		}
		picked = append(picked, catalog[i])
	}
	set := DailySet{Date: date, Missions: picked, Completed: []string{}}
	if err := p.writeJSON(ctx, DailyMissionsKey, missionIDs(picked)); err != nil {
		return set, err
	}
	if err := p.writeJSON(ctx, DailyCompletedKey, set.Completed); err != nil {
		return set, err
	}
	if err := p.cache.Set(ctx, DailyDateKey, date); err != nil {
		return set, fmt.Errorf("save daily date: %w", err)
	}
	p.logger.Debug("daily missions drawn", zap.String("date", date), zap.Strings("missions", missionIDs(picked)))
	return set, nil
}

func (p *DailyPlanner) readCached(ctx context.Context, date string) (DailySet, bool) {
	stored, ok, err := p.cache.Get(ctx, DailyDateKey)
	if err != nil || !ok || stored != date {
		return DailySet{}, false
	}
	var ids []string
	if !p.readJSON(ctx, DailyMissionsKey, &ids) || len(ids) == 0 {
		return DailySet{}, false
	}
	set := DailySet{Date: date, Completed: []string{}}
	for _, id := range ids {
		if m, ok := FindMission(id); ok {
			set.Missions = append(set.Missions, m)
		}
	}
	p.readJSON(ctx, DailyCompletedKey, &set.Completed)
	return set, true
}

func (p *DailyPlanner) readJSON(ctx context.Context, key string, v any) bool {
	raw, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("read daily missions", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		p.logger.Warn("decode daily missions", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (p *DailyPlanner) writeJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := p.cache.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func missionIDs(ms []Mission) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}

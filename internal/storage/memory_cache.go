package storage

import (
	"context"
	"slices"
	"sync"
)

// MemoryCache is the process-local fallback used when no durable backend
// can be opened. Contents are lost on exit.
type MemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]string
	missions []MissionEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	c.entries[key] = value
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Remove(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Close() error { return nil }

func (c *MemoryCache) AppendMission(_ context.Context, in MissionEntry) error {
	c.mu.Lock()
	c.missions = append(c.missions, in)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) ListMissions(_ context.Context, filter MissionListFilter) ([]MissionEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]MissionEntry, 0)
	for _, m := range c.missions {
		if m.UserID != filter.UserID {
			continue
		}
		if filter.Date != "" && m.Date != filter.Date {
			continue
		}
		out = append(out, m)
	}
	slices.SortStableFunc(out, func(a, b MissionEntry) int { return a.CompletedAt.Compare(b.CompletedAt) })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []MissionEntry{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (c *MemoryCache) DeleteMission(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, m := range c.missions {
		if m.ID == id {
			c.missions = slices.Delete(c.missions, i, i+1)
			return nil
		}
	}
	return ErrNotFound
}

package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound       = errors.New("storage: not found")
	ErrUnknownBackend = errors.New("storage: unknown cache backend")
)

// Cache is the local durable key-value store. Get reports ok=false for a
// missing key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// MissionLog keeps mission completions on the device.
type MissionLog interface {
	AppendMission(ctx context.Context, in MissionEntry) error
	ListMissions(ctx context.Context, filter MissionListFilter) ([]MissionEntry, error)
	DeleteMission(ctx context.Context, id string) error
}

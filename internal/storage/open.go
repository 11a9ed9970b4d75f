package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Options struct {
	Backend       string
	StatePath     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Local bundles the key-value cache with the mission log.
type Local struct {
	Cache
	Missions MissionLog
}

// Close closes the cache. A mission log paired with a Redis cache is in
// memory and needs no closing.
func (l Local) Close() error {
	return l.Cache.Close()
}

// OpenLocal selects the configured backend. When it cannot be opened the
// failure is logged and an in-memory store is returned instead.
func OpenLocal(ctx context.Context, opts Options, logger *zap.Logger) Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	local, err := openBackend(ctx, opts)
	if err != nil {
		logger.Warn("local cache unavailable, using in-memory store",
			zap.String("backend", opts.Backend),
			zap.Error(err),
		)
		mem := NewMemoryCache()
		return Local{Cache: mem, Missions: mem}
	}
	logger.Debug("local cache opened", zap.String("backend", opts.Backend))
	return local
}

func openBackend(ctx context.Context, opts Options) (Local, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		path := filepath.Join(opts.StatePath, "bottle.db")
		if err := os.MkdirAll(opts.StatePath, 0o755); err != nil {
			return Local{}, fmt.Errorf("create state dir: %w", err)
		}
		c, err := OpenSQLite(path)
		if err != nil {
			return Local{}, err
		}
		return Local{Cache: c, Missions: c}, nil
	case BackendRedis:
		c, err := OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
		if err != nil {
			return Local{}, err
		}
		return Local{Cache: c, Missions: NewMemoryCache()}, nil
	case BackendMemory:
		mem := NewMemoryCache()
		return Local{Cache: mem, Missions: mem}, nil
	default:
		return Local{}, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

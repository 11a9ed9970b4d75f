package impact

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sandeepkv93/bottle/internal/remote"
	"github.com/sandeepkv93/bottle/internal/storage"
	"go.uber.org/zap"
)

const (
	CookiesCacheKey   = "@cookies"
	FieldTotalCookies = "totalCookies"

	// CookiesPerReminder is the reward for completing a reminder.
	CookiesPerReminder = 10
)

type cookieState struct {
	TotalCookies int `json:"totalCookies"`
}

// CookieJar keeps the user's cookie total in the local cache and mirrors it
// to users/{uid}/meta/cookies while signed in.
type CookieJar struct {
	mu     sync.Mutex
	cache  storage.Cache
	docs   remote.DocumentStore
	logger *zap.Logger
}

func NewCookieJar(cache storage.Cache, docs remote.DocumentStore, logger *zap.Logger) *CookieJar {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CookieJar{cache: cache, docs: docs, logger: logger}
}

// Load reconciles the total on sign-in. An existing remote document wins and
// overwrites the cache; otherwise the cached total is uploaded.
func (j *CookieJar) Load(ctx context.Context, uid string) int {
	j.mu.Lock()
	defer j.mu.Unlock()

	if uid != "" && j.docs != nil {
		doc, ok, err := j.docs.GetDocument(ctx, remote.CookiesDocPath(uid))
		switch {
		case err != nil:
			j.logger.Warn("read remote cookies", zap.String("uid", uid), zap.Error(err))
		case ok:
			total, _ := remote.AsFloat(doc[FieldTotalCookies])
			j.writeLocal(ctx, int(total))
			return int(total)
		default:
			total, found := j.readLocal(ctx)
			if found {
				j.writeRemote(ctx, uid, total)
			}
			return total
		}
	}
	total, _ := j.readLocal(ctx)
	return total
}

// Total is the locally known cookie count.
func (j *CookieJar) Total(ctx context.Context) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	total, _ := j.readLocal(ctx)
	return total
}

// Award adds n cookies and returns the new total. The remote write is
// skipped while signed out and its failures are only logged.
func (j *CookieJar) Award(ctx context.Context, uid string, n int) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	total, _ := j.readLocal(ctx)
	total += n
	if err := j.writeLocal(ctx, total); err != nil {
		return total, fmt.Errorf("save cookies: %w", err)
	}
	if uid != "" {
		j.writeRemote(ctx, uid, total)
	}
	return total, nil
}

func (j *CookieJar) readLocal(ctx context.Context) (int, bool) {
	raw, ok, err := j.cache.Get(ctx, CookiesCacheKey)
	if err != nil {
		j.logger.Warn("read cached cookies", zap.Error(err))
		return 0, false
	}
	if !ok {
		return 0, false
	}
	var st cookieState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		j.logger.Warn("decode cached cookies", zap.Error(err))
		return 0, false
	}
	return st.TotalCookies, true
}

func (j *CookieJar) writeLocal(ctx context.Context, total int) error {
	raw, err := json.Marshal(cookieState{TotalCookies: total})
	if err != nil {
		return err
	}
	if err := j.cache.Set(ctx, CookiesCacheKey, string(raw)); err != nil {
		j.logger.Warn("write cached cookies", zap.Error(err))
		return err
	}
	return nil
}

func (j *CookieJar) writeRemote(ctx context.Context, uid string, total int) {
	if j.docs == nil {
		return
	}
	data := map[string]any{FieldTotalCookies: total}
	if err := j.docs.SetDocument(ctx, remote.CookiesDocPath(uid), data, true); err != nil {
		j.logger.Warn("write remote cookies", zap.String("uid", uid), zap.Error(err))
	}
}

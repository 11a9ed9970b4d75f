package remote

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process DocumentStore. SetOffline makes every call
// fail with ErrUnavailable.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]map[string]any
	offline bool
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]any), now: time.Now}
}

func (s *MemoryStore) SetOffline(offline bool) {
	s.mu.Lock()
	s.offline = offline
	s.mu.Unlock()
}

func (s *MemoryStore) GetDocument(ctx context.Context, path string) (map[string]any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := validateDocPath(path); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.offline {
		return nil, false, ErrUnavailable
	}
	doc, ok := s.docs[path]
	if !ok {
		return nil, false, nil
	}
	return maps.Clone(doc), true, nil
}

func (s *MemoryStore) SetDocument(ctx context.Context, path string, data map[string]any, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateDocPath(path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return ErrUnavailable
	}
	doc := s.docs[path]
	if !merge || doc == nil {
		doc = make(map[string]any, len(data))
	}
	for k, v := range data {
		doc[k] = s.resolve(v)
	}
	s.docs[path] = doc
	return nil
}

func (s *MemoryStore) AddDocument(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if err := validateCollectionPath(collection); err != nil {
		return "", err
	}
	if err := s.SetDocument(ctx, collection+"/"+id, data, false); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MemoryStore) Increment(ctx context.Context, path string, deltas map[string]float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateDocPath(path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return ErrUnavailable
	}
	doc := s.docs[path]
	if doc == nil {
		doc = make(map[string]any, len(deltas))
		s.docs[path] = doc
	}
	for k, d := range deltas {
		cur, _ := AsFloat(doc[k])
		doc[k] = cur + d
	}
	return nil
}

func (s *MemoryStore) ListDocuments(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateCollectionPath(collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.offline {
		return nil, ErrUnavailable
	}
	prefix := collection + "/"
	out := make([]Document, 0)
	for path, doc := range s.docs {
		id, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(id, "/") {
			continue
		}
		out = append(out, Document{ID: id, Data: maps.Clone(doc)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) resolve(v any) any {
	if _, ok := v.(serverTime); ok {
		return s.now().UTC()
	}
	return v
}

// AsFloat reads a numeric document field regardless of its stored width.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

func validateDocPath(path string) error {
	parts := strings.Split(path, "/")
	if len(parts) < 2 || len(parts)%2 != 0 || slicesHasEmpty(parts) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return nil
}

func validateCollectionPath(path string) error {
	parts := strings.Split(path, "/")
	if len(parts)%2 != 1 || slicesHasEmpty(parts) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return nil
}

func slicesHasEmpty(parts []string) bool {
	for _, p := range parts {
		if p == "" {
			return true
		}
	}
	return false
}

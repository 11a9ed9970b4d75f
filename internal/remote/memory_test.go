package remote

import (
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreSetMergeAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := t.Context()
	path := AlarmsDocPath("uid-1")

	if _, ok, err := s.GetDocument(ctx, path); err != nil || ok {
		t.Fatalf("expected missing document, ok=%v err=%v", ok, err)
	}
	if err := s.SetDocument(ctx, path, map[string]any{"alarms": []any{}, "owner": "uid-1"}, false); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetDocument(ctx, path, map[string]any{"updatedAt": ServerTime}, true); err != nil {
		t.Fatalf("merge: %v", err)
	}
	doc, ok, err := s.GetDocument(ctx, path)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if doc["owner"] != "uid-1" {
		t.Fatalf("merge dropped existing field: %v", doc)
	}
	if _, ok := doc["updatedAt"].(time.Time); !ok {
		t.Fatalf("expected server time resolved, got %T", doc["updatedAt"])
	}

	if err := s.SetDocument(ctx, path, map[string]any{"alarms": []any{}}, false); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	doc, _, _ = s.GetDocument(ctx, path)
	if _, ok := doc["owner"]; ok {
		t.Fatalf("overwrite kept stale field: %v", doc)
	}
}

func TestMemoryStoreIncrementAndList(t *testing.T) {
	s := NewMemoryStore()
	ctx := t.Context()
	stats := StatsDocPath("uid-1")
	for i := 0; i < 2; i++ {
		if err := s.Increment(ctx, stats, map[string]float64{"totalWater": 0.5, "totalCompleted": 1}); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	doc, _, _ := s.GetDocument(ctx, stats)
	if doc["totalWater"] != 1.0 || doc["totalCompleted"] != 2.0 {
		t.Fatalf("unexpected totals: %v", doc)
	}

	col := CompletedMissionsPath("uid-1")
	id, err := s.AddDocument(ctx, col, map[string]any{"name": "tumbler"})
	if err != nil || id == "" {
		t.Fatalf("add: id=%q err=%v", id, err)
	}
	docs, err := s.ListDocuments(ctx, col)
	if err != nil || len(docs) != 1 || docs[0].ID != id {
		t.Fatalf("unexpected list: %+v err=%v", docs, err)
	}
	other, err := s.ListDocuments(ctx, CompletedMissionsPath("uid-2"))
	if err != nil || len(other) != 0 {
		t.Fatalf("expected other user's collection empty, got %+v", other)
	}
}

func TestMemoryStoreOffline(t *testing.T) {
	s := NewMemoryStore()
	s.SetOffline(true)
	ctx := t.Context()
	if _, _, err := s.GetDocument(ctx, AlarmsDocPath("u")); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := s.SetDocument(ctx, AlarmsDocPath("u"), map[string]any{}, true); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	s.SetOffline(false)
	if err := s.SetDocument(ctx, AlarmsDocPath("u"), map[string]any{}, true); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
}

func TestPathValidation(t *testing.T) {
	s := NewMemoryStore()
	ctx := t.Context()
	if _, _, err := s.GetDocument(ctx, "users/uid"); err != nil {
		t.Fatalf("document path rejected: %v", err)
	}
	for _, bad := range []string{"users", "users//meta/alarms", "users/uid/meta"} {
		if _, _, err := s.GetDocument(ctx, bad); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("%q: expected ErrInvalidPath, got %v", bad, err)
		}
	}
	if _, err := s.ListDocuments(ctx, "users/uid"); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for document path as collection, got %v", err)
	}
}

func TestAsFloat(t *testing.T) {
	for _, v := range []any{int64(3), 3, 3.0, float32(3)} {
		if got, ok := AsFloat(v); !ok || got != 3 {
			t.Fatalf("AsFloat(%T) = %v %v", v, got, ok)
		}
	}
	if _, ok := AsFloat("3"); ok {
		t.Fatal("expected string rejected")
	}
}

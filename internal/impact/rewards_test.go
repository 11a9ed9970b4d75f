package impact

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/sandeepkv93/bottle/internal/remote"
	"github.com/sandeepkv93/bottle/internal/storage"
)

func TestCookieJarAwardWritesLocalAndRemote(t *testing.T) {
	cache := storage.NewMemoryCache()
	docs := remote.NewMemoryStore()
	jar := NewCookieJar(cache, docs, nil)
	ctx := t.Context()

	if total, err := jar.Award(ctx, "uid-1", CookiesPerReminder); err != nil || total != 10 {
		t.Fatalf("first award: total=%d err=%v", total, err)
	}
	if total, err := jar.Award(ctx, "uid-1", CookiesPerReminder); err != nil || total != 20 {
		t.Fatalf("second award: total=%d err=%v", total, err)
	}
	if raw, _, _ := cache.Get(ctx, CookiesCacheKey); raw != `{"totalCookies":20}` {
		t.Fatalf("unexpected cached cookies %q", raw)
	}
	doc, ok, err := docs.GetDocument(ctx, remote.CookiesDocPath("uid-1"))
	if err != nil || !ok {
		t.Fatalf("expected remote cookies, ok=%v err=%v", ok, err)
	}
	if got, _ := remote.AsFloat(doc[FieldTotalCookies]); got != 20 {
		t.Fatalf("unexpected remote total %v", doc[FieldTotalCookies])
	}
}

func TestCookieJarSignedOutAndOffline(t *testing.T) {
	cache := storage.NewMemoryCache()
	docs := remote.NewMemoryStore()
	jar := NewCookieJar(cache, docs, nil)
	ctx := t.Context()

	if total, err := jar.Award(ctx, "", CookiesPerReminder); err != nil || total != 10 {
		t.Fatalf("signed-out award: total=%d err=%v", total, err)
	}
	docs.SetOffline(true)
	if total, err := jar.Award(ctx, "uid-1", CookiesPerReminder); err != nil || total != 20 {
		t.Fatalf("offline award: total=%d err=%v", total, err)
	}
	if jar.Total(ctx) != 20 {
		t.Fatalf("unexpected local total %d", jar.Total(ctx))
	}
}

func TestCookieJarLoadReconciles(t *testing.T) {
	ctx := t.Context()

	cache := storage.NewMemoryCache()
	docs := remote.NewMemoryStore()
	if err := cache.Set(ctx, CookiesCacheKey, `{"totalCookies":30}`); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	jar := NewCookieJar(cache, docs, nil)
	if got := jar.Load(ctx, "uid-1"); got != 30 {
		t.Fatalf("expected cached total, got %d", got)
	}
	doc, ok, _ := docs.GetDocument(ctx, remote.CookiesDocPath("uid-1"))
	if got, _ := remote.AsFloat(doc[FieldTotalCookies]); !ok || got != 30 {
		t.Fatalf("expected local total uploaded, got %v ok=%v", doc, ok)
	}

	if err := docs.SetDocument(ctx, remote.CookiesDocPath("uid-1"), map[string]any{FieldTotalCookies: 70}, true); err != nil {
		t.Fatalf("seed remote: %v", err)
	}
	if got := jar.Load(ctx, "uid-1"); got != 70 {
		t.Fatalf("expected remote total to win, got %d", got)
	}
	if jar.Total(ctx) != 70 {
		t.Fatalf("expected cache overwritten with remote total, got %d", jar.Total(ctx))
	}
}

func TestDailyPlannerKeepsSetForTheDay(t *testing.T) {
	cache := storage.NewMemoryCache()
	p := NewDailyPlanner(cache, rand.NewPCG(1, 2), nil)
	ctx := t.Context()
	morning := time.Date(2026, 2, 10, 8, 0, 0, 0, time.Local)

	first, err := p.Today(ctx, morning)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if len(first.Missions) != DailyMissionCount || first.Date != "2026-02-10" {
		t.Fatalf("unexpected daily set: %+v", first)
	}
	seen := map[string]bool{}
	for _, m := range first.Missions {
		if seen[m.ID] {
			t.Fatalf("duplicate mission %s in %+v", m.ID, first.Missions)
		}
		seen[m.ID] = true
	}

	again, err := NewDailyPlanner(cache, rand.NewPCG(9, 9), nil).Today(ctx, morning.Add(6*time.Hour))
	if err != nil {
		t.Fatalf("today again: %v", err)
	}
	if missionIDs(again.Missions)[0] != missionIDs(first.Missions)[0] || len(again.Missions) != DailyMissionCount {
		t.Fatalf("expected the cached set on the same day, got %v want %v", missionIDs(again.Missions), missionIDs(first.Missions))
	}
}

func TestDailyPlannerCompleteAndRollover(t *testing.T) {
	cache := storage.NewMemoryCache()
	p := NewDailyPlanner(cache, rand.NewPCG(3, 4), nil)
	ctx := t.Context()
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.Local)

	set, _ := p.Today(ctx, now)
	id := set.Missions[0].ID
	set, done, err := p.Complete(ctx, id, now)
	if err != nil || !done || !set.IsCompleted(id) {
		t.Fatalf("complete: done=%v err=%v set=%+v", done, err, set)
	}
	if _, done, err := p.Complete(ctx, id, now); err != nil || done {
		t.Fatalf("second complete should be a no-op, done=%v err=%v", done, err)
	}
	for _, m := range Catalog() {
		if set.indexOf(m.ID) < 0 {
			if _, _, err := p.Complete(ctx, m.ID, now); !errors.Is(err, ErrNotInDaily) {
				t.Fatalf("expected ErrNotInDaily for %s, got %v", m.ID, err)
			}
			break
		}
	}

	next, err := p.Today(ctx, now.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("next day: %v", err)
	}
	if next.Date != "2026-02-11" || len(next.Completed) != 0 {
		t.Fatalf("expected a fresh set on the next day, got %+v", next)
	}
}

func TestDailyPlannerReplace(t *testing.T) {
	cache := storage.NewMemoryCache()
	p := NewDailyPlanner(cache, rand.NewPCG(5, 6), nil)
	ctx := t.Context()
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.Local)

	before, _ := p.Today(ctx, now)
	after, err := p.Replace(ctx, 1, now)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if after.Missions[1].ID == before.Missions[1].ID {
		t.Fatalf("expected a different mission at index 1, got %s", after.Missions[1].ID)
	}
	for i, m := range after.Missions {
		if i != 1 && before.indexOf(m.ID) < 0 {
			t.Fatalf("unexpected change at index %d: %s", i, m.ID)
		}
	}
	if _, err := p.Replace(ctx, 3, now); !errors.Is(err, ErrInvalidDailyAt) {
		t.Fatalf("expected ErrInvalidDailyAt, got %v", err)
	}
	cached, _ := p.Today(ctx, now)
	if cached.Missions[1].ID != after.Missions[1].ID {
		t.Fatalf("replacement not persisted: %v", missionIDs(cached.Missions))
	}
}

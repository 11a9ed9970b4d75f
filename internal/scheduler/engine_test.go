package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestEngineEmitsInTriggerOrder(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	ctx := t.Context()
	now := time.Now()
	if _, err := engine.ScheduleAt(ctx, now.Add(80*time.Millisecond), Payload{RuleID: "later"}); err != nil {
		t.Fatalf("schedule later: %v", err)
	}
	if _, err := engine.ScheduleAt(ctx, now.Add(20*time.Millisecond), Payload{RuleID: "sooner"}); err != nil {
		t.Fatalf("schedule sooner: %v", err)
	}

	first := waitArrival(t, engine.C(), time.Second)
	second := waitArrival(t, engine.C(), time.Second)
	if first.Payload.RuleID != "sooner" || second.Payload.RuleID != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.Payload.RuleID, second.Payload.RuleID)
	}
}

func TestEngineNonBlockingDropsWhenConsumerIsSlow(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	defer engine.Stop()

	at := time.Now().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		if _, err := engine.ScheduleAt(t.Context(), at, Payload{RuleID: "evt"}); err != nil {
			t.Fatalf("schedule event: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if engine.Dropped() == 0 {
		t.Fatalf("expected dropped events > 0, got %d", engine.Dropped())
	}
}

func TestScheduleValidatesTriggerTime(t *testing.T) {
	engine := NewEngine(1)
	if _, err := engine.ScheduleAt(t.Context(), time.Time{}, Payload{RuleID: "bad"}); !errors.Is(err, ErrInvalidTriggerTime) {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
}

func TestScheduleOnStoppedEngine(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	engine.Stop()
	if _, err := engine.ScheduleAt(t.Context(), time.Now().Add(time.Hour), Payload{}); !errors.Is(err, ErrEngineStopped) {
		t.Fatalf("expected ErrEngineStopped, got %v", err)
	}
}

func TestCancelAllClearsPending(t *testing.T) {
	engine := NewEngine(4)
	ctx := t.Context()
	base := time.Now().Add(time.Hour)
	h1, err := engine.ScheduleAt(ctx, base.Add(time.Minute), Payload{RuleID: "b"})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	h2, err := engine.ScheduleAt(ctx, base, Payload{RuleID: "a"})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if h1 == h2 || h1 == "" {
		t.Fatalf("expected distinct handles, got %q %q", h1, h2)
	}

	pending := engine.Pending()
	if len(pending) != 2 || pending[0].Payload.RuleID != "a" {
		t.Fatalf("unexpected pending: %+v", pending)
	}
	if err := engine.CancelAll(ctx); err != nil {
		t.Fatalf("cancel all: %v", err)
	}
	if n := len(engine.Pending()); n != 0 {
		t.Fatalf("expected no pending registrations, got %d", n)
	}
}

func TestEngineRearmsRepeatingNotification(t *testing.T) {
	engine := NewEngine(4)
	engine.Start()
	defer engine.Stop()

	at := time.Now().Add(20 * time.Millisecond)
	h, err := engine.ScheduleAt(t.Context(), at, Payload{RuleID: "daily", RepeatEveryDays: 1})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	a := waitArrival(t, engine.C(), time.Second)
	if a.Handle != h || !a.ScheduledAt.Equal(at) {
		t.Fatalf("unexpected arrival: %+v", a)
	}

	deadline := time.Now().Add(time.Second)
	for {
		pending := engine.Pending()
		if len(pending) == 1 {
			if pending[0].Handle != h || !pending[0].At.Equal(at.AddDate(0, 0, 1)) {
				t.Fatalf("unexpected re-armed registration: %+v", pending[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("repeating notification was not re-armed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestOpenDeliversTap(t *testing.T) {
	engine := NewEngine(4)
	engine.Start()
	defer engine.Stop()

	if err := engine.Open("missing"); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("expected ErrUnknownHandle, got %v", err)
	}
	h, err := engine.ScheduleAt(t.Context(), time.Now().Add(10*time.Millisecond), Payload{RuleID: "r1"})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	waitArrival(t, engine.C(), time.Second)
	if err := engine.Open(h); err != nil {
		t.Fatalf("open: %v", err)
	}
	tap := waitArrival(t, engine.Taps(), time.Second)
	if tap.Payload.RuleID != "r1" {
		t.Fatalf("unexpected tap: %+v", tap)
	}
}

func waitArrival(t *testing.T, ch <-chan Arrival, timeout time.Duration) Arrival {
	t.Helper()
	select {
	case a := <-ch:
		return a
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for arrival")
		return Arrival{}
	}
}

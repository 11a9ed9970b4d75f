package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
)

func TestArrivalFilterWindowBoundaries(t *testing.T) {
	epoch := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	f := NewArrivalFilter(30*time.Second, nil)
	f.MarkRescheduled(epoch)
	a := Arrival{Handle: "h", Payload: Payload{RuleID: "r"}}

	cases := []struct {
		after time.Duration
		want  bool
	}{
		{0, false},
		{29 * time.Second, false},
		{30 * time.Second, true},
		{31 * time.Second, true},
	}
	for _, tc := range cases {
		if got := f.Admit(a, epoch.Add(tc.after)); got != tc.want {
			t.Fatalf("arrival %s after reschedule: got %v want %v", tc.after, got, tc.want)
		}
	}
}

func TestArrivalFilterSetWindow(t *testing.T) {
	epoch := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	f := NewArrivalFilter(30*time.Second, nil)
	f.MarkRescheduled(epoch)
	f.SetWindow(10 * time.Second)
	f.SetWindow(-time.Second)
	if f.Window() != 10*time.Second {
		t.Fatalf("unexpected window %s", f.Window())
	}
	if !f.Admit(Arrival{Handle: "h"}, epoch.Add(15*time.Second)) {
		t.Fatal("expected arrival outside the narrowed window to surface")
	}
}

func TestArrivalFilterWithoutEpochSurfaces(t *testing.T) {
	f := NewArrivalFilter(0, nil)
	now := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	if f.State(now) != Quiescent {
		t.Fatalf("expected quiescent filter, got %s", f.State(now))
	}
	if !f.Admit(Arrival{Handle: "h"}, now) {
		t.Fatal("expected arrival surfaced before any reschedule")
	}
	if f.Window() != DefaultArrivalWindow {
		t.Fatalf("unexpected default window %s", f.Window())
	}
}

func TestArrivalFilterState(t *testing.T) {
	epoch := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	f := NewArrivalFilter(30*time.Second, nil)
	f.MarkRescheduled(epoch)
	if f.State(epoch.Add(10*time.Second)) != SuppressingWindow {
		t.Fatal("expected suppressing window")
	}
	if f.State(epoch.Add(30*time.Second)) != Quiescent {
		t.Fatal("expected quiescent after window")
	}
}

type fakeSender struct {
	sent []*messaging.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, m)
	return "projects/bottle/messages/1", nil
}

func TestRelayForwardsOnlySurfacedArrivals(t *testing.T) {
	epoch := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	f := NewArrivalFilter(30*time.Second, nil)
	f.MarkRescheduled(epoch)

	var delivered []Arrival
	sink := SinkFunc(func(_ context.Context, a Arrival) error {
		delivered = append(delivered, a)
		return nil
	})
	r := NewRelay(f, nil, sink)

	r.now = func() time.Time { return epoch.Add(5 * time.Second) }
	if r.Handle(t.Context(), Arrival{Handle: "early"}) {
		t.Fatal("expected early arrival suppressed")
	}
	r.now = func() time.Time { return epoch.Add(time.Minute) }
	if !r.Handle(t.Context(), Arrival{Handle: "late"}) {
		t.Fatal("expected late arrival surfaced")
	}
	if len(delivered) != 1 || delivered[0].Handle != "late" {
		t.Fatalf("unexpected deliveries: %+v", delivered)
	}
}

func TestRelayRunStopsWhenChannelCloses(t *testing.T) {
	ch := make(chan Arrival, 2)
	ch <- Arrival{Handle: "a"}
	close(ch)

	count := 0
	r := NewRelay(nil, nil, SinkFunc(func(context.Context, Arrival) error {
		count++
		return nil
	}))
	done := make(chan struct{})
	go func() {
		r.Run(t.Context(), ch, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
	if count != 1 {
		t.Fatalf("expected 1 delivery, got %d", count)
	}
}

func TestPushSinkBuildsMessage(t *testing.T) {
	s := &fakeSender{}
	p := NewPushSink(s, "device-token", 0, nil)
	a := Arrival{Handle: "h1", Payload: Payload{RuleID: "r1", Title: NotificationTitle, Body: "Bring a bag"}}
	if err := p.Deliver(t.Context(), a); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(s.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(s.sent))
	}
	m := s.sent[0]
	if m.Token != "device-token" || m.Notification.Body != "Bring a bag" || m.Data["ruleId"] != "r1" {
		t.Fatalf("unexpected message: %+v", m)
	}
}

func TestPushSinkThrottles(t *testing.T) {
	s := &fakeSender{}
	p := NewPushSink(s, "device-token", 1, nil)
	a := Arrival{Handle: "h1", Payload: Payload{RuleID: "r1"}}
	if err := p.Deliver(t.Context(), a); err != nil {
		t.Fatalf("first deliver: %v", err)
	}
	if err := p.Deliver(t.Context(), a); !errors.Is(err, ErrPushThrottled) {
		t.Fatalf("expected ErrPushThrottled, got %v", err)
	}
}

func TestPushSinkWrapsSendError(t *testing.T) {
	cause := errors.New("unregistered token")
	p := NewPushSink(&fakeSender{err: cause}, "t", 0, nil)
	if err := p.Deliver(t.Context(), Arrival{}); !errors.Is(err, cause) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/bottle/internal/model"
)

type recordingNotifier struct {
	mu         sync.Mutex
	scheduled  []Scheduled
	cancels    int
	cancelErr  error
	failRuleID string
}

func (n *recordingNotifier) CancelAll(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancelErr != nil {
		return n.cancelErr
	}
	n.cancels++
	n.scheduled = nil
	return nil
}

func (n *recordingNotifier) ScheduleAt(_ context.Context, at time.Time, p Payload) (Handle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if p.RuleID == n.failRuleID {
		return "", errors.New("device refused registration")
	}
	h := Handle(p.RuleID + "@" + at.Format(time.RFC3339))
	n.scheduled = append(n.scheduled, Scheduled{Handle: h, At: at, Payload: p})
	return h, nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.scheduled)
}

func (n *recordingNotifier) snapshot() []Scheduled {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Scheduled(nil), n.scheduled...)
}

var tuesdayMorning = time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)

func weekdayRules() []model.ReminderRule {
	return []model.ReminderRule{
		{ID: "mwf", Hour: 9, Minute: 0, Meridiem: model.AM, Message: "Pack a tumbler", Enabled: true,
			Recurrence: model.WeeklyOn(time.Monday, time.Wednesday, time.Friday)},
		{ID: "off", Hour: 8, Minute: 0, Meridiem: model.AM, Enabled: false, Recurrence: model.Daily()},
	}
}

func newTestApplier(n Notifier, f *ArrivalFilter) *Applier {
	a := NewApplier(n, f, nil)
	a.now = func() time.Time { return tuesdayMorning }
	return a
}

func TestApplyAllRegistersEnabledWeeklyRule(t *testing.T) {
	n := &recordingNotifier{}
	filter := NewArrivalFilter(0, nil)
	sum := newTestApplier(n, filter).ApplyAll(t.Context(), weekdayRules())

	if sum.Registered != 3 || sum.Skipped != 1 || sum.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	got := n.snapshot()
	want := []string{"2026-02-16 09:00", "2026-02-11 09:00", "2026-02-13 09:00"}
	for i := range want {
		if f := got[i].At.Format("2006-01-02 15:04"); f != want[i] {
			t.Fatalf("registration[%d] got %s want %s", i, f, want[i])
		}
		if got[i].Payload.RuleID != "mwf" || got[i].Payload.Body != "Pack a tumbler" || got[i].Payload.RepeatEveryDays != 7 {
			t.Fatalf("unexpected payload: %+v", got[i].Payload)
		}
	}
	if epoch, ok := filter.Epoch(); !ok || !epoch.Equal(tuesdayMorning) {
		t.Fatalf("expected epoch stamped at %s, got %s (%v)", tuesdayMorning, epoch, ok)
	}
}

func TestApplyAllIsIdempotent(t *testing.T) {
	n := &recordingNotifier{}
	a := newTestApplier(n, nil)
	rules := weekdayRules()

	a.ApplyAll(t.Context(), rules)
	first := n.snapshot()
	a.ApplyAll(t.Context(), rules)
	second := n.snapshot()

	if len(first) != len(second) {
		t.Fatalf("expected same registration count, got %d then %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].At.Equal(second[i].At) || first[i].Payload != second[i].Payload {
			t.Fatalf("registration %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
	if n.cancels != 2 {
		t.Fatalf("expected a cancel per pass, got %d", n.cancels)
	}
}

func TestApplyAllDisabledRulesRegisterNothing(t *testing.T) {
	n := &recordingNotifier{}
	rules := []model.ReminderRule{
		{ID: "a", Hour: 7, Minute: 0, Meridiem: model.AM, Enabled: false, Recurrence: model.Daily()},
		{ID: "b", Hour: 7, Minute: 0, Meridiem: model.PM, Enabled: false, Recurrence: model.WeeklyOn(time.Sunday)},
	}
	sum := newTestApplier(n, nil).ApplyAll(t.Context(), rules)
	if n.count() != 0 || sum.Skipped != 2 {
		t.Fatalf("expected nothing registered, got %d (%+v)", n.count(), sum)
	}
}

func TestApplyAllSkipsPastOneTimeRule(t *testing.T) {
	n := &recordingNotifier{}
	rules := []model.ReminderRule{
		{ID: "past", Hour: 8, Minute: 0, Meridiem: model.AM, Enabled: true, Recurrence: model.OnceOn(2026, 1, 1)},
		{ID: "future", Hour: 8, Minute: 0, Meridiem: model.AM, Enabled: true, Recurrence: model.OnceOn(2026, 1, 20)},
	}
	sum := newTestApplier(n, nil).ApplyAll(t.Context(), rules)
	got := n.snapshot()
	if len(got) != 1 || got[0].Payload.RuleID != "future" || got[0].Payload.RepeatEveryDays != 0 {
		t.Fatalf("unexpected registrations: %+v", got)
	}
	if sum.Skipped != 1 {
		t.Fatalf("expected past rule skipped, got %+v", sum)
	}
}

func TestApplyAllFailureForOneRuleDoesNotAbort(t *testing.T) {
	n := &recordingNotifier{failRuleID: "bad"}
	rules := []model.ReminderRule{
		{ID: "bad", Hour: 7, Minute: 0, Meridiem: model.AM, Enabled: true, Recurrence: model.Daily()},
		{ID: "good", Hour: 7, Minute: 0, Meridiem: model.PM, Enabled: true, Recurrence: model.Daily()},
	}
	sum := newTestApplier(n, nil).ApplyAll(t.Context(), rules)
	if sum.Failed != 1 || sum.Registered != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if got := n.snapshot(); got[0].Payload.RuleID != "good" {
		t.Fatalf("expected good rule registered, got %+v", got)
	}
}

func TestApplyAllStopsWhenCancelFails(t *testing.T) {
	n := &recordingNotifier{cancelErr: errors.New("service unavailable")}
	filter := NewArrivalFilter(0, nil)
	sum := newTestApplier(n, filter).ApplyAll(t.Context(), weekdayRules())
	if !sum.CancelFailed || n.count() != 0 {
		t.Fatalf("expected pass aborted, got %+v with %d registrations", sum, n.count())
	}
	if _, ok := filter.Epoch(); ok {
		t.Fatal("epoch should not be stamped when cancel fails")
	}
}

func TestApplyAllAgainstEngine(t *testing.T) {
	engine := NewEngine(8)
	a := newTestApplier(engine, nil)
	a.ApplyAll(t.Context(), weekdayRules())
	a.ApplyAll(t.Context(), weekdayRules())
	if n := len(engine.Pending()); n != 3 {
		t.Fatalf("expected 3 pending registrations after two passes, got %d", n)
	}
}

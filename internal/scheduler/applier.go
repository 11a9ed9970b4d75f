package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sandeepkv93/bottle/internal/model"
	"go.uber.org/zap"
)

// NotificationTitle is shown on every reminder notification.
const NotificationTitle = "MyEco 🌱"

// Notifier is the device notification service the applier drives.
type Notifier interface {
	CancelAll(ctx context.Context) error
	ScheduleAt(ctx context.Context, at time.Time, payload Payload) (Handle, error)
}

// Summary reports the outcome of one ApplyAll pass.
type Summary struct {
	Registered   int
	Skipped      int
	Failed       int
	CancelFailed bool
}

// Applier replaces the full set of device notifications with the triggers of
// the enabled rules. Passes are serialized.
type Applier struct {
	mu       sync.Mutex
	notifier Notifier
	filter   *ArrivalFilter
	logger   *zap.Logger
	now      func() time.Time
}

func NewApplier(notifier Notifier, filter *ArrivalFilter, logger *zap.Logger) *Applier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Applier{notifier: notifier, filter: filter, logger: logger, now: time.Now}
}

// ApplyAll cancels every scheduled notification, stamps the scheduling epoch
// and registers one notification per trigger of each enabled rule. A failed
// cancel aborts the pass; a failed registration only skips that rule.
func (a *Applier) ApplyAll(ctx context.Context, rules []model.ReminderRule) Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	var sum Summary
	if err := a.notifier.CancelAll(ctx); err != nil {
		a.logger.Error("cancel scheduled notifications", zap.Error(err))
		sum.CancelFailed = true
		return sum
	}

	now := a.now()
	if a.filter != nil {
		a.filter.MarkRescheduled(now)
	}

	for _, rule := range rules {
		if !rule.Enabled {
			sum.Skipped++
			continue
		}
		triggers := rule.Triggers(now)
		if len(triggers) == 0 {
			a.logger.Debug("rule has no upcoming trigger", zap.String("rule_id", rule.ID))
			sum.Skipped++
			continue
		}
		payload := Payload{
			RuleID:          rule.ID,
			Title:           NotificationTitle,
			Body:            rule.Message,
			RepeatEveryDays: rule.RepeatEveryDays(),
		}
		registered := 0
		for _, at := range triggers {
			if _, err := a.notifier.ScheduleAt(ctx, at, payload); err != nil {
				a.logger.Warn("register notification",
					zap.String("rule_id", rule.ID),
					zap.Time("trigger_at", at),
					zap.Error(err),
				)
				break
			}
			registered++
		}
		if registered < len(triggers) {
			sum.Failed++
		}
		sum.Registered += registered
	}
	a.logger.Debug("notifications applied",
		zap.Int("registered", sum.Registered),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
	)
	return sum
}

package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultArrivalWindow is how long after a reschedule arrivals are treated as
// echoes of the previous registration set.
const DefaultArrivalWindow = 30 * time.Second

type FilterState int

const (
	Quiescent FilterState = iota
	SuppressingWindow
)

func (s FilterState) String() string {
	switch s {
	case SuppressingWindow:
		return "suppressing"
	default:
		return "quiescent"
	}
}

// ArrivalFilter owns the scheduling epoch: the instant of the most recent
// reschedule. Arrivals inside the window after it are suppressed.
type ArrivalFilter struct {
	mu       sync.Mutex
	window   time.Duration
	epoch    time.Time
	hasEpoch bool
	logger   *zap.Logger
}

func NewArrivalFilter(window time.Duration, logger *zap.Logger) *ArrivalFilter {
	if window <= 0 {
		window = DefaultArrivalWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArrivalFilter{window: window, logger: logger}
}

func (f *ArrivalFilter) Window() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.window
}

// SetWindow replaces the window. Non-positive values are ignored.
func (f *ArrivalFilter) SetWindow(window time.Duration) {
	if window <= 0 {
		return
	}
	f.mu.Lock()
	f.window = window
	f.mu.Unlock()
}

// MarkRescheduled stamps the epoch.
func (f *ArrivalFilter) MarkRescheduled(at time.Time) {
	f.mu.Lock()
	f.epoch = at
	f.hasEpoch = true
	f.mu.Unlock()
}

func (f *ArrivalFilter) Epoch() (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.epoch, f.hasEpoch
}

func (f *ArrivalFilter) State(at time.Time) FilterState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasEpoch && at.Sub(f.epoch) < f.window {
		return SuppressingWindow
	}
	return Quiescent
}

// Admit reports whether an arrival observed at the given instant should be
// surfaced. An arrival exactly one window after the epoch is surfaced.
func (f *ArrivalFilter) Admit(a Arrival, at time.Time) bool {
	f.mu.Lock()
	epoch, has, window := f.epoch, f.hasEpoch, f.window
	f.mu.Unlock()

	if has {
		if elapsed := at.Sub(epoch); elapsed < window {
			f.logger.Debug("arrival suppressed after reschedule",
				zap.String("handle", string(a.Handle)),
				zap.Duration("elapsed", elapsed),
			)
			return false
		}
	}
	f.logger.Info("notification arrived",
		zap.String("handle", string(a.Handle)),
		zap.String("rule_id", a.Payload.RuleID),
		zap.String("body", a.Payload.Body),
		zap.Time("scheduled_at", a.ScheduledAt),
	)
	return true
}

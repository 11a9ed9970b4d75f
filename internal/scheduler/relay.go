package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sink receives arrivals the filter surfaced.
type Sink interface {
	Deliver(ctx context.Context, a Arrival) error
}

type SinkFunc func(ctx context.Context, a Arrival) error

func (f SinkFunc) Deliver(ctx context.Context, a Arrival) error {
	return f(ctx, a)
}

// Relay moves arrivals from the engine through the filter to the sinks.
type Relay struct {
	filter *ArrivalFilter
	sinks  []Sink
	logger *zap.Logger
	now    func() time.Time
}

func NewRelay(filter *ArrivalFilter, logger *zap.Logger, sinks ...Sink) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{filter: filter, sinks: sinks, logger: logger, now: time.Now}
}

// Run blocks until ctx is done or arrivals is closed. taps may be nil.
func (r *Relay) Run(ctx context.Context, arrivals, taps <-chan Arrival) {
	for {
		select {
		case <-ctx.Done():
			return
		case a, ok := <-arrivals:
			if !ok {
				return
			}
			r.Handle(ctx, a)
		case a, ok := <-taps:
			if !ok {
				taps = nil
				continue
			}
			r.logger.Info("notification opened",
				zap.String("handle", string(a.Handle)),
				zap.String("rule_id", a.Payload.RuleID),
			)
		}
	}
}

// Handle filters one arrival and forwards it when surfaced.
func (r *Relay) Handle(ctx context.Context, a Arrival) bool {
	if r.filter != nil && !r.filter.Admit(a, r.now()) {
		return false
	}
	for _, s := range r.sinks {
		if err := s.Deliver(ctx, a); err != nil {
			r.logger.Warn("deliver arrival",
				zap.String("rule_id", a.Payload.RuleID),
				zap.Error(err),
			)
		}
	}
	return true
}

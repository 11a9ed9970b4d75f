package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrPushThrottled = errors.New("scheduler: push rate limit exceeded")

// MessageSender is the part of the FCM client the push sink needs.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushSink forwards surfaced arrivals to one device token through Firebase
// Cloud Messaging.
type PushSink struct {
	sender  MessageSender
	token   string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewPushSink allows perMinute pushes per minute; perMinute <= 0 disables
// the limit.
func NewPushSink(sender MessageSender, token string, perMinute int, logger *zap.Logger) *PushSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	burst := 1
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
		burst = perMinute
	}
	return &PushSink{sender: sender, token: token, limiter: rate.NewLimiter(limit, burst), logger: logger}
}

func (p *PushSink) Deliver(ctx context.Context, a Arrival) error {
	if !p.limiter.Allow() {
		p.logger.Warn("push throttled", zap.String("rule_id", a.Payload.RuleID))
		return ErrPushThrottled
	}
	msg := &messaging.Message{
		Token: p.token,
		Notification: &messaging.Notification{
			Title: a.Payload.Title,
			Body:  a.Payload.Body,
		},
		Data: map[string]string{
			"ruleId": a.Payload.RuleID,
			"handle": string(a.Handle),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
	id, err := p.sender.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	p.logger.Debug("push sent", zap.String("message_id", id), zap.String("rule_id", a.Payload.RuleID))
	return nil
}

// LogSink writes every surfaced arrival to the logger.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Deliver(_ context.Context, a Arrival) error {
	if s.Logger == nil {
		return nil
	}
	s.Logger.Info("reminder",
		zap.String("title", a.Payload.Title),
		zap.String("body", a.Payload.Body),
		zap.String("rule_id", a.Payload.RuleID),
	)
	return nil
}

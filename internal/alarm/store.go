package alarm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sandeepkv93/bottle/internal/impact"
	"github.com/sandeepkv93/bottle/internal/model"
	"github.com/sandeepkv93/bottle/internal/remote"
	"github.com/sandeepkv93/bottle/internal/scheduler"
	"github.com/sandeepkv93/bottle/internal/session"
	"github.com/sandeepkv93/bottle/internal/storage"
	"go.uber.org/zap"
)

const (
	CacheKey     = "@bottle_alarms"
	DateStampKey = "@bottle_alarms_date"

	FieldAlarms    = "alarms"
	FieldUpdatedAt = "updatedAt"
)

var ErrRuleNotFound = errors.New("alarm: rule not found")

// Scheduler replaces the device notification set. *scheduler.Applier
// satisfies it.
type Scheduler interface {
	ApplyAll(ctx context.Context, rules []model.ReminderRule) scheduler.Summary
}

// Identity reports the signed-in user; "" means signed out.
type Identity interface {
	UserID() string
}

// Rewarder credits the user when a reminder is completed for the day.
// *impact.CookieJar satisfies it.
type Rewarder interface {
	Award(ctx context.Context, uid string, n int) (int, error)
}

// AuthSource is the subscription half of the session provider.
type AuthSource interface {
	OnAuthChanged(fn func(*session.User)) func()
}

// Store owns the in-memory rule list and mirrors it to the local cache and
// the user's remote document. Every mutation holds mu for its full
// persist-and-reschedule sequence.
type Store struct {
	mu       sync.Mutex
	rules    []model.ReminderRule
	cache    storage.Cache
	docs     remote.DocumentStore
	identity Identity
	sched    Scheduler
	rewarder Rewarder
	logger   *zap.Logger
	now      func() time.Time
}

// NewStore wires the store. docs and identity may be nil, which disables the
// remote copy.
func NewStore(cache storage.Cache, docs remote.DocumentStore, identity Identity, sched Scheduler, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		cache:    cache,
		docs:     docs,
		identity: identity,
		sched:    sched,
		logger:   logger,
		now:      time.Now,
	}
}

// SetRewarder installs the completion reward. nil disables it.
func (s *Store) SetRewarder(r Rewarder) {
	s.mu.Lock()
	s.rewarder = r
	s.mu.Unlock()
}

// Rules returns a copy of the in-memory rules.
func (s *Store) Rules() []model.ReminderRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := model.CloneRules(s.rules)
	if out == nil {
		out = []model.ReminderRule{}
	}
	return out
}

func (s *Store) Rule(id string) (model.ReminderRule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.rules[i].Clone(), true
	}
	return model.ReminderRule{}, false
}

// Load reconciles the rule list. A remote document holding an alarms array
// wins and overwrites the cache; otherwise the cached list is used and
// pushed to the remote document. Failures are logged, never returned.
func (s *Store) Load(ctx context.Context) []model.ReminderRule {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, fromRemote := s.loadRemote(ctx)
	if fromRemote {
		rules = s.sanitize(rules)
		s.rules = rules
		s.writeCache(ctx, rules)
	} else {
		local, ok := s.loadLocal(ctx)
		local = s.sanitize(local)
		s.rules = local
		if ok {
			s.writeRemote(ctx, local)
		}
	}
	s.apply(ctx)
	s.stampDate(ctx)
	s.logger.Info("alarms loaded",
		zap.Int("count", len(s.rules)),
		zap.Bool("from_remote", fromRemote),
	)
	return model.CloneRules(s.rules)
}

// RefreshIfStale reloads unless the rules were already loaded today.
func (s *Store) RefreshIfStale(ctx context.Context) bool {
	stamp, ok, err := s.cache.Get(ctx, DateStampKey)
	if err != nil {
		s.logger.Warn("read alarm date stamp", zap.Error(err))
	}
	if ok && stamp == s.today() {
		return false
	}
	s.Load(ctx)
	return true
}

// Save replaces the in-memory rules and persists them to the cache and the
// remote document. Each write is independent and failures are only logged.
func (s *Store) Save(ctx context.Context, rules []model.ReminderRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = model.CloneRules(rules)
	s.persist(ctx)
}

// Upsert validates rule and replaces the rule with the same id, or appends
// it. A rule without an id gets a fresh timestamp id.
func (s *Store) Upsert(ctx context.Context, rule model.ReminderRule) (model.ReminderRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule = rule.WithDefaults().Clone()
	if rule.ID == "" {
		rule.ID = s.nextID()
	}
	if err := rule.Validate(); err != nil {
		return model.ReminderRule{}, err
	}
	if i := s.indexOf(rule.ID); i >= 0 {
		s.rules[i] = rule
	} else {
		s.rules = append(s.rules, rule)
	}
	s.persist(ctx)
	s.apply(ctx)
	return rule.Clone(), nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrRuleNotFound, id)
	}
	s.rules = append(s.rules[:i:i], s.rules[i+1:]...)
	s.persist(ctx)
	s.apply(ctx)
	return nil
}

func (s *Store) SetEnabled(ctx context.Context, id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrRuleNotFound, id)
	}
	s.rules[i].Enabled = enabled
	s.persist(ctx)
	s.apply(ctx)
	return nil
}

// MarkCompletedToday records today's local date on the rule once and awards
// impact.CookiesPerReminder cookies. It does not touch scheduled notifications.
// changed is false when today was already recorded.
func (s *Store) MarkCompletedToday(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, fmt.Errorf("%w: %q", ErrRuleNotFound, id)
	}
	if !s.rules[i].MarkCompleted(s.today()) {
		return false, nil
	}
	s.persist(ctx)
	if s.rewarder != nil {
		if _, err := s.rewarder.Award(ctx, s.userID(), impact.CookiesPerReminder); err != nil {
			s.logger.Warn("award completion cookies", zap.String("rule_id", id), zap.Error(err))
		}
	}
	return true, nil
}

// Clear empties the in-memory rules and cancels scheduled notifications. The
// local cache is kept for the next sign-in.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = nil
	s.apply(ctx)
	s.logger.Info("alarms cleared")
}

// Bind loads on sign-in and clears on sign-out until the returned function
// is called.
func (s *Store) Bind(ctx context.Context, auth AuthSource) func() {
	return auth.OnAuthChanged(func(u *session.User) {
		if u == nil {
			s.Clear(ctx)
			return
		}
		s.Load(ctx)
	})
}

func (s *Store) loadRemote(ctx context.Context) ([]model.ReminderRule, bool) {
	uid := s.userID()
	if uid == "" || s.docs == nil {
		return nil, false
	}
	doc, ok, err := s.docs.GetDocument(ctx, remote.AlarmsDocPath(uid))
	if err != nil {
		s.logger.Warn("read remote alarms", zap.String("uid", uid), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	arr, isArr := doc[FieldAlarms].([]any)
	if !isArr {
		return nil, false
	}
	rules, err := decodeDocumentValue(arr)
	if err != nil {
		s.logger.Warn("decode remote alarms", zap.String("uid", uid), zap.Error(err))
		return nil, false
	}
	return rules, true
}

func (s *Store) loadLocal(ctx context.Context) ([]model.ReminderRule, bool) {
	raw, ok, err := s.cache.Get(ctx, CacheKey)
	if err != nil {
		s.logger.Warn("read cached alarms", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	rules, err := model.DecodeRules([]byte(raw))
	if err != nil {
		s.logger.Warn("decode cached alarms", zap.Error(err))
		return nil, false
	}
	return rules, true
}

// sanitize drops rules that fail validation and collapses repeated ids,
// keeping the last occurrence at the position of the first.
func (s *Store) sanitize(rules []model.ReminderRule) []model.ReminderRule {
	if rules == nil {
		return nil
	}
	out := make([]model.ReminderRule, 0, len(rules))
	pos := make(map[string]int, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			s.logger.Warn("dropping invalid alarm", zap.String("rule_id", r.ID), zap.Error(err))
			continue
		}
		if i, dup := pos[r.ID]; dup {
			s.logger.Warn("duplicate alarm id, keeping last", zap.String("rule_id", r.ID))
			out[i] = r
			continue
		}
		pos[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}

func (s *Store) persist(ctx context.Context) {
	s.writeCache(ctx, s.rules)
	s.writeRemote(ctx, s.rules)
}

func (s *Store) writeCache(ctx context.Context, rules []model.ReminderRule) {
	raw, err := model.EncodeRules(rules)
	if err != nil {
		s.logger.Error("encode alarms", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, CacheKey, string(raw)); err != nil {
		s.logger.Warn("write cached alarms", zap.Error(err))
	}
}

func (s *Store) writeRemote(ctx context.Context, rules []model.ReminderRule) {
	uid := s.userID()
	if uid == "" || s.docs == nil {
		s.logger.Debug("remote alarm write skipped: not signed in")
		return
	}
	arr, err := encodeDocumentValue(rules)
	if err != nil {
		s.logger.Error("encode alarms", zap.Error(err))
		return
	}
	data := map[string]any{
		FieldAlarms:    arr,
		FieldUpdatedAt: remote.ServerTime,
	}
	if err := s.docs.SetDocument(ctx, remote.AlarmsDocPath(uid), data, true); err != nil {
		s.logger.Warn("write remote alarms", zap.String("uid", uid), zap.Error(err))
	}
}

func (s *Store) apply(ctx context.Context) {
	if s.sched == nil {
		return
	}
	s.sched.ApplyAll(ctx, model.CloneRules(s.rules))
}

func (s *Store) stampDate(ctx context.Context) {
	if err := s.cache.Set(ctx, DateStampKey, s.today()); err != nil {
		s.logger.Warn("write alarm date stamp", zap.Error(err))
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.rules {
		if s.rules[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID returns the current millisecond timestamp, bumped past any id
// already in use.
func (s *Store) nextID() string {
	ms := s.now().UnixMilli()
	for s.indexOf(strconv.FormatInt(ms, 10)) >= 0 {
		ms++
	}
	return strconv.FormatInt(ms, 10)
}

func (s *Store) today() string {
	return model.FormatDate(s.now())
}

func (s *Store) userID() string {
	if s.identity == nil {
		return ""
	}
	return s.identity.UserID()
}

// encodeDocumentValue turns rules into the plain array-of-maps value the
// remote document stores.
func encodeDocumentValue(rules []model.ReminderRule) ([]any, error) {
	raw, err := model.EncodeRules(rules)
	if err != nil {
		return nil, err
	}
	var out []any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeDocumentValue(arr []any) ([]model.ReminderRule, error) {
	raw, err := json.Marshal(arr)
	if err != nil {
		return nil, err
	}
	rules, err := model.DecodeRules(raw)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		rules = []model.ReminderRule{}
	}
	return rules, nil
}

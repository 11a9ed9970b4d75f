package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/bottle/internal/alarm"
	"github.com/sandeepkv93/bottle/internal/commands"
	"github.com/sandeepkv93/bottle/internal/completion"
	"github.com/sandeepkv93/bottle/internal/impact"
	"github.com/sandeepkv93/bottle/internal/model"
	"github.com/sandeepkv93/bottle/internal/scheduler"
)

type notificationCenter interface {
	Pending() []scheduler.Scheduled
	Open(h scheduler.Handle) error
}

type app struct {
	store    *alarm.Store
	recorder *impact.Recorder
	cookies  *impact.CookieJar
	daily    *impact.DailyPlanner
	identity alarm.Identity
	engine   notificationCenter
	now      func() time.Time
}

func (a *app) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

func newHandlers(ctx context.Context, a *app) commands.Handlers {
	return commands.Handlers{
		Add: func(args commands.AddArgs) (commands.Result, error) {
			rule, err := a.store.Upsert(ctx, args.Rule())
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("added %s", describeRule(rule))}, nil
		},
		Remove: func(args commands.TargetArgs) (commands.Result, error) {
			if err := a.store.Remove(ctx, args.ID); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("removed %s", args.ID)}, nil
		},
		Toggle: func(id string, enabled bool) (commands.Result, error) {
			if err := a.store.SetEnabled(ctx, id, enabled); err != nil {
				return commands.Result{}, err
			}
			state := "disabled"
			if enabled {
				state = "enabled"
			}
			return commands.Result{Message: fmt.Sprintf("%s %s", state, id)}, nil
		},
		Done: func(args commands.TargetArgs) (commands.Result, error) {
			changed, err := a.store.MarkCompletedToday(ctx, args.ID)
			if err != nil {
				return commands.Result{}, err
			}
			if !changed {
				return commands.Result{Message: fmt.Sprintf("%s already done today", args.ID)}, nil
			}
			return commands.Result{Message: fmt.Sprintf("marked %s done", args.ID)}, nil
		},
		List: func(args commands.ListArgs) (commands.Result, error) {
			return commands.Result{Message: a.list(args.Upcoming)}, nil
		},
		Streak: func() (commands.Result, error) {
			return commands.Result{Message: a.streak(ctx)}, nil
		},
		Preset: func(args commands.TargetArgs) (commands.Result, error) {
			if args.ID == "" {
				return commands.Result{Message: describePresets()}, nil
			}
			rule, err := a.store.AddRecommended(ctx, args.ID)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("added %s", describeRule(rule))}, nil
		},
		Mission: func(args commands.TargetArgs) (commands.Result, error) {
			m, ok := impact.FindMission(args.ID)
			if !ok {
				return commands.Result{}, fmt.Errorf("unknown mission %q", args.ID)
			}
			now := a.clock()
			c, err := a.recorder.RecordCompletion(ctx, a.identity.UserID(), m, now)
			if err != nil {
				return commands.Result{}, err
			}
			msg := fmt.Sprintf("%s %s done this %s: %.0fml water, %.1fg waste, %.0fg CO2",
				m.Emoji, m.Name, c.TimeSlot, m.Water, m.Waste, m.CO2)
			if a.daily != nil {
				set, done, err := a.daily.Complete(ctx, m.ID, now)
				switch {
				case err == nil && done:
					msg += fmt.Sprintf(" (daily %d/%d)", len(set.Completed), len(set.Missions))
				case err != nil && !errors.Is(err, impact.ErrNotInDaily):
					return commands.Result{}, err
				}
			}
			return commands.Result{Message: msg}, nil
		},
		Daily: func() (commands.Result, error) {
			set, err := a.daily.Today(ctx, a.clock())
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: describeDaily(set)}, nil
		},
		Swap: func(args commands.SwapArgs) (commands.Result, error) {
			set, err := a.daily.Replace(ctx, args.Slot-1, a.clock())
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: describeDaily(set)}, nil
		},
		Cookies: func() (commands.Result, error) {
			return commands.Result{Message: fmt.Sprintf("🍪 %d cookies", a.cookies.Total(ctx))}, nil
		},
		Open: func(args commands.TargetArgs) (commands.Result, error) {
			if err := a.engine.Open(scheduler.Handle(args.ID)); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("opened %s", args.ID)}, nil
		},
		Stats: func() (commands.Result, error) {
			s, err := a.recorder.Stats(ctx, a.identity.UserID())
			if err != nil {
				return commands.Result{}, err
			}
			water, waste, carbon := impact.Levels(s)
			var b strings.Builder
			fmt.Fprintf(&b, "%d missions completed\n", s.TotalCompleted)
			writeLevel(&b, "water", s.TotalWater, water)
			writeLevel(&b, "waste", s.TotalWaste, waste)
			writeLevel(&b, "carbon", s.TotalCO2, carbon)
			return commands.Result{Message: strings.TrimRight(b.String(), "\n")}, nil
		},
	}
}

func (a *app) list(upcoming int) string {
	rules := a.store.Rules()
	if len(rules) == 0 {
		return "no reminders"
	}
	now := a.clock()
	today := model.FormatDate(now)
	var b strings.Builder
	for _, r := range rules {
		mark := " "
		if r.IsCompletedOn(today) {
			mark = "x"
		}
		state := ""
		if !r.Enabled {
			state = " (off)"
		}
		fmt.Fprintf(&b, "[%s] %s%s\n", mark, describeRule(r), state)
		if upcoming > 0 && r.Enabled {
			next, err := r.Preview(now, upcoming)
			if err != nil {
				continue
			}
			for _, at := range next {
				fmt.Fprintf(&b, "      %s\n", at.Format("Mon Jan 2 15:04"))
			}
		}
	}
	if a.engine != nil {
		fmt.Fprintf(&b, "%d notifications pending", len(a.engine.Pending()))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *app) streak(ctx context.Context) string {
	extra, err := a.recorder.CompletionDates(ctx, a.identity.UserID())
	if err != nil {
		return err.Error()
	}
	s := completion.Summarize(a.store.Rules(), extra, a.clock())
	return fmt.Sprintf("today %d/%d done, streak %d day(s), %.0f%% of a %d-day goal",
		s.Completed, len(s.Today), s.Streak, s.Progress*100, completion.StreakTarget)
}

func describeRule(r model.ReminderRule) string {
	return fmt.Sprintf("%s %s %s %s %s", r.ID, r.TimeLabel(), r.Recurrence, r.Emoji, r.Message)
}

func describePresets() string {
	var b strings.Builder
	for _, p := range alarm.Recommended() {
		r := p.Rule()
		fmt.Fprintf(&b, "%s %s %s %s %s\n", p.ID, r.TimeLabel(), r.Recurrence, r.Emoji, r.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeDaily(set impact.DailySet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "missions for %s\n", set.Date)
	for i, m := range set.Missions {
		mark := " "
		if set.IsCompleted(m.ID) {
			mark = "x"
		}
		fmt.Fprintf(&b, "%d. [%s] %s %s (%s)\n", i+1, mark, m.Emoji, m.Name, m.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeLevel(b *strings.Builder, name string, total float64, l impact.Level) {
	fmt.Fprintf(b, "%s %.1f: stage %d %s (%.0f%% to %.0f)\n", name, total, l.Stage, l.Result, l.Progress, l.Target)
}

package commands

import (
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/bottle/internal/model"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add 7:30am daily Pack a tumbler", TypeAdd},
		{"remove 1707555600000", TypeRemove},
		{"enable 17", TypeEnable},
		{"disable 17", TypeDisable},
		{"done 17", TypeDone},
		{"list", TypeList},
		{"list 3", TypeList},
		{"streak", TypeStreak},
		{"preset", TypePreset},
		{"preset rec1", TypePreset},
		{"mission tumbler", TypeMission},
		{"STATS", TypeStats},
		{"cookies", TypeCookies},
		{"daily", TypeDaily},
		{"swap 2", TypeSwap},
		{"open 5b1c", TypeOpen},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseAddArguments(t *testing.T) {
	cmd, err := Parse("add 9:05pm mon,wed,fri Bring a shopping bag")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	a := cmd.Add
	if a.Hour != 9 || a.Minute != 5 || a.Meridiem != model.PM || a.Message != "Bring a shopping bag" {
		t.Fatalf("unexpected add args: %+v", a)
	}
	if a.Recurrence.Kind != model.RecurrenceWeekly || len(a.Recurrence.Days) != 3 || a.Recurrence.Days[2] != time.Friday {
		t.Fatalf("unexpected recurrence: %+v", a.Recurrence)
	}
	rule := a.Rule()
	if !rule.Enabled || rule.Hour24() != 21 {
		t.Fatalf("unexpected rule: %+v", rule)
	}

	cmd, err = Parse("add 6am 2026-02-14")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if d := cmd.Add.Recurrence.Date; d == nil || d.Month != 1 || d.Day != 14 {
		t.Fatalf("unexpected one-time date: %+v", cmd.Add.Recurrence)
	}
}

func TestParseInvalidArguments(t *testing.T) {
	for _, in := range []string{
		"add 7:30 daily",
		"add 13pm daily",
		"add 7:5am daily",
		"add 7am fortnightly",
		"add 7am mon,mon",
		"add 7am",
		"remove",
		"done a b",
		"list many",
		"swap",
		"swap 0",
		"swap two",
		"open",
	} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("%q: expected invalid argument error, got %v", in, err)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "  ", "/"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
			t.Fatalf("%q: expected empty input error, got %v", in, err)
		}
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/disable 42")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Toggle: func(id string, enabled bool) (Result, error) {
			called = true
			if id != "42" || enabled {
				t.Fatalf("unexpected toggle: %q %v", id, enabled)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteSwapAndOpen(t *testing.T) {
	var slot int
	var handle string
	handlers := Handlers{
		Swap: func(a SwapArgs) (Result, error) { slot = a.Slot; return Result{}, nil },
		Open: func(a TargetArgs) (Result, error) { handle = a.ID; return Result{}, nil },
	}
	for _, in := range []string{"swap 3", "open 5b1c"} {
		cmd, err := Parse(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if _, err := Execute(cmd, handlers); err != nil {
			t.Fatalf("execute %q: %v", in, err)
		}
	}
	if slot != 3 || handle != "5b1c" {
		t.Fatalf("unexpected dispatch: slot=%d handle=%q", slot, handle)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("streak")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}

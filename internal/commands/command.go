package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/bottle/internal/model"
)

type Type string

const (
	TypeAdd     Type = "add"
	TypeRemove  Type = "remove"
	TypeEnable  Type = "enable"
	TypeDisable Type = "disable"
	TypeDone    Type = "done"
	TypeList    Type = "list"
	TypeStreak  Type = "streak"
	TypePreset  Type = "preset"
	TypeMission Type = "mission"
	TypeStats   Type = "stats"
	TypeCookies Type = "cookies"
	TypeDaily   Type = "daily"
	TypeSwap    Type = "swap"
	TypeOpen    Type = "open"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

type AddArgs struct {
	Hour       int
	Minute     int
	Meridiem   model.Meridiem
	Recurrence model.Recurrence
	Message    string
}

// Rule builds an enabled rule without an id.
func (a AddArgs) Rule() model.ReminderRule {
	return model.ReminderRule{
		Hour:       a.Hour,
		Minute:     a.Minute,
		Meridiem:   a.Meridiem,
		Message:    a.Message,
		Enabled:    true,
		Recurrence: a.Recurrence,
	}
}

type TargetArgs struct {
	ID string
}

type ListArgs struct {
	Upcoming int
}

// SwapArgs names a daily mission slot, 1-based as shown by "daily".
type SwapArgs struct {
	Slot int
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Target *TargetArgs
	List   *ListArgs
	Swap   *SwapArgs
}

// Parse reads one command line, such as "add 7:30am mon,wed,fri Pack a
// tumbler" or "/done 1707555600000".
func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch t := Type(head); t {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeRemove, TypeEnable, TypeDisable, TypeDone, TypePreset, TypeMission, TypeOpen:
		return parseTarget(input, t, args)
	case TypeList:
		return parseList(input, args)
	case TypeSwap:
		return parseSwap(input, args)
	case TypeStreak, TypeStats, TypeCookies, TypeDaily:
		return Command{Type: t, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, invalid("add requires a time and a recurrence")
	}
	hour, minute, meridiem, err := ParseClock(args[0])
	if err != nil {
		return Command{}, err
	}
	rec, err := ParseRecurrence(args[1])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{
		Hour:       hour,
		Minute:     minute,
		Meridiem:   meridiem,
		Recurrence: rec,
		Message:    strings.TrimSpace(strings.Join(args[2:], " ")),
	}}, nil
}

func parseTarget(raw string, t Type, args []string) (Command, error) {
	if t == TypePreset && len(args) == 0 {
		return Command{Type: t, Raw: raw, Target: &TargetArgs{}}, nil
	}
	if len(args) != 1 {
		return Command{}, invalid("%s requires exactly one id", t)
	}
	return Command{Type: t, Raw: raw, Target: &TargetArgs{ID: args[0]}}, nil
}

func parseList(raw string, args []string) (Command, error) {
	out := &ListArgs{}
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return Command{}, invalid("list takes a non-negative preview count, got %q", args[0])
		}
		out.Upcoming = n
	}
	return Command{Type: TypeList, Raw: raw, List: out}, nil
}

func parseSwap(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("swap requires a mission slot")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return Command{}, invalid("swap takes a positive slot number, got %q", args[0])
	}
	return Command{Type: TypeSwap, Raw: raw, Swap: &SwapArgs{Slot: n}}, nil
}

// ParseClock reads "7am", "7:30pm" or "12:05AM".
func ParseClock(s string) (int, int, model.Meridiem, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	var meridiem model.Meridiem
	switch {
	case strings.HasSuffix(v, "AM"):
		meridiem = model.AM
	case strings.HasSuffix(v, "PM"):
		meridiem = model.PM
	default:
		return 0, 0, "", invalid("time %q needs am or pm", s)
	}
	v = strings.TrimSuffix(strings.TrimSuffix(v, "AM"), "PM")

	hourPart, minutePart, hasMinute := strings.Cut(v, ":")
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 1 || hour > 12 {
		return 0, 0, "", invalid("hour in %q must be within 1-12", s)
	}
	minute := 0
	if hasMinute {
		minute, err = strconv.Atoi(minutePart)
		if err != nil || len(minutePart) != 2 || minute < 0 || minute > 59 {
			return 0, 0, "", invalid("minute in %q must be two digits within 00-59", s)
		}
	}
	return hour, minute, meridiem, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseRecurrence reads "daily", "weekdays", a comma-separated weekday list
// such as "mon,wed,fri", or a date "2026-02-14".
func ParseRecurrence(s string) (model.Recurrence, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "daily", "everyday":
		return model.Daily(), nil
	case "weekdays":
		return model.WeeklyOn(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday), nil
	case "weekends":
		return model.WeeklyOn(time.Saturday, time.Sunday), nil
	}
	if d, err := time.Parse(model.DateLayout, v); err == nil {
		return model.OnceOn(d.Year(), int(d.Month())-1, d.Day()), nil
	}

	var days []time.Weekday
	for _, name := range strings.Split(v, ",") {
		day, ok := weekdayNames[strings.TrimSpace(name)]
		if !ok {
			return model.Recurrence{}, invalid("unknown recurrence %q", s)
		}
		days = append(days, day)
	}
	rec := model.WeeklyOn(days...)
	if err := rec.Validate(); err != nil {
		return model.Recurrence{}, invalid("%v", err)
	}
	return rec, nil
}

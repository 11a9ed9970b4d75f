package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add     func(AddArgs) (Result, error)
	Remove  func(TargetArgs) (Result, error)
	Toggle  func(id string, enabled bool) (Result, error)
	Done    func(TargetArgs) (Result, error)
	List    func(ListArgs) (Result, error)
	Streak  func() (Result, error)
	Preset  func(TargetArgs) (Result, error)
	Mission func(TargetArgs) (Result, error)
	Stats   func() (Result, error)
	Cookies func() (Result, error)
	Daily   func() (Result, error)
	Swap    func(SwapArgs) (Result, error)
	Open    func(TargetArgs) (Result, error)
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Add(*cmd.Add)
	case TypeRemove:
		if handlers.Remove == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Remove(*cmd.Target)
	case TypeEnable, TypeDisable:
		if handlers.Toggle == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Toggle(cmd.Target.ID, cmd.Type == TypeEnable)
	case TypeDone:
		if handlers.Done == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Done(*cmd.Target)
	case TypeList:
		if handlers.List == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.List(*cmd.List)
	case TypeStreak:
		if handlers.Streak == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Streak()
	case TypePreset:
		if handlers.Preset == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Preset(*cmd.Target)
	case TypeMission:
		if handlers.Mission == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Mission(*cmd.Target)
	case TypeStats:
		if handlers.Stats == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Stats()
	case TypeCookies:
		if handlers.Cookies == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Cookies()
	case TypeDaily:
		if handlers.Daily == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Daily()
	case TypeSwap:
		if handlers.Swap == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Swap(*cmd.Swap)
	case TypeOpen:
		if handlers.Open == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Open(*cmd.Target)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

package update

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/bottle/internal/commands"
	"github.com/sandeepkv93/bottle/internal/scheduler"
	"github.com/sandeepkv93/bottle/internal/views"
)

// MaxScrollback bounds the lines kept on screen.
const MaxScrollback = 200

const helpMarkdown = `# Commands

- ` + "`add 7:30am daily|weekdays|weekends|mon,wed|2026-02-14 [message]`" + `
- ` + "`list [n]`" + ` shows reminders and the next n firings
- ` + "`enable|disable|done|remove <id>`" + `
- ` + "`preset [rec1|rec2|rec3]`" + `
- ` + "`mission <id>`" + `, ` + "`daily`" + `, ` + "`swap <slot>`" + `
- ` + "`streak`" + `, ` + "`stats`" + `, ` + "`cookies`" + `
- ` + "`open <handle>`" + ` opens a delivered reminder
`

// ArrivalMsg carries a surfaced reminder into the program.
type ArrivalMsg struct {
	Arrival scheduler.Arrival
}

type StatusBar struct {
	Text    string
	IsError bool
}

// Model is the command console: a scrollback of results above a prompt.
type Model struct {
	Lines    []views.Line
	Status   StatusBar
	Quitting bool

	handlers commands.Handlers
	input    textinput.Model
}

func NewModel(handlers commands.Handlers) Model {
	in := textinput.New()
	in.Prompt = "/"
	in.Placeholder = "help"
	in.CharLimit = 256
	in.Width = 60
	in.Focus()
	return Model{
		handlers: handlers,
		input:    in,
		Status:   StatusBar{Text: "ready"},
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit
		case "enter":
			return m.submit()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(typed)
		return m, cmd
	case ArrivalMsg:
		a := typed.Arrival
		m = m.push(views.Line{Kind: views.LineNotice, Text: fmt.Sprintf("%s  %s\nopen %s", a.Payload.Title, a.Payload.Body, a.Handle)})
		m.Status = StatusBar{Text: "reminder delivered"}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	return views.RenderConsole(views.ConsoleData{
		Header:     "bottle",
		Lines:      m.Lines,
		Prompt:     m.input.View(),
		StatusLine: m.Status.Text,
		IsError:    m.Status.IsError,
		Footer:     "enter run · help commands · esc quit",
	})
}

// Input is the text currently in the prompt.
func (m Model) Input() string {
	return m.input.Value()
}

// SetInput replaces the prompt text.
func (m Model) SetInput(s string) Model {
	m.input.SetValue(s)
	return m
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	switch strings.ToLower(raw) {
	case "":
		return m, nil
	case "quit", "exit":
		m.Quitting = true
		return m, tea.Quit
	case "help", "?":
		m = m.push(views.Line{Kind: views.LineInput, Text: raw})
		m = m.push(views.Line{Kind: views.LineOutput, Text: views.RenderMarkdown(helpMarkdown)})
		m.Status = StatusBar{Text: "ready"}
		return m, nil
	}

	m = m.push(views.Line{Kind: views.LineInput, Text: raw})
	res, err := Dispatch(raw, m.handlers)
	if err != nil {
		m = m.push(views.Line{Kind: views.LineError, Text: err.Error()})
		m.Status = StatusBar{Text: "error", IsError: true}
		return m, nil
	}
	if res.Message != "" {
		m = m.push(views.Line{Kind: views.LineOutput, Text: res.Message})
	}
	m.Status = StatusBar{Text: "ok"}
	return m, nil
}

func (m Model) push(l views.Line) Model {
	lines := append(append([]views.Line(nil), m.Lines...), l)
	if len(lines) > MaxScrollback {
		lines = lines[len(lines)-MaxScrollback:]
	}
	m.Lines = lines
	return m
}

// Dispatch parses and executes one command line.
func Dispatch(line string, handlers commands.Handlers) (commands.Result, error) {
	cmd, err := commands.Parse(line)
	if err != nil {
		return commands.Result{}, err
	}
	return commands.Execute(cmd, handlers)
}

// Sender is the part of *tea.Program the sink needs.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramSink shows surfaced reminders in the running console.
type ProgramSink struct {
	Program Sender
}

func (s ProgramSink) Deliver(ctx context.Context, a scheduler.Arrival) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Program.Send(ArrivalMsg{Arrival: a})
	return nil
}

package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type LineKind int

const (
	LineInput LineKind = iota
	LineOutput
	LineError
	LineNotice
)

// Line is one entry of the console scrollback.
type Line struct {
	Kind LineKind
	Text string
}

type ConsoleData struct {
	Header     string
	Lines      []Line
	Prompt     string
	StatusLine string
	IsError    bool
	Footer     string
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	inputStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	noticeStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("11")).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func RenderConsole(data ConsoleData) string {
	lines := []string{headerStyle.Render(data.Header)}
	for _, l := range data.Lines {
		lines = append(lines, renderLine(l))
	}
	if data.StatusLine != "" {
		if data.IsError {
			lines = append(lines, errorStyle.Render(data.StatusLine))
		} else {
			lines = append(lines, statusStyle.Render(data.StatusLine))
		}
	}
	lines = append(lines, data.Prompt)
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

func renderLine(l Line) string {
	switch l.Kind {
	case LineInput:
		return inputStyle.Render("> " + l.Text)
	case LineError:
		return errorStyle.Render(l.Text)
	case LineNotice:
		return noticeStyle.Render(l.Text)
	default:
		return l.Text
	}
}

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/jsdzhang/occhat"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	UserMsg  lipgloss.Style
	Timeline lipgloss.Style
	Sources  lipgloss.Style
	Approval lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	CodeBg   lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t occhat.Theme) Styles {
	return Styles{
		UserMsg:  lipgloss.NewStyle().Foreground(ansiColor(t.UserMsg)).Bold(true),
		Timeline: lipgloss.NewStyle().Foreground(ansiColor(t.Timeline)).Faint(true),
		Sources:  lipgloss.NewStyle().Foreground(ansiColor(t.Sources)),
		Approval: lipgloss.NewStyle().Foreground(ansiColor(t.Approval)).Bold(true),
		Error:    lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Muted:    lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:   lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		CodeBg:   lipgloss.NewStyle().Background(ansiColor(t.CodeBg)).PaddingLeft(1),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

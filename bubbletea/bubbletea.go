// Package bubbletea provides a Bubble Tea TUI for an agent chat session.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jsdzhang/occhat"
)

// Run creates and runs the Bubble Tea TUI program. It blocks until the
// program exits. The context is used for graceful shutdown; when cancelled,
// the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// SessionEventMsg wraps a session event for delivery to the Bubble Tea model.
type SessionEventMsg struct {
	Event occhat.Event
}

// SessionClosedMsg signals that the session's event channel has closed.
type SessionClosedMsg struct{}

// listenForEvent waits for the next event from the session. When the channel
// closes it returns SessionClosedMsg instead.
func listenForEvent(ch <-chan occhat.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return SessionClosedMsg{}
		}
		return SessionEventMsg{Event: ev}
	}
}

package bubbletea

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jsdzhang/occhat"
)

var _ tea.Model = Model{}

// Controller is the session surface the TUI drives. *ws.Session satisfies it.
type Controller interface {
	SendQuery(text string) (string, error)
	SendApprovalDecision(approved bool) error
	Connected() bool
	Err() string
}

// Model is the Bubble Tea model for the chat TUI.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	ctrl   Controller
	events <-chan occhat.Event
	theme  occhat.Theme
	styles Styles

	blocks     []MessageBlock
	blockFocus int // index of focused collapsible block (-1 = none)

	// Per-message blocks for event correlation. Message IDs are stable
	// across a turn, so the maps are never cleared mid-session.
	activeText     map[string]*AssistantTextBlock
	activeTimeline map[string]*TimelineBlock
	activeSources  map[string]*SourcesBlock
	approval       *ApprovalBlock

	streaming bool
	awaiting  bool
	connected bool
	note      string // transient send-failure note for the status line
	ready     bool
	closed    bool
}

// New creates a TUI Model reading events from the given channel and driving
// the controller for outbound actions.
func New(ctrl Controller, events <-chan occhat.Event, theme occhat.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about the document..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		Input:          ti,
		ctrl:           ctrl,
		events:         events,
		theme:          theme,
		styles:         NewStyles(theme),
		blockFocus:     -1,
		activeText:     make(map[string]*AssistantTextBlock),
		activeTimeline: make(map[string]*TimelineBlock),
		activeSources:  make(map[string]*SourcesBlock),
		connected:      ctrl.Connected(),
	}
}

// Streaming returns whether an assistant turn is in flight.
func (m Model) Streaming() bool { return m.streaming }

// AwaitingApproval returns whether a tool call is waiting on a decision.
func (m Model) AwaitingApproval() bool { return m.awaiting }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, listenForEvent(m.events))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SessionEventMsg:
		m = m.processEvent(msg.Event)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		return m, listenForEvent(m.events)

	case SessionClosedMsg:
		m.closed = true
		m.connected = false
		m.streaming = false
		return m, nil
	}

	// Pass remaining messages to sub-components.
	// Viewport always receives messages for scrolling (keyboard and mouse).
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.streaming && !m.awaiting {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	// Output area.
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")

	// Status line.
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	// Input area.
	b.WriteString(m.Input.View())

	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := msg.Height - inputH - statusHeight - borderHeight

	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEnter:
		if m.streaming || m.awaiting {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitInput(text)

	case tea.KeyTab:
		if m.blockFocus >= 0 {
			block, cmd := m.blocks[m.blockFocus].Update(ToggleMsg{})
			m.blocks[m.blockFocus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		m = m.cycleFocusPrev()
		m.Viewport.SetContent(m.renderContent())
		return m, nil

	case tea.KeyRunes:
		if m.awaiting && len(msg.Runes) == 1 {
			switch msg.Runes[0] {
			case 'y', 'Y':
				return m.decide(true)
			case 'n', 'N':
				return m.decide(false)
			}
		}
	}

	// When idle, pass keys to both the input (for typing) and viewport
	// (for scrolling). Only forward non-character keys to viewport to avoid
	// conflicts (e.g. 'j'/'k' are viewport scroll AND text characters).
	if !m.streaming && !m.awaiting {
		var cmd tea.Cmd
		var cmds []tea.Cmd

		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	if _, err := m.ctrl.SendQuery(text); err != nil {
		m.note = err.Error()
		return m, nil
	}
	m.note = ""
	m.Input.SetValue("")
	m.blocks = append(m.blocks, NewUserMessageBlock(text, m.styles))
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	m.streaming = true
	m.Input.Blur()
	return m, nil
}

// decide sends the approval decision. The awaiting state is cleared by the
// EventApprovalResolved that follows a successful send, so a failed send
// leaves the prompt up and the decision retryable.
func (m Model) decide(approved bool) (tea.Model, tea.Cmd) {
	if err := m.ctrl.SendApprovalDecision(approved); err != nil {
		m.note = err.Error()
	}
	return m, nil
}

func (m Model) renderContent() string {
	var b strings.Builder
	var prev MessageBlock
	for _, block := range m.blocks {
		view := block.View(m.Viewport.Width)
		if view == "" {
			continue
		}
		if prev != nil {
			b.WriteString(blockSeparator(prev, block))
		}
		b.WriteString(view)
		prev = block
	}
	return b.String()
}

// blockSeparator returns the separator between two adjacent blocks. Runs of
// activity blocks stay compact; prose blocks get a blank line around them.
func blockSeparator(prev, curr MessageBlock) string {
	if isCompact(prev) && isCompact(curr) {
		return "\n"
	}
	return "\n\n"
}

func isCompact(b MessageBlock) bool {
	switch b.(type) {
	case *TimelineBlock, *SourcesBlock, *ApprovalBlock:
		return true
	}
	return false
}

// processEvent routes a session event to the appropriate block.
func (m Model) processEvent(ev occhat.Event) Model {
	switch e := ev.(type) {
	case occhat.EventConnected:
		m.connected = true
		m.note = ""
	case occhat.EventDisconnected:
		m.connected = false
		m.streaming = false
	case occhat.EventMessageStarted:
		m = m.ensureText(e.MessageID)
		m.streaming = true
	case occhat.EventToken:
		m = m.ensureText(e.MessageID)
		m.activeText[e.MessageID].Append(e.Token)
		m.streaming = true
	case occhat.EventThought:
		b, ok := m.activeTimeline[e.MessageID]
		if !ok {
			b = NewTimelineBlock(m.styles)
			m.activeTimeline[e.MessageID] = b
			m.blocks = append(m.blocks, b)
			m = m.updateBlockFocus()
		}
		b.Add(e.Entry)
	case occhat.EventSourcesMerged:
		b, ok := m.activeSources[e.MessageID]
		if !ok {
			b = NewSourcesBlock(m.styles)
			m.activeSources[e.MessageID] = b
			m.blocks = append(m.blocks, b)
			m = m.updateBlockFocus()
		}
		b.Add(e.Sources)
	case occhat.EventApprovalRequested:
		b := NewApprovalBlock(e.Approval.ToolCall, m.styles)
		m.approval = b
		m.blocks = append(m.blocks, b)
		m.awaiting = true
		m.streaming = false
	case occhat.EventApprovalResolved:
		if m.approval != nil {
			m.approval.Resolve(e.Status)
			m.approval = nil
		}
		m.awaiting = false
	case occhat.EventMessageFinalized:
		m = m.ensureText(e.MessageID)
		m.activeText[e.MessageID].SetFinal(e.Content)
		m = m.endTurn()
	case occhat.EventMessageError:
		m.blocks = append(m.blocks, NewErrorBlock(e.Text, m.styles))
		m = m.endTurn()
	}
	return m
}

func (m Model) ensureText(messageID string) Model {
	if _, ok := m.activeText[messageID]; ok {
		return m
	}
	b := NewAssistantTextBlock(m.theme)
	m.activeText[messageID] = b
	m.blocks = append(m.blocks, b)
	return m
}

func (m Model) endTurn() Model {
	m.streaming = false
	m = m.updateBlockFocus()
	if !m.awaiting {
		m.Input.Focus()
	}
	return m
}

// updateBlockFocus scans backwards to find the last collapsible block.
// Only the focused block responds to Tab. ShiftTab cycles to the previous
// collapsible block.
func (m Model) updateBlockFocus() Model {
	m.blockFocus = -1
	for i := len(m.blocks) - 1; i >= 0; i-- {
		switch m.blocks[i].(type) {
		case *TimelineBlock, *SourcesBlock:
			m.blockFocus = i
			return m
		}
	}
	return m
}

// cycleFocusPrev moves blockFocus to the previous collapsible block, wrapping around.
func (m Model) cycleFocusPrev() Model {
	if len(m.blocks) == 0 {
		return m
	}
	start := m.blockFocus - 1
	if start < 0 {
		start = len(m.blocks) - 1
	}
	for i := range len(m.blocks) {
		idx := (start - i + len(m.blocks)) % len(m.blocks)
		switch m.blocks[idx].(type) {
		case *TimelineBlock, *SourcesBlock:
			m.blockFocus = idx
			return m
		}
	}
	m.blockFocus = -1
	return m
}

func (m Model) statusLine() string {
	if m.note != "" {
		return m.styles.Error.Render("Error: " + m.note)
	}
	if err := m.ctrl.Err(); err != "" {
		return m.styles.Error.Render(err)
	}
	if m.awaiting {
		return m.styles.Approval.Render("Tool call awaiting approval: y to approve, n to reject")
	}
	if m.streaming {
		return m.styles.Muted.Render("Generating...")
	}
	if !m.connected {
		return m.styles.Muted.Render("○ disconnected")
	}
	return m.styles.Muted.Render("● connected · Enter to send · Tab to expand · Ctrl+C to quit")
}

package bubbletea

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rivo/uniseg"

	"github.com/jsdzhang/occhat"
)

var _ MessageBlock = (*TimelineBlock)(nil)

const maxArgsPreview = 80

// TimelineBlock renders a message's reasoning timeline with a collapsible
// toggle. Thoughts, tool calls, and tool results share one block per message
// so the activity reads as a single sequence.
type TimelineBlock struct {
	entries   []occhat.TimelineEntry
	collapsed bool
	styles    Styles
}

// NewTimelineBlock creates a TimelineBlock that starts collapsed.
func NewTimelineBlock(styles Styles) *TimelineBlock {
	return &TimelineBlock{collapsed: true, styles: styles}
}

// Add appends a timeline entry.
func (b *TimelineBlock) Add(entry occhat.TimelineEntry) {
	b.entries = append(b.entries, entry)
}

// Len returns the number of entries.
func (b *TimelineBlock) Len() int { return len(b.entries) }

func (b *TimelineBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

func (b *TimelineBlock) View(width int) string {
	wrap := lipgloss.NewStyle().Width(width)

	indicator := "▶"
	if !b.collapsed {
		indicator = "▼"
	}
	header := b.styles.Timeline.Render(wrap.Render(fmt.Sprintf("%s Agent activity (%d)", indicator, len(b.entries))))
	if b.collapsed {
		return header
	}
	var sb strings.Builder
	sb.WriteString(header)
	for _, e := range b.entries {
		sb.WriteString("\n")
		sb.WriteString(b.styles.Timeline.Render(wrap.Render(entryLine(e))))
	}
	return sb.String()
}

func entryLine(e occhat.TimelineEntry) string {
	switch e.Kind {
	case occhat.TimelineToolCall:
		line := "→ " + e.Tool
		if len(e.Args) > 0 {
			line += " " + truncateGraphemes(string(e.Args), maxArgsPreview)
		}
		return line
	case occhat.TimelineToolResult:
		line := "← " + e.Tool
		if e.Text != "" {
			line += ": " + truncateGraphemes(firstLine(e.Text), maxArgsPreview)
		}
		return line
	default:
		return e.Text
	}
}

// truncateGraphemes cuts s after max grapheme clusters. Counting clusters
// rather than bytes or runes keeps combined characters intact.
func truncateGraphemes(s string, max int) string {
	if uniseg.GraphemeClusterCount(s) <= max {
		return s
	}
	g := uniseg.NewGraphemes(s)
	var sb strings.Builder
	for i := 0; i < max && g.Next(); i++ {
		sb.WriteString(g.Str())
	}
	return sb.String() + "…"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

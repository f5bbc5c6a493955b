package bubbletea

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jsdzhang/occhat"
)

var _ MessageBlock = (*SourcesBlock)(nil)

// SourcesBlock renders a message's citations with a collapsible toggle.
type SourcesBlock struct {
	sources   []occhat.Source
	collapsed bool
	styles    Styles
}

// NewSourcesBlock creates a SourcesBlock that starts collapsed.
func NewSourcesBlock(styles Styles) *SourcesBlock {
	return &SourcesBlock{collapsed: true, styles: styles}
}

// Add appends citations. The session already de-duplicates, so everything
// passed here is displayed.
func (b *SourcesBlock) Add(sources []occhat.Source) {
	b.sources = append(b.sources, sources...)
}

// Len returns the number of citations.
func (b *SourcesBlock) Len() int { return len(b.sources) }

func (b *SourcesBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

func (b *SourcesBlock) View(width int) string {
	wrap := lipgloss.NewStyle().Width(width)

	indicator := "▶"
	if !b.collapsed {
		indicator = "▼"
	}
	header := b.styles.Sources.Render(wrap.Render(fmt.Sprintf("%s Sources (%d)", indicator, len(b.sources))))
	if b.collapsed {
		return header
	}
	var sb strings.Builder
	sb.WriteString(header)
	for _, s := range b.sources {
		sb.WriteString("\n")
		sb.WriteString(b.sourceLine(s, width))
	}
	return sb.String()
}

// sourceLine formats one citation as "  p.N Label  excerpt", truncated to
// the display width so a long excerpt never wraps.
func (b *SourcesBlock) sourceLine(s occhat.Source, width int) string {
	head := fmt.Sprintf("  p.%d", s.Page)
	if s.Label != "" {
		head += " " + s.Label
	}
	line := b.styles.Sources.Render(head)
	if s.RawText != "" {
		excerpt := strings.Join(strings.Fields(s.RawText), " ")
		remaining := width - runewidth.StringWidth(head) - 2
		if remaining > 4 {
			line += "  " + b.styles.Muted.Render(runewidth.Truncate(excerpt, remaining, "…"))
		}
	}
	return line
}

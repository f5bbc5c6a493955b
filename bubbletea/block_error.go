package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var _ MessageBlock = (*ErrorBlock)(nil)

// ErrorBlock renders a protocol error reported by the server.
type ErrorBlock struct {
	text   string
	styles Styles
}

// NewErrorBlock creates an ErrorBlock.
func NewErrorBlock(text string, styles Styles) *ErrorBlock {
	return &ErrorBlock{text: text, styles: styles}
}

func (b *ErrorBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *ErrorBlock) View(width int) string {
	content := b.styles.Error.Render("Error: " + b.text)
	return lipgloss.NewStyle().Width(width).Render(content)
}

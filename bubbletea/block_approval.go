package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jsdzhang/occhat"
)

var _ MessageBlock = (*ApprovalBlock)(nil)

// ApprovalBlock renders a suspended tool call awaiting a human decision.
// Once resolved it collapses to a one-line record of the outcome.
type ApprovalBlock struct {
	call   occhat.ToolCall
	status occhat.ApprovalStatus
	styles Styles
}

// NewApprovalBlock creates an ApprovalBlock in the awaiting state.
func NewApprovalBlock(call occhat.ToolCall, styles Styles) *ApprovalBlock {
	return &ApprovalBlock{call: call, status: occhat.ApprovalAwaiting, styles: styles}
}

// Resolve records the decision.
func (b *ApprovalBlock) Resolve(status occhat.ApprovalStatus) {
	b.status = status
}

// Awaiting reports whether the decision is still outstanding.
func (b *ApprovalBlock) Awaiting() bool { return b.status == occhat.ApprovalAwaiting }

func (b *ApprovalBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *ApprovalBlock) View(width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	switch b.status {
	case occhat.ApprovalApproved:
		return b.styles.Muted.Render(wrap.Render("✓ " + b.call.Name + " approved"))
	case occhat.ApprovalRejected:
		return b.styles.Muted.Render(wrap.Render("✗ " + b.call.Name + " rejected"))
	default:
		header := b.styles.Approval.Render(wrap.Render("⚠ Approval required: " + b.call.Name))
		body := header
		if len(b.call.Arguments) > 0 {
			args := truncateGraphemes(string(b.call.Arguments), maxArgsPreview)
			body += "\n" + b.styles.Muted.Render(wrap.Render(args))
		}
		return body + "\n" + b.styles.Approval.Render(wrap.Render("[y] approve   [n] reject"))
	}
}

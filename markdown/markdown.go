// Package markdown renders markdown text to ANSI-styled terminal output
// using goldmark for parsing and lipgloss for styling.
package markdown

import "github.com/jsdzhang/occhat"

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items are word-wrapped to width. Code blocks and
// quoted passages are rendered behind a gutter without reflow of code.
func Render(source string, width int, theme occhat.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := newRenderer(theme)
	return r.render([]byte(source), width)
}

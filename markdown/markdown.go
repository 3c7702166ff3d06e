// Package markdown renders assistant prose to ANSI-styled terminal
// output using goldmark for parsing and lipgloss for styling. Legal
// replies lean on headings, bullet lists and blockquoted statute
// excerpts, so those get dedicated treatment.
package markdown

import "github.com/counsel-cli/counsel"

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items are word-wrapped to width. Code blocks are
// rendered at full width without reflow. Safe to call on partial streamed
// text: unclosed constructs degrade to plain paragraphs.
func Render(source string, width int, theme counsel.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := newRenderer(theme)
	return r.render([]byte(source), width)
}

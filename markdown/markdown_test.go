package markdown_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counsel-cli/counsel"
	"github.com/counsel-cli/counsel/markdown"
)

func render(source string) string {
	return markdown.Render(source, 80, counsel.DefaultTheme())
}

func TestRender_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, render(""))
}

func TestRender_Paragraph(t *testing.T) {
	t.Parallel()

	out := render("The notice period is thirty days.")
	assert.Contains(t, out, "The notice period is thirty days.")
}

func TestRender_WrapsToWidth(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("statute ", 20)
	out := markdown.Render(long, 30, counsel.DefaultTheme())
	lines := strings.Split(out, "\n")
	assert.Greater(t, len(lines), 1, "long paragraph must wrap")
}

func TestRender_ZeroWidthUsesDefault(t *testing.T) {
	t.Parallel()

	out := markdown.Render("some advice", 0, counsel.DefaultTheme())
	assert.Contains(t, out, "some advice")
}

func TestRender_Heading(t *testing.T) {
	t.Parallel()

	out := render("# Termination\n\nBody text.")
	assert.Contains(t, out, "Termination")
	assert.Contains(t, out, "Body text.")
	assert.NotContains(t, out, "#")
}

func TestRender_Lists(t *testing.T) {
	t.Parallel()

	t.Run("unordered", func(t *testing.T) {
		t.Parallel()
		out := render("- first ground\n- second ground")
		assert.Contains(t, out, "- first ground")
		assert.Contains(t, out, "- second ground")
	})

	t.Run("ordered keeps numbering", func(t *testing.T) {
		t.Parallel()
		out := render("1. file the claim\n2. serve the notice\n3. await response")
		assert.Contains(t, out, "1. file the claim")
		assert.Contains(t, out, "2. serve the notice")
		assert.Contains(t, out, "3. await response")
	})

	t.Run("nested", func(t *testing.T) {
		t.Parallel()
		out := render("- outer\n  - inner point")
		assert.Contains(t, out, "- outer")
		assert.Contains(t, out, "inner point")
	})
}

func TestRender_Blockquote(t *testing.T) {
	t.Parallel()

	out := render("Advice first.\n\n> Article 12 requires written notice.\n\nAdvice after.")
	assert.Contains(t, out, "┃", "quoted statute text gets a gutter")
	assert.Contains(t, out, "Article 12 requires written notice.")
	assert.Contains(t, out, "Advice first.")
	assert.Contains(t, out, "Advice after.")
}

func TestRender_FencedCode(t *testing.T) {
	t.Parallel()

	source := "Use this clause:\n\n```text\nThe Tenant shall provide thirty (30) days written notice.\n```"
	out := render(source)
	assert.Contains(t, out, "│", "code lines get a gutter")
	assert.Contains(t, out, "text")
	assert.Contains(t, out, "The Tenant shall provide thirty (30) days written notice.")
	assert.NotContains(t, out, "```")
}

func TestRender_CodeNotReflowed(t *testing.T) {
	t.Parallel()

	line := strings.Repeat("x", 120)
	out := markdown.Render("```\n"+line+"\n```", 30, counsel.DefaultTheme())
	assert.Contains(t, out, line, "code must stay verbatim regardless of width")
}

func TestRender_InlineStyles(t *testing.T) {
	t.Parallel()

	out := render("This is *emphatic*, this is **binding**, and `clause 4` applies. See [the act](https://example.com/act).")
	assert.Contains(t, out, "emphatic")
	assert.Contains(t, out, "binding")
	assert.Contains(t, out, "clause 4")
	assert.Contains(t, out, "the act")
	assert.Contains(t, out, "https://example.com/act")
	assert.NotContains(t, out, "**")
}

func TestRender_ThematicBreak(t *testing.T) {
	t.Parallel()

	out := render("before\n\n---\n\nafter")
	assert.Contains(t, out, "---")
}

func TestRender_PartialStreamNeverPanics(t *testing.T) {
	t.Parallel()

	full := "# Heading\n\nSome *advice* with a [link](https://example.com).\n\n> Quoted statute\n\n```text\ncode\n```\n\n- item one\n- item two"
	for i := 0; i <= len(full); i++ {
		require.NotPanics(t, func() {
			markdown.Render(full[:i], 40, counsel.DefaultTheme())
		})
	}
}

func TestRender_UnterminatedEmphasisDegrades(t *testing.T) {
	t.Parallel()

	out := render("an **unterminated emphasis")
	assert.Contains(t, out, "unterminated emphasis")
}

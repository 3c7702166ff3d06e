package counsel_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/counsel-cli/counsel"
)

func TestExtractSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		content     string
		wantText    string
		wantSuggest []string
	}{
		{
			name:        "empty input",
			content:     "",
			wantText:    "",
			wantSuggest: nil,
		},
		{
			name:        "no block returns input unchanged",
			content:     "Plain legal advice with no follow-ups.",
			wantText:    "Plain legal advice with no follow-ups.",
			wantSuggest: nil,
		},
		{
			name:        "closed bracket block",
			content:     "Answer text\n[SUGGESTIONS]\n- Do X\n- Do Y\n[/SUGGESTIONS]",
			wantText:    "Answer text",
			wantSuggest: []string{"Do X", "Do Y"},
		},
		{
			name:        "closed angle block",
			content:     "Answer\n<SUGGESTIONS>\n- One thing\n- Another\n</SUGGESTIONS>",
			wantText:    "Answer",
			wantSuggest: []string{"One thing", "Another"},
		},
		{
			name:        "unclosed bracket block mid-stream",
			content:     "Partial answer\n[SUGGESTIONS]\n- Option",
			wantText:    "Partial answer",
			wantSuggest: []string{"Option"},
		},
		{
			name:        "unclosed angle block mid-stream",
			content:     "Partial\n<SUGGESTIONS>\n- First option\n- Sec",
			wantText:    "Partial",
			wantSuggest: []string{"First option", "Sec"},
		},
		{
			name:        "case insensitive markers",
			content:     "Body\n[suggestions]\n- Ask more\n[/suggestions]",
			wantText:    "Body",
			wantSuggest: []string{"Ask more"},
		},
		{
			name:        "numbered list items",
			content:     "Body\n[SUGGESTIONS]\n1. First step\n2. Second step\n[/SUGGESTIONS]",
			wantText:    "Body",
			wantSuggest: []string{"First step", "Second step"},
		},
		{
			name:        "items on a single line split at markers",
			content:     "Body\n[SUGGESTIONS]- Do X - Do Y[/SUGGESTIONS]",
			wantText:    "Body",
			wantSuggest: []string{"Do X", "Do Y"},
		},
		{
			name:        "at most four kept in source order",
			content:     "B\n[SUGGESTIONS]\n- s1\n- s2\n- s3\n- s4\n- s5\n- s6\n[/SUGGESTIONS]",
			wantText:    "B",
			wantSuggest: []string{"s1", "s2", "s3", "s4"},
		},
		{
			name:        "too-short and too-long candidates dropped",
			content:     "B\n[SUGGESTIONS]\n- a\n- valid one\n- " + strings.Repeat("x", 150) + "\n[/SUGGESTIONS]",
			wantText:    "B",
			wantSuggest: []string{"valid one"},
		},
		{
			name:        "block with no usable candidates strips markers",
			content:     "Body text\n[SUGGESTIONS]\n[/SUGGESTIONS]",
			wantText:    "Body text",
			wantSuggest: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gotText, gotSuggest := counsel.ExtractSuggestions(tt.content)
			assert.Equal(t, tt.wantText, gotText)
			assert.Equal(t, tt.wantSuggest, gotSuggest)
		})
	}
}

func TestExtractSuggestions_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Answer text\n[SUGGESTIONS]\n- Do X\n- Do Y\n[/SUGGESTIONS]",
		"Partial answer\n[SUGGESTIONS]\n- Option",
		"No block at all",
		"Tail\n<SUGGESTIONS>\n- Thing\n</SUGGESTIONS>\ntrailing prose",
	}
	for _, in := range inputs {
		clean, _ := counsel.ExtractSuggestions(in)
		again, suggestions := counsel.ExtractSuggestions(clean)
		assert.Equal(t, clean, again, "re-extraction changed text for %q", in)
		assert.Empty(t, suggestions, "re-extraction found suggestions in clean text for %q", in)
	}
}

func TestExtractSuggestions_Bounds(t *testing.T) {
	t.Parallel()

	// Every returned suggestion is within displayable length, at most four.
	content := "B\n[SUGGESTIONS]\n- ok\n- " + strings.Repeat("y", 149) + "\n- also fine\n- more\n- extra\n[/SUGGESTIONS]"
	_, suggestions := counsel.ExtractSuggestions(content)
	assert.LessOrEqual(t, len(suggestions), 4)
	for _, s := range suggestions {
		n := len([]rune(s))
		assert.GreaterOrEqual(t, n, 2)
		assert.Less(t, n, 150)
	}
}

func TestExtractSuggestions_SafeOnPartialStream(t *testing.T) {
	t.Parallel()

	// Simulate re-derivation at every tick of a streamed reply.
	full := "The statute requires notice.\n[SUGGESTIONS]\n- What is the deadline?\n- Who must be notified?\n[/SUGGESTIONS]"
	for i := 0; i <= len(full); i++ {
		prefix := full[:i]
		if !utf8ValidPrefix(prefix) {
			continue
		}
		clean, suggestions := counsel.ExtractSuggestions(prefix)
		assert.LessOrEqual(t, len(suggestions), 4)
		assert.NotContains(t, clean, "[/SUGGESTIONS]")
	}
}

func utf8ValidPrefix(s string) bool {
	return strings.ToValidUTF8(s, "") == s
}

package counsel

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Suggested follow-ups arrive as a trailing block in the assistant's
// prose, delimited by [SUGGESTIONS]...[/SUGGESTIONS] or the angle-bracket
// equivalent. Patterns are tried from strict to lenient; the unclosed
// variants handle a reply truncated mid-stream.
//
// Known limitation: the unclosed fallback cannot distinguish a real
// trailing block from marker text quoted inside a normal answer, so such
// an answer loses its tail to extraction. Accepted as-is.
var suggestionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)\[SUGGESTIONS\](.*?)\[/SUGGESTIONS\]`),
	regexp.MustCompile(`(?is)<SUGGESTIONS>(.*?)</SUGGESTIONS>`),
	regexp.MustCompile(`(?is)\[SUGGESTIONS\](.*)$`),
	regexp.MustCompile(`(?is)<SUGGESTIONS>(.*)$`),
}

// residualMarkers strips stray delimiter tokens left behind when a block
// matched without yielding any usable candidate.
var residualMarkers = regexp.MustCompile(`(?i)\[/?SUGGESTIONS\]|</?SUGGESTIONS>`)

// listBoundary splits a block line into candidates at hyphen-space or
// digit-dot-space item markers.
var listBoundary = regexp.MustCompile(`-\s|[0-9]\.\s`)

// leadingListMarker is a single list marker at the start of a candidate.
var leadingListMarker = regexp.MustCompile(`^(-|[0-9]+\.)\s*`)

const (
	minSuggestionLen = 2   // runes, inclusive
	maxSuggestionLen = 150 // runes, exclusive
	maxSuggestions   = 4
)

// ExtractSuggestions splits assistant content into clean prose and up to
// four suggested follow-ups. The first pattern that matches and yields at
// least one candidate wins and its span is removed from the returned
// text. If nothing matches, the input is returned unchanged with no
// suggestions.
//
// The function is pure and idempotent, so it is safe to re-derive
// suggestions from partial streamed text on every render.
func ExtractSuggestions(content string) (cleanText string, suggestions []string) {
	if content == "" {
		return "", nil
	}

	cleanText = content
	for _, re := range suggestionPatterns {
		m := re.FindStringSubmatchIndex(content)
		if m == nil {
			continue
		}
		raw := content[m[2]:m[3]]
		parts := splitCandidates(raw)
		if len(parts) == 0 {
			continue
		}
		suggestions = parts
		if len(suggestions) > maxSuggestions {
			suggestions = suggestions[:maxSuggestions]
		}
		cleanText = strings.TrimSpace(content[:m[0]] + content[m[1]:])
		break
	}

	cleanText = strings.TrimSpace(residualMarkers.ReplaceAllString(cleanText, ""))
	return cleanText, suggestions
}

// splitCandidates breaks a matched block into trimmed candidates, keeping
// only those of displayable length.
func splitCandidates(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		for _, part := range splitListItems(line) {
			s := strings.TrimSpace(part)
			s = leadingListMarker.ReplaceAllString(s, "")
			// An unclosed fallback can capture a closing marker; it is
			// never a candidate.
			s = residualMarkers.ReplaceAllString(s, "")
			s = strings.TrimSpace(s)
			if n := utf8.RuneCountInString(s); n >= minSuggestionLen && n < maxSuggestionLen {
				out = append(out, s)
			}
		}
	}
	return out
}

// splitListItems splits a line before each list-item boundary without
// consuming the marker, so the marker strip sees it.
func splitListItems(line string) []string {
	locs := listBoundary.FindAllStringIndex(line, -1)
	if len(locs) == 0 {
		return []string{line}
	}
	var parts []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			parts = append(parts, line[prev:loc[0]])
			prev = loc[0]
		}
	}
	parts = append(parts, line[prev:])
	return parts
}

package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/llk214/semantic-locator/internal/chunk"
)

// Snippet window geometry, in runes.
const (
	snippetMaxLen = 200
	snippetLead   = 50
)

// Snippet extracts a display excerpt from chunk text: up to 200
// characters starting 50 before the first occurrence of any query token
// (case-insensitive), with ellipses when truncated at either edge. When
// no query token occurs, the leading 200 characters are returned.
//
// Failures here never propagate; the worst case is a plain leading excerpt.
func Snippet(text, query string) string {
	// Per-rune lowering keeps rune offsets aligned between lower and
	// text, which a byte-offset Index match would not guarantee.
	lower := strings.Map(unicode.ToLower, text)

	anchor := 0
	for _, term := range chunk.Tokenize(query) {
		if pos := strings.Index(lower, term); pos != -1 {
			anchor = utf8.RuneCountInString(lower[:pos])
			break
		}
	}

	runes := []rune(text)
	start := anchor - snippetLead
	if start < 0 {
		start = 0
	}
	end := start + snippetMaxLen
	if end > len(runes) {
		end = len(runes)
	}

	snippet := strings.Join(strings.Fields(string(runes[start:end])), " ")
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet += "..."
	}
	return snippet
}

package chunk

import (
	"regexp"
	"strings"
)

// wordRegex matches lowercased alphanumeric word tokens.
var wordRegex = regexp.MustCompile(`\b[a-z0-9]+\b`)

// englishStopWords is the fixed stop-word list applied to Latin tokens.
var englishStopWords = buildStopWordSet([]string{
	"the", "a", "an", "is", "are", "was", "were", "be", "been",
	"being", "have", "has", "had", "do", "does", "did", "will",
	"would", "could", "should", "may", "might", "must", "shall",
	"can", "need", "dare", "ought", "used", "to", "of", "in",
	"for", "on", "with", "at", "by", "from", "as", "into", "through",
	"during", "before", "after", "above", "below", "between", "under",
	"again", "further", "then", "once", "here", "there", "when",
	"where", "why", "how", "all", "each", "few", "more", "most",
	"other", "some", "such", "no", "nor", "not", "only", "own",
	"same", "so", "than", "too", "very", "just", "and", "but",
	"if", "or", "because", "until", "while", "this", "that", "these",
	"those", "it", "its",
})

func buildStopWordSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// isCJK reports whether r is a CJK unified ideograph.
func isCJK(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fff
}

// Tokenize normalizes text into lexical tokens. It lowercases the input,
// extracts alphanumeric word tokens, and additionally extracts every CJK
// ideograph as its own single-character token (no segmentation dictionary).
// English stop words and single-character Latin tokens are dropped; CJK
// tokens are kept despite their length.
//
// The same function backs lexical scoring, chunk-size estimation, and
// snippet anchor search, so it must stay deterministic and side-effect free.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)

	tokens := wordRegex.FindAllString(lower, -1)
	for _, r := range lower {
		if isCJK(r) {
			tokens = append(tokens, string(r))
		}
	}

	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(t) <= 1 && !isCJKToken(t) {
			continue
		}
		if _, stop := englishStopWords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func isCJKToken(t string) bool {
	runes := []rune(t)
	return len(runes) == 1 && isCJK(runes[0])
}

// TokenCount returns the number of lexical tokens in text.
func TokenCount(text string) int {
	return len(Tokenize(text))
}

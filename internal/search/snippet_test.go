package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSnippet_AnchorsOnQueryTerm(t *testing.T) {
	text := strings.Repeat("filler words here. ", 20) +
		"The mitochondria is the powerhouse of the cell. " +
		strings.Repeat("more filler text. ", 20)

	snippet := Snippet(text, "mitochondria")
	assert.Contains(t, snippet, "mitochondria")
	assert.True(t, strings.HasPrefix(snippet, "..."), "mid-text anchor leaves a leading ellipsis")
	assert.True(t, strings.HasSuffix(snippet, "..."))
}

func TestSnippet_NoMatchReturnsLeadingText(t *testing.T) {
	text := "This opening sentence appears when nothing matches. " + strings.Repeat("padding ", 50)
	snippet := Snippet(text, "zymurgy")
	assert.True(t, strings.HasPrefix(snippet, "This opening sentence"))
	assert.True(t, strings.HasSuffix(snippet, "..."))
}

func TestSnippet_ShortTextUntruncated(t *testing.T) {
	text := "Short page."
	snippet := Snippet(text, "page")
	assert.Equal(t, "Short page.", snippet)
}

func TestSnippet_NormalizesWhitespace(t *testing.T) {
	text := "broken\nacross\n\nlines   with   runs of spaces"
	snippet := Snippet(text, "lines")
	assert.NotContains(t, snippet, "\n")
	assert.NotContains(t, snippet, "  ")
}

func TestSnippet_BoundedLength(t *testing.T) {
	text := strings.Repeat("lengthy page content without the term repeated endlessly ", 50)
	snippet := Snippet(text, "content")
	// Window plus ellipses and whitespace collapse.
	assert.LessOrEqual(t, len(snippet), snippetMaxLen+6)
}

func TestSnippet_CaseInsensitiveAnchor(t *testing.T) {
	text := strings.Repeat("x ", 100) + "MITOCHONDRIA appears uppercased here " + strings.Repeat("y ", 100)
	snippet := Snippet(text, "mitochondria")
	assert.Contains(t, snippet, "MITOCHONDRIA")
}

func TestSnippet_CJKWindowIsRuneAligned(t *testing.T) {
	text := strings.Repeat("电池的寿命很长，", 60) +
		"mitochondria" + strings.Repeat("充电循环次数很多。", 60)

	snippet := Snippet(text, "mitochondria")
	assert.True(t, utf8.ValidString(snippet), "window edges must not split a rune")
	assert.Contains(t, snippet, "mitochondria")
	// The window is measured in characters, not bytes.
	assert.LessOrEqual(t, utf8.RuneCountInString(snippet), snippetMaxLen+6)
	assert.Greater(t, utf8.RuneCountInString(snippet), snippetMaxLen/2)
}

func TestSnippet_CJKNoMatchFallback(t *testing.T) {
	text := strings.Repeat("语言模型可以理解长文档。", 40)

	snippet := Snippet(text, "zymurgy")
	assert.True(t, utf8.ValidString(snippet))
	assert.True(t, strings.HasSuffix(snippet, "..."))
	assert.LessOrEqual(t, utf8.RuneCountInString(snippet), snippetMaxLen+3)
}

func TestSnippet_CJKQueryAnchor(t *testing.T) {
	text := strings.Repeat("填充文字。", 50) + "电池寿命随循环次数衰减。" + strings.Repeat("更多文字。", 50)

	snippet := Snippet(text, "电池")
	assert.True(t, utf8.ValidString(snippet))
	assert.Contains(t, snippet, "电池寿命")
	assert.True(t, strings.HasPrefix(snippet, "..."))
}

func TestSnippet_StopWordOnlyQuery(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog."
	// Query tokenizes to nothing; snippet falls back to the page head.
	snippet := Snippet(text, "the of is")
	assert.True(t, strings.HasPrefix(snippet, "The quick brown fox"))
}

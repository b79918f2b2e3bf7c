package chunk

import (
	"regexp"
	"strings"
)

// Token budgets for the sliding-window chunker. Tunables, not derived
// values; callers may override via ChunkerOptions.
const (
	DefaultMaxChunkTokens = 400
	DefaultOverlapTokens  = 80
)

var (
	// paragraphSplit matches blank-line paragraph boundaries.
	paragraphSplit = regexp.MustCompile(`\n\s*\n`)

	// sentenceEnd matches Latin terminal punctuation and CJK sentence
	// enders, keeping the terminator attached to the sentence.
	sentenceEnd = regexp.MustCompile(`[^.!?。！？]*[.!?。！？]+[)"'」』]*\s*`)
)

// ChunkerOptions configures the chunker token budgets.
type ChunkerOptions struct {
	MaxTokens     int // maximum tokens per chunk (default: DefaultMaxChunkTokens)
	OverlapTokens int // overlap budget seeding the next chunk (default: DefaultOverlapTokens)
}

// Chunker splits page text into overlapping token-bounded chunks.
type Chunker struct {
	opts ChunkerOptions
}

// NewChunker creates a chunker with default token budgets.
func NewChunker() *Chunker {
	return NewChunkerWithOptions(ChunkerOptions{})
}

// NewChunkerWithOptions creates a chunker with custom token budgets.
func NewChunkerWithOptions(opts ChunkerOptions) *Chunker {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxChunkTokens
	}
	if opts.OverlapTokens <= 0 {
		opts.OverlapTokens = DefaultOverlapTokens
	}
	return &Chunker{opts: opts}
}

// Split slices page text into ordered chunk texts. Units (sentences, or
// lines when a paragraph has no sentence boundary) accumulate into a
// sliding window; when adding a unit would exceed the token maximum the
// window is emitted and its oldest units are evicted until the remaining
// token count fits the overlap budget, seeding the next chunk. The final
// partial window is always emitted.
//
// A single unit larger than the maximum forms its own chunk.
func (c *Chunker) Split(text string) []string {
	units := splitUnits(text)
	if len(units) == 0 {
		return nil
	}

	var chunks []string
	var window []string
	var windowTokens []int
	running := 0

	emit := func() {
		chunks = append(chunks, strings.TrimSpace(strings.Join(window, " ")))
	}

	for _, u := range units {
		n := TokenCount(u)
		if running+n > c.opts.MaxTokens && len(window) > 0 {
			emit()
			// Evict oldest units, preserving an overlap-budget tail to
			// seed the next chunk.
			for len(window) > 0 && running > c.opts.OverlapTokens {
				running -= windowTokens[0]
				window = window[1:]
				windowTokens = windowTokens[1:]
			}
		}
		window = append(window, u)
		windowTokens = append(windowTokens, n)
		running += n
	}

	if len(window) > 0 {
		emit()
	}
	return chunks
}

// splitUnits breaks text into sentence-level units: paragraphs on blank
// lines, then sentences on terminal punctuation, falling back to lines
// when a paragraph has no sentence boundary.
func splitUnits(text string) []string {
	var units []string
	for _, para := range paragraphSplit.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		sentences := splitSentences(para)
		if len(sentences) == 0 {
			for _, line := range strings.Split(para, "\n") {
				line = strings.TrimSpace(line)
				if line != "" {
					units = append(units, line)
				}
			}
			continue
		}
		units = append(units, sentences...)
	}
	return units
}

func splitSentences(para string) []string {
	matches := sentenceEnd.FindAllString(para, -1)
	if len(matches) == 0 {
		return nil
	}
	var sentences []string
	consumed := 0
	for _, m := range matches {
		consumed += len(m)
		if s := strings.TrimSpace(m); s != "" {
			sentences = append(sentences, s)
		}
	}
	// Trailing text after the last terminator is its own unit.
	if rest := strings.TrimSpace(para[consumed:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// Package chunk provides tokenization and page chunking for the locator index.
package chunk

import "fmt"

// Page minimum character thresholds. Pages below the threshold are
// dropped entirely during indexing. OCR output is sparse but valuable,
// so pages where OCR contributed text use the lower bound.
const (
	MinPageChars    = 50
	MinPageCharsOCR = 10
)

// Chunk is the unit of retrieval: a token-bounded slice of one PDF page.
// Chunks are created during index build and immutable thereafter.
type Chunk struct {
	Source string   // originating file name
	Page   int      // 1-indexed physical page
	Index  int      // 0 = whole page (not chunked), >=1 = order within page
	Text   string   // extracted (possibly OCR-augmented) text
	Tokens []string // tokenized once at creation, never recomputed per query
}

// ID returns the chunk identity, unique within one index.
func (c *Chunk) ID() string {
	return fmt.Sprintf("%s::p%d.%d", c.Source, c.Page, c.Index)
}

// New creates a chunk and tokenizes its text.
func New(source string, page, index int, text string) *Chunk {
	return &Chunk{
		Source: source,
		Page:   page,
		Index:  index,
		Text:   text,
		Tokens: Tokenize(text),
	}
}

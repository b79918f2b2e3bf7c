package store

import (
	"github.com/chriscorrea/bm25md"

	"github.com/llk214/semantic-locator/internal/chunk"
)

// LexicalResult is one first-stage retrieval hit. Index refers to the
// position in the chunk sequence the retriever was built over.
type LexicalResult struct {
	Index int
	Score float64
}

// Lexical wraps the BM25 capability over the chunk store. It is rebuilt
// whenever the chunk sequence changes and is stateless per query.
//
// The corpus is configured with the engine's own tokenizer so lexical
// scoring, chunking, and snippet anchoring all see identical tokens.
type Lexical struct {
	corpus *bm25md.Corpus
	size   int
}

// NewLexical indexes the chunk sequence for BM25 retrieval.
func NewLexical(chunks []*chunk.Chunk) *Lexical {
	corpus := bm25md.NewCorpus(
		bm25md.WithTokenizer(bm25md.TokenizerFunc(chunk.Tokenize)),
		bm25md.WithFieldWeights(map[bm25md.Field]float64{bm25md.FieldBody: 1.0}),
	)
	for _, ch := range chunks {
		corpus.AddDocument(bm25md.Document{
			Fields:   map[bm25md.Field]string{bm25md.FieldBody: ch.Text},
			Original: ch.Text,
		})
	}
	return &Lexical{corpus: corpus, size: len(chunks)}
}

// Retrieve returns up to k chunks scored against the query, strictly
// descending, zero-score chunks excluded.
func (l *Lexical) Retrieve(query string, k int) []LexicalResult {
	hits := l.corpus.Search(query, k)
	results := make([]LexicalResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, LexicalResult{Index: h.Index, Score: h.Score})
	}
	return results
}

// Scores returns the dense BM25 score of every chunk for the query, in
// chunk order. Used by deep mode, where fusion needs the full
// distribution rather than a top-k cut.
func (l *Lexical) Scores(query string) []float64 {
	scores := make([]float64, l.size)
	for i := range scores {
		scores[i] = l.corpus.Score(query, i)
	}
	return scores
}

// Size returns the number of indexed chunks.
func (l *Lexical) Size() int { return l.size }

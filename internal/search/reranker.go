package search

import (
	"context"
	"fmt"

	"github.com/llk214/semantic-locator/internal/embed"
)

// MaxPassageChars bounds the text sent to the embedding model per
// passage. Long pages beyond this contribute nothing to the vector.
const MaxPassageChars = 2000

// Role prefixes for instruction-prefix-sensitive model families.
const (
	queryPrefix   = "query: "
	passagePrefix = "passage: "
)

// Reranker encodes queries and passages with the configured embedding
// model, applying role prefixes when the model family requires them.
type Reranker struct {
	embedder embed.Embedder
	info     embed.ModelInfo
}

// NewReranker wraps an embedder with its model capability metadata.
func NewReranker(e embed.Embedder) *Reranker {
	return &Reranker{embedder: e, info: embed.LookupModel(e.ModelName())}
}

// Multilingual reports whether the active model supports cross-lingual
// matching.
func (r *Reranker) Multilingual() bool { return r.info.Multilingual }

// ModelName returns the active model identifier.
func (r *Reranker) ModelName() string { return r.embedder.ModelName() }

// EncodeQuery embeds a search query.
func (r *Reranker) EncodeQuery(ctx context.Context, query string) ([]float32, error) {
	if r.info.NeedsPrefix {
		query = queryPrefix + query
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	return vec, nil
}

// EncodePassages embeds candidate texts, truncated to MaxPassageChars.
func (r *Reranker) EncodePassages(ctx context.Context, texts []string) ([][]float32, error) {
	prepared := make([]string, len(texts))
	for i, t := range texts {
		prepared[i] = r.preparePassage(t)
	}
	vecs, err := r.embedder.EmbedBatch(ctx, prepared)
	if err != nil {
		return nil, fmt.Errorf("encode passages: %w", err)
	}
	return vecs, nil
}

func (r *Reranker) preparePassage(text string) string {
	text = truncateRunes(text, MaxPassageChars)
	if r.info.NeedsPrefix {
		return passagePrefix + text
	}
	return text
}

// Similarities returns the cosine similarity of the query vector against
// each passage vector, index-aligned.
func Similarities(query []float32, passages [][]float32) []float64 {
	out := make([]float64, len(passages))
	for i, p := range passages {
		out[i] = embed.Cosine(query, p)
	}
	return out
}

// truncateRunes cuts text to at most n runes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

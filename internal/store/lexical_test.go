package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llk214/semantic-locator/internal/chunk"
)

func lexicalFixture() *Lexical {
	chunks := []*chunk.Chunk{
		chunk.New("bio.pdf", 1, 0, "The mitochondria is the powerhouse of the cell."),
		chunk.New("bio.pdf", 2, 0, "Photosynthesis converts light into chemical energy."),
		chunk.New("phys.pdf", 1, 0, "Battery capacity fades as lithium cells age."),
		chunk.New("phys.pdf", 2, 0, "Mitochondria appear in both plant and animal cells."),
	}
	return NewLexical(chunks)
}

func TestLexical_RetrieveRanksByRelevance(t *testing.T) {
	lex := lexicalFixture()
	hits := lex.Retrieve("mitochondria powerhouse", 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, 0, hits[0].Index, "the chunk matching both terms ranks first")

	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestLexical_RetrieveExcludesZeroScores(t *testing.T) {
	lex := lexicalFixture()
	hits := lex.Retrieve("mitochondria", 10)
	for _, h := range hits {
		assert.Greater(t, h.Score, 0.0)
	}
	assert.LessOrEqual(t, len(hits), 2, "chunks without the term never appear")
}

func TestLexical_RetrieveNoOverlap(t *testing.T) {
	lex := lexicalFixture()
	hits := lex.Retrieve("zymurgy quasar", 10)
	assert.Empty(t, hits)
}

func TestLexical_RetrieveHonorsLimit(t *testing.T) {
	lex := lexicalFixture()
	hits := lex.Retrieve("cells", 1)
	assert.LessOrEqual(t, len(hits), 1)
}

func TestLexical_ScoresDense(t *testing.T) {
	lex := lexicalFixture()
	scores := lex.Scores("mitochondria")
	require.Len(t, scores, lex.Size())

	assert.Greater(t, scores[0], 0.0)
	assert.Equal(t, 0.0, scores[1], "non-matching chunk scores zero")
	assert.Greater(t, scores[3], 0.0)
}

func TestLexical_TokenizerIdentityWithChunking(t *testing.T) {
	// CJK query terms match because indexing and querying share the same
	// per-ideograph tokenizer.
	chunks := []*chunk.Chunk{
		chunk.New("zh.pdf", 1, 0, "电池寿命与充电循环次数有关"),
		chunk.New("en.pdf", 1, 0, "Battery life depends on charge cycles."),
	}
	lex := NewLexical(chunks)

	hits := lex.Retrieve("电池", 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, 0, hits[0].Index)
}

func TestLexical_EmptyCorpus(t *testing.T) {
	lex := NewLexical(nil)
	assert.Equal(t, 0, lex.Size())
	assert.Empty(t, lex.Retrieve("anything", 5))
	assert.Empty(t, lex.Scores("anything"))
}

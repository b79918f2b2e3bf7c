// Package locator orchestrates indexing and hybrid retrieval over a
// folder of PDF files.
package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/llk214/semantic-locator/internal/chunk"
	"github.com/llk214/semantic-locator/internal/embed"
	"github.com/llk214/semantic-locator/internal/ocr"
	"github.com/llk214/semantic-locator/internal/pdf"
	"github.com/llk214/semantic-locator/internal/search"
	"github.com/llk214/semantic-locator/internal/store"
)

// State is the lifecycle phase of a locator.
type State string

const (
	// StateEmpty means no index has been built yet.
	StateEmpty State = "empty"
	// StateBuilding means an index build is in flight.
	StateBuilding State = "building"
	// StateReady means the index is queryable.
	StateReady State = "ready"
	// StateCanceled means the last build was canceled before any index
	// existed; its artifacts were removed.
	StateCanceled State = "canceled"
)

// Sentinel errors surfaced to callers.
var (
	ErrIndexNotBuilt = errors.New("index not built")
	ErrNoEmbeddings  = errors.New("chunk embeddings not precomputed (deep mode requires a precompute pass)")
)

// crossLingualSampleMax bounds the uniform chunk sample used when the
// query shares no vocabulary with the corpus.
const crossLingualSampleMax = 100

// deepBatchSize is the embedding batch size for the precompute pass.
// Small batches keep cancellation responsive on slow backends.
const deepBatchSize = 10

// Options configures a locator at construction.
type Options struct {
	IndexCacheDir string
	Opener        pdf.Opener     // nil uses the MuPDF backend
	Augmenter     *ocr.Augmenter // nil disables OCR
	Chunker       *chunk.Chunker // nil uses default token budgets
	Embedder      embed.Embedder // nil means keywords-only mode
	RRFConstant   int
}

// HybridLocator pairs BM25 first-stage retrieval with embedding-based
// semantic reranking over a chunked PDF corpus. All exported methods are
// safe for concurrent use; Search serves the last installed snapshot
// while a rebuild is in flight.
type HybridLocator struct {
	cache     *store.Cache
	opener    pdf.Opener
	augmenter *ocr.Augmenter
	chunker   *chunk.Chunker
	reranker  *search.Reranker
	fuser     *search.Fuser

	mu      sync.RWMutex
	state   State
	folder  string
	gen     uint64 // bumped on every install; stale precomputes are dropped
	chunks  []*chunk.Chunk
	lexical *store.Lexical
	matrix  [][]float32 // per-chunk embeddings, nil until precomputed

	stale atomic.Bool
}

// New creates a locator. The zero-value Options gives a keywords-only
// locator with the real PDF backend and OCR disabled.
func New(opts Options) *HybridLocator {
	if opts.Opener == nil {
		opts.Opener = pdf.Open
	}
	if opts.Chunker == nil {
		opts.Chunker = chunk.NewChunker()
	}
	if opts.Augmenter == nil {
		opts.Augmenter = ocr.NewAugmenter(nil, ocr.ModeOff, 0, "")
	}
	var rr *search.Reranker
	if opts.Embedder != nil {
		rr = search.NewReranker(opts.Embedder)
	}
	return &HybridLocator{
		cache:     store.NewCache(opts.IndexCacheDir),
		opener:    opts.Opener,
		augmenter: opts.Augmenter,
		chunker:   opts.Chunker,
		reranker:  rr,
		fuser:     search.NewFuser(opts.RRFConstant),
		state:     StateEmpty,
	}
}

// State returns the current lifecycle phase.
func (l *HybridLocator) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// ChunkCount returns the number of indexed chunks.
func (l *HybridLocator) ChunkCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.chunks)
}

// Folder returns the folder of the last successful build.
func (l *HybridLocator) Folder() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.folder
}

// Multilingual reports whether the active embedding model supports
// cross-lingual matching. False in keywords-only mode.
func (l *HybridLocator) Multilingual() bool {
	return l.reranker != nil && l.reranker.Multilingual()
}

// Stale reports whether the indexed folder changed since the last build.
func (l *HybridLocator) Stale() bool { return l.stale.Load() }

func (l *HybridLocator) markStale() { l.stale.Store(true) }

// BuildProgress is invoked once per extracted page.
type BuildProgress func(source string, page, total int)

// BuildOptions configures one Build call.
type BuildOptions struct {
	Progress BuildProgress
	Force    bool // re-extract even when a cached snapshot matches
}

// Build indexes every *.pdf directly under folder. A cached snapshot for
// the current (folder hash, OCR mode, OCR resolution) key is loaded
// instead of re-extracting; any cache corruption is a silent miss. On
// cancellation the partial build is discarded before anything reaches
// the cache, and the previous index, if any, keeps serving.
func (l *HybridLocator) Build(ctx context.Context, folder string, opts BuildOptions) error {
	l.mu.Lock()
	prevState := l.state
	prevChunks, prevLex, prevMatrix := l.chunks, l.lexical, l.matrix
	l.state = StateBuilding
	l.mu.Unlock()

	restore := func(s State) {
		l.mu.Lock()
		l.chunks, l.lexical, l.matrix = prevChunks, prevLex, prevMatrix
		l.state = s
		l.mu.Unlock()
	}

	hash, err := store.DirHash(folder)
	if err != nil {
		restore(prevState)
		return err
	}
	key := store.Key{
		DirHash: hash,
		OCRMode: string(l.augmenter.Mode()),
		OCRDPI:  l.augmenter.DPI(),
	}

	if !opts.Force {
		if snap, ok := l.cache.Load(key); ok {
			slog.Info("index loaded from cache",
				slog.String("folder", folder),
				slog.Int("chunks", len(snap.Chunks)))
			l.install(folder, snap.Chunks)
			return nil
		}
	}

	// Serialize concurrent builds of the same key across processes. The
	// loser of the race finds the winner's snapshot on the re-check.
	if lock, err := l.cache.Lock(key); err == nil {
		if err := lock.Lock(); err == nil {
			defer func() { _ = lock.Unlock() }()
			if !opts.Force {
				if snap, ok := l.cache.Load(key); ok {
					l.install(folder, snap.Chunks)
					return nil
				}
			}
		}
	}

	start := time.Now()
	chunks, err := l.extract(ctx, folder, opts.Progress)
	if err != nil {
		// Nothing was written for this key yet (Store runs only after a
		// full extraction), so any cached snapshot stays valid.
		if errors.Is(err, context.Canceled) && prevState != StateReady {
			restore(StateCanceled)
		} else {
			restore(prevState)
		}
		return err
	}

	snap := &store.Snapshot{
		Chunks:  chunks,
		DirHash: key.DirHash,
		OCRMode: key.OCRMode,
		OCRDPI:  key.OCRDPI,
	}
	if err := l.cache.Store(snap); err != nil {
		slog.Warn("index cache write failed, serving in-memory only",
			slog.String("error", err.Error()))
	}

	l.install(folder, chunks)
	slog.Info("index built",
		slog.String("folder", folder),
		slog.Int("chunks", len(chunks)),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (l *HybridLocator) install(folder string, chunks []*chunk.Chunk) {
	lex := store.NewLexical(chunks)
	l.mu.Lock()
	l.folder = folder
	l.gen++
	l.chunks = chunks
	l.lexical = lex
	l.matrix = nil
	l.state = StateReady
	l.mu.Unlock()
	l.stale.Store(false)
}

// extract parses all PDFs in parallel and returns chunks in sorted file
// order, page order within file.
func (l *HybridLocator) extract(ctx context.Context, folder string, progress BuildProgress) ([]*chunk.Chunk, error) {
	paths, err := store.ListPDFs(folder)
	if err != nil {
		return nil, err
	}

	perFile := make([][]*chunk.Chunk, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			cs, err := l.extractFile(gctx, path, progress)
			if err != nil {
				return err
			}
			perFile[i] = cs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []*chunk.Chunk
	for _, cs := range perFile {
		all = append(all, cs...)
	}
	return all, nil
}

// extractFile returns the chunks of one PDF. A file that cannot be
// stat'd or opened is logged and skipped so the rest of the folder still
// indexes; the error return is reserved for cancellation.
func (l *HybridLocator) extractFile(ctx context.Context, path string, progress BuildProgress) ([]*chunk.Chunk, error) {
	info, err := os.Stat(path)
	if err != nil {
		slog.Warn("file unreadable, skipping",
			slog.String("source", filepath.Base(path)),
			slog.String("error", err.Error()))
		return nil, nil
	}
	doc, err := l.opener(path)
	if err != nil {
		slog.Warn("file failed to open, skipping",
			slog.String("source", filepath.Base(path)),
			slog.String("error", err.Error()))
		return nil, nil
	}
	defer func() { _ = doc.Close() }()

	source := filepath.Base(path)
	total := doc.NumPages()
	var out []*chunk.Chunk
	for p := 0; p < total; p++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := doc.Page(p)
		if err != nil {
			slog.Warn("page extraction failed, skipping",
				slog.String("source", source),
				slog.Int("page", p+1),
				slog.String("error", err.Error()))
			continue
		}
		text := strings.TrimSpace(page.Text)

		ocrContributed := false
		if l.augmenter.ShouldOCR(page.HasImages, len(text)) {
			if extra := l.augmenter.PageText(ctx, doc, path, info.ModTime(), p); extra != "" {
				if text == "" {
					text = extra
				} else {
					text = text + "\n" + extra
				}
				ocrContributed = true
			}
		}
		if progress != nil {
			progress(source, p+1, total)
		}

		minChars := chunk.MinPageChars
		if ocrContributed {
			minChars = chunk.MinPageCharsOCR
		}
		if len([]rune(text)) < minChars {
			continue
		}

		pieces := l.chunker.Split(text)
		if len(pieces) <= 1 {
			// Page fits one chunk: keep the raw page text under index 0.
			out = append(out, chunk.New(source, p+1, 0, text))
			continue
		}
		for i, piece := range pieces {
			out = append(out, chunk.New(source, p+1, i+1, piece))
		}
	}
	return out, nil
}

// PrecomputeEmbeddings embeds every chunk in small batches, enabling
// deep search. Cancellation is checked between batches; progress, if
// non-nil, is invoked after each batch with (chunks done, total). No-op
// in keywords-only mode. A rebuild that completes while the pass is
// running invalidates its result: deep search then needs a fresh pass.
func (l *HybridLocator) PrecomputeEmbeddings(ctx context.Context, progress func(done, total int)) error {
	if l.reranker == nil {
		return nil
	}
	l.mu.RLock()
	if l.state != StateReady {
		l.mu.RUnlock()
		return ErrIndexNotBuilt
	}
	chunks, gen := l.chunks, l.gen
	l.mu.RUnlock()

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	matrix := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += deepBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+deepBatchSize, len(texts))
		vecs, err := l.reranker.EncodePassages(ctx, texts[start:end])
		if err != nil {
			return fmt.Errorf("embed chunks %d-%d: %w", start+1, end, err)
		}
		matrix = append(matrix, vecs...)
		if progress != nil {
			progress(end, len(texts))
		}
	}

	// A rebuild that installed a new snapshot mid-pass leaves the matrix
	// misaligned with the current chunk sequence; drop it.
	l.mu.Lock()
	stale := l.gen != gen
	if !stale {
		l.matrix = matrix
	}
	l.mu.Unlock()
	if stale {
		slog.Warn("index rebuilt during embedding precompute, discarding embeddings")
	}
	return nil
}

// SearchOptions configures one query.
type SearchOptions struct {
	TopK          int           // results returned (default 5)
	Bias          float64       // lexical weight in [0,1] for percentile fusion
	Fusion        search.Method // default percentile
	CandidatePool int           // first-stage candidates (default 20)
	Deep          bool          // score every chunk instead of a candidate pool
}

func (o SearchOptions) withDefaults() SearchOptions {
	if o.TopK <= 0 {
		o.TopK = 5
	}
	if o.CandidatePool <= 0 {
		o.CandidatePool = 20
	}
	if o.CandidatePool < o.TopK {
		o.CandidatePool = o.TopK
	}
	if o.Fusion == "" {
		o.Fusion = search.MethodPercentile
	}
	return o
}

// Result is one located page region. Score is nil when the fusion
// method's combined values are rank-comparative only.
type Result struct {
	Source     string   `json:"source"`
	Page       int      `json:"page"`
	ChunkIndex int      `json:"chunk_index"`
	Score      *float64 `json:"score,omitempty"`
	Snippet    string   `json:"snippet"`
}

// Search runs a query against the current index. The second return
// reports whether the cross-lingual fallback engaged. Searching before a
// successful build returns ErrIndexNotBuilt; an empty index returns no
// results and no error.
func (l *HybridLocator) Search(ctx context.Context, query string, opts SearchOptions) ([]Result, bool, error) {
	l.mu.RLock()
	chunks, lex, matrix := l.chunks, l.lexical, l.matrix
	l.mu.RUnlock()

	// A nil retriever means no snapshot was ever installed. A rebuild in
	// flight keeps serving the previous snapshot.
	if lex == nil {
		return nil, false, ErrIndexNotBuilt
	}
	if len(chunks) == 0 {
		return nil, false, nil
	}
	opts = opts.withDefaults()

	if l.reranker == nil {
		return l.keywordSearch(query, chunks, lex, opts), false, nil
	}
	if opts.Deep {
		return l.deepSearch(ctx, query, chunks, lex, matrix, opts)
	}
	return l.fastSearch(ctx, query, chunks, lex, opts)
}

// keywordSearch serves raw BM25 results when no embedder is configured.
func (l *HybridLocator) keywordSearch(query string, chunks []*chunk.Chunk, lex *store.Lexical, opts SearchOptions) []Result {
	hits := lex.Retrieve(query, opts.TopK)
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		c := chunks[h.Index]
		score := h.Score
		results = append(results, Result{
			Source:     c.Source,
			Page:       c.Page,
			ChunkIndex: c.Index,
			Score:      &score,
			Snippet:    search.Snippet(c.Text, query),
		})
	}
	return results
}

// fastSearch reranks a BM25 candidate pool. When the query shares no
// vocabulary with the corpus and the model is multilingual, a uniform
// random chunk sample is reranked purely semantically instead.
func (l *HybridLocator) fastSearch(ctx context.Context, query string, chunks []*chunk.Chunk, lex *store.Lexical, opts SearchOptions) ([]Result, bool, error) {
	hits := lex.Retrieve(query, opts.CandidatePool)

	crossLingual := false
	var indices []int
	var lexScores []float64
	if len(hits) == 0 {
		if !l.reranker.Multilingual() {
			return nil, false, nil
		}
		crossLingual = true
		indices = sampleIndices(len(chunks), crossLingualSampleMax)
		lexScores = make([]float64, len(indices))
		opts.Bias = 0
	} else {
		indices = make([]int, len(hits))
		lexScores = make([]float64, len(hits))
		for i, h := range hits {
			indices[i] = h.Index
			lexScores[i] = h.Score
		}
	}

	qv, err := l.reranker.EncodeQuery(ctx, query)
	if err != nil {
		return nil, false, fmt.Errorf("semantic rerank: %w", err)
	}
	texts := make([]string, len(indices))
	for i, idx := range indices {
		texts[i] = chunks[idx].Text
	}
	pvs, err := l.reranker.EncodePassages(ctx, texts)
	if err != nil {
		return nil, false, fmt.Errorf("semantic rerank: %w", err)
	}

	combined := l.fuser.Fuse(opts.Fusion, lexScores, search.Similarities(qv, pvs), opts.Bias)
	return l.topK(chunks, indices, combined, query, opts), crossLingual, nil
}

// deepSearch fuses the full dense BM25 distribution with cosine
// similarity against the precomputed embedding matrix.
func (l *HybridLocator) deepSearch(ctx context.Context, query string, chunks []*chunk.Chunk, lex *store.Lexical, matrix [][]float32, opts SearchOptions) ([]Result, bool, error) {
	if matrix == nil {
		return nil, false, ErrNoEmbeddings
	}

	lexScores := lex.Scores(query)
	maxLex := 0.0
	for _, s := range lexScores {
		maxLex = max(maxLex, s)
	}
	crossLingual := false
	if maxLex == 0 && l.reranker.Multilingual() {
		crossLingual = true
		opts.Bias = 0
	}

	qv, err := l.reranker.EncodeQuery(ctx, query)
	if err != nil {
		return nil, false, fmt.Errorf("semantic rerank: %w", err)
	}

	indices := make([]int, len(chunks))
	for i := range indices {
		indices[i] = i
	}
	combined := l.fuser.Fuse(opts.Fusion, lexScores, search.Similarities(qv, matrix), opts.Bias)
	return l.topK(chunks, indices, combined, query, opts), crossLingual, nil
}

// topK orders candidates by combined value, ties broken by candidate
// order for determinism, and materializes results. Scores surface only
// under percentile fusion; RRF values are opaque.
func (l *HybridLocator) topK(chunks []*chunk.Chunk, indices []int, combined []float64, query string, opts SearchOptions) []Result {
	order := make([]int, len(indices))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return combined[order[a]] > combined[order[b]]
	})
	if len(order) > opts.TopK {
		order = order[:opts.TopK]
	}

	results := make([]Result, 0, len(order))
	for _, pos := range order {
		c := chunks[indices[pos]]
		r := Result{
			Source:     c.Source,
			Page:       c.Page,
			ChunkIndex: c.Index,
			Snippet:    search.Snippet(c.Text, query),
		}
		if opts.Fusion == search.MethodPercentile {
			s := combined[pos]
			r.Score = &s
		}
		results = append(results, r)
	}
	return results
}

// sampleIndices draws k distinct indices from [0,n) uniformly, returned
// in ascending order.
func sampleIndices(n, k int) []int {
	if n <= k {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := append([]int(nil), rand.Perm(n)[:k]...)
	sort.Ints(out)
	return out
}

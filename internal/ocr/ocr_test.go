package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llk214/semantic-locator/internal/pdf"
)

// fakeEngine counts invocations and returns a fixed result.
type fakeEngine struct {
	calls  int
	result string
	err    error
}

func (f *fakeEngine) Recognize(ctx context.Context, png []byte) (string, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeEngine) Available() bool { return true }
func (f *fakeEngine) Close() error    { return nil }

// fakeDoc renders a fixed byte slice for any page.
type fakeDoc struct {
	pages     []pdf.Page
	renderErr error
}

func (d *fakeDoc) NumPages() int { return len(d.pages) }

func (d *fakeDoc) Page(n int) (pdf.Page, error) { return d.pages[n], nil }

func (d *fakeDoc) RenderPNG(n int, dpi int) ([]byte, error) {
	if d.renderErr != nil {
		return nil, d.renderErr
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func (d *fakeDoc) Close() error { return nil }

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"off", "fast", "deep"} {
		m, err := ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, Mode(valid), m)
	}
	_, err := ParseMode("eager")
	assert.Error(t, err)
}

func TestShouldOCR(t *testing.T) {
	tests := []struct {
		name      string
		mode      Mode
		hasImages bool
		textLen   int
		want      bool
	}{
		{"off never runs", ModeOff, true, 0, false},
		{"fast runs on scanned page", ModeFast, true, 5, true},
		{"fast skips page with text layer", ModeFast, true, 500, false},
		{"fast skips page without images", ModeFast, false, 0, false},
		{"fast threshold boundary", ModeFast, true, FastModeTextThreshold, false},
		{"deep runs on any image page", ModeDeep, true, 5000, true},
		{"deep skips pure text page", ModeDeep, false, 5000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAugmenter(nil, tt.mode, 0, "")
			assert.Equal(t, tt.want, a.ShouldOCR(tt.hasImages, tt.textLen))
		})
	}
}

func TestPageText_CachesResult(t *testing.T) {
	engine := &fakeEngine{result: "recognized text"}
	a := NewAugmenter(engine, ModeFast, 0, t.TempDir())
	doc := &fakeDoc{pages: []pdf.Page{{HasImages: true}}}
	mtime := time.Now()

	got := a.PageText(context.Background(), doc, "scan.pdf", mtime, 0)
	assert.Equal(t, "recognized text", got)
	assert.Equal(t, 1, engine.calls)

	// Second call is served from cache.
	got = a.PageText(context.Background(), doc, "scan.pdf", mtime, 0)
	assert.Equal(t, "recognized text", got)
	assert.Equal(t, 1, engine.calls)
}

func TestPageText_DiskCacheSurvivesNewAugmenter(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Now()
	engine := &fakeEngine{result: "persisted"}

	a := NewAugmenter(engine, ModeFast, 0, dir)
	a.PageText(context.Background(), &fakeDoc{pages: []pdf.Page{{HasImages: true}}}, "scan.pdf", mtime, 0)
	require.Equal(t, 1, engine.calls)

	// Fresh augmenter, same disk cache: no new engine call.
	b := NewAugmenter(engine, ModeFast, 0, dir)
	got := b.PageText(context.Background(), &fakeDoc{pages: []pdf.Page{{HasImages: true}}}, "scan.pdf", mtime, 0)
	assert.Equal(t, "persisted", got)
	assert.Equal(t, 1, engine.calls)
}

func TestPageText_EmptyResultCachedToo(t *testing.T) {
	engine := &fakeEngine{result: ""}
	a := NewAugmenter(engine, ModeDeep, 0, t.TempDir())
	doc := &fakeDoc{pages: []pdf.Page{{HasImages: true}}}
	mtime := time.Now()

	assert.Equal(t, "", a.PageText(context.Background(), doc, "blank.pdf", mtime, 0))
	assert.Equal(t, "", a.PageText(context.Background(), doc, "blank.pdf", mtime, 0))
	assert.Equal(t, 1, engine.calls, "empty results must not be re-recognized")
}

func TestPageText_EngineFailureDegrades(t *testing.T) {
	engine := &fakeEngine{err: fmt.Errorf("tesseract exploded")}
	a := NewAugmenter(engine, ModeFast, 0, t.TempDir())
	doc := &fakeDoc{pages: []pdf.Page{{HasImages: true}}}

	got := a.PageText(context.Background(), doc, "bad.pdf", time.Now(), 0)
	assert.Equal(t, "", got)
}

func TestPageText_RenderFailureDegrades(t *testing.T) {
	engine := &fakeEngine{result: "never reached"}
	a := NewAugmenter(engine, ModeFast, 0, t.TempDir())
	doc := &fakeDoc{pages: []pdf.Page{{HasImages: true}}, renderErr: fmt.Errorf("corrupt page")}

	got := a.PageText(context.Background(), doc, "bad.pdf", time.Now(), 0)
	assert.Equal(t, "", got)
	assert.Equal(t, 0, engine.calls)
}

func TestPageText_NilEngine(t *testing.T) {
	a := NewAugmenter(nil, ModeFast, 0, t.TempDir())
	doc := &fakeDoc{pages: []pdf.Page{{HasImages: true}}}
	assert.Equal(t, "", a.PageText(context.Background(), doc, "x.pdf", time.Now(), 0))
}

func TestCacheKey_Sensitivity(t *testing.T) {
	mtime := time.Now()
	base := CacheKey("a.pdf", mtime, 0, 150)

	assert.Equal(t, base, CacheKey("a.pdf", mtime, 0, 150))
	assert.NotEqual(t, base, CacheKey("b.pdf", mtime, 0, 150))
	assert.NotEqual(t, base, CacheKey("a.pdf", mtime.Add(time.Second), 0, 150))
	assert.NotEqual(t, base, CacheKey("a.pdf", mtime, 1, 150))
	assert.NotEqual(t, base, CacheKey("a.pdf", mtime, 0, 300))
}

func TestClearCache(t *testing.T) {
	dir := t.TempDir()
	engine := &fakeEngine{result: "text"}
	a := NewAugmenter(engine, ModeFast, 0, dir)
	a.PageText(context.Background(), &fakeDoc{pages: []pdf.Page{{HasImages: true}}}, "x.pdf", time.Now(), 0)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	require.NoError(t, ClearCache(dir))
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClearCache_MissingDir(t *testing.T) {
	assert.NoError(t, ClearCache(filepath.Join(t.TempDir(), "nope")))
}

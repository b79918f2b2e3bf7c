// Package ocr augments scanned pages with recognized text. Results are
// cached on disk per (file, mtime, page, resolution) key and never expire;
// the cache is only cleared explicitly by the operator.
package ocr

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/llk214/semantic-locator/internal/pdf"
)

// Mode selects when OCR runs during indexing.
type Mode string

const (
	// ModeOff never invokes OCR.
	ModeOff Mode = "off"
	// ModeFast invokes OCR only for image-bearing pages whose extracted
	// text layer is nearly empty (likely scanned, no text layer).
	ModeFast Mode = "fast"
	// ModeDeep invokes OCR for every image-bearing page.
	ModeDeep Mode = "deep"
)

// FastModeTextThreshold is the extracted-text length under which a page
// with embedded images is treated as scanned in fast mode.
const FastModeTextThreshold = 20

// DefaultDPI is the default raster resolution for OCR rendering.
const DefaultDPI = 150

// memCacheSize bounds the in-memory layer in front of the disk cache.
const memCacheSize = 512

// ParseMode validates an OCR mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOff, ModeFast, ModeDeep:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid OCR mode %q (want off, fast, or deep)", s)
}

// Engine is the OCR capability: raster image in, recognized text out.
type Engine interface {
	Recognize(ctx context.Context, png []byte) (string, error)
	Available() bool
	Close() error
}

// Augmenter decides per page whether OCR should run and serves results
// through its caches. OCR failures degrade to an empty contribution and
// never abort indexing.
type Augmenter struct {
	engine   Engine
	mode     Mode
	dpi      int
	cacheDir string
	mem      *lru.Cache[string, string]
}

// NewAugmenter creates an augmenter. engine may be nil (treated as
// unavailable). cacheDir is created on first write.
func NewAugmenter(engine Engine, mode Mode, dpi int, cacheDir string) *Augmenter {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	mem, _ := lru.New[string, string](memCacheSize)
	return &Augmenter{
		engine:   engine,
		mode:     mode,
		dpi:      dpi,
		cacheDir: cacheDir,
		mem:      mem,
	}
}

// Mode returns the configured OCR mode.
func (a *Augmenter) Mode() Mode { return a.mode }

// DPI returns the configured raster resolution.
func (a *Augmenter) DPI() int { return a.dpi }

// ShouldOCR reports whether the configured mode wants OCR for a page
// with the given image presence and extracted-text length.
func (a *Augmenter) ShouldOCR(hasImages bool, extractedLen int) bool {
	switch a.mode {
	case ModeFast:
		return hasImages && extractedLen < FastModeTextThreshold
	case ModeDeep:
		return hasImages
	}
	return false
}

// PageText returns OCR text for one page, consulting the caches first.
// page is 0-indexed. Empty results are cached too, so pages with no
// recognizable text are not re-run.
func (a *Augmenter) PageText(ctx context.Context, doc pdf.Document, path string, mtime time.Time, page int) string {
	key := CacheKey(path, mtime, page, a.dpi)

	if text, ok := a.mem.Get(key); ok {
		return text
	}
	if text, ok := a.readDisk(key); ok {
		a.mem.Add(key, text)
		return text
	}

	if a.engine == nil || !a.engine.Available() {
		return ""
	}

	png, err := doc.RenderPNG(page, a.dpi)
	if err != nil {
		slog.Warn("page render failed, skipping OCR",
			slog.String("source", filepath.Base(path)),
			slog.Int("page", page+1),
			slog.String("error", err.Error()))
		return ""
	}

	text, err := a.engine.Recognize(ctx, png)
	if err != nil {
		slog.Warn("OCR failed, page contributes no text",
			slog.String("source", filepath.Base(path)),
			slog.Int("page", page+1),
			slog.String("error", err.Error()))
		return ""
	}
	text = strings.TrimSpace(text)

	a.mem.Add(key, text)
	a.writeDisk(key, text)
	return text
}

// CacheKey hashes the identity of one OCR result. Resolution is part of
// the key so snapshots at different DPIs may coexist.
func CacheKey(path string, mtime time.Time, page, dpi int) string {
	resolved, err := filepath.Abs(path)
	if err != nil {
		resolved = path
	}
	h := sha1.New()
	fmt.Fprintf(h, "%s|%d|%d|%d", resolved, mtime.UnixNano(), page, dpi)
	return hex.EncodeToString(h.Sum(nil))
}

func (a *Augmenter) cachePath(key string) string {
	return filepath.Join(a.cacheDir, key+".txt")
}

func (a *Augmenter) readDisk(key string) (string, bool) {
	if a.cacheDir == "" {
		return "", false
	}
	data, err := os.ReadFile(a.cachePath(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (a *Augmenter) writeDisk(key, text string) {
	if a.cacheDir == "" {
		return
	}
	if err := os.MkdirAll(a.cacheDir, 0o755); err != nil {
		slog.Debug("OCR cache dir unavailable", slog.String("error", err.Error()))
		return
	}
	if err := os.WriteFile(a.cachePath(key), []byte(text), 0o644); err != nil {
		slog.Debug("OCR cache write failed", slog.String("error", err.Error()))
	}
}

// ClearCache removes all cached OCR results under dir.
func ClearCache(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

package ocr

import (
	"context"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract is the gosseract-backed OCR engine. A single client is
// reused; gosseract clients are not safe for concurrent use, so calls
// are serialized.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
	langs  []string
	closed bool
}

// NewTesseract creates a Tesseract engine recognizing the given
// languages (e.g. "eng", "chi_sim"). Defaults to English.
func NewTesseract(langs ...string) *Tesseract {
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &Tesseract{langs: langs}
}

// Recognize runs OCR on a PNG raster. Differently shaped engine output
// is normalized to a single plain-text result here.
func (t *Tesseract) Recognize(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		t.client = gosseract.NewClient()
		if err := t.client.SetLanguage(t.langs...); err != nil {
			return "", err
		}
	}
	if err := t.client.SetImageFromBytes(png); err != nil {
		return "", err
	}
	text, err := t.client.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Available reports whether the Tesseract runtime can be used.
func (t *Tesseract) Available() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	if t.client == nil {
		t.client = gosseract.NewClient()
		if err := t.client.SetLanguage(t.langs...); err != nil {
			_ = t.client.Close()
			t.client = nil
			return false
		}
	}
	return true
}

// Close releases the underlying client.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

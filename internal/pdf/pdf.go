// Package pdf wraps PDF extraction behind a small capability interface so
// the indexing pipeline can be exercised without a rendering backend.
package pdf

import (
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Page is the normalized extraction result for one physical page.
type Page struct {
	Text      string // directly extracted text layer
	HasImages bool   // page carries embedded images (OCR candidate)
}

// Document is one open PDF file. Pages are 0-indexed.
type Document interface {
	NumPages() int
	Page(n int) (Page, error)
	// RenderPNG rasterizes a page at the given resolution for OCR.
	RenderPNG(n int, dpi int) ([]byte, error)
	Close() error
}

// Opener opens a PDF by path. Injected so tests can supply fakes.
type Opener func(path string) (Document, error)

// Open opens a PDF with the MuPDF backend.
func Open(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) NumPages() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) Page(n int) (Page, error) {
	text, err := d.doc.Text(n)
	if err != nil {
		return Page{}, err
	}
	// MuPDF does not expose an image inventory directly; the HTML
	// rendition carries an <img> element per embedded image.
	hasImages := false
	if html, err := d.doc.HTML(n, false); err == nil {
		hasImages = strings.Contains(html, "<img")
	}
	return Page{Text: text, HasImages: hasImages}, nil
}

func (d *fitzDocument) RenderPNG(n int, dpi int) ([]byte, error) {
	return d.doc.ImagePNG(n, float64(dpi))
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}

package source

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Source is a paged image provider. Plain images have exactly one page.
type Source interface {
	PageCount() int
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// Open picks a Source implementation from the file extension.
func Open(path string) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewFitzPDFSource(path)
	}
	return NewImageSource(path)
}

// LoadImage renders the first page of path.
func LoadImage(path string, dpi int) (image.Image, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if src.PageCount() == 0 {
		return nil, fmt.Errorf("source: %s has no pages", path)
	}
	return src.RenderPage(0, dpi)
}

type FitzPDFSource struct {
	doc *fitz.Document
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("source: open pdf %s: %w", path, err)
	}
	return &FitzPDFSource{doc: doc}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	return f.doc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}

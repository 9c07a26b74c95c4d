package ocr

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

const defaultDPI = 300

// Rasterizer opens a document for page rendering.
type Rasterizer interface {
	Open(data []byte) (PageSource, error)
}

// PageSource renders pages as encoded images. It must be closed.
type PageSource interface {
	NumPage() int
	Page(ctx context.Context, index int) ([]byte, error)
	Close() error
}

// FitzRasterizer renders PDF pages with MuPDF and preprocesses them for OCR.
type FitzRasterizer struct {
	dpi   float64
	steps []ImagePreprocessor
}

func NewFitzRasterizer(dpi float64, steps []ImagePreprocessor) *FitzRasterizer {
	if dpi <= 0 {
		dpi = defaultDPI
	}
	return &FitzRasterizer{dpi: dpi, steps: steps}
}

func (r *FitzRasterizer) Open(data []byte) (PageSource, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open document for rendering: %w", err)
	}
	return &fitzPages{doc: doc, dpi: r.dpi, steps: r.steps}, nil
}

type fitzPages struct {
	doc   *fitz.Document
	dpi   float64
	steps []ImagePreprocessor
}

func (p *fitzPages) NumPage() int {
	return p.doc.NumPage()
}

// Page renders page index (0-based), preprocesses it and encodes it as PNG.
func (p *fitzPages) Page(ctx context.Context, index int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := p.doc.ImageDPI(index, p.dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", index+1, err)
	}

	processed, err := applyPreprocessing(img, p.steps)
	if err != nil {
		return nil, fmt.Errorf("failed to preprocess page %d: %w", index+1, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, processed, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode page %d: %w", index+1, err)
	}
	return buf.Bytes(), nil
}

func (p *fitzPages) Close() error {
	return p.doc.Close()
}

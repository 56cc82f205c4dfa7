package document

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts plain text from PDF documents page by page.
type PDFExtractor struct {
	// MaxPages limits how many pages are read; zero means all.
	MaxPages int
}

// NewPDFExtractor creates a PDFExtractor reading at most maxPages pages.
func NewPDFExtractor(maxPages int) *PDFExtractor {
	return &PDFExtractor{MaxPages: maxPages}
}

// Extract implements TextExtractor. Pages without text are skipped; a page
// that fails to decode aborts the extraction.
func (e *PDFExtractor) Extract(ctx context.Context, r io.ReaderAt, size int64) (text string, err error) {
	// ledongthuc/pdf panics on some malformed inputs.
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("pdf: malformed document: %v", p)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("pdf: open: %w", err)
	}

	pages := reader.NumPage()
	if e.MaxPages > 0 && e.MaxPages < pages {
		pages = e.MaxPages
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("pdf: page %d: %w", i, err)
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(pageText)
	}
	return b.String(), nil
}

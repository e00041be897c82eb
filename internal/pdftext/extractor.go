// Package pdftext reconstructs the text layer of a PDF in reading order.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"podrecon/internal/domain"
)

// PageSeparator joins the text of consecutive pages.
const PageSeparator = "\n\n"

// Extractor reads the embedded text layer of PDF documents. It never
// rasterises pages.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the ordered text of every page. A document without any
// text, or one the reader cannot open, fails with domain.ErrNoExtractableText.
func (e *Extractor) Extract(ctx context.Context, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Warn("pdftext.Extract: recovered from malformed pdf", zap.Any("panic", r))
			text = ""
			err = fmt.Errorf("pdftext: malformed pdf (%v): %w", r, domain.ErrNoExtractableText)
		}
	}()

	if len(data) == 0 {
		return "", fmt.Errorf("pdftext: empty document: %w", domain.ErrNoExtractableText)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdftext: opening pdf: %w: %w", domain.ErrNoExtractableText, err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		if s := AssemblePage(Fragments(pageGlyphs(page))); s != "" {
			pages = append(pages, s)
		}
	}

	if len(pages) == 0 {
		return "", fmt.Errorf("pdftext: %d page(s) without text: %w", reader.NumPage(), domain.ErrNoExtractableText)
	}
	return strings.Join(pages, PageSeparator), nil
}

func pageGlyphs(page pdf.Page) []Glyph {
	content := page.Content()
	glyphs := make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, Glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	return glyphs
}

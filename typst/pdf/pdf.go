// Copyright © 2025 The typls authors

// Package pdf serializes compiled documents to PDF. The embedded Go
// fonts are always used for output, so export works without any system
// fonts installed.
package pdf

import (
	"fmt"
	"strings"

	"github.com/signintech/gopdf"

	"github.com/typls/typls/typst"
	"github.com/typls/typls/workspace/fonts"
)

// Page geometry in points (A4).
const (
	pageWidth  = 595.28
	pageHeight = 841.89
	margin     = 72.0
	bodySize   = 11.0
	leading    = 1.4
)

// headingSizes maps heading level to font size. Deeper levels clamp to
// the last entry.
var headingSizes = []float64{24, 18, 14, 12}

// Export renders a document to PDF bytes. The book parameter is accepted
// for parity with the compiler interface; rendering currently embeds the
// Go faces directly.
func Export(doc *typst.Document, _ *fonts.Book) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("no document to export")
	}
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	for _, f := range []struct {
		name string
		data []byte
	}{
		{"go", fonts.EmbeddedRegular()},
		{"go-bold", fonts.EmbeddedBold()},
		{"go-italic", fonts.EmbeddedItalic()},
		{"go-mono", fonts.EmbeddedMono()},
	} {
		if err := pdf.AddTTFFontData(f.name, f.data); err != nil {
			return nil, fmt.Errorf("embed font %s: %w", f.name, err)
		}
	}

	r := &renderer{pdf: &pdf, y: margin}
	if doc.Title != "" {
		pdf.SetInfo(gopdf.PdfInfo{Title: doc.Title})
	}
	for _, block := range doc.Blocks {
		if err := r.renderBlock(block); err != nil {
			return nil, err
		}
	}
	if doc.Date != nil {
		r.y += bodySize * leading
		if err := r.writeLine(doc.Date.Display(), "go", bodySize); err != nil {
			return nil, err
		}
	}
	return pdf.GetBytesPdf(), nil
}

type renderer struct {
	pdf *gopdf.GoPdf
	y   float64
}

func (r *renderer) renderBlock(block typst.Block) error {
	switch b := block.(type) {
	case *typst.HeadingBlock:
		size := headingSizes[min(b.Level, len(headingSizes))-1]
		r.y += size * 0.6
		return r.writeWrapped(b.Plain(), "go-bold", size)
	case *typst.ParagraphBlock:
		r.y += bodySize * 0.5
		return r.renderSpans(b.Spans)
	case *typst.RawBlock:
		r.y += bodySize * 0.5
		for _, line := range strings.Split(b.Text, "\n") {
			if err := r.writeLine(line, "go-mono", bodySize); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// renderSpans lays out a paragraph's styled spans with greedy wrapping.
func (r *renderer) renderSpans(spans []typst.TextSpan) error {
	x := margin
	for _, span := range spans {
		font := spanFont(span)
		if err := r.pdf.SetFont(font, "", bodySize); err != nil {
			return err
		}
		for _, word := range splitKeepSpace(span.Text) {
			w, err := r.pdf.MeasureTextWidth(word)
			if err != nil {
				return err
			}
			if x+w > pageWidth-margin {
				x = margin
				r.advance(bodySize)
			}
			r.pdf.SetXY(x, r.y)
			if err := r.pdf.Cell(nil, word); err != nil {
				return err
			}
			x += w
		}
	}
	r.advance(bodySize)
	return nil
}

func (r *renderer) writeWrapped(text, font string, size float64) error {
	if err := r.pdf.SetFont(font, "", size); err != nil {
		return err
	}
	words := strings.Fields(text)
	x := margin
	for _, word := range words {
		w, err := r.pdf.MeasureTextWidth(word + " ")
		if err != nil {
			return err
		}
		if x+w > pageWidth-margin {
			x = margin
			r.advance(size)
		}
		r.pdf.SetXY(x, r.y)
		if err := r.pdf.Cell(nil, word+" "); err != nil {
			return err
		}
		x += w
	}
	r.advance(size)
	return nil
}

func (r *renderer) writeLine(text, font string, size float64) error {
	if err := r.pdf.SetFont(font, "", size); err != nil {
		return err
	}
	r.pdf.SetXY(margin, r.y)
	if err := r.pdf.Cell(nil, text); err != nil {
		return err
	}
	r.advance(size)
	return nil
}

// advance moves the baseline down, breaking the page when the bottom
// margin is reached.
func (r *renderer) advance(size float64) {
	r.y += size * leading
	if r.y > pageHeight-margin {
		r.pdf.AddPage()
		r.y = margin
	}
}

func spanFont(span typst.TextSpan) string {
	switch {
	case span.Mono:
		return "go-mono"
	case span.Strong:
		return "go-bold"
	case span.Emph:
		return "go-italic"
	default:
		return "go"
	}
}

// splitKeepSpace splits text into word tokens that keep one trailing
// space, preserving inter-word spacing across span boundaries.
func splitKeepSpace(s string) []string {
	fields := strings.Fields(s)
	tokens := make([]string, 0, len(fields))
	for i, f := range fields {
		if i < len(fields)-1 || strings.HasSuffix(s, " ") {
			f += " "
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Copyright © 2025 The typls authors

package typst

import "strings"

// Document is the compiled output model: metadata plus the block list
// rendered by the PDF exporter.
type Document struct {
	Title  string
	Date   *Datetime
	Blocks []Block
}

// Block is one top-level element of the document.
type Block interface {
	isBlock()
}

// TextSpan is a run of styled text within a block.
type TextSpan struct {
	Text   string
	Strong bool
	Emph   bool
	Mono   bool
}

// HeadingBlock is a section heading. Level 1 is the outermost.
type HeadingBlock struct {
	Level int
	Spans []TextSpan
	Label string
}

func (*HeadingBlock) isBlock() {}

// Plain returns the heading text without styling.
func (h *HeadingBlock) Plain() string { return plainText(h.Spans) }

// ParagraphBlock is a run of inline content between paragraph breaks.
type ParagraphBlock struct {
	Spans []TextSpan
}

func (*ParagraphBlock) isBlock() {}

// Plain returns the paragraph text without styling.
func (p *ParagraphBlock) Plain() string { return plainText(p.Spans) }

// RawBlock is a fenced code block with an optional language tag.
type RawBlock struct {
	Lang string
	Text string
}

func (*RawBlock) isBlock() {}

func plainText(spans []TextSpan) string {
	var sb strings.Builder
	for _, sp := range spans {
		sb.WriteString(sp.Text)
	}
	return strings.TrimSpace(sb.String())
}

// Copyright © 2025 The typls authors

package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/typls/typls/lint"
	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
)

// textDocumentFoldingRange handles the textDocument/foldingRange request.
// It folds heading sections, multi-line blocks, and comment runs.
func (s *Server) textDocumentFoldingRange(ctx *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	s.captureNotify(ctx)
	u := uri.URI(params.TextDocument.URI)

	snap := s.ws.Snapshot()
	defer snap.Release()
	src, err := snap.ReadSource(u)
	if err != nil {
		return nil, nil
	}

	root := syntax.Parse(src.Text())
	var ranges []protocol.FoldingRange
	ranges = append(ranges, headingFoldingRanges(root, src)...)
	collectBlockFoldingRanges(root, src, &ranges)
	ranges = append(ranges, commentFoldingRanges(src.Text())...)
	return ranges, nil
}

// headingFoldingRanges folds each heading section down to the line
// before the next heading of equal or higher level.
func headingFoldingRanges(root *syntax.Node, src *syntax.Source) []protocol.FoldingRange {
	type heading struct {
		line  int
		level int
	}
	var headings []heading
	root.Walk(func(n *syntax.Node) bool {
		if n.Kind() == syntax.KindHeading {
			if line, err := src.ByteToLine(n.Span().Start); err == nil {
				headings = append(headings, heading{line: line, level: lint.HeadingLevel(n)})
			}
			return false
		}
		return true
	})

	lastLine := src.LineCount() - 1
	var ranges []protocol.FoldingRange
	for i, h := range headings {
		end := lastLine
		for _, next := range headings[i+1:] {
			if next.level <= h.level {
				end = next.line - 1
				break
			}
		}
		if end > h.line {
			kind := string(protocol.FoldingRangeKindRegion)
			ranges = append(ranges, protocol.FoldingRange{
				StartLine: safeUint(h.line),
				EndLine:   safeUint(end),
				Kind:      &kind,
			})
		}
	}
	return ranges
}

// collectBlockFoldingRanges folds code and content blocks that span more
// than one line.
func collectBlockFoldingRanges(n *syntax.Node, src *syntax.Source, ranges *[]protocol.FoldingRange) {
	switch n.Kind() {
	case syntax.KindCodeBlock, syntax.KindContentBlock, syntax.KindRaw:
		start, err1 := src.ByteToLine(n.Span().Start)
		end, err2 := src.ByteToLine(n.Span().End)
		if err1 == nil && err2 == nil && end > start {
			kind := string(protocol.FoldingRangeKindRegion)
			*ranges = append(*ranges, protocol.FoldingRange{
				StartLine: safeUint(start),
				EndLine:   safeUint(end),
				Kind:      &kind,
			})
		}
	}
	for _, c := range n.Children() {
		collectBlockFoldingRanges(c, src, ranges)
	}
}

// commentFoldingRanges detects consecutive lines starting with "//" and
// produces a folding range for each block of 2+ lines.
func commentFoldingRanges(content string) []protocol.FoldingRange {
	lines := strings.Split(content, "\n")
	var ranges []protocol.FoldingRange

	blockStart := -1
	flush := func(end int) {
		if blockStart >= 0 && end-blockStart >= 1 {
			kind := string(protocol.FoldingRangeKindComment)
			ranges = append(ranges, protocol.FoldingRange{
				StartLine: safeUint(blockStart),
				EndLine:   safeUint(end),
				Kind:      &kind,
			})
		}
	}
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			if blockStart < 0 {
				blockStart = i
			}
			continue
		}
		flush(i - 1)
		blockStart = -1
	}
	flush(len(lines) - 1)
	return ranges
}

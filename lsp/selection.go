// Copyright © 2025 The typls authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
)

// textDocumentSelectionRange handles the textDocument/selectionRange
// request with the ancestor chain of syntax nodes at each position.
func (s *Server) textDocumentSelectionRange(ctx *glsp.Context, params *protocol.SelectionRangeParams) ([]protocol.SelectionRange, error) {
	s.captureNotify(ctx)
	u := uri.URI(params.TextDocument.URI)
	enc := s.encoding()

	snap := s.ws.Snapshot()
	defer snap.Release()
	src, err := snap.ReadSource(u)
	if err != nil {
		return nil, nil
	}

	root := syntax.Parse(src.Text())
	result := make([]protocol.SelectionRange, 0, len(params.Positions))
	for _, pos := range params.Positions {
		cursor := lspToByte(src, pos, enc)
		path := root.PathTo(cursor)

		// Outermost first; each narrower range points at its parent.
		var outer *protocol.SelectionRange
		for _, n := range path {
			outer = &protocol.SelectionRange{
				Range:  spanToRange(src, n.Span(), enc),
				Parent: outer,
			}
		}
		if outer == nil {
			outer = &protocol.SelectionRange{Range: spanToRange(src, syntax.Span{Start: cursor, End: cursor}, enc)}
		}
		result = append(result, *outer)
	}
	return result, nil
}

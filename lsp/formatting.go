// Copyright © 2025 The typls authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/typls/typls/formatter"
	"github.com/typls/typls/uri"
)

// textDocumentFormatting handles the textDocument/formatting request
// with a whole-document replacement edit.
func (s *Server) textDocumentFormatting(ctx *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	s.captureNotify(ctx)
	u := uri.URI(params.TextDocument.URI)
	enc := s.encoding()

	snap := s.ws.Snapshot()
	defer snap.Release()
	src, err := snap.ReadSource(u)
	if err != nil {
		return nil, nil
	}

	formatted, err := formatter.Format([]byte(src.Text()), nil)
	if err != nil {
		return nil, err
	}
	if string(formatted) == src.Text() {
		return nil, nil
	}

	end := byteToLSP(src, src.Len(), enc)
	return []protocol.TextEdit{{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   end,
		},
		NewText: string(formatted),
	}}, nil
}

// Copyright © 2025 The typls authors

package lsp

import (
	"context"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/typls/typls/typst/ide"
	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
	"github.com/typls/typls/world"
)

// textDocumentHover handles the textDocument/hover request.
func (s *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.captureNotify(ctx)
	u := uri.URI(params.TextDocument.URI)
	enc := s.encoding()

	src, w, release, err := s.sourceAndWorld(u)
	if err != nil {
		return nil, nil
	}
	defer release()

	cursor := lspToByte(src, params.Position, enc)
	tip := ide.Hover(w, src, cursor)
	if tip == nil {
		return nil, nil
	}
	rng := spanToRange(src, tip.Span, enc)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: tip.Markdown,
		},
		Range: &rng,
	}, nil
}

// sourceAndWorld is the common read path for feature requests: the open
// source plus a World bound to the current snapshot. The caller must
// release the snapshot.
func (s *Server) sourceAndWorld(u uri.URI) (*syntax.Source, *world.ProjectWorld, func(), error) {
	snap := s.ws.Snapshot()
	src, err := snap.ReadSource(u)
	if err != nil {
		snap.Release()
		return nil, nil, nil, err
	}
	id, err := snap.FullID(u)
	if err != nil {
		snap.Release()
		return nil, nil, nil, err
	}
	w := world.NewProjectWorld(context.Background(), snap, id)
	return src, w, snap.Release, nil
}

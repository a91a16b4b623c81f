// Copyright © 2025 The typls authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/typls/typls/typst/ide"
	"github.com/typls/typls/uri"
)

// textDocumentSignatureHelp handles the textDocument/signatureHelp request.
func (s *Server) textDocumentSignatureHelp(ctx *glsp.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	s.captureNotify(ctx)
	u := uri.URI(params.TextDocument.URI)
	enc := s.encoding()

	src, w, release, err := s.sourceAndWorld(u)
	if err != nil {
		return nil, nil
	}
	defer release()

	cursor := lspToByte(src, params.Position, enc)
	info := ide.Signature(w, src, cursor)
	if info == nil {
		return nil, nil
	}

	sig := protocol.SignatureInformation{
		Label: info.Def.Signature(),
	}
	if info.Def.Doc != "" {
		sig.Documentation = protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: info.Def.Doc,
		}
	}
	for _, p := range info.Def.Params {
		sig.Parameters = append(sig.Parameters, protocol.ParameterInformation{
			Label: p.Name,
		})
	}

	zero := safeUint(0)
	active := safeUint(info.ActiveParam)
	return &protocol.SignatureHelp{
		Signatures:      []protocol.SignatureInformation{sig},
		ActiveSignature: &zero,
		ActiveParameter: &active,
	}, nil
}

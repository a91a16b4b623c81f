// Copyright © 2025 The typls authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/typls/typls/typst/ide"
	"github.com/typls/typls/uri"
)

// textDocumentCompletion handles the textDocument/completion request.
func (s *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	s.captureNotify(ctx)
	u := uri.URI(params.TextDocument.URI)
	enc := s.encoding()

	src, w, release, err := s.sourceAndWorld(u)
	if err != nil {
		return nil, nil
	}
	defer release()

	cursor := lspToByte(src, params.Position, enc)
	completions := ide.Autocomplete(w, src, cursor)
	if len(completions) == 0 {
		return nil, nil
	}

	items := make([]protocol.CompletionItem, 0, len(completions))
	for _, c := range completions {
		item := protocol.CompletionItem{
			Label: c.Label,
			Kind:  completionKind(c.Kind),
		}
		if c.Detail != "" {
			item.Detail = strPtr(c.Detail)
		}
		if c.Snippet != "" {
			snippet := protocol.InsertTextFormatSnippet
			item.InsertText = strPtr(c.Snippet)
			item.InsertTextFormat = &snippet
		}
		items = append(items, item)
	}
	return items, nil
}

func completionKind(kind ide.CompletionKind) *protocol.CompletionItemKind {
	var k protocol.CompletionItemKind
	switch kind {
	case ide.CompletionFunc:
		k = protocol.CompletionItemKindFunction
	case ide.CompletionKeyword:
		k = protocol.CompletionItemKindKeyword
	case ide.CompletionLabel:
		k = protocol.CompletionItemKindReference
	case ide.CompletionPackage:
		k = protocol.CompletionItemKindModule
	case ide.CompletionMethod:
		k = protocol.CompletionItemKindMethod
	default:
		k = protocol.CompletionItemKindText
	}
	return &k
}

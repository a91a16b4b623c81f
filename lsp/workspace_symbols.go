// Copyright © 2025 The typls authors

package lsp

import (
	"sort"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const maxWorkspaceSymbols = 128

// workspaceSymbol handles the workspace/symbol request by running the
// document extraction over every known file and filtering by the query.
func (s *Server) workspaceSymbol(ctx *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	s.captureNotify(ctx)
	query := strings.ToLower(params.Query)
	enc := s.encoding()

	snap := s.ws.Snapshot()
	defer snap.Release()

	uris := snap.KnownURIs()
	sort.Slice(uris, func(i, j int) bool { return uris[i] < uris[j] })

	var symbols []protocol.SymbolInformation
	for _, u := range uris {
		src, err := snap.ReadSource(u)
		if err != nil {
			continue
		}
		for _, f := range extractSymbols(src) {
			if query != "" && !strings.Contains(strings.ToLower(f.name), query) {
				continue
			}
			symbols = append(symbols, protocol.SymbolInformation{
				Name: f.name,
				Kind: f.kind,
				Location: protocol.Location{
					URI:   string(u),
					Range: spanToRange(src, f.span, enc),
				},
			})
			if len(symbols) == maxWorkspaceSymbols {
				return symbols, nil
			}
		}
	}
	return symbols, nil
}

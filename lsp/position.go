// Copyright © 2025 The typls authors

package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/typls/typls/typst/syntax"
)

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n)
}

// lspToByte converts an editor position to a byte offset under the
// negotiated encoding. Positions past the end clamp to the source end.
func lspToByte(src *syntax.Source, pos protocol.Position, enc syntax.PositionEncoding) int {
	b, err := src.PositionToByte(int(pos.Line), int(pos.Character), enc)
	if err != nil {
		return src.Len()
	}
	return b
}

// byteToLSP converts a byte offset to an editor position.
func byteToLSP(src *syntax.Source, b int, enc syntax.PositionEncoding) protocol.Position {
	line, character, err := src.ByteToPosition(b, enc)
	if err != nil {
		line, character, _ = src.ByteToPosition(src.Len(), enc)
	}
	return protocol.Position{Line: safeUint(line), Character: safeUint(character)}
}

// spanToRange converts an engine byte span to an LSP range.
func spanToRange(src *syntax.Source, span syntax.Span, enc syntax.PositionEncoding) protocol.Range {
	return protocol.Range{
		Start: byteToLSP(src, span.Start, enc),
		End:   byteToLSP(src, span.End, enc),
	}
}

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

// textDocumentDocumentSymbol handles the textDocument/documentSymbol
// request with a nested heading outline plus let bindings and labels.
func (s *Server) textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	s.captureNotify(ctx)
	u := uri.URI(params.TextDocument.URI)
	enc := s.encoding()

	snap := s.ws.Snapshot()
	defer snap.Release()
	src, err := snap.ReadSource(u)
	if err != nil {
		return nil, nil
	}

	return outlineSymbols(src, enc), nil
}

// flatSymbol is an extracted symbol before nesting.
type flatSymbol struct {
	name  string
	kind  protocol.SymbolKind
	level int // heading level, 0 for non-headings
	span  syntax.Span
}

// symNode is a mutable outline node; converted to protocol symbols once
// the tree is complete.
type symNode struct {
	sym      protocol.DocumentSymbol
	level    int
	children []*symNode
}

// outlineSymbols builds the nested document symbol tree. Headings nest
// by level; bindings and labels attach to the innermost open heading.
func outlineSymbols(src *syntax.Source, enc syntax.PositionEncoding) []protocol.DocumentSymbol {
	var roots []*symNode
	var stack []*symNode

	for _, f := range extractSymbols(src) {
		rng := spanToRange(src, f.span, enc)
		node := &symNode{
			sym: protocol.DocumentSymbol{
				Name:           f.name,
				Kind:           f.kind,
				Range:          rng,
				SelectionRange: rng,
			},
			level: f.level,
		}
		if f.level > 0 {
			node.sym.Detail = strPtr(strings.Repeat("=", f.level))
			for len(stack) > 0 && stack[len(stack)-1].level >= f.level {
				stack = stack[:len(stack)-1]
			}
		}
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, node)
		} else {
			roots = append(roots, node)
		}
		if f.level > 0 {
			stack = append(stack, node)
		}
	}
	return convertSymNodes(roots)
}

func convertSymNodes(nodes []*symNode) []protocol.DocumentSymbol {
	out := make([]protocol.DocumentSymbol, 0, len(nodes))
	for _, n := range nodes {
		n.sym.Children = convertSymNodes(n.children)
		out = append(out, n.sym)
	}
	return out
}

// extractSymbols collects headings, let bindings, and labels in source
// order.
func extractSymbols(src *syntax.Source) []flatSymbol {
	root := syntax.Parse(src.Text())
	var flat []flatSymbol
	root.Walk(func(n *syntax.Node) bool {
		switch n.Kind() {
		case syntax.KindHeading:
			name := headingText(n)
			if name == "" {
				name = "(empty heading)"
			}
			flat = append(flat, flatSymbol{
				name:  name,
				kind:  protocol.SymbolKindNamespace,
				level: lint.HeadingLevel(n),
				span:  n.Span(),
			})
		case syntax.KindLet:
			if ident := n.ChildOfKind(syntax.KindIdent); ident != nil {
				flat = append(flat, flatSymbol{
					name: ident.Text(),
					kind: protocol.SymbolKindVariable,
					span: ident.Span(),
				})
			}
		case syntax.KindLabel:
			flat = append(flat, flatSymbol{
				name: "<" + n.Text() + ">",
				kind: protocol.SymbolKindKey,
				span: n.Span(),
			})
		}
		return true
	})
	return flat
}

// headingText flattens the text content of a heading node.
func headingText(n *syntax.Node) string {
	var sb strings.Builder
	for _, c := range n.Children() {
		if c.Kind() == syntax.KindHeadingMarker {
			continue
		}
		c.Walk(func(m *syntax.Node) bool {
			switch m.Kind() {
			case syntax.KindText, syntax.KindRaw:
				sb.WriteString(m.Text())
			case syntax.KindSpace:
				sb.WriteString(" ")
			}
			return true
		})
	}
	return strings.TrimSpace(sb.String())
}

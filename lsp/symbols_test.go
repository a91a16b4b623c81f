// Copyright © 2025 The typls authors

package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/typls/typls/typst/syntax"
)

func outlineFor(text string) []protocol.DocumentSymbol {
	src := syntax.NewSource(syntax.FileID{}, text)
	return outlineSymbols(src, syntax.EncodingUTF16)
}

func TestOutlineNestsByHeadingLevel(t *testing.T) {
	syms := outlineFor("= Title\n\n== Sub\n#let x = 1\nSome text <lbl>\n\n= Next\n")
	require.Len(t, syms, 2)

	title := syms[0]
	assert.Equal(t, "Title", title.Name)
	assert.Equal(t, protocol.SymbolKindNamespace, title.Kind)
	require.NotNil(t, title.Detail)
	assert.Equal(t, "=", *title.Detail)

	require.Len(t, title.Children, 1)
	sub := title.Children[0]
	assert.Equal(t, "Sub", sub.Name)
	require.NotNil(t, sub.Detail)
	assert.Equal(t, "==", *sub.Detail)

	require.Len(t, sub.Children, 2)
	assert.Equal(t, "x", sub.Children[0].Name)
	assert.Equal(t, protocol.SymbolKindVariable, sub.Children[0].Kind)
	assert.Equal(t, "<lbl>", sub.Children[1].Name)
	assert.Equal(t, protocol.SymbolKindKey, sub.Children[1].Kind)

	assert.Equal(t, "Next", syms[1].Name)
	assert.Empty(t, syms[1].Children)
}

func TestOutlineSiblingHeadings(t *testing.T) {
	syms := outlineFor("== A\n\n== B\n\n= Top\n")
	require.Len(t, syms, 3)
	assert.Equal(t, "A", syms[0].Name)
	assert.Equal(t, "B", syms[1].Name)
	assert.Equal(t, "Top", syms[2].Name)
}

func TestOutlineEmptyHeadingPlaceholder(t *testing.T) {
	syms := outlineFor("==\n")
	require.Len(t, syms, 1)
	assert.Equal(t, "(empty heading)", syms[0].Name)
}

func TestOutlineBindingBeforeFirstHeading(t *testing.T) {
	syms := outlineFor("#let config = 1\n\n= Title\n")
	require.Len(t, syms, 2)
	assert.Equal(t, "config", syms[0].Name)
	assert.Equal(t, "Title", syms[1].Name)
}

func TestHeadingTextFlattensMarkup(t *testing.T) {
	root := syntax.Parse("= The *Big* `code` Title\n")
	var heading *syntax.Node
	root.Walk(func(n *syntax.Node) bool {
		if n.Kind() == syntax.KindHeading {
			heading = n
			return false
		}
		return true
	})
	require.NotNil(t, heading)
	text := headingText(heading)
	assert.Contains(t, text, "The")
	assert.Contains(t, text, "Big")
	assert.Contains(t, text, "Title")
}

func TestDocumentSymbolHandler(t *testing.T) {
	s, p := testServer(t, map[string]string{"main.typ": "= Title\n\n== Sub\n"})
	result, err := s.textDocumentDocumentSymbol(mockContext(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: string(p.URI("main.typ"))},
	})
	require.NoError(t, err)
	syms, ok := result.([]protocol.DocumentSymbol)
	require.True(t, ok)
	require.Len(t, syms, 1)
	assert.Equal(t, "Title", syms[0].Name)
	require.Len(t, syms[0].Children, 1)
	assert.Equal(t, "Sub", syms[0].Children[0].Name)
}

func TestDocumentSymbolUnknownFile(t *testing.T) {
	s, p := testServer(t, map[string]string{"main.typ": "= Title\n"})
	result, err := s.textDocumentDocumentSymbol(mockContext(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: string(p.URI("missing.typ"))},
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

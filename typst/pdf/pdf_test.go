// Copyright © 2025 The typls authors

package pdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typls/typls/typst"
)

func TestExportProducesPDF(t *testing.T) {
	doc := &typst.Document{
		Title: "Report",
		Blocks: []typst.Block{
			&typst.HeadingBlock{Level: 1, Spans: []typst.TextSpan{{Text: "Report"}}},
			&typst.ParagraphBlock{Spans: []typst.TextSpan{
				{Text: "Plain, "},
				{Text: "bold", Strong: true},
				{Text: " and "},
				{Text: "emphasized", Emph: true},
				{Text: " text with "},
				{Text: "code", Mono: true},
				{Text: "."},
			}},
			&typst.RawBlock{Lang: "go", Text: "func main() {}\nvar x = 1"},
		},
	}

	data, err := Export(doc, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"), "output must start with a PDF header")
	assert.Greater(t, len(data), 1000, "expected embedded fonts to make the file non-trivial")
}

func TestExportEmptyDocument(t *testing.T) {
	data, err := Export(&typst.Document{}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))
}

func TestExportLongDocumentPaginated(t *testing.T) {
	doc := &typst.Document{}
	for i := 0; i < 200; i++ {
		doc.Blocks = append(doc.Blocks, &typst.ParagraphBlock{
			Spans: []typst.TextSpan{{Text: strings.Repeat("paragraph text ", 10)}},
		})
	}
	data, err := Export(doc, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))
}

// Copyright © 2025 The typls authors

package cmd

import (
	"os"

	"github.com/typls/typls/diagnostic"
	"github.com/typls/typls/lint"
	"github.com/typls/typls/typst/syntax"
)

func colorMode() diagnostic.ColorMode {
	switch colorFlag {
	case "always":
		return diagnostic.ColorAlways
	case "never":
		return diagnostic.ColorNever
	default:
		return diagnostic.ColorAuto
	}
}

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: colorMode()}
}

// findingToDiagnostic converts one lint finding to a renderable Diagnostic.
func findingToDiagnostic(src *syntax.Source, file string, f lint.Finding) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityWarning,
		Message:  f.Analyzer + ": " + f.Message,
	}
	span := diagnostic.Span{File: file}
	if line, col, err := src.ByteToPosition(f.Span.Start, syntax.EncodingUTF8); err == nil {
		span.Line = line + 1
		span.Col = col + 1
		if endLine, endCol, err := src.ByteToPosition(f.Span.End, syntax.EncodingUTF8); err == nil && endLine == line {
			span.EndCol = endCol + 1
		}
	}
	d.Spans = append(d.Spans, span)
	return d
}

func renderLintFindings(src *syntax.Source, file string, findings []lint.Finding) {
	r := newRenderer()
	diags := make([]diagnostic.Diagnostic, 0, len(findings))
	for _, f := range findings {
		diags = append(diags, findingToDiagnostic(src, file, f))
	}
	_ = r.RenderAll(os.Stderr, diags)
}

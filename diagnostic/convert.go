// Copyright © 2025 The typls authors

package diagnostic

import (
	"fmt"

	"github.com/typls/typls/typst"
	"github.com/typls/typls/typst/syntax"
)

// SourceLookup resolves a file identifier to its source buffer and a
// display path. Lookup failures degrade the diagnostic to a header-only
// rendering, they never fail the conversion.
type SourceLookup func(id syntax.FileID) (*syntax.Source, string, error)

// FromCompile converts engine diagnostics into renderable ones. Spans
// become 1-based line/column annotations; trace entries become notes.
func FromCompile(diags []typst.Diagnostic, lookup SourceLookup) []Diagnostic {
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, fromEngine(d, lookup))
	}
	return out
}

func fromEngine(d typst.Diagnostic, lookup SourceLookup) Diagnostic {
	diag := Diagnostic{
		Severity: mapSeverity(d.Severity),
		Message:  d.Message,
	}
	if span, ok := locate(d.ID, d.Span, lookup); ok {
		diag.Spans = append(diag.Spans, span)
	}
	for _, entry := range d.Trace {
		if span, ok := locate(entry.ID, entry.Span, lookup); ok {
			diag.Notes = append(diag.Notes,
				fmt.Sprintf("%s at %s:%d:%d", entry.Message, span.File, span.Line, span.Col))
		} else {
			diag.Notes = append(diag.Notes, entry.Message)
		}
	}
	return diag
}

func locate(id syntax.FileID, span syntax.Span, lookup SourceLookup) (Span, bool) {
	if !id.IsValid() || lookup == nil {
		return Span{}, false
	}
	src, path, err := lookup(id)
	if err != nil {
		return Span{File: id.String()}, true
	}
	line, _, err := src.ByteToPosition(span.Start, syntax.EncodingUTF8)
	if err != nil {
		return Span{File: path}, true
	}
	col, err := src.ByteToColumn(span.Start)
	if err != nil {
		col = 0
	}
	endCol := 0
	if sameLine, _, e := src.ByteToPosition(span.End, syntax.EncodingUTF8); e == nil && sameLine == line {
		if ec, e := src.ByteToColumn(span.End); e == nil {
			endCol = ec + 1
		}
	}
	return Span{
		File:   path,
		Line:   line + 1,
		Col:    col + 1,
		EndCol: endCol,
	}, true
}

func mapSeverity(sev typst.Severity) Severity {
	switch sev {
	case typst.SeverityError:
		return SeverityError
	case typst.SeverityWarning:
		return SeverityWarning
	default:
		return SeverityNote
	}
}

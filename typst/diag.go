// Copyright © 2025 The typls authors

package typst

import "github.com/typls/typls/typst/syntax"

// Severity grades a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "hint"
	}
}

// TraceEntry is one hop of the import or include chain that led to a
// diagnostic, so editors can surface where a failing file was pulled in.
type TraceEntry struct {
	ID      syntax.FileID
	Span    syntax.Span
	Message string
}

// Diagnostic is one engine finding, located by file identifier and byte
// span within that file.
type Diagnostic struct {
	Severity Severity
	ID       syntax.FileID
	Span     syntax.Span
	Message  string
	Trace    []TraceEntry
}

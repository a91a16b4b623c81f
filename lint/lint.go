// Copyright © 2025 The typls authors

// Package lint provides static analysis for Typst source files.
//
// The linter is modeled after go vet: each check is an independent
// Analyzer that receives a parse tree and reports findings. The framework
// handles running analyzers, collecting results, and ordering output.
// Embedders can define custom checks alongside the built-in set.
package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/typls/typls/typst/syntax"
)

// Analyzer defines a single lint check.
type Analyzer struct {
	// Name is a short identifier for this check (e.g. "heading-skip").
	Name string
	// Doc describes what the check reports and why.
	Doc string
	// Run executes the check against a pass.
	Run func(pass *Pass) error
}

// Pass carries one file's parse tree through an analyzer run.
type Pass struct {
	Source   *syntax.Source
	Root     *syntax.Node
	analyzer *Analyzer
	findings *[]Finding
}

// Reportf records a finding at the given span.
func (p *Pass) Reportf(span syntax.Span, format string, args ...any) {
	*p.findings = append(*p.findings, Finding{
		Analyzer: p.analyzer.Name,
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Finding is one lint result.
type Finding struct {
	Analyzer string
	Span     syntax.Span
	Message  string
}

// Linter runs a set of analyzers over parsed sources.
type Linter struct {
	Analyzers []*Analyzer
}

// Check runs every analyzer against the source and returns the findings
// ordered by position.
func (l *Linter) Check(src *syntax.Source, root *syntax.Node) ([]Finding, error) {
	var findings []Finding
	for _, a := range l.Analyzers {
		pass := &Pass{Source: src, Root: root, analyzer: a, findings: &findings}
		if err := a.Run(pass); err != nil {
			return nil, fmt.Errorf("analyzer %s: %w", a.Name, err)
		}
	}
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Span.Start != findings[j].Span.Start {
			return findings[i].Span.Start < findings[j].Span.Start
		}
		return findings[i].Analyzer < findings[j].Analyzer
	})
	return findings, nil
}

// CheckFile parses raw markup and runs every analyzer against it. The
// returned source lets callers resolve finding spans to positions.
func (l *Linter) CheckFile(source []byte) (*syntax.Source, []Finding, error) {
	src := syntax.NewSource(syntax.FileID{}, string(source))
	root := syntax.Parse(src.Text())
	findings, err := l.Check(src, root)
	return src, findings, err
}

// Located is a finding resolved to a 1-based file position, shaped for
// machine-readable output.
type Located struct {
	Check   string `json:"check"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Locate resolves findings against their source for output.
func Locate(src *syntax.Source, file string, findings []Finding) []Located {
	out := make([]Located, 0, len(findings))
	for _, f := range findings {
		loc := Located{Check: f.Analyzer, File: file, Message: f.Message}
		if line, col, err := src.ByteToPosition(f.Span.Start, syntax.EncodingUTF8); err == nil {
			loc.Line = line + 1
			loc.Col = col + 1
		}
		out = append(out, loc)
	}
	return out
}

// FormatJSON writes located findings as indented JSON.
func FormatJSON(w io.Writer, diags []Located) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}

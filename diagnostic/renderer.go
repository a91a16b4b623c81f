// Copyright © 2025 The typls authors

package diagnostic

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Tabs in displayed source expand to this many spaces so that caret
// alignment matches the printed line.
const tabDisplay = 4

// Renderer formats diagnostics as annotated source snippets modeled on
// rustc output: a severity header, the offending line with a line-number
// gutter, and a caret underline.
type Renderer struct {
	// Color controls ANSI color output. Default is ColorAuto.
	Color ColorMode

	// SourceReader overrides how span files are read. If nil, files are
	// read from disk. Tests supply in-memory sources here.
	SourceReader func(string) ([]byte, error)
}

// Render writes a single diagnostic to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	bw := bufio.NewWriter(w)
	st := renderState{
		out:  &errWriter{w: bw},
		pal:  choosePalette(r.Color, outputFile(w)),
		read: r.SourceReader,
	}
	st.diagnostic(d)
	if st.out.err != nil {
		return st.out.err
	}
	return bw.Flush()
}

// RenderAll writes diagnostics to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

// errWriter captures the first write error and drops later writes so the
// formatting code does not check every Fprintf result.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}

type renderState struct {
	out  *errWriter
	pal  palette
	read func(string) ([]byte, error)
}

func (st *renderState) diagnostic(d Diagnostic) {
	p := st.pal
	st.out.printf("%s%s%s%s:%s %s%s%s\n",
		p.severity(d.Severity), p.bold, d.Severity, p.reset,
		p.reset,
		p.bold, d.Message, p.reset)
	for _, span := range d.Spans {
		st.span(span)
	}
	for _, note := range d.Notes {
		st.out.printf("   %s=%s note: %s\n", p.boldCyan, p.reset, note)
	}
}

func (st *renderState) span(span Span) {
	p := st.pal

	loc := span.File
	if span.Line > 0 {
		loc = fmt.Sprintf("%s:%d", span.File, span.Line)
		if span.Col > 0 {
			loc = fmt.Sprintf("%s:%d:%d", span.File, span.Line, span.Col)
		}
	}
	st.out.printf("  %s-->%s %s\n", p.boldBlue, p.reset, loc)

	source := st.sourceLine(span.File, span.Line)
	if source == "" {
		st.out.printf("   %s|%s\n", p.boldBlue, p.reset)
		return
	}

	lineStr := fmt.Sprintf("%d", span.Line)
	gutter := strings.Repeat(" ", len(lineStr))

	st.out.printf(" %s%s |%s\n", p.boldBlue, gutter, p.reset)
	st.out.printf(" %s%s |%s  %s\n", p.boldBlue, lineStr, p.reset,
		strings.ReplaceAll(source, "\t", strings.Repeat(" ", tabDisplay)))

	pad, carets := underlineFor(source, span.Col, span.EndCol)
	st.out.printf(" %s%s |%s  %s%s%s%s", p.boldBlue, gutter, p.reset,
		pad, p.boldRed, carets, p.reset)
	if span.Label != "" {
		st.out.printf(" %s%s%s", p.boldRed, span.Label, p.reset)
	}
	st.out.printf("\n")
	st.out.printf(" %s%s |%s\n", p.boldBlue, gutter, p.reset)
}

// sourceLine fetches one line of a span's file, or "" when the file
// cannot be shown. Package sources display as "@namespace/..." paths and
// are never readable from the local disk.
func (st *renderState) sourceLine(file string, line int) string {
	if line <= 0 || file == "" || strings.HasPrefix(file, "@") {
		return ""
	}
	read := st.read
	if read == nil {
		read = os.ReadFile
	}
	data, err := read(file)
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for i := 1; scanner.Scan(); i++ {
		if i == line {
			return scanner.Text()
		}
	}
	return ""
}

// underlineFor builds the caret line for a span within source. When
// endCol is zero the span extends to the end of the token under col.
func underlineFor(source string, col, endCol int) (pad, carets string) {
	if col <= 0 {
		col = 1
	}
	if endCol <= 0 {
		endCol = tokenEnd(source, col)
	}
	if endCol < col {
		endCol = col
	}

	prefix := ""
	if col > 1 && col-1 <= len(source) {
		prefix = source[:col-1]
	}
	width := 0
	for _, ch := range prefix {
		if ch == '\t' {
			width += tabDisplay
		} else {
			width++
		}
	}
	return strings.Repeat(" ", width), strings.Repeat("^", endCol-col+1)
}

// tokenEnd scans forward from col to the end of the token there. Markup
// and code tokens both end at whitespace or a bracket.
func tokenEnd(source string, col int) int {
	if col <= 0 || col > len(source) {
		return col
	}
	end := col - 1
	for end < len(source) {
		ch, size := utf8.DecodeRuneInString(source[end:])
		if ch == ' ' || ch == '\t' || strings.ContainsRune("()[]{},;", ch) {
			break
		}
		end += size
	}
	if end == col-1 {
		return col
	}
	return end
}

// outputFile unwraps w to its backing *os.File for terminal detection.
func outputFile(w io.Writer) *os.File {
	if f, ok := w.(*os.File); ok {
		return f
	}
	return nil
}

// Copyright © 2025 The typls authors

package diagnostic

import (
	"bytes"
	"strings"
	"testing"
)

// testRenderer returns a Renderer with colors disabled and a fake source reader.
func testRenderer(sources map[string]string) *Renderer {
	return &Renderer{
		Color: ColorNever,
		SourceReader: func(name string) ([]byte, error) {
			s, ok := sources[name]
			if !ok {
				return nil, &fakeErr{name}
			}
			return []byte(s), nil
		},
	}
}

type fakeErr struct{ name string }

func (e *fakeErr) Error() string { return "not found: " + e.name }

func TestRenderError(t *testing.T) {
	r := testRenderer(map[string]string{
		"main.typ": "#import \"missing.typ\": util",
	})

	d := Diagnostic{
		Severity: SeverityError,
		Message:  "file not found: missing.typ",
		Spans: []Span{
			{File: "main.typ", Line: 1, Col: 9, EndCol: 22, Label: "imported here"},
		},
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, d); err != nil {
		t.Fatal(err)
	}

	got := buf.String()

	// Verify key structural elements
	assertContains(t, got, "error: file not found: missing.typ")
	assertContains(t, got, "--> main.typ:1:9")
	assertContains(t, got, "#import \"missing.typ\": util")
	assertContains(t, got, "^^^^^")
	assertContains(t, got, "imported here")
}

func TestRenderWarning(t *testing.T) {
	r := testRenderer(map[string]string{
		"main.typ": "#let x = 1\n#let x = 2",
	})

	d := Diagnostic{
		Severity: SeverityWarning,
		Message:  "binding \"x\" shadows an earlier #let",
		Spans: []Span{
			{File: "main.typ", Line: 2, Col: 1, EndCol: 11},
		},
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, d); err != nil {
		t.Fatal(err)
	}

	got := buf.String()
	assertContains(t, got, "warning: binding \"x\" shadows an earlier #let")
	assertContains(t, got, "--> main.typ:2:1")
	assertContains(t, got, "#let x = 2")
}

func TestRenderNoSource(t *testing.T) {
	r := testRenderer(nil)

	d := Diagnostic{
		Severity: SeverityError,
		Message:  "some error",
		Spans: []Span{
			{File: "<stdin>", Line: 5, Col: 3},
		},
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, d); err != nil {
		t.Fatal(err)
	}

	got := buf.String()
	assertContains(t, got, "error: some error")
	assertContains(t, got, "--> <stdin>:5:3")
	// Should have a gutter but no source line
	assertContains(t, got, "|")
	assertNotContains(t, got, "^")
}

func TestRenderNotes(t *testing.T) {
	r := testRenderer(map[string]string{
		"chapter.typ": "#unknown(1, 2)",
	})

	d := Diagnostic{
		Severity: SeverityError,
		Message:  "unknown function: unknown",
		Spans: []Span{
			{File: "chapter.typ", Line: 1, Col: 2, EndCol: 9},
		},
		Notes: []string{
			"included at main.typ:4:1",
			"while compiling main.typ",
		},
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, d); err != nil {
		t.Fatal(err)
	}

	got := buf.String()
	assertContains(t, got, "= note: included at main.typ:4:1")
	assertContains(t, got, "= note: while compiling main.typ")
}

func TestRenderAutoDetectEndCol(t *testing.T) {
	r := testRenderer(map[string]string{
		"main.typ": "#let result = blue",
	})

	d := Diagnostic{
		Severity: SeverityError,
		Message:  "unknown variable: blue",
		Spans: []Span{
			{File: "main.typ", Line: 1, Col: 15}, // EndCol=0 → auto-detect
		},
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, d); err != nil {
		t.Fatal(err)
	}

	got := buf.String()
	// "blue" starts at col 15 and is 4 chars → should produce "^^^^"
	assertContains(t, got, "^^^^")
}

func TestRenderMultipleDiagnostics(t *testing.T) {
	r := testRenderer(map[string]string{
		"main.typ": "#let x = 1\n#let x = 2\n= \n",
	})

	diags := []Diagnostic{
		{
			Severity: SeverityWarning,
			Message:  "binding \"x\" shadows an earlier #let",
			Spans:    []Span{{File: "main.typ", Line: 2, Col: 1, EndCol: 11}},
		},
		{
			Severity: SeverityWarning,
			Message:  "heading has no title",
			Spans:    []Span{{File: "main.typ", Line: 3, Col: 1, EndCol: 3}},
		},
	}

	var buf bytes.Buffer
	if err := r.RenderAll(&buf, diags); err != nil {
		t.Fatal(err)
	}

	got := buf.String()
	// Should have both diagnostics separated by blank line
	parts := strings.Split(got, "\n\n")
	if len(parts) < 2 {
		t.Errorf("expected diagnostics separated by blank line, got:\n%s", got)
	}
	assertContains(t, got, "binding \"x\" shadows an earlier #let")
	assertContains(t, got, "heading has no title")
}

func TestRenderNoSpans(t *testing.T) {
	r := testRenderer(nil)

	d := Diagnostic{
		Severity: SeverityError,
		Message:  "package error: @preview/example:0.1.0 not found",
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, d); err != nil {
		t.Fatal(err)
	}

	got := buf.String()
	assertContains(t, got, "error: package error: @preview/example:0.1.0 not found")
	// Should be just the header, no arrows or source
	assertNotContains(t, got, "-->")
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("output does not contain %q:\n%s", want, got)
	}
}

func assertNotContains(t *testing.T, got, unwanted string) {
	t.Helper()
	if strings.Contains(got, unwanted) {
		t.Errorf("output unexpectedly contains %q:\n%s", unwanted, got)
	}
}

// Copyright © 2025 The typls authors

package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/typls/typls/typst/syntax"
)

// DefaultAnalyzers returns the built-in check set.
func DefaultAnalyzers() []*Analyzer {
	return []*Analyzer{
		AnalyzerHeadingSkip,
		AnalyzerDuplicateLabel,
		AnalyzerEmptyHeading,
		AnalyzerUnclosedMarkup,
		AnalyzerShadowedBinding,
	}
}

// AnalyzerHeadingSkip warns when a heading's level jumps more than one
// step below its predecessor, which usually indicates a typo in the
// marker run.
var AnalyzerHeadingSkip = &Analyzer{
	Name: "heading-skip",
	Doc:  "Warn when a heading level skips more than one step, e.g. a `===` directly under a `=`.",
	Run: func(pass *Pass) error {
		prev := 0
		pass.Root.Walk(func(n *syntax.Node) bool {
			if n.Kind() != syntax.KindHeading {
				return true
			}
			level := HeadingLevel(n)
			if prev > 0 && level > prev+1 {
				pass.Reportf(n.Span(), "heading level %d skips level %d", level, prev+1)
			}
			prev = level
			return false
		})
		return nil
	},
}

// AnalyzerDuplicateLabel warns when the same label is attached twice in
// one file; references to it become ambiguous.
var AnalyzerDuplicateLabel = &Analyzer{
	Name: "duplicate-label",
	Doc:  "Warn when a label name is defined more than once in the same file.",
	Run: func(pass *Pass) error {
		seen := make(map[string]bool)
		pass.Root.Walk(func(n *syntax.Node) bool {
			if n.Kind() == syntax.KindLabel {
				if seen[n.Text()] {
					pass.Reportf(n.Span(), "label <%s> is already defined", n.Text())
				}
				seen[n.Text()] = true
			}
			return true
		})
		return nil
	},
}

// AnalyzerEmptyHeading warns on headings with no title text.
var AnalyzerEmptyHeading = &Analyzer{
	Name: "empty-heading",
	Doc:  "Warn when a heading has a marker but no title.",
	Run: func(pass *Pass) error {
		pass.Root.Walk(func(n *syntax.Node) bool {
			if n.Kind() != syntax.KindHeading {
				return true
			}
			for _, c := range n.Children() {
				switch c.Kind() {
				case syntax.KindHeadingMarker, syntax.KindSpace:
				case syntax.KindText:
					if strings.TrimSpace(c.Text()) != "" {
						return false
					}
				default:
					return false
				}
			}
			pass.Reportf(n.Span(), "heading has no title")
			return false
		})
		return nil
	},
}

// AnalyzerUnclosedMarkup surfaces the parser's unclosed-construct error
// nodes as lint findings, so the CLI reports them even when the compile
// path is skipped.
var AnalyzerUnclosedMarkup = &Analyzer{
	Name: "unclosed-markup",
	Doc:  "Report unclosed emphasis, raw, and block constructs left open at the end of their scope.",
	Run: func(pass *Pass) error {
		pass.Root.Walk(func(n *syntax.Node) bool {
			if n.Kind() == syntax.KindError && strings.HasPrefix(n.ErrorMessage(), "unclosed") {
				pass.Reportf(n.Span(), "%s", n.ErrorMessage())
			}
			return true
		})
		return nil
	},
}

// AnalyzerShadowedBinding warns when a top-level let rebinds a name
// already bound earlier in the same file.
var AnalyzerShadowedBinding = &Analyzer{
	Name: "shadowed-binding",
	Doc:  "Warn when a #let rebinds a name already bound at the top level of the file.",
	Run: func(pass *Pass) error {
		seen := make(map[string]bool)
		for _, n := range pass.Root.Children() {
			if n.Kind() != syntax.KindLet {
				continue
			}
			ident := n.ChildOfKind(syntax.KindIdent)
			if ident == nil {
				continue
			}
			if seen[ident.Text()] {
				pass.Reportf(ident.Span(), "binding %q shadows an earlier #let in this file", ident.Text())
			}
			seen[ident.Text()] = true
		}
		return nil
	},
}

// AnalyzerNames returns the sorted names of the built-in checks.
func AnalyzerNames() []string {
	analyzers := DefaultAnalyzers()
	names := make([]string, len(analyzers))
	for i, a := range analyzers {
		names[i] = a.Name
	}
	sort.Strings(names)
	return names
}

// AnalyzerDoc returns a formatted documentation string for all analyzers.
func AnalyzerDoc() string {
	var b strings.Builder
	for _, a := range DefaultAnalyzers() {
		fmt.Fprintf(&b, "  %s\n", a.Name)
		lines := strings.Split(a.Doc, "\n")
		fmt.Fprintf(&b, "    %s\n\n", lines[0])
	}
	return b.String()
}

// HeadingLevel returns the marker length of a heading node.
func HeadingLevel(n *syntax.Node) int {
	if marker := n.ChildOfKind(syntax.KindHeadingMarker); marker != nil {
		return marker.Span().Len()
	}
	return 1
}

// Copyright © 2025 The typls authors

// Package ide answers editor queries against a World: completion,
// hover tooltips, and signature help. All positions are byte offsets
// into the queried source; the caller owns the conversion from editor
// positions.
package ide

import (
	"fmt"
	"strings"

	"github.com/typls/typls/typst"
	"github.com/typls/typls/typst/syntax"
)

// CompletionKind classifies a completion item.
type CompletionKind int

const (
	CompletionFunc CompletionKind = iota
	CompletionKeyword
	CompletionLabel
	CompletionPackage
	CompletionMethod
	CompletionSymbol
)

// Completion is one completion item. Snippet, when non-empty, is an LSP
// snippet with placeholders; Label is always the plain insert text.
type Completion struct {
	Label   string
	Kind    CompletionKind
	Detail  string
	Snippet string
}

// Autocomplete computes completion items at a byte offset.
func Autocomplete(w typst.World, src *syntax.Source, cursor int) []Completion {
	text := src.Text()
	if cursor < 0 || cursor > len(text) {
		return nil
	}
	before := text[:cursor]

	if inImportString(src, cursor) {
		return packageCompletions(w)
	}
	if strings.HasSuffix(trimIdentSuffix(before), "@") {
		return labelCompletions(src)
	}
	if base, ok := dotAccessBase(before); ok {
		return methodCompletions(w, base)
	}
	if hashActive(before) {
		return codeCompletions(w, src, cursor)
	}
	return nil
}

// trimIdentSuffix strips a trailing partial identifier, so "@fi" still
// counts as an @-trigger context.
func trimIdentSuffix(s string) string {
	i := len(s)
	for i > 0 {
		b := s[i-1]
		if b == '-' || b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') {
			i--
			continue
		}
		break
	}
	return s[:i]
}

// hashActive reports whether the cursor is inside a hash expression's
// leading identifier, e.g. "#hea|".
func hashActive(before string) bool {
	return strings.HasSuffix(trimIdentSuffix(before), "#")
}

// dotAccessBase extracts the identifier before a trailing ".", as in
// "#datetime.|" or "#datetime.to|".
func dotAccessBase(before string) (string, bool) {
	s := trimIdentSuffix(before)
	if !strings.HasSuffix(s, ".") {
		return "", false
	}
	s = s[:len(s)-1]
	base := s[len(trimIdentSuffix(s)):]
	if base == "" {
		return "", false
	}
	return base, true
}

// inImportString reports whether the cursor sits inside the path string
// of an import or include expression.
func inImportString(src *syntax.Source, cursor int) bool {
	root := syntax.Parse(src.Text())
	path := root.PathTo(cursor)
	for i := len(path) - 1; i >= 0; i-- {
		switch path[i].Kind() {
		case syntax.KindStr:
			continue
		case syntax.KindImport, syntax.KindInclude:
			return i+1 < len(path) && path[i+1].Kind() == syntax.KindStr
		default:
			return false
		}
	}
	return false
}

func packageCompletions(w typst.World) []Completion {
	var items []Completion
	for _, spec := range w.Packages() {
		items = append(items, Completion{
			Label:  spec.String(),
			Kind:   CompletionPackage,
			Detail: fmt.Sprintf("package %s/%s", spec.Namespace, spec.Name),
		})
	}
	return items
}

func labelCompletions(src *syntax.Source) []Completion {
	root := syntax.Parse(src.Text())
	var items []Completion
	seen := make(map[string]bool)
	root.Walk(func(n *syntax.Node) bool {
		if n.Kind() == syntax.KindLabel && !seen[n.Text()] {
			seen[n.Text()] = true
			items = append(items, Completion{
				Label:  n.Text(),
				Kind:   CompletionLabel,
				Detail: "label",
			})
		}
		return true
	})
	return items
}

func methodCompletions(w typst.World, base string) []Completion {
	def, ok := w.Library().Func(base)
	if !ok {
		return nil
	}
	var items []Completion
	for name, method := range def.Methods {
		items = append(items, Completion{
			Label:   name,
			Kind:    CompletionMethod,
			Detail:  method.Signature(),
			Snippet: callSnippet(name, method),
		})
	}
	return items
}

func codeCompletions(w typst.World, src *syntax.Source, cursor int) []Completion {
	lib := w.Library()
	var items []Completion
	for _, def := range lib.Funcs() {
		items = append(items, Completion{
			Label:   def.Name,
			Kind:    CompletionFunc,
			Detail:  def.Signature() + " -> " + def.Returns,
			Snippet: callSnippet(def.Name, def),
		})
	}
	for _, kw := range lib.Keywords() {
		items = append(items, Completion{Label: kw, Kind: CompletionKeyword, Detail: "keyword"})
	}
	// Top-level bindings of the current file complete as well.
	root := syntax.Parse(src.Text())
	for _, n := range root.Children() {
		if n.Kind() != syntax.KindLet {
			continue
		}
		if ident := n.ChildOfKind(syntax.KindIdent); ident != nil && ident.Span().End < cursor {
			items = append(items, Completion{Label: ident.Text(), Kind: CompletionSymbol, Detail: "local binding"})
		}
	}
	return items
}

// callSnippet renders "name(${1:first})" for functions with required
// positional parameters, else plain "name()".
func callSnippet(name string, def *typst.FuncDef) string {
	var required []string
	for _, p := range def.Params {
		if !p.Named && !p.Optional {
			required = append(required, p.Name)
		}
	}
	if len(required) == 0 {
		return name + "()"
	}
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('(')
	for i, p := range required {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "${%d:%s}", i+1, p)
	}
	sb.WriteByte(')')
	return sb.String()
}

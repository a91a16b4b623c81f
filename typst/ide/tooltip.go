// Copyright © 2025 The typls authors

package ide

import (
	"fmt"
	"strings"

	"github.com/typls/typls/typst"
	"github.com/typls/typls/typst/syntax"
)

// Tooltip is hover content: markdown plus the span it applies to.
type Tooltip struct {
	Markdown string
	Span     syntax.Span
}

// Hover produces a tooltip for the position, or nil when nothing under
// the cursor has documentation.
func Hover(w typst.World, src *syntax.Source, cursor int) *Tooltip {
	root := syntax.Parse(src.Text())
	path := root.PathTo(cursor)
	for i := len(path) - 1; i >= 0; i-- {
		n := path[i]
		switch n.Kind() {
		case syntax.KindIdent:
			if tip := identTooltip(w, path, i); tip != nil {
				return tip
			}
		case syntax.KindRef:
			return refTooltip(src, n)
		case syntax.KindLabel:
			return &Tooltip{
				Markdown: fmt.Sprintf("```typst\n<%s>\n```\nLabel attached to the preceding content.", n.Text()),
				Span:     n.Span(),
			}
		}
	}
	return nil
}

// identTooltip documents a library function or method under the cursor.
func identTooltip(w typst.World, path []*syntax.Node, i int) *Tooltip {
	n := path[i]
	lib := w.Library()

	// Method position: the parent is a field access and n is its field.
	if i > 0 && path[i-1].Kind() == syntax.KindFieldAccess {
		fa := path[i-1]
		children := fa.Children()
		if len(children) == 2 && children[1] == n && children[0].Kind() == syntax.KindIdent {
			if base, ok := lib.Func(children[0].Text()); ok {
				if method, ok := base.Methods[n.Text()]; ok {
					return funcTooltip(method, n.Span())
				}
			}
		}
	}
	if def, ok := lib.Func(n.Text()); ok {
		return funcTooltip(def, n.Span())
	}
	return nil
}

func funcTooltip(def *typst.FuncDef, span syntax.Span) *Tooltip {
	var sb strings.Builder
	fmt.Fprintf(&sb, "```typst\n%s -> %s\n```\n\n%s", def.Signature(), def.Returns, def.Doc)
	if len(def.Params) > 0 {
		sb.WriteString("\n")
		for _, p := range def.Params {
			fmt.Fprintf(&sb, "\n- `%s`: %s", p.Name, p.Doc)
		}
	}
	return &Tooltip{Markdown: sb.String(), Span: span}
}

// refTooltip previews the labelled location a reference points at: the
// nearest heading before the label, when one exists in the same file.
func refTooltip(src *syntax.Source, ref *syntax.Node) *Tooltip {
	root := syntax.Parse(src.Text())
	var labelSpan *syntax.Span
	root.Walk(func(n *syntax.Node) bool {
		if n.Kind() == syntax.KindLabel && n.Text() == ref.Text() {
			sp := n.Span()
			labelSpan = &sp
		}
		return true
	})
	if labelSpan == nil {
		return &Tooltip{
			Markdown: fmt.Sprintf("Reference to undefined label `%s`.", ref.Text()),
			Span:     ref.Span(),
		}
	}
	var heading *syntax.Node
	root.Walk(func(n *syntax.Node) bool {
		if n.Kind() == syntax.KindHeading && n.Span().Start <= labelSpan.Start {
			heading = n
		}
		return true
	})
	if heading == nil {
		return &Tooltip{
			Markdown: fmt.Sprintf("Reference to label `%s`.", ref.Text()),
			Span:     ref.Span(),
		}
	}
	title := strings.TrimSpace(strings.TrimLeft(src.Text()[heading.Span().Start:heading.Span().End], "= \t"))
	return &Tooltip{
		Markdown: fmt.Sprintf("Reference to **%s**.", title),
		Span:     ref.Span(),
	}
}

// Copyright © 2025 The typls authors

package ide

import (
	"strings"

	"github.com/typls/typls/typst"
	"github.com/typls/typls/typst/syntax"
)

// SignatureInfo describes the enclosing call at a position.
type SignatureInfo struct {
	Def         *typst.FuncDef
	ActiveParam int
}

// Signature finds the innermost function call enclosing the cursor and
// returns its library signature with the active parameter, or nil when
// the cursor is not inside a known call's argument list.
func Signature(w typst.World, src *syntax.Source, cursor int) *SignatureInfo {
	root := syntax.Parse(src.Text())
	path := root.PathTo(cursor)
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].Kind() != syntax.KindFuncCall {
			continue
		}
		call := path[i]
		args := call.ChildOfKind(syntax.KindArgs)
		if args == nil || !args.Span().Contains(cursor) {
			continue
		}
		def := lookupCallee(w, call.Children()[0])
		if def == nil {
			continue
		}
		// The active parameter is the number of commas before the
		// cursor at the top level of this argument list.
		active := strings.Count(stripNested(src.Text()[args.Span().Start:cursor]), ",")
		if active >= len(def.Params) && len(def.Params) > 0 {
			active = len(def.Params) - 1
		}
		return &SignatureInfo{Def: def, ActiveParam: active}
	}
	return nil
}

func lookupCallee(w typst.World, callee *syntax.Node) *typst.FuncDef {
	lib := w.Library()
	switch callee.Kind() {
	case syntax.KindIdent:
		if def, ok := lib.Func(callee.Text()); ok {
			return def
		}
	case syntax.KindFieldAccess:
		children := callee.Children()
		if len(children) == 2 && children[0].Kind() == syntax.KindIdent {
			if base, ok := lib.Func(children[0].Text()); ok {
				return base.Methods[children[1].Text()]
			}
		}
	}
	return nil
}

// stripNested blanks out parenthesized and bracketed subexpressions so
// their commas do not count toward the active parameter.
func stripNested(s string) string {
	var sb strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			if i > 0 || s[i] != '(' {
				depth++
			}
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				sb.WriteByte(s[i])
			} else {
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String()
}

// Copyright © 2025 The typls authors

package syntax

// Span is a half-open byte range [Start, End) within a Source.
type Span struct {
	Start int
	End   int
}

// Len returns the span length in bytes.
func (sp Span) Len() int { return sp.End - sp.Start }

// Contains reports whether the byte offset lies within the span. The end
// offset is included so cursor positions at a node's end still hit it.
func (sp Span) Contains(b int) bool { return b >= sp.Start && b <= sp.End }

// Union returns the smallest span covering both spans.
func (sp Span) Union(other Span) Span {
	if other.Start < sp.Start {
		sp.Start = other.Start
	}
	if other.End > sp.End {
		sp.End = other.End
	}
	return sp
}

// SyntaxKind classifies nodes of the parse tree.
type SyntaxKind int

const (
	KindMarkup SyntaxKind = iota
	KindText
	KindSpace
	KindParbreak
	KindLineComment
	KindBlockComment
	KindHeading
	KindHeadingMarker
	KindStrong
	KindEmph
	KindRaw
	KindLabel
	KindRef
	KindLet
	KindImport
	KindImportItems
	KindInclude
	KindSet
	KindShow
	KindFuncCall
	KindFieldAccess
	KindArgs
	KindNamedArg
	KindIdent
	KindStr
	KindInt
	KindFloat
	KindBool
	KindNone
	KindContentBlock
	KindCodeBlock
	KindParams
	KindError
)

var kindNames = map[SyntaxKind]string{
	KindMarkup:        "markup",
	KindText:          "text",
	KindSpace:         "space",
	KindParbreak:      "parbreak",
	KindLineComment:   "line comment",
	KindBlockComment:  "block comment",
	KindHeading:       "heading",
	KindHeadingMarker: "heading marker",
	KindStrong:        "strong",
	KindEmph:          "emph",
	KindRaw:           "raw",
	KindLabel:         "label",
	KindRef:           "ref",
	KindLet:           "let binding",
	KindImport:        "import",
	KindImportItems:   "import items",
	KindInclude:       "include",
	KindSet:           "set rule",
	KindShow:          "show rule",
	KindFuncCall:      "function call",
	KindFieldAccess:   "field access",
	KindArgs:          "arguments",
	KindNamedArg:      "named argument",
	KindIdent:         "identifier",
	KindStr:           "string",
	KindInt:           "integer",
	KindFloat:         "float",
	KindBool:          "boolean",
	KindNone:          "none",
	KindContentBlock:  "content block",
	KindCodeBlock:     "code block",
	KindParams:        "parameters",
	KindError:         "error",
}

func (k SyntaxKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Node is a parse-tree node. Leaves carry their text; inner nodes carry
// children whose spans are contained in the parent's span.
type Node struct {
	kind     SyntaxKind
	span     Span
	text     string
	children []*Node
	errMsg   string
}

func newLeaf(kind SyntaxKind, span Span, text string) *Node {
	return &Node{kind: kind, span: span, text: text}
}

func newInner(kind SyntaxKind, children []*Node) *Node {
	n := &Node{kind: kind, children: children}
	if len(children) > 0 {
		n.span = children[0].span
		for _, c := range children[1:] {
			n.span = n.span.Union(c.span)
		}
	}
	return n
}

func newError(span Span, msg string) *Node {
	return &Node{kind: KindError, span: span, errMsg: msg}
}

// Kind returns the node's syntax kind.
func (n *Node) Kind() SyntaxKind { return n.kind }

// Span returns the byte span the node covers.
func (n *Node) Span() Span { return n.span }

// Text returns the leaf text, or "" for inner nodes.
func (n *Node) Text() string { return n.text }

// Children returns the node's direct children.
func (n *Node) Children() []*Node { return n.children }

// ErrorMessage returns the message of an error node, or "".
func (n *Node) ErrorMessage() string { return n.errMsg }

// Walk calls fn for n and, if fn returns true, recursively for each child.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Errors collects every error node in the subtree, in source order.
func (n *Node) Errors() []*Node {
	var errs []*Node
	n.Walk(func(c *Node) bool {
		if c.kind == KindError {
			errs = append(errs, c)
		}
		return true
	})
	return errs
}

// PathTo returns the chain of nodes from n down to the innermost node
// whose span contains the byte offset. The result is never empty when the
// offset is within n's span; it is nil otherwise.
func (n *Node) PathTo(b int) []*Node {
	if !n.span.Contains(b) {
		return nil
	}
	path := []*Node{n}
	cur := n
outer:
	for {
		for _, c := range cur.children {
			if c.span.Contains(b) {
				path = append(path, c)
				cur = c
				continue outer
			}
		}
		return path
	}
}

// ChildOfKind returns the first direct child of the given kind.
func (n *Node) ChildOfKind(kind SyntaxKind) *Node {
	for _, c := range n.children {
		if c.kind == kind {
			return c
		}
	}
	return nil
}

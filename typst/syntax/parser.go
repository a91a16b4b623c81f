// Copyright © 2025 The typls authors

package syntax

import (
	"strings"
)

// Parse builds a parse tree for the given text. Parsing never fails:
// malformed input yields error nodes embedded in an otherwise complete
// tree, so downstream consumers always have a full span to work with.
func Parse(text string) *Node {
	p := &parser{scanner: scanner{text: text}}
	children := p.parseMarkup(func() bool { return false })
	root := newInner(KindMarkup, children)
	root.span = Span{0, len(text)}
	return root
}

type parser struct {
	scanner
}

// spanned wraps children in an inner node with an explicit span, used
// when delimiters are part of the construct but not of any child.
func (p *parser) spanned(kind SyntaxKind, span Span, children []*Node) *Node {
	n := newInner(kind, children)
	n.span = span
	return n
}

// parseMarkup parses markup content until EOF or until stop reports the
// current cursor is a terminator for the enclosing construct.
func (p *parser) parseMarkup(stop func() bool) []*Node {
	var nodes []*Node
	textStart := -1
	flush := func() {
		if textStart >= 0 {
			span := Span{textStart, p.pos}
			nodes = append(nodes, newLeaf(KindText, span, p.text[span.Start:span.End]))
			textStart = -1
		}
	}
	for !p.done() && !stop() {
		b := p.peek()
		switch {
		case isSpaceByte(b):
			flush()
			span := p.eatWhile(isSpaceByte)
			kind := KindSpace
			if strings.Count(p.text[span.Start:span.End], "\n") >= 2 {
				kind = KindParbreak
			}
			nodes = append(nodes, newLeaf(kind, span, p.text[span.Start:span.End]))
		case b == '/' && p.peekAt(1) == '/':
			flush()
			start := p.pos
			span := p.eatLine()
			span.Start = start
			nodes = append(nodes, newLeaf(KindLineComment, span, p.text[span.Start:span.End]))
		case b == '/' && p.peekAt(1) == '*':
			flush()
			span, ok := p.scanBlockComment()
			nodes = append(nodes, newLeaf(KindBlockComment, span, p.text[span.Start:span.End]))
			if !ok {
				nodes = append(nodes, newError(Span{span.End, span.End}, "unclosed block comment"))
			}
		case b == '=' && p.atLineStart():
			flush()
			nodes = append(nodes, p.parseHeading())
		case b == '*':
			flush()
			nodes = append(nodes, p.parseDelimited(KindStrong, '*', stop))
		case b == '_':
			flush()
			nodes = append(nodes, p.parseDelimited(KindEmph, '_', stop))
		case b == '`':
			flush()
			nodes = append(nodes, p.parseRaw())
		case b == '<' && isIdentStart(p.peekAt(1)):
			flush()
			nodes = append(nodes, p.parseLabel())
		case b == '@' && isIdentStart(p.peekAt(1)):
			flush()
			start := p.pos
			p.pos++
			ident := p.scanIdent()
			span := Span{start, ident.End}
			nodes = append(nodes, newLeaf(KindRef, span, p.text[ident.Start:ident.End]))
		case b == '#':
			flush()
			nodes = append(nodes, p.parseHashExpr())
		case b == '\\':
			// Escape: the next byte is plain text.
			if textStart < 0 {
				textStart = p.pos
			}
			p.pos++
			if !p.done() {
				p.pos++
			}
		default:
			if textStart < 0 {
				textStart = p.pos
			}
			p.pos++
		}
	}
	flush()
	return nodes
}

// parseHeading parses "= title" through "====== title". The marker level
// is the number of equals signs.
func (p *parser) parseHeading() *Node {
	start := p.pos
	marker := p.eatWhile(func(b byte) bool { return b == '=' })
	markerNode := newLeaf(KindHeadingMarker, marker, p.text[marker.Start:marker.End])
	p.eatWhile(func(b byte) bool { return b == ' ' || b == '\t' })
	body := p.parseMarkup(func() bool { return p.peek() == '\n' })
	children := append([]*Node{markerNode}, body...)
	return p.spanned(KindHeading, Span{start, p.pos}, children)
}

// parseDelimited parses *strong* or _emphasis_. The construct ends at the
// closing delimiter; a paragraph break or the enclosing terminator leaves
// it unclosed, which yields an error node after the content.
func (p *parser) parseDelimited(kind SyntaxKind, delim byte, stop func() bool) *Node {
	start := p.pos
	p.pos++ // opening delimiter
	inner := p.parseMarkup(func() bool {
		return p.peek() == delim || stop() || p.atParbreak()
	})
	closed := p.eat(delim)
	n := p.spanned(kind, Span{start, p.pos}, inner)
	if !closed {
		n.children = append(n.children, newError(Span{p.pos, p.pos}, "unclosed "+kind.String()))
	}
	return n
}

// atParbreak reports whether the cursor sits at a blank line.
func (p *parser) atParbreak() bool {
	i := p.pos
	newlines := 0
	for i < len(p.text) {
		switch p.text[i] {
		case '\n':
			newlines++
			if newlines >= 2 {
				return true
			}
		case ' ', '\t', '\r':
		default:
			return false
		}
		i++
	}
	return false
}

// parseRaw parses `inline raw` and ```fenced raw blocks``` with an
// optional language tag after the opening fence.
func (p *parser) parseRaw() *Node {
	start := p.pos
	if p.eatStr("```") {
		lang := p.scanIdent()
		end := strings.Index(p.text[p.pos:], "```")
		var body Span
		closed := end >= 0
		if closed {
			body = Span{p.pos, p.pos + end}
			p.pos += end + 3
		} else {
			body = Span{p.pos, len(p.text)}
			p.pos = len(p.text)
		}
		children := []*Node{}
		if lang.Len() > 0 {
			children = append(children, newLeaf(KindIdent, lang, p.text[lang.Start:lang.End]))
		}
		children = append(children, newLeaf(KindText, body, p.text[body.Start:body.End]))
		if !closed {
			children = append(children, newError(Span{p.pos, p.pos}, "unclosed raw block"))
		}
		return p.spanned(KindRaw, Span{start, p.pos}, children)
	}
	p.pos++ // opening backtick
	bodyStart := p.pos
	for !p.done() && p.peek() != '`' && p.peek() != '\n' {
		p.pos++
	}
	body := Span{bodyStart, p.pos}
	closed := p.eat('`')
	children := []*Node{newLeaf(KindText, body, p.text[body.Start:body.End])}
	if !closed {
		children = append(children, newError(Span{p.pos, p.pos}, "unclosed raw text"))
	}
	return p.spanned(KindRaw, Span{start, p.pos}, children)
}

// parseLabel parses <name>.
func (p *parser) parseLabel() *Node {
	start := p.pos
	p.pos++ // '<'
	ident := p.scanIdent()
	if !p.eat('>') {
		p.pos = ident.End
		return newError(Span{start, p.pos}, "unclosed label")
	}
	return newLeaf(KindLabel, Span{start, p.pos}, p.text[ident.Start:ident.End])
}

// parseHashExpr parses a hash-prefixed code expression embedded in markup.
func (p *parser) parseHashExpr() *Node {
	start := p.pos
	p.pos++ // '#'
	switch b := p.peek(); {
	case isIdentStart(b):
		ident := p.scanIdent()
		name := p.text[ident.Start:ident.End]
		var n *Node
		switch name {
		case "let":
			n = p.parseLet(start)
		case "import":
			n = p.parseImport(start, KindImport)
		case "include":
			n = p.parseImport(start, KindInclude)
		case "set":
			n = p.parseSetShow(start, KindSet)
		case "show":
			n = p.parseSetShow(start, KindShow)
		case "true", "false":
			n = newLeaf(KindBool, Span{start, ident.End}, name)
		case "none":
			n = newLeaf(KindNone, Span{start, ident.End}, name)
		default:
			expr := p.parseSuffix(newLeaf(KindIdent, ident, name))
			expr.span.Start = start
			n = expr
		}
		return n
	case b == '{':
		return p.parseCodeBlock(start)
	case b == '[':
		block := p.parseContentBlock()
		block.span.Start = start
		return block
	case b == '"':
		span, value, ok := p.scanString()
		if !ok {
			return newError(Span{start, span.End}, "unclosed string")
		}
		return newLeaf(KindStr, Span{start, span.End}, value)
	case isDigit(b):
		span, isFloat := p.scanNumber()
		kind := KindInt
		if isFloat {
			kind = KindFloat
		}
		return newLeaf(kind, Span{start, span.End}, p.text[span.Start:span.End])
	default:
		return newError(Span{start, p.pos}, "expected expression after #")
	}
}

// skipCodeSpace consumes spaces and tabs but not newlines, which end most
// hash expressions in markup.
func (p *parser) skipCodeSpace() {
	p.eatWhile(func(b byte) bool { return b == ' ' || b == '\t' })
}

// parseLet parses "#let name = expr" and "#let name(params) = expr".
func (p *parser) parseLet(start int) *Node {
	p.skipCodeSpace()
	var children []*Node
	ident := p.scanIdent()
	if ident.Len() == 0 {
		children = append(children, newError(Span{p.pos, p.pos}, "expected binding name"))
		return p.spanned(KindLet, Span{start, p.pos}, children)
	}
	children = append(children, newLeaf(KindIdent, ident, p.text[ident.Start:ident.End]))
	if p.peek() == '(' {
		children = append(children, p.parseParams())
	}
	p.skipCodeSpace()
	if !p.eat('=') {
		children = append(children, newError(Span{p.pos, p.pos}, "expected = in let binding"))
		return p.spanned(KindLet, Span{start, p.pos}, children)
	}
	p.skipCodeSpace()
	children = append(children, p.parseExpr())
	return p.spanned(KindLet, Span{start, p.pos}, children)
}

// parseParams parses a parenthesized parameter list of identifiers with
// optional default expressions.
func (p *parser) parseParams() *Node {
	start := p.pos
	p.pos++ // '('
	var children []*Node
	for !p.done() && p.peek() != ')' {
		p.eatWhile(isSpaceByte)
		if p.peek() == ')' {
			break
		}
		ident := p.scanIdent()
		if ident.Len() == 0 {
			children = append(children, newError(Span{p.pos, p.pos}, "expected parameter name"))
			// Resync at the next comma or the closing paren.
			p.eatWhile(func(b byte) bool { return b != ',' && b != ')' })
		} else {
			children = append(children, newLeaf(KindIdent, ident, p.text[ident.Start:ident.End]))
			p.eatWhile(isSpaceByte)
			if p.eat(':') {
				p.eatWhile(isSpaceByte)
				children = append(children, p.parseExpr())
			}
		}
		p.eatWhile(isSpaceByte)
		if !p.eat(',') {
			break
		}
	}
	if !p.eat(')') {
		children = append(children, newError(Span{p.pos, p.pos}, "unclosed parameter list"))
	}
	return p.spanned(KindParams, Span{start, p.pos}, children)
}

// parseImport parses "#import \"path\"" or "#include \"path\"", with an
// optional ": a, b" or ": *" item list for imports.
func (p *parser) parseImport(start int, kind SyntaxKind) *Node {
	p.skipCodeSpace()
	var children []*Node
	if p.peek() == '"' {
		span, value, ok := p.scanString()
		children = append(children, newLeaf(KindStr, span, value))
		if !ok {
			children = append(children, newError(Span{span.End, span.End}, "unclosed string"))
		}
	} else {
		children = append(children, newError(Span{p.pos, p.pos}, "expected path string"))
		p.eatLine()
		return p.spanned(kind, Span{start, p.pos}, children)
	}
	if kind == KindImport {
		p.skipCodeSpace()
		if p.eat(':') {
			children = append(children, p.parseImportItems())
		}
	}
	return p.spanned(kind, Span{start, p.pos}, children)
}

// parseImportItems parses the item list after "#import "path":".
func (p *parser) parseImportItems() *Node {
	start := p.pos
	var items []*Node
	for {
		p.skipCodeSpace()
		if p.eat('*') {
			items = append(items, newLeaf(KindText, Span{p.pos - 1, p.pos}, "*"))
			break
		}
		ident := p.scanIdent()
		if ident.Len() == 0 {
			break
		}
		items = append(items, newLeaf(KindIdent, ident, p.text[ident.Start:ident.End]))
		p.skipCodeSpace()
		if !p.eat(',') {
			break
		}
	}
	return p.spanned(KindImportItems, Span{start, p.pos}, items)
}

// parseSetShow parses "#set call(...)" and "#show selector: expr" with a
// lenient recovery that consumes to the end of the line on malformed
// input.
func (p *parser) parseSetShow(start int, kind SyntaxKind) *Node {
	p.skipCodeSpace()
	var children []*Node
	if isIdentStart(p.peek()) {
		ident := p.scanIdent()
		children = append(children, p.parseSuffix(newLeaf(KindIdent, ident, p.text[ident.Start:ident.End])))
	} else if kind == KindSet {
		children = append(children, newError(Span{p.pos, p.pos}, "expected set rule target"))
		p.eatLine()
		return p.spanned(kind, Span{start, p.pos}, children)
	}
	if kind == KindShow {
		p.skipCodeSpace()
		if p.eat(':') {
			p.skipCodeSpace()
			children = append(children, p.parseExpr())
		}
	}
	return p.spanned(kind, Span{start, p.pos}, children)
}

// parseCodeBlock parses "{ expr; expr }" with expressions separated by
// semicolons or newlines.
func (p *parser) parseCodeBlock(start int) *Node {
	p.pos++ // '{'
	var children []*Node
	for {
		p.eatWhile(func(b byte) bool { return isSpaceByte(b) || b == ';' })
		if p.done() || p.peek() == '}' {
			break
		}
		before := p.pos
		children = append(children, p.parseExpr())
		if p.pos == before {
			// The expression parser made no progress; skip a byte so the
			// loop terminates on garbage input.
			children = append(children, newError(Span{p.pos, p.pos + 1}, "expected expression"))
			p.pos++
		}
	}
	if !p.eat('}') {
		children = append(children, newError(Span{p.pos, p.pos}, "unclosed code block"))
	}
	return p.spanned(KindCodeBlock, Span{start, p.pos}, children)
}

// parseContentBlock parses "[ markup ]".
func (p *parser) parseContentBlock() *Node {
	start := p.pos
	p.pos++ // '['
	depth := 1
	inner := p.parseMarkup(func() bool {
		switch p.peek() {
		case '[':
			depth++
		case ']':
			depth--
			return depth == 0
		}
		return false
	})
	closed := p.eat(']')
	n := p.spanned(KindContentBlock, Span{start, p.pos}, inner)
	if !closed {
		n.children = append(n.children, newError(Span{p.pos, p.pos}, "unclosed content block"))
	}
	return n
}

// parseExpr parses a single code-level expression: a literal, an
// identifier with field-access and call suffixes, or a block.
func (p *parser) parseExpr() *Node {
	switch b := p.peek(); {
	case b == '"':
		span, value, ok := p.scanString()
		if !ok {
			return newError(span, "unclosed string")
		}
		return newLeaf(KindStr, span, value)
	case isDigit(b):
		span, isFloat := p.scanNumber()
		kind := KindInt
		if isFloat {
			kind = KindFloat
		}
		return newLeaf(kind, span, p.text[span.Start:span.End])
	case b == '[':
		return p.parseContentBlock()
	case b == '{':
		return p.parseCodeBlock(p.pos)
	case b == '(':
		start := p.pos
		p.pos++
		p.eatWhile(isSpaceByte)
		inner := p.parseExpr()
		p.eatWhile(isSpaceByte)
		if !p.eat(')') {
			return p.spanned(KindError, Span{start, p.pos}, []*Node{inner})
		}
		inner.span = Span{start, p.pos}
		return inner
	case isIdentStart(b):
		ident := p.scanIdent()
		name := p.text[ident.Start:ident.End]
		switch name {
		case "true", "false":
			return newLeaf(KindBool, ident, name)
		case "none":
			return newLeaf(KindNone, ident, name)
		}
		return p.parseSuffix(newLeaf(KindIdent, ident, name))
	default:
		return newError(Span{p.pos, p.pos}, "expected expression")
	}
}

// parseSuffix applies field-access, call, and trailing-content suffixes
// to a primary expression.
func (p *parser) parseSuffix(primary *Node) *Node {
	expr := primary
	for {
		switch {
		case p.peek() == '.' && isIdentStart(p.peekAt(1)):
			p.pos++
			ident := p.scanIdent()
			field := newLeaf(KindIdent, ident, p.text[ident.Start:ident.End])
			expr = p.spanned(KindFieldAccess, Span{expr.span.Start, p.pos}, []*Node{expr, field})
		case p.peek() == '(':
			args := p.parseArgs()
			expr = p.spanned(KindFuncCall, Span{expr.span.Start, p.pos}, []*Node{expr, args})
		case p.peek() == '[':
			block := p.parseContentBlock()
			if expr.kind == KindFuncCall {
				args := expr.children[1]
				args.children = append(args.children, block)
				args.span = args.span.Union(block.span)
				expr.span = expr.span.Union(block.span)
			} else {
				args := p.spanned(KindArgs, block.span, []*Node{block})
				expr = p.spanned(KindFuncCall, Span{expr.span.Start, p.pos}, []*Node{expr, args})
			}
		default:
			return expr
		}
	}
}

// parseArgs parses a parenthesized, comma-separated argument list. Named
// arguments appear as an Ident leaf followed by the value expression.
func (p *parser) parseArgs() *Node {
	start := p.pos
	p.pos++ // '('
	var children []*Node
	for {
		p.eatWhile(isSpaceByte)
		if p.done() || p.peek() == ')' {
			break
		}
		if isIdentStart(p.peek()) {
			// Lookahead for "name: value".
			save := p.pos
			ident := p.scanIdent()
			p.skipCodeSpace()
			if p.eat(':') {
				name := newLeaf(KindIdent, ident, p.text[ident.Start:ident.End])
				p.eatWhile(isSpaceByte)
				value := p.parseExpr()
				children = append(children, p.spanned(KindNamedArg, Span{ident.Start, p.pos}, []*Node{name, value}))
			} else {
				p.pos = save
				children = append(children, p.parseExpr())
			}
		} else {
			before := p.pos
			children = append(children, p.parseExpr())
			if p.pos == before {
				p.pos++ // resync on garbage
			}
		}
		p.eatWhile(isSpaceByte)
		if !p.eat(',') {
			break
		}
	}
	if !p.eat(')') {
		children = append(children, newError(Span{p.pos, p.pos}, "unclosed argument list"))
	}
	return p.spanned(KindArgs, Span{start, p.pos}, children)
}

// Copyright © 2025 The typls authors

package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// scanner provides low-level cursor operations over the source text. The
// parser drives it; it never fails, it only stops consuming.
type scanner struct {
	text string
	pos  int
}

func (sc *scanner) done() bool { return sc.pos >= len(sc.text) }

// peek returns the byte at the cursor, or 0 at EOF.
func (sc *scanner) peek() byte {
	if sc.done() {
		return 0
	}
	return sc.text[sc.pos]
}

// peekAt returns the byte at cursor+n, or 0 past EOF.
func (sc *scanner) peekAt(n int) byte {
	if sc.pos+n >= len(sc.text) {
		return 0
	}
	return sc.text[sc.pos+n]
}

// eat consumes one byte if it matches b.
func (sc *scanner) eat(b byte) bool {
	if sc.peek() == b {
		sc.pos++
		return true
	}
	return false
}

// eatStr consumes the literal prefix if present.
func (sc *scanner) eatStr(s string) bool {
	if strings.HasPrefix(sc.text[sc.pos:], s) {
		sc.pos += len(s)
		return true
	}
	return false
}

// eatWhile consumes bytes while pred holds and returns the consumed span.
func (sc *scanner) eatWhile(pred func(byte) bool) Span {
	start := sc.pos
	for !sc.done() && pred(sc.text[sc.pos]) {
		sc.pos++
	}
	return Span{start, sc.pos}
}

// eatLine consumes up to (not including) the next newline.
func (sc *scanner) eatLine() Span {
	return sc.eatWhile(func(b byte) bool { return b != '\n' })
}

// atLineStart reports whether the cursor sits at the beginning of a line,
// ignoring leading spaces and tabs.
func (sc *scanner) atLineStart() bool {
	i := sc.pos - 1
	for i >= 0 {
		switch sc.text[i] {
		case ' ', '\t':
			i--
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= utf8.RuneSelf
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || isDigit(b) || b == '-'
}

// scanIdent consumes an identifier and returns its span. Identifiers are
// letters, digits, hyphens, and underscores, not starting with a digit or
// hyphen. Returns a zero-length span when no identifier is present.
func (sc *scanner) scanIdent() Span {
	start := sc.pos
	if sc.done() || !isIdentStart(sc.text[sc.pos]) {
		return Span{start, start}
	}
	for !sc.done() {
		b := sc.text[sc.pos]
		if b < utf8.RuneSelf {
			if !isIdentCont(b) {
				break
			}
			sc.pos++
			continue
		}
		r, size := utf8.DecodeRuneInString(sc.text[sc.pos:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		sc.pos += size
	}
	return Span{start, sc.pos}
}

// scanNumber consumes an integer or float and reports which it was.
func (sc *scanner) scanNumber() (Span, bool) {
	start := sc.pos
	sc.eatWhile(isDigit)
	isFloat := false
	if sc.peek() == '.' && isDigit(sc.peekAt(1)) {
		sc.pos++
		sc.eatWhile(isDigit)
		isFloat = true
	}
	return Span{start, sc.pos}, isFloat
}

// scanString consumes a double-quoted string starting at the opening
// quote. Backslash escapes the next byte. Unterminated strings run to the
// end of the line; ok is false in that case. The returned value excludes
// the quotes and resolves simple escapes.
func (sc *scanner) scanString() (span Span, value string, ok bool) {
	start := sc.pos
	sc.pos++ // opening quote
	var sb strings.Builder
	for !sc.done() {
		b := sc.text[sc.pos]
		switch b {
		case '"':
			sc.pos++
			return Span{start, sc.pos}, sb.String(), true
		case '\n':
			return Span{start, sc.pos}, sb.String(), false
		case '\\':
			sc.pos++
			if sc.done() {
				return Span{start, sc.pos}, sb.String(), false
			}
			switch e := sc.text[sc.pos]; e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(e)
			}
			sc.pos++
		default:
			sb.WriteByte(b)
			sc.pos++
		}
	}
	return Span{start, sc.pos}, sb.String(), false
}

// scanBlockComment consumes a "/*" comment including nested comments.
// ok is false if the comment is unterminated.
func (sc *scanner) scanBlockComment() (Span, bool) {
	start := sc.pos
	sc.pos += 2 // "/*"
	depth := 1
	for !sc.done() {
		switch {
		case sc.eatStr("/*"):
			depth++
		case sc.eatStr("*/"):
			depth--
			if depth == 0 {
				return Span{start, sc.pos}, true
			}
		default:
			sc.pos++
		}
	}
	return Span{start, sc.pos}, false
}

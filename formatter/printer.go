// Copyright © 2025 The typls authors

package formatter

import (
	"strings"
)

type printer struct {
	buf      strings.Builder
	cfg      *Config
	depth    int  // open brace/bracket depth for indentation
	blankRun int  // consecutive blank lines emitted
	first    bool // nothing written yet (leading blanks are dropped)
}

func newPrinter(cfg *Config) *printer {
	return &printer{cfg: cfg, first: true}
}

// writeLine emits one markup line, re-indented by the current block
// depth and with blank runs capped at MaxBlankLines.
func (p *printer) writeLine(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		if p.first || p.blankRun >= p.cfg.MaxBlankLines {
			return
		}
		p.blankRun++
		p.buf.WriteString("\n")
		return
	}
	p.blankRun = 0
	p.first = false

	depth := p.depth
	// A line that starts by closing a block dedents itself.
	if strings.HasPrefix(trimmed, "}") || strings.HasPrefix(trimmed, "]") {
		depth--
	}
	if depth < 0 {
		depth = 0
	}
	p.buf.WriteString(strings.Repeat(" ", depth*p.cfg.IndentSize))
	p.buf.WriteString(trimmed)
	p.buf.WriteString("\n")
	p.depth += braceDelta(trimmed)
	if p.depth < 0 {
		p.depth = 0
	}
}

// writeRawLine emits a raw block line verbatim.
func (p *printer) writeRawLine(line string) {
	p.blankRun = 0
	p.first = false
	p.buf.WriteString(line)
	p.buf.WriteString("\n")
}

func (p *printer) String() string {
	return p.buf.String()
}

// braceDelta counts the net block nesting change of a line, ignoring
// braces inside strings and comments.
func braceDelta(line string) int {
	delta := 0
	inString := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return delta
		case c == '{' || c == '[':
			delta++
		case c == '}' || c == ']':
			delta--
		}
	}
	return delta
}

// Copyright © 2025 The typls authors

// Package formatter provides source code formatting for Typst files.
// The formatter is line oriented: it normalizes heading markers, list
// markers, and trailing whitespace, re-indents code blocks by brace
// depth, and collapses blank line runs. Raw blocks pass through
// untouched.
package formatter

import "strings"

// Format formats Typst source code. If cfg is nil, DefaultConfig() is
// used. Formatting is idempotent: formatting formatted output is a
// no-op.
func Format(source []byte, cfg *Config) ([]byte, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	pr := newPrinter(cfg)
	inRaw := false
	for _, line := range strings.Split(string(source), "\n") {
		if isFence(line) {
			// The fence line itself is indented with its block.
			pr.writeLine(strings.TrimRight(line, " \t"))
			inRaw = !inRaw
			continue
		}
		if inRaw {
			pr.writeRawLine(line)
			continue
		}
		pr.writeLine(formatLine(line))
	}

	result := pr.String()
	if len(strings.TrimSpace(result)) == 0 {
		return []byte{}, nil
	}
	// Exactly one trailing newline.
	return []byte(strings.TrimRight(result, "\n") + "\n"), nil
}

// FormatFile formats Typst source code; the filename is reserved for
// error messages.
func FormatFile(source []byte, _ string, cfg *Config) ([]byte, error) {
	return Format(source, cfg)
}

// isFence reports whether a line opens or closes a fenced raw block.
func isFence(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "```")
}

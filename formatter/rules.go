// Copyright © 2025 The typls authors

package formatter

import "strings"

// Config holds formatting configuration.
type Config struct {
	IndentSize    int // spaces per indent level (default: 2)
	MaxBlankLines int // max consecutive blank lines (default: 1)
}

// DefaultConfig returns the default formatting configuration.
func DefaultConfig() *Config {
	return &Config{
		IndentSize:    2,
		MaxBlankLines: 1,
	}
}

// formatLine applies the single-line rules: marker spacing and
// trailing whitespace removal. Indentation is the printer's job.
func formatLine(line string) string {
	trimmed := strings.TrimRight(line, " \t")
	stripped := strings.TrimLeft(trimmed, " \t")
	switch {
	case strings.HasPrefix(stripped, "="):
		return spaceAfterMarker(stripped, '=')
	case strings.HasPrefix(stripped, "- "), stripped == "-":
		return stripped
	default:
		return trimmed
	}
}

// spaceAfterMarker ensures exactly one space between a run of marker
// characters and the text that follows: "==Title" becomes "== Title".
func spaceAfterMarker(line string, marker byte) string {
	n := 0
	for n < len(line) && line[n] == marker {
		n++
	}
	rest := strings.TrimLeft(line[n:], " \t")
	if rest == "" {
		return line[:n]
	}
	return line[:n] + " " + rest
}

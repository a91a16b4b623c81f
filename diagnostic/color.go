// Copyright © 2025 The typls authors

package diagnostic

import "os"

// ColorMode controls when ANSI color codes are used.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // detect based on terminal and NO_COLOR
	ColorAlways                  // always use colors
	ColorNever                   // never use colors
)

// palette holds the escape sequences the renderer writes around each
// part of a diagnostic. The zero value renders plain text.
type palette struct {
	bold     string
	yellow   string
	boldRed  string
	boldBlue string
	boldCyan string
	reset    string
}

func (p palette) severity(s Severity) string {
	switch s {
	case SeverityWarning:
		return p.yellow
	case SeverityNote:
		return p.boldCyan
	default:
		return p.boldRed
	}
}

var ansiPalette = palette{
	bold:     "\033[1m",
	yellow:   "\033[33m",
	boldRed:  "\033[1;31m",
	boldBlue: "\033[1;34m",
	boldCyan: "\033[1;36m",
	reset:    "\033[0m",
}

// choosePalette selects a palette for the mode and output descriptor.
func choosePalette(mode ColorMode, w *os.File) palette {
	switch mode {
	case ColorAlways:
		return ansiPalette
	case ColorNever:
		return palette{}
	default:
		if os.Getenv("NO_COLOR") != "" || !isTerminal(w) {
			return palette{}
		}
		return ansiPalette
	}
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

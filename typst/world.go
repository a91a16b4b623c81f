// Copyright © 2025 The typls authors

// Package typst is the embedded typesetting engine: it parses and
// evaluates Typst sources into a document model and diagnostics. The
// engine reaches everything outside the main source through the World
// interface, so it is indifferent to where files and fonts come from.
package typst

import (
	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/workspace/fonts"
)

// World is the capability set a compilation runs against. Implementations
// are bound to one main file and one consistent view of the workspace;
// the engine never observes state newer than its World.
type World interface {
	// Library returns the engine standard library.
	Library() *Library
	// Book returns the font metadata available to the compilation.
	Book() *fonts.Book
	// Main returns the entry-point file of the compilation.
	Main() syntax.FileID
	// Source resolves a file identifier to a source buffer.
	Source(id syntax.FileID) (*syntax.Source, error)
	// File resolves a file identifier to raw bytes.
	File(id syntax.FileID) ([]byte, error)
	// Font materializes the face at a book slot index.
	Font(index int) *fonts.Font
	// Today returns the compilation date shifted by an hour offset, or
	// the local date when offset is nil. Offsets outside ±23 yield nil.
	Today(offset *int) *Datetime
	// Packages enumerates the external packages available for import.
	Packages() []syntax.PackageSpec
}

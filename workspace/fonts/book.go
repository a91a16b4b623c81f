// Copyright © 2025 The typls authors

// Package fonts enumerates the fonts available to the compiler: faces
// embedded in the binary, faces found in platform font directories, and
// faces under configured search paths. Face data loads lazily; the book
// of metadata is built up front so compilations can match families
// without touching font files.
package fonts

import "golang.org/x/image/font/sfnt"

// Style is the slant of a face.
type Style int

const (
	StyleNormal Style = iota
	StyleItalic
)

func (s Style) String() string {
	if s == StyleItalic {
		return "italic"
	}
	return "normal"
}

// Variant describes one face within a family.
type Variant struct {
	Style  Style
	Weight int // CSS-scale weight, 400 = regular, 700 = bold
}

// FontInfo is the metadata of one font slot.
type FontInfo struct {
	Family  string
	Variant Variant
}

// Book is the indexable metadata for every known font slot. Slot indexes
// are stable for the lifetime of one book generation; rebuilding the
// manager produces a new book.
type Book struct {
	infos []FontInfo
}

// Len returns the number of slots.
func (b *Book) Len() int { return len(b.infos) }

// Info returns the metadata of a slot, or nil if out of range.
func (b *Book) Info(index int) *FontInfo {
	if index < 0 || index >= len(b.infos) {
		return nil
	}
	return &b.infos[index]
}

// Select returns the slot index best matching a family and variant, or
// -1 when no slot has the family. Exact variant matches win; otherwise
// the closest weight with the requested style wins.
func (b *Book) Select(family string, variant Variant) int {
	best := -1
	bestScore := -1 << 30
	for i, info := range b.infos {
		if info.Family != family {
			continue
		}
		score := 0
		if info.Variant.Style == variant.Style {
			score += 1000
		}
		diff := info.Variant.Weight - variant.Weight
		if diff < 0 {
			diff = -diff
		}
		score -= diff
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// Families returns the distinct family names in slot order.
func (b *Book) Families() []string {
	seen := make(map[string]bool)
	var families []string
	for _, info := range b.infos {
		if !seen[info.Family] {
			seen[info.Family] = true
			families = append(families, info.Family)
		}
	}
	return families
}

// Font is a loaded face: the parsed sfnt plus the raw data when the face
// came from an embedded blob. Disk-backed faces parse straight from a
// memory-mapped reader and have no Data.
type Font struct {
	SFNT *sfnt.Font
	Data []byte
	Info FontInfo
}

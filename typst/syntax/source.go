// Copyright © 2025 The typls authors

package syntax

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// ErrOutOfRange reports a position outside the bounds of a Source.
var ErrOutOfRange = errors.New("position out of range")

// PositionEncoding selects the unit for the character component of an
// editor position: UTF-8 bytes or UTF-16 code units.
type PositionEncoding int

const (
	EncodingUTF8 PositionEncoding = iota
	EncodingUTF16
)

func (e PositionEncoding) String() string {
	if e == EncodingUTF8 {
		return "utf-8"
	}
	return "utf-16"
}

// lineEntry records the byte and UTF-16 offset at which a line starts.
type lineEntry struct {
	byteStart  int
	utf16Start int
}

// Source is a text buffer bound to a FileID, with indexes mapping between
// byte offsets, UTF-16 code units, lines, and columns. Edits reindex the
// buffer; readers treat the text as immutable between edits.
type Source struct {
	id    FileID
	text  string
	lines []lineEntry
}

// NewSource builds a Source for the given identifier and text.
func NewSource(id FileID, text string) *Source {
	s := &Source{id: id, text: text}
	s.reindex()
	return s
}

func (s *Source) reindex() {
	s.lines = s.lines[:0]
	s.lines = append(s.lines, lineEntry{0, 0})
	u16 := 0
	for i := 0; i < len(s.text); {
		r, size := utf8.DecodeRuneInString(s.text[i:])
		u16 += utf16.RuneLen(r)
		i += size
		if r == '\n' {
			s.lines = append(s.lines, lineEntry{i, u16})
		}
	}
}

// ID returns the file identifier the source is bound to.
func (s *Source) ID() FileID { return s.id }

// Text returns the full buffer contents.
func (s *Source) Text() string { return s.text }

// Len returns the buffer length in bytes.
func (s *Source) Len() int { return len(s.text) }

// LineCount returns the number of lines. An empty buffer has one line.
func (s *Source) LineCount() int { return len(s.lines) }

// LineToByte returns the byte offset at which the 0-based line starts.
func (s *Source) LineToByte(line int) (int, error) {
	if line < 0 || line >= len(s.lines) {
		return 0, fmt.Errorf("line %d: %w", line, ErrOutOfRange)
	}
	return s.lines[line].byteStart, nil
}

// ByteToLine returns the 0-based line containing the byte offset. The
// one-past-the-end offset belongs to the final line.
func (s *Source) ByteToLine(b int) (int, error) {
	if b < 0 || b > len(s.text) {
		return 0, fmt.Errorf("byte %d: %w", b, ErrOutOfRange)
	}
	return sort.Search(len(s.lines), func(i int) bool {
		return s.lines[i].byteStart > b
	}) - 1, nil
}

// ByteToColumn returns the byte column of the offset within its line.
func (s *Source) ByteToColumn(b int) (int, error) {
	line, err := s.ByteToLine(b)
	if err != nil {
		return 0, err
	}
	return b - s.lines[line].byteStart, nil
}

// ByteToUTF16 converts a byte offset to a UTF-16 code-unit offset.
func (s *Source) ByteToUTF16(b int) (int, error) {
	line, err := s.ByteToLine(b)
	if err != nil {
		return 0, err
	}
	entry := s.lines[line]
	u16 := entry.utf16Start
	for i := entry.byteStart; i < b; {
		r, size := utf8.DecodeRuneInString(s.text[i:])
		if i+size > b {
			return 0, fmt.Errorf("byte %d splits a rune: %w", b, ErrOutOfRange)
		}
		u16 += utf16.RuneLen(r)
		i += size
	}
	return u16, nil
}

// UTF16ToByte converts a UTF-16 code-unit offset to a byte offset.
func (s *Source) UTF16ToByte(u int) (int, error) {
	if u < 0 {
		return 0, fmt.Errorf("utf-16 offset %d: %w", u, ErrOutOfRange)
	}
	line := sort.Search(len(s.lines), func(i int) bool {
		return s.lines[i].utf16Start > u
	}) - 1
	entry := s.lines[line]
	u16 := entry.utf16Start
	i := entry.byteStart
	for u16 < u {
		if i >= len(s.text) {
			return 0, fmt.Errorf("utf-16 offset %d: %w", u, ErrOutOfRange)
		}
		r, size := utf8.DecodeRuneInString(s.text[i:])
		u16 += utf16.RuneLen(r)
		i += size
	}
	return i, nil
}

// PositionToByte computes the byte offset of an editor position under the
// given encoding. For UTF-8 the character is a byte column; for UTF-16 it
// counts code units from the line start.
func (s *Source) PositionToByte(line, character int, enc PositionEncoding) (int, error) {
	start, err := s.LineToByte(line)
	if err != nil {
		return 0, err
	}
	if enc == EncodingUTF8 {
		b := start + character
		if character < 0 || b > len(s.text) {
			return 0, fmt.Errorf("line %d character %d: %w", line, character, ErrOutOfRange)
		}
		return b, nil
	}
	u, err := s.ByteToUTF16(start)
	if err != nil {
		return 0, err
	}
	return s.UTF16ToByte(u + character)
}

// ByteToPosition computes the editor position of a byte offset under the
// given encoding. The inverse of PositionToByte.
func (s *Source) ByteToPosition(b int, enc PositionEncoding) (line, character int, err error) {
	line, err = s.ByteToLine(b)
	if err != nil {
		return 0, 0, err
	}
	if enc == EncodingUTF8 {
		return line, b - s.lines[line].byteStart, nil
	}
	u, err := s.ByteToUTF16(b)
	if err != nil {
		return 0, 0, err
	}
	return line, u - s.lines[line].utf16Start, nil
}

// Edit replaces the byte range [start, end) with insert and reindexes.
// end may equal the buffer length.
func (s *Source) Edit(start, end int, insert string) error {
	if start < 0 || end < start || end > len(s.text) {
		return fmt.Errorf("edit range [%d, %d): %w", start, end, ErrOutOfRange)
	}
	s.text = s.text[:start] + insert + s.text[end:]
	s.reindex()
	return nil
}

// Replace substitutes the whole buffer.
func (s *Source) Replace(text string) {
	s.text = text
	s.reindex()
}

// UTF16Len returns the code-unit length of a string, used when sizing
// ranges for clients that count UTF-16 units.
func UTF16Len(text string) int {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	return n
}

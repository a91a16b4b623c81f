// Copyright © 2025 The typls authors

// Package fs provides the workspace file providers: in-memory editor
// buffers, the local disk provider, and a read-through cache that unifies
// them behind one read interface keyed by URI.
package fs

import (
	"errors"
	"fmt"

	"github.com/typls/typls/uri"
)

// FileErrorKind classifies file access failures.
type FileErrorKind int

const (
	// NotFound means the URI has no backing file in this provider.
	NotFound FileErrorKind = iota
	// NotProvided means the provider does not hold the URI at all, as
	// opposed to holding it and failing to read it.
	NotProvided
	// Permission means the OS denied access.
	Permission
	// Malformed means the file exists but is not valid UTF-8 source.
	Malformed
	// OtherIO covers the remaining I/O failures.
	OtherIO
)

func (k FileErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case NotProvided:
		return "not provided"
	case Permission:
		return "permission denied"
	case Malformed:
		return "malformed utf-8"
	default:
		return "i/o error"
	}
}

// FileError is the error type returned by every provider read and write.
type FileError struct {
	Kind FileErrorKind
	URI  uri.URI
	Err  error
}

func (e *FileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.URI, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.URI, e.Kind)
}

func (e *FileError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a FileError of kind NotFound or
// NotProvided.
func IsNotFound(err error) bool {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe.Kind == NotFound || fe.Kind == NotProvided
	}
	return false
}

// Copyright © 2025 The typls authors

// Package syntax implements the Typst source model: file and package
// identifiers, virtual paths, sources with position indexes, and an
// error-tolerant lexer and parser.
package syntax

import (
	"fmt"
	"path"
	"strings"
)

// VirtualPath is a package-root-anchored path. It always begins with "/",
// uses "/" as the separator on every platform, and is lexically clean:
// "." and ".." segments are resolved at construction and segments that
// would escape the root are rejected.
type VirtualPath string

// NewVirtualPath builds a VirtualPath from a path that may or may not be
// rooted. The escape check runs on the raw segments, before cleaning:
// any ".." that would step above the root rejects the whole path, even
// though Clean would silently clamp it at "/".
func NewVirtualPath(p string) (VirtualPath, error) {
	norm := strings.ReplaceAll(p, "\\", "/")
	depth := 0
	for _, seg := range strings.Split(norm, "/") {
		switch seg {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return "", fmt.Errorf("path %q escapes the package root", p)
			}
		default:
			depth++
		}
	}
	return VirtualPath(path.Clean("/" + norm)), nil
}

// MustVirtualPath is NewVirtualPath for paths known to be valid, typically
// literals. It panics on escaping paths.
func MustVirtualPath(p string) VirtualPath {
	vp, err := NewVirtualPath(p)
	if err != nil {
		panic(err)
	}
	return vp
}

func (vp VirtualPath) String() string { return string(vp) }

// Name returns the final path segment.
func (vp VirtualPath) Name() string { return path.Base(string(vp)) }

// Dir returns the virtual path of the containing directory.
func (vp VirtualPath) Dir() VirtualPath { return VirtualPath(path.Dir(string(vp))) }

// Join resolves rel against the directory containing vp. Relative paths
// beginning with "/" are resolved against the package root instead. The
// result must stay inside the root.
func (vp VirtualPath) Join(rel string) (VirtualPath, error) {
	if strings.HasPrefix(rel, "/") {
		return NewVirtualPath(rel)
	}
	return NewVirtualPath(path.Dir(string(vp)) + "/" + rel)
}

// Components returns the path segments below the root. The root itself
// has no components.
func (vp VirtualPath) Components() []string {
	if vp == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(string(vp), "/"), "/")
}

// WithExtension returns a copy of vp with the final extension replaced.
// The extension is given without a leading dot.
func (vp VirtualPath) WithExtension(ext string) VirtualPath {
	s := string(vp)
	s = strings.TrimSuffix(s, path.Ext(s))
	return VirtualPath(s + "." + ext)
}

// Copyright © 2025 The typls authors

// Package uri converts between editor resource URIs and filesystem
// paths, and joins package-rooted virtual paths onto root URIs. URIs are
// the authoritative key for files inside the workspace; everything else
// is derived from them.
package uri

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/typls/typls/typst/syntax"
)

// URI identifies a workspace resource. Values are opaque, case-sensitive
// strings; the file scheme maps to local paths.
type URI string

func (u URI) String() string { return string(u) }

// FromPath converts an absolute filesystem path to a file URI. Relative
// paths and paths that are not valid UTF-8 are rejected.
func FromPath(p string) (URI, error) {
	if !filepath.IsAbs(p) {
		return "", fmt.Errorf("path %q is not absolute", p)
	}
	if !utf8.ValidString(p) {
		return "", fmt.Errorf("path %q is not valid UTF-8", p)
	}
	slashed := filepath.ToSlash(p)
	if !strings.HasPrefix(slashed, "/") {
		// Windows drive paths keep a leading slash in the URI path.
		slashed = "/" + slashed
	}
	u := url.URL{Scheme: "file", Path: slashed}
	return URI(u.String()), nil
}

// ToPath converts a file URI back to a filesystem path. Non-file schemes
// are rejected.
func ToPath(u URI) (string, error) {
	parsed, err := url.Parse(string(u))
	if err != nil {
		return "", fmt.Errorf("parse uri %q: %w", u, err)
	}
	if parsed.Scheme != "file" {
		return "", fmt.Errorf("uri %q is not a file uri", u)
	}
	p := parsed.Path
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		// Windows drive path: strip the synthetic leading slash.
		p = p[1:]
	}
	return filepath.FromSlash(p), nil
}

// Join appends a rooted virtual path to a root URI. The virtual path is
// already clean and cannot escape, but the result is still verified to
// stay under the root.
func Join(root URI, vp syntax.VirtualPath) (URI, error) {
	parsed, err := url.Parse(string(root))
	if err != nil {
		return "", fmt.Errorf("parse root uri %q: %w", root, err)
	}
	joined := path.Join(parsed.Path, string(vp))
	if joined != parsed.Path && !strings.HasPrefix(joined, strings.TrimSuffix(parsed.Path, "/")+"/") {
		return "", fmt.Errorf("path %q escapes root %q", vp, root)
	}
	parsed.Path = joined
	return URI(parsed.String()), nil
}

// MakeRelative computes the rooted virtual path of a URI under a root
// URI. URIs outside the root are rejected. The inverse of Join.
func MakeRelative(root, u URI) (syntax.VirtualPath, error) {
	rootURL, err := url.Parse(string(root))
	if err != nil {
		return "", fmt.Errorf("parse root uri %q: %w", root, err)
	}
	target, err := url.Parse(string(u))
	if err != nil {
		return "", fmt.Errorf("parse uri %q: %w", u, err)
	}
	if rootURL.Scheme != target.Scheme || rootURL.Host != target.Host {
		return "", fmt.Errorf("uri %q is not under root %q", u, root)
	}
	rootPath := strings.TrimSuffix(rootURL.Path, "/")
	if target.Path == rootPath {
		return syntax.NewVirtualPath("/")
	}
	rel, ok := strings.CutPrefix(target.Path, rootPath+"/")
	if !ok {
		return "", fmt.Errorf("uri %q is not under root %q", u, root)
	}
	return syntax.NewVirtualPath("/" + rel)
}

// WithExtension replaces the final extension of the URI's path. The
// extension is given without a leading dot.
func WithExtension(u URI, ext string) URI {
	s := string(u)
	if i := strings.LastIndexByte(s, '.'); i > strings.LastIndexByte(s, '/') {
		s = s[:i]
	}
	return URI(s + "." + ext)
}

// Components returns the path segments of the URI.
func Components(u URI) []string {
	parsed, err := url.Parse(string(u))
	if err != nil {
		return nil
	}
	trimmed := strings.Trim(parsed.Path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Copyright © 2025 The typls authors

package packages

import (
	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
)

// Package is a resolved package root. Joining and relativizing reject
// paths that leave the root.
type Package struct {
	Root uri.URI
}

// JoinPath maps a rooted in-package path to a URI under the root.
func (p *Package) JoinPath(vp syntax.VirtualPath) (uri.URI, error) {
	return uri.Join(p.Root, vp)
}

// Relativize maps a URI under the root back to a rooted in-package path.
func (p *Package) Relativize(u uri.URI) (syntax.VirtualPath, error) {
	return uri.MakeRelative(p.Root, u)
}

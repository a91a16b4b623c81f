// Copyright © 2025 The typls authors

package syntax

import (
	"fmt"
	"strings"
	"sync"
)

// PackageSpec identifies an external package: a namespace, a name, and a
// semver version rendered as "@namespace/name:version".
type PackageSpec struct {
	Namespace string
	Name      string
	Version   string
}

func (s PackageSpec) String() string {
	return fmt.Sprintf("@%s/%s:%s", s.Namespace, s.Name, s.Version)
}

// ParsePackageSpec parses the "@namespace/name:version" form.
func ParsePackageSpec(raw string) (PackageSpec, error) {
	rest, ok := strings.CutPrefix(raw, "@")
	if !ok {
		return PackageSpec{}, fmt.Errorf("package spec %q: missing @ prefix", raw)
	}
	ns, rest, ok := strings.Cut(rest, "/")
	if !ok || ns == "" {
		return PackageSpec{}, fmt.Errorf("package spec %q: missing namespace", raw)
	}
	name, version, ok := strings.Cut(rest, ":")
	if !ok || name == "" || version == "" {
		return PackageSpec{}, fmt.Errorf("package spec %q: missing name or version", raw)
	}
	return PackageSpec{Namespace: ns, Name: name, Version: version}, nil
}

// PackageID identifies a package: either a current workspace folder
// (identified by its root URI) or an external versioned package. IDs are
// interned; equal packages compare equal as values and share one
// underlying allocation. The zero PackageID is invalid.
type PackageID struct {
	desc *packageDesc
}

type packageDesc struct {
	root string // current package root URI; "" for external
	spec PackageSpec
}

var packageIntern = struct {
	sync.Mutex
	byRoot map[string]*packageDesc
	bySpec map[PackageSpec]*packageDesc
}{
	byRoot: make(map[string]*packageDesc),
	bySpec: make(map[PackageSpec]*packageDesc),
}

// CurrentPackage interns the package ID for a workspace folder root URI.
func CurrentPackage(rootURI string) PackageID {
	packageIntern.Lock()
	defer packageIntern.Unlock()
	if d, ok := packageIntern.byRoot[rootURI]; ok {
		return PackageID{d}
	}
	d := &packageDesc{root: rootURI}
	packageIntern.byRoot[rootURI] = d
	return PackageID{d}
}

// ExternalPackage interns the package ID for a versioned package spec.
func ExternalPackage(spec PackageSpec) PackageID {
	packageIntern.Lock()
	defer packageIntern.Unlock()
	if d, ok := packageIntern.bySpec[spec]; ok {
		return PackageID{d}
	}
	d := &packageDesc{spec: spec}
	packageIntern.bySpec[spec] = d
	return PackageID{d}
}

// IsCurrent reports whether the ID names a workspace folder package.
func (id PackageID) IsCurrent() bool { return id.desc != nil && id.desc.root != "" }

// IsExternal reports whether the ID names a versioned external package.
func (id PackageID) IsExternal() bool { return id.desc != nil && id.desc.root == "" }

// Root returns the root URI of a current package, or "" for external IDs.
func (id PackageID) Root() string {
	if id.desc == nil {
		return ""
	}
	return id.desc.root
}

// Spec returns the package spec of an external ID.
func (id PackageID) Spec() (PackageSpec, bool) {
	if !id.IsExternal() {
		return PackageSpec{}, false
	}
	return id.desc.spec, true
}

func (id PackageID) String() string {
	switch {
	case id.desc == nil:
		return "<invalid package>"
	case id.desc.root != "":
		return id.desc.root
	default:
		return id.desc.spec.String()
	}
}

// FileID is the canonical identity of a file: a package plus a rooted
// path within it. IDs are interned; equal (package, path) pairs share one
// allocation and compare equal as values. The zero FileID is invalid.
type FileID struct {
	desc *fileDesc
}

type fileDesc struct {
	pkg  PackageID
	path VirtualPath
}

type fileKey struct {
	pkg  PackageID
	path VirtualPath
}

var fileIntern = struct {
	sync.Mutex
	m map[fileKey]*fileDesc
}{m: make(map[fileKey]*fileDesc)}

// NewFileID interns the identifier for a path inside a package.
func NewFileID(pkg PackageID, path VirtualPath) FileID {
	key := fileKey{pkg, path}
	fileIntern.Lock()
	defer fileIntern.Unlock()
	if d, ok := fileIntern.m[key]; ok {
		return FileID{d}
	}
	d := &fileDesc{pkg: pkg, path: path}
	fileIntern.m[key] = d
	return FileID{d}
}

// IsValid reports whether the ID was produced by NewFileID.
func (id FileID) IsValid() bool { return id.desc != nil }

// Package returns the package component of the identifier.
func (id FileID) Package() PackageID { return id.desc.pkg }

// Path returns the rooted in-package path.
func (id FileID) Path() VirtualPath { return id.desc.path }

func (id FileID) String() string {
	if id.desc == nil {
		return "<invalid file>"
	}
	return id.desc.pkg.String() + id.desc.path.String()
}

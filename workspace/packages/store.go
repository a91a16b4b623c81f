// Copyright © 2025 The typls authors

package packages

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"

	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
)

// packagesSubdir is the layout below both store roots:
// <root>/typst/packages/<namespace>/<name>/<version>/<contents>.
const packagesSubdir = "typst/packages"

// LocalStore is one on-disk store of unpacked external packages.
type LocalStore struct {
	fs   afero.Fs
	root string // absolute path of the typst/packages directory
}

// NewLocalStore builds a store rooted at the given packages directory.
func NewLocalStore(filesystem afero.Fs, root string) *LocalStore {
	return &LocalStore{fs: filesystem, root: root}
}

// UserStoreRoot returns the per-user data-directory store root.
func UserStoreRoot() string {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, packagesSubdir)
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".local", "share", packagesSubdir)
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, packagesSubdir)
	}
	return filepath.Join(os.TempDir(), packagesSubdir)
}

// CacheStoreRoot returns the per-user cache-directory store root, where
// downloads land.
func CacheStoreRoot() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, packagesSubdir)
	}
	return filepath.Join(os.TempDir(), packagesSubdir)
}

// Dir returns the directory a spec unpacks into.
func (s *LocalStore) Dir(spec syntax.PackageSpec) string {
	return filepath.Join(s.root, spec.Namespace, spec.Name, spec.Version)
}

// Has reports whether the spec is present in the store.
func (s *LocalStore) Has(spec syntax.PackageSpec) bool {
	info, err := s.fs.Stat(s.Dir(spec))
	return err == nil && info.IsDir()
}

// RootURI returns the file URI of a spec's directory.
func (s *LocalStore) RootURI(spec syntax.PackageSpec) (uri.URI, error) {
	return uri.FromPath(s.Dir(spec))
}

// Contains resolves a URI under the store root into the spec it belongs
// to and the rooted path inside the package.
func (s *LocalStore) Contains(u uri.URI) (syntax.PackageSpec, syntax.VirtualPath, bool) {
	p, err := uri.ToPath(u)
	if err != nil {
		return syntax.PackageSpec{}, "", false
	}
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return syntax.PackageSpec{}, "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 4 {
		return syntax.PackageSpec{}, "", false
	}
	spec := syntax.PackageSpec{Namespace: parts[0], Name: parts[1], Version: parts[2]}
	vp, err := syntax.NewVirtualPath("/" + strings.Join(parts[3:], "/"))
	if err != nil {
		return syntax.PackageSpec{}, "", false
	}
	return spec, vp, true
}

// List enumerates every package version present in the store.
func (s *LocalStore) List() []syntax.PackageSpec {
	var specs []syntax.PackageSpec
	namespaces, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return nil
	}
	for _, ns := range namespaces {
		if !ns.IsDir() {
			continue
		}
		names, err := afero.ReadDir(s.fs, filepath.Join(s.root, ns.Name()))
		if err != nil {
			continue
		}
		for _, name := range names {
			if !name.IsDir() {
				continue
			}
			versions, err := afero.ReadDir(s.fs, filepath.Join(s.root, ns.Name(), name.Name()))
			if err != nil {
				continue
			}
			for _, version := range versions {
				if !version.IsDir() {
					continue
				}
				specs = append(specs, syntax.PackageSpec{
					Namespace: ns.Name(),
					Name:      name.Name(),
					Version:   version.Name(),
				})
			}
		}
	}
	return specs
}

// Manifest reads the typst.toml of a stored package.
func (s *LocalStore) Manifest(spec syntax.PackageSpec) (*Manifest, error) {
	return ReadManifest(s.fs, s.Dir(spec))
}

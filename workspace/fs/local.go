// Copyright © 2025 The typls authors

package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
)

// Resolver canonicalizes a URI into a file identifier. The package
// manager implements it; providers consult it whenever they construct a
// Source so that file identities agree everywhere.
type Resolver interface {
	FullID(u uri.URI) (syntax.FileID, error)
}

// Provider is the read side shared by all file providers.
type Provider interface {
	ReadBytes(u uri.URI) ([]byte, error)
	ReadSource(u uri.URI) (*syntax.Source, error)
}

// LocalProvider reads and writes on-disk files keyed by URI. It is
// stateless; all caching lives in Cache.
type LocalProvider struct {
	fs       afero.Fs
	resolver Resolver
}

// NewLocalProvider builds a provider over the given filesystem. Tests
// pass an afero.MemMapFs; production passes afero.NewOsFs().
func NewLocalProvider(filesystem afero.Fs, resolver Resolver) *LocalProvider {
	return &LocalProvider{fs: filesystem, resolver: resolver}
}

// ReadBytes reads the raw contents of the file behind the URI.
func (p *LocalProvider) ReadBytes(u uri.URI) ([]byte, error) {
	path, err := uri.ToPath(u)
	if err != nil {
		return nil, &FileError{Kind: OtherIO, URI: u, Err: err}
	}
	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return nil, classifyIO(u, err)
	}
	return data, nil
}

// ReadSource reads the file and constructs a Source bound to the
// resolver's identity for the URI. Non-UTF-8 contents are rejected.
func (p *LocalProvider) ReadSource(u uri.URI) (*syntax.Source, error) {
	data, err := p.ReadBytes(u)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, &FileError{Kind: Malformed, URI: u}
	}
	id, err := p.resolver.FullID(u)
	if err != nil {
		return nil, &FileError{Kind: OtherIO, URI: u, Err: err}
	}
	return syntax.NewSource(id, string(data)), nil
}

// WriteRaw writes bytes to the file behind the URI with atomic-replace
// semantics: the data lands in a temporary sibling that is renamed over
// the target. Parent directories are created as needed.
func (p *LocalProvider) WriteRaw(u uri.URI, data []byte) error {
	path, err := uri.ToPath(u)
	if err != nil {
		return &FileError{Kind: OtherIO, URI: u, Err: err}
	}
	dir := filepath.Dir(path)
	if err := p.fs.MkdirAll(dir, 0o755); err != nil {
		return classifyIO(u, err)
	}
	tmp, err := afero.TempFile(p.fs, dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return classifyIO(u, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = p.fs.Remove(tmpName)
		return classifyIO(u, err)
	}
	if err := tmp.Close(); err != nil {
		_ = p.fs.Remove(tmpName)
		return classifyIO(u, err)
	}
	if err := p.fs.Rename(tmpName, path); err != nil {
		_ = p.fs.Remove(tmpName)
		return classifyIO(u, err)
	}
	return nil
}

// classifyIO maps an OS error to the file-error taxonomy.
func classifyIO(u uri.URI, err error) *FileError {
	switch {
	case os.IsNotExist(err):
		return &FileError{Kind: NotFound, URI: u, Err: err}
	case os.IsPermission(err):
		return &FileError{Kind: Permission, URI: u, Err: err}
	default:
		return &FileError{Kind: OtherIO, URI: u, Err: fmt.Errorf("read %s: %w", u, err)}
	}
}

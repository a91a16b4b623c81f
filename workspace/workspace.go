// Copyright © 2025 The typls authors

// Package workspace ties the file providers, package manager, and font
// manager into one project view. Mutations go through the Workspace under
// a write lock; compilation reads through a Snapshot taken under a read
// lock, so a compile in flight never observes a half-applied edit.
package workspace

import (
	"context"
	"errors"
	"sync"

	"github.com/spf13/afero"

	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
	"github.com/typls/typls/workspace/fonts"
	"github.com/typls/typls/workspace/fs"
	"github.com/typls/typls/workspace/packages"
)

// Workspace owns the mutable project state.
type Workspace struct {
	mu sync.RWMutex

	lsp      *fs.LspProvider
	cache    *fs.Cache
	local    *fs.LocalProvider
	packages *packages.Manager
	fonts    *fonts.Manager
	roots    []uri.URI
}

// Option configures a Workspace.
type Option func(*config)

type config struct {
	fs        afero.Fs
	repo      packages.Repo
	fontPaths []string
}

// WithFs substitutes the backing filesystem. Tests use an in-memory Fs.
func WithFs(afs afero.Fs) Option {
	return func(c *config) { c.fs = afs }
}

// WithRepo substitutes the package download backend.
func WithRepo(repo packages.Repo) Option {
	return func(c *config) { c.repo = repo }
}

// WithFontPaths seeds extra font scan directories.
func WithFontPaths(paths []string) Option {
	return func(c *config) { c.fontPaths = paths }
}

// New builds a workspace over the given project roots.
func New(roots []uri.URI, opts ...Option) (*Workspace, error) {
	c := config{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(&c)
	}
	mgrOpts := []packages.Option{packages.WithStores(
		packages.NewLocalStore(c.fs, packages.UserStoreRoot()),
		packages.NewLocalStore(c.fs, packages.CacheStoreRoot()),
	)}
	if c.repo != nil {
		mgrOpts = append(mgrOpts, packages.WithRepo(c.repo))
	}
	mgr := packages.NewManager(roots, mgrOpts...)
	local := fs.NewLocalProvider(c.fs, mgr)
	cache := fs.NewCache(local)
	w := &Workspace{
		lsp:      fs.NewLspProvider(mgr),
		cache:    cache,
		local:    local,
		packages: mgr,
		fonts:    fonts.NewManager(c.fontPaths),
		roots:    append([]uri.URI(nil), roots...),
	}
	for _, root := range roots {
		cache.RegisterFiles(root)
	}
	return w, nil
}

// Roots returns the current project roots.
func (w *Workspace) Roots() []uri.URI {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]uri.URI(nil), w.roots...)
}

// Snapshot returns a read view of the workspace. The returned value holds
// the read lock until Release is called.
func (w *Workspace) Snapshot() *Snapshot {
	w.mu.RLock()
	return &Snapshot{w: w}
}

// OpenLSP registers an editor buffer for the URI. The buffer shadows the
// on-disk file until the document is closed.
func (w *Workspace) OpenLSP(u uri.URI, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lsp.Open(u, text)
}

// CloseLSP drops the editor buffer. Reads fall back to disk; the cache
// entry is invalidated so the next read sees the on-disk content.
func (w *Workspace) CloseLSP(u uri.URI) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lsp.Close(u)
	w.cache.Invalidate(u)
}

// EditLSP applies editor changes to an open buffer.
func (w *Workspace) EditLSP(u uri.URI, changes []fs.Change, enc syntax.PositionEncoding) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lsp.Edit(u, changes, enc)
}

// HandleFileEvent reacts to a watched-file notification. Deletions drop
// the cache entry entirely; creations and modifications invalidate it so
// the next read goes to disk.
func (w *Workspace) HandleFileEvent(u uri.URI, deleted bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if deleted {
		w.cache.Delete(u)
		return
	}
	w.cache.Invalidate(u)
}

// HandleFolderChange updates the project roots and rebuilds derived
// state. The cache is cleared because file identity depends on the root
// set.
func (w *Workspace) HandleFolderChange(added, removed []uri.URI) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.packages.HandleFolderChange(added, removed)
	w.roots = w.packages.CurrentRoots()
	w.cache.Clear()
	for _, root := range w.roots {
		w.cache.RegisterFiles(root)
	}
}

// SetFontPaths replaces the extra font directories and rescans.
func (w *Workspace) SetFontPaths(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fonts.SetFontPaths(paths)
}

// ClearCache drops all cached sources, font faces, and parse results.
func (w *Workspace) ClearCache() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cache.Clear()
	for _, root := range w.roots {
		w.cache.RegisterFiles(root)
	}
	w.fonts.Clear()
}

// WriteRaw writes bytes to disk, bypassing the cache, then invalidates
// the entry so subsequent reads observe the new content. Callers must not
// hold a Snapshot while writing.
func (w *Workspace) WriteRaw(u uri.URI, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.local.WriteRaw(u, data); err != nil {
		return err
	}
	w.cache.Invalidate(u)
	return nil
}

// Snapshot is a read-locked view used during compilation. It must be
// released promptly; mutations block until all snapshots are released.
type Snapshot struct {
	w    *Workspace
	once sync.Once
}

// Release drops the read lock. Safe to call more than once.
func (s *Snapshot) Release() {
	s.once.Do(func() {
		s.w.mu.RUnlock()
	})
}

// ReadSource reads a source file, preferring the editor buffer over the
// cached disk copy.
func (s *Snapshot) ReadSource(u uri.URI) (*syntax.Source, error) {
	if src, err := s.w.lsp.ReadSource(u); err == nil {
		return src, nil
	} else if !isNotProvided(err) {
		return nil, err
	}
	return s.w.cache.ReadSource(u)
}

// ReadBytes reads raw file bytes, preferring the editor buffer.
func (s *Snapshot) ReadBytes(u uri.URI) ([]byte, error) {
	if data, err := s.w.lsp.ReadBytes(u); err == nil {
		return data, nil
	} else if !isNotProvided(err) {
		return nil, err
	}
	return s.w.cache.ReadBytes(u)
}

// KnownURIs is the union of open buffers and registered disk files.
func (s *Snapshot) KnownURIs() []uri.URI {
	seen := make(map[uri.URI]struct{})
	var out []uri.URI
	for _, u := range s.w.lsp.KnownURIs() {
		seen[u] = struct{}{}
		out = append(out, u)
	}
	for _, u := range s.w.cache.KnownURIs() {
		if _, ok := seen[u]; !ok {
			out = append(out, u)
		}
	}
	return out
}

// Packages exposes the package manager for FileID resolution.
func (s *Snapshot) Packages() *packages.Manager { return s.w.packages }

// Fonts exposes the font manager.
func (s *Snapshot) Fonts() *fonts.Manager { return s.w.fonts }

// FullID resolves a URI to its canonical file identity.
func (s *Snapshot) FullID(u uri.URI) (syntax.FileID, error) {
	return s.w.packages.FullID(u)
}

// PackageRoot resolves a package spec to its root, downloading if needed.
func (s *Snapshot) PackageRoot(ctx context.Context, id syntax.PackageID) (*packages.Package, error) {
	return s.w.packages.Package(ctx, id)
}

func isNotProvided(err error) bool {
	var fe *fs.FileError
	if errors.As(err, &fe) {
		return fe.Kind == fs.NotProvided
	}
	return false
}

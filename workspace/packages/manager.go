// Copyright © 2025 The typls authors

package packages

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
)

// Manager resolves package identities. It owns the current-workspace
// package map, the user and cache stores, and the remote repository.
// Concurrent use is coordinated by the workspace facade's lock.
type Manager struct {
	current map[uri.URI]*Package
	user    *LocalStore
	cache   *LocalStore
	repo    Repo
}

// Option configures a Manager.
type Option func(*Manager)

// WithRepo replaces the remote repository, typically with a fake in
// tests.
func WithRepo(repo Repo) Option {
	return func(m *Manager) { m.repo = repo }
}

// WithStores replaces both local stores.
func WithStores(user, cache *LocalStore) Option {
	return func(m *Manager) { m.user, m.cache = user, cache }
}

// NewManager builds a manager with the platform-default stores and the
// real repository, seeded with the given workspace folder roots.
func NewManager(roots []uri.URI, opts ...Option) *Manager {
	osFs := afero.NewOsFs()
	m := &Manager{
		current: make(map[uri.URI]*Package),
		user:    NewLocalStore(osFs, UserStoreRoot()),
		cache:   NewLocalStore(osFs, CacheStoreRoot()),
		repo:    NewRemoteRepo(),
	}
	for _, o := range opts {
		o(m)
	}
	for _, root := range roots {
		m.current[root] = &Package{Root: root}
	}
	return m
}

// CurrentRoots returns the tracked workspace folder roots, sorted.
func (m *Manager) CurrentRoots() []uri.URI {
	roots := make([]uri.URI, 0, len(m.current))
	for root := range m.current {
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots
}

// Package resolves an ID to a package root. Current IDs must name a
// tracked folder. External IDs resolve against the user store, then the
// cache store, then a blocking download into the cache store.
func (m *Manager) Package(ctx context.Context, id syntax.PackageID) (*Package, error) {
	if id.IsCurrent() {
		root := uri.URI(id.Root())
		if pkg, ok := m.current[root]; ok {
			return pkg, nil
		}
		// Ad-hoc roots from single-file resolution are valid packages
		// even though no workspace folder tracks them.
		return &Package{Root: root}, nil
	}
	spec, ok := id.Spec()
	if !ok {
		return nil, fmt.Errorf("invalid package id")
	}
	for _, store := range []*LocalStore{m.user, m.cache} {
		if store.Has(spec) {
			root, err := store.RootURI(spec)
			if err != nil {
				return nil, err
			}
			return &Package{Root: root}, nil
		}
	}
	if err := m.repo.Download(ctx, spec, m.cache.Dir(spec)); err != nil {
		return nil, err
	}
	root, err := m.cache.RootURI(spec)
	if err != nil {
		return nil, err
	}
	return &Package{Root: root}, nil
}

// FullID canonicalizes a URI into its file identifier. External stores
// take precedence over current roots; among overlapping current roots
// the one yielding the longest relative path wins, so a file is
// identified by the project that sees the most of its directory
// structure. Ties break lexicographically on the root URI for
// determinism. URIs outside every known root resolve against an ad-hoc
// package rooted at their parent directory, so single files always
// compile.
func (m *Manager) FullID(u uri.URI) (syntax.FileID, error) {
	for _, store := range []*LocalStore{m.user, m.cache} {
		if spec, vp, ok := store.Contains(u); ok {
			return syntax.NewFileID(syntax.ExternalPackage(spec), vp), nil
		}
	}

	var (
		bestRoot  uri.URI
		bestPath  syntax.VirtualPath
		bestDepth = -1
	)
	for root := range m.current {
		vp, err := uri.MakeRelative(root, u)
		if err != nil {
			continue
		}
		depth := len(vp.Components())
		if depth > bestDepth || (depth == bestDepth && root < bestRoot) {
			bestRoot, bestPath, bestDepth = root, vp, depth
		}
	}
	if bestDepth >= 0 {
		return syntax.NewFileID(syntax.CurrentPackage(string(bestRoot)), bestPath), nil
	}

	root, name, err := splitParent(u)
	if err != nil {
		return syntax.FileID{}, err
	}
	vp, err := syntax.NewVirtualPath("/" + name)
	if err != nil {
		return syntax.FileID{}, err
	}
	return syntax.NewFileID(syntax.CurrentPackage(string(root)), vp), nil
}

// HandleFolderChange applies a workspace-folder change event. The caller
// clears workspace caches afterwards, since cached sources may carry
// identifiers minted under the old roots.
func (m *Manager) HandleFolderChange(added, removed []uri.URI) {
	for _, root := range removed {
		delete(m.current, root)
	}
	for _, root := range added {
		m.current[root] = &Package{Root: root}
	}
}

// Packages enumerates external packages installed in either store,
// deduplicated and sorted.
func (m *Manager) Packages() []syntax.PackageSpec {
	seen := make(map[syntax.PackageSpec]bool)
	var specs []syntax.PackageSpec
	for _, store := range []*LocalStore{m.user, m.cache} {
		for _, spec := range store.List() {
			if !seen[spec] {
				seen[spec] = true
				specs = append(specs, spec)
			}
		}
	}
	SortSpecs(specs)
	return specs
}

// Manifest reads the manifest of an installed external package, trying
// the user store first.
func (m *Manager) Manifest(spec syntax.PackageSpec) (*Manifest, error) {
	if m.user.Has(spec) {
		return m.user.Manifest(spec)
	}
	return m.cache.Manifest(spec)
}

// EntrypointID returns the FileID of an external package's main file per
// its manifest, defaulting to /lib.typ when no manifest is readable.
func (m *Manager) EntrypointID(spec syntax.PackageSpec) syntax.FileID {
	entry := defaultEntrypoint
	if manifest, err := m.Manifest(spec); err == nil {
		entry = manifest.Entrypoint()
	}
	vp, err := syntax.NewVirtualPath("/" + entry)
	if err != nil {
		vp = syntax.MustVirtualPath("/" + defaultEntrypoint)
	}
	return syntax.NewFileID(syntax.ExternalPackage(spec), vp)
}

// splitParent splits a file URI into its parent-directory URI and final
// path segment.
func splitParent(u uri.URI) (uri.URI, string, error) {
	parsed, err := url.Parse(string(u))
	if err != nil {
		return "", "", fmt.Errorf("parse uri %q: %w", u, err)
	}
	if parsed.Scheme != "file" {
		return "", "", fmt.Errorf("uri %q has no parent package", u)
	}
	dir, name := path.Split(parsed.Path)
	if name == "" {
		return "", "", fmt.Errorf("uri %q has no file name", u)
	}
	parsed.Path = strings.TrimSuffix(dir, "/")
	if parsed.Path == "" {
		parsed.Path = "/"
	}
	return uri.URI(parsed.String()), name, nil
}

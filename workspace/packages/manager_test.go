// Copyright © 2025 The typls authors

package packages

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
)

// countingRepo records downloads and materializes the package directory
// on an in-memory filesystem.
type countingRepo struct {
	fs    afero.Fs
	calls int
	files map[string]string // dir-relative path -> content
}

func (r *countingRepo) Download(_ context.Context, spec syntax.PackageSpec, dir string) error {
	r.calls++
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for rel, text := range r.files {
		if err := afero.WriteFile(r.fs, dir+"/"+rel, []byte(text), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func testManager(t *testing.T) (*Manager, *countingRepo, afero.Fs) {
	t.Helper()
	memfs := afero.NewMemMapFs()
	repo := &countingRepo{fs: memfs, files: map[string]string{"lib.typ": "#let x = 1\n"}}
	m := NewManager(
		[]uri.URI{"file:///proj"},
		WithStores(NewLocalStore(memfs, "/data/typst/packages"), NewLocalStore(memfs, "/cache/typst/packages")),
		WithRepo(repo),
	)
	return m, repo, memfs
}

func installPackage(t *testing.T, memfs afero.Fs, storeRoot string, spec syntax.PackageSpec, files map[string]string) {
	t.Helper()
	dir := storeRoot + "/" + spec.Namespace + "/" + spec.Name + "/" + spec.Version
	require.NoError(t, memfs.MkdirAll(dir, 0o755))
	for rel, text := range files {
		require.NoError(t, afero.WriteFile(memfs, dir+"/"+rel, []byte(text), 0o644))
	}
}

func TestPackageUserStorePrecedence(t *testing.T) {
	m, repo, memfs := testManager(t)
	spec := syntax.PackageSpec{Namespace: "preview", Name: "demo", Version: "0.1.0"}
	installPackage(t, memfs, "/data/typst/packages", spec, map[string]string{"lib.typ": "user copy\n"})
	installPackage(t, memfs, "/cache/typst/packages", spec, map[string]string{"lib.typ": "cache copy\n"})

	pkg, err := m.Package(context.Background(), syntax.ExternalPackage(spec))
	require.NoError(t, err)
	assert.Equal(t, uri.URI("file:///data/typst/packages/preview/demo/0.1.0"), pkg.Root)
	assert.Zero(t, repo.calls, "installed packages never hit the repository")
}

func TestPackageCacheStoreFallback(t *testing.T) {
	m, repo, memfs := testManager(t)
	spec := syntax.PackageSpec{Namespace: "preview", Name: "demo", Version: "0.1.0"}
	installPackage(t, memfs, "/cache/typst/packages", spec, map[string]string{"lib.typ": "cache copy\n"})

	pkg, err := m.Package(context.Background(), syntax.ExternalPackage(spec))
	require.NoError(t, err)
	assert.Equal(t, uri.URI("file:///cache/typst/packages/preview/demo/0.1.0"), pkg.Root)
	assert.Zero(t, repo.calls)
}

func TestPackageDownloadsIntoCache(t *testing.T) {
	m, repo, _ := testManager(t)
	spec := syntax.PackageSpec{Namespace: "preview", Name: "demo", Version: "0.1.0"}

	pkg, err := m.Package(context.Background(), syntax.ExternalPackage(spec))
	require.NoError(t, err)
	assert.Equal(t, uri.URI("file:///cache/typst/packages/preview/demo/0.1.0"), pkg.Root)
	assert.Equal(t, 1, repo.calls)

	// The unpacked copy satisfies later lookups without a second fetch.
	_, err = m.Package(context.Background(), syntax.ExternalPackage(spec))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
}

func TestPackageCurrentRoot(t *testing.T) {
	m, _, _ := testManager(t)
	pkg, err := m.Package(context.Background(), syntax.CurrentPackage("file:///proj"))
	require.NoError(t, err)
	assert.Equal(t, uri.URI("file:///proj"), pkg.Root)

	// Ad-hoc roots from single-file compiles resolve without tracking.
	pkg, err = m.Package(context.Background(), syntax.CurrentPackage("file:///tmp/scratch"))
	require.NoError(t, err)
	assert.Equal(t, uri.URI("file:///tmp/scratch"), pkg.Root)
}

func TestFullIDStoreWinsOverRoot(t *testing.T) {
	memfs := afero.NewMemMapFs()
	spec := syntax.PackageSpec{Namespace: "preview", Name: "demo", Version: "0.1.0"}
	installPackage(t, memfs, "/proj/store/typst/packages", spec, map[string]string{"lib.typ": "x\n"})
	m := NewManager(
		[]uri.URI{"file:///proj"},
		WithStores(NewLocalStore(memfs, "/proj/store/typst/packages"), NewLocalStore(memfs, "/cache/typst/packages")),
	)

	id, err := m.FullID("file:///proj/store/typst/packages/preview/demo/0.1.0/lib.typ")
	require.NoError(t, err)
	gotSpec, ok := id.Package().Spec()
	require.True(t, ok)
	assert.Equal(t, spec, gotSpec)
	assert.Equal(t, syntax.MustVirtualPath("/lib.typ"), id.Path())
}

func TestFullIDLongestRelativePathWins(t *testing.T) {
	m := NewManager(
		[]uri.URI{"file:///proj", "file:///proj/sub"},
		WithStores(NewLocalStore(afero.NewMemMapFs(), "/data/typst/packages"), NewLocalStore(afero.NewMemMapFs(), "/cache/typst/packages")),
	)

	// Both roots contain the file. The outer root sees more of its path,
	// so it identifies the file.
	id, err := m.FullID("file:///proj/sub/main.typ")
	require.NoError(t, err)
	assert.Equal(t, "file:///proj", id.Package().Root())
	assert.Equal(t, syntax.MustVirtualPath("/sub/main.typ"), id.Path())

	id, err = m.FullID("file:///proj/sub/deep/ch/a.typ")
	require.NoError(t, err)
	assert.Equal(t, "file:///proj", id.Package().Root())
	assert.Equal(t, syntax.MustVirtualPath("/sub/deep/ch/a.typ"), id.Path())

	// Only the outer root contains this one.
	id, err = m.FullID("file:///proj/other.typ")
	require.NoError(t, err)
	assert.Equal(t, "file:///proj", id.Package().Root())
}

func TestFullIDAdHocParent(t *testing.T) {
	m, _, _ := testManager(t)
	id, err := m.FullID("file:///tmp/notes/draft.typ")
	require.NoError(t, err)
	assert.Equal(t, "file:///tmp/notes", id.Package().Root())
	assert.Equal(t, syntax.MustVirtualPath("/draft.typ"), id.Path())
}

func TestHandleFolderChange(t *testing.T) {
	m, _, _ := testManager(t)
	m.HandleFolderChange([]uri.URI{"file:///second"}, nil)
	assert.Equal(t, []uri.URI{"file:///proj", "file:///second"}, m.CurrentRoots())

	m.HandleFolderChange(nil, []uri.URI{"file:///proj"})
	assert.Equal(t, []uri.URI{"file:///second"}, m.CurrentRoots())

	id, err := m.FullID("file:///second/main.typ")
	require.NoError(t, err)
	assert.Equal(t, "file:///second", id.Package().Root())
}

func TestPackagesListsBothStores(t *testing.T) {
	m, _, memfs := testManager(t)
	older := syntax.PackageSpec{Namespace: "preview", Name: "demo", Version: "0.1.0"}
	newer := syntax.PackageSpec{Namespace: "preview", Name: "demo", Version: "0.2.0"}
	installPackage(t, memfs, "/data/typst/packages", older, map[string]string{"lib.typ": "x\n"})
	installPackage(t, memfs, "/cache/typst/packages", older, map[string]string{"lib.typ": "x\n"})
	installPackage(t, memfs, "/cache/typst/packages", newer, map[string]string{"lib.typ": "x\n"})

	assert.Equal(t, []syntax.PackageSpec{newer, older}, m.Packages())
}

func TestEntrypointID(t *testing.T) {
	m, _, memfs := testManager(t)
	spec := syntax.PackageSpec{Namespace: "preview", Name: "demo", Version: "0.1.0"}
	installPackage(t, memfs, "/cache/typst/packages", spec, map[string]string{
		"typst.toml":   "[package]\nname = \"demo\"\nversion = \"0.1.0\"\nentrypoint = \"src/main.typ\"\n",
		"src/main.typ": "#let x = 1\n",
	})
	id := m.EntrypointID(spec)
	assert.Equal(t, syntax.MustVirtualPath("/src/main.typ"), id.Path())

	// Without a manifest the conventional entrypoint applies.
	bare := syntax.PackageSpec{Namespace: "preview", Name: "bare", Version: "1.0.0"}
	assert.Equal(t, syntax.MustVirtualPath("/lib.typ"), m.EntrypointID(bare).Path())
}

func TestParseSpec(t *testing.T) {
	spec, err := ParseSpec("@preview/demo:0.1.0")
	require.NoError(t, err)
	assert.Equal(t, syntax.PackageSpec{Namespace: "preview", Name: "demo", Version: "0.1.0"}, spec)

	_, err = ParseSpec("@preview/demo:not-a-version")
	assert.Error(t, err)
}

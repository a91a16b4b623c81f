// Copyright © 2025 The typls authors

package fs_test

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
	"github.com/typls/typls/workspace/fs"
)

// pathResolver maps URIs under a fixed root to project-relative ids.
type pathResolver struct {
	root string
}

func (r pathResolver) FullID(u uri.URI) (syntax.FileID, error) {
	p, err := uri.ToPath(u)
	if err != nil {
		return syntax.FileID{}, err
	}
	rel := strings.TrimPrefix(p, r.root)
	pkg := syntax.CurrentPackage("file://" + r.root)
	return syntax.NewFileID(pkg, syntax.MustVirtualPath(rel)), nil
}

func newLocal(t *testing.T, files map[string]string) (*fs.LocalProvider, afero.Fs) {
	t.Helper()
	mem := afero.NewMemMapFs()
	for name, text := range files {
		require.NoError(t, afero.WriteFile(mem, "/proj"+name, []byte(text), 0o644))
	}
	return fs.NewLocalProvider(mem, pathResolver{root: "/proj"}), mem
}

func mustURI(t *testing.T, path string) uri.URI {
	t.Helper()
	u, err := uri.FromPath(path)
	require.NoError(t, err)
	return u
}

func TestLocalReadSource(t *testing.T) {
	local, _ := newLocal(t, map[string]string{"/main.typ": "= Title\n"})
	src, err := local.ReadSource(mustURI(t, "/proj/main.typ"))
	require.NoError(t, err)
	assert.Equal(t, "= Title\n", src.Text())
	assert.True(t, src.ID().IsValid())
}

func TestLocalReadMissing(t *testing.T) {
	local, _ := newLocal(t, nil)
	_, err := local.ReadBytes(mustURI(t, "/proj/absent.typ"))
	require.Error(t, err)
	assert.True(t, fs.IsNotFound(err))
}

func TestLocalReadInvalidUTF8(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/proj/bad.typ", []byte{0xff, 0xfe, 0x00}, 0o644))
	local := fs.NewLocalProvider(mem, pathResolver{root: "/proj"})
	u := mustURI(t, "/proj/bad.typ")

	_, err := local.ReadSource(u)
	var fe *fs.FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fs.Malformed, fe.Kind)

	// Raw reads do not validate encoding.
	data, err := local.ReadBytes(u)
	require.NoError(t, err)
	assert.Len(t, data, 3)
}

func TestWriteRawRoundTrip(t *testing.T) {
	local, _ := newLocal(t, nil)
	u := mustURI(t, "/proj/out/report.pdf")

	require.NoError(t, local.WriteRaw(u, []byte("%PDF-1.7")))
	data, err := local.ReadBytes(u)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))

	require.NoError(t, local.WriteRaw(u, []byte("%PDF-2.0")))
	data, err = local.ReadBytes(u)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-2.0", string(data))
}

func TestCacheMemoizesSource(t *testing.T) {
	local, mem := newLocal(t, map[string]string{"/main.typ": "one\n"})
	cache := fs.NewCache(local)
	u := mustURI(t, "/proj/main.typ")

	first, err := cache.ReadSource(u)
	require.NoError(t, err)
	second, err := cache.ReadSource(u)
	require.NoError(t, err)
	assert.Same(t, first, second)

	// A disk write alone does not refresh the cached copy.
	require.NoError(t, afero.WriteFile(mem, "/proj/main.typ", []byte("two\n"), 0o644))
	stale, err := cache.ReadSource(u)
	require.NoError(t, err)
	assert.Equal(t, "one\n", stale.Text())

	cache.Invalidate(u)
	fresh, err := cache.ReadSource(u)
	require.NoError(t, err)
	assert.Equal(t, "two\n", fresh.Text())
}

func TestCacheInvalidateIsPerURI(t *testing.T) {
	local, mem := newLocal(t, map[string]string{
		"/notes.md": "scratch\n",
		"/main.typ": "kept\n",
	})
	cache := fs.NewCache(local)
	notes := mustURI(t, "/proj/notes.md")
	main := mustURI(t, "/proj/main.typ")

	_, err := cache.ReadBytes(notes)
	require.NoError(t, err)
	keep, err := cache.ReadSource(main)
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(mem, "/proj/notes.md", []byte("changed\n"), 0o644))
	cache.Invalidate(notes)

	data, err := cache.ReadBytes(notes)
	require.NoError(t, err)
	assert.Equal(t, "changed\n", string(data))

	// Other entries keep their memoized sources.
	again, err := cache.ReadSource(main)
	require.NoError(t, err)
	assert.Same(t, keep, again)
}

func TestCacheDeleteDropsEntry(t *testing.T) {
	local, _ := newLocal(t, map[string]string{"/main.typ": "text\n"})
	cache := fs.NewCache(local)
	u := mustURI(t, "/proj/main.typ")

	_, err := cache.ReadSource(u)
	require.NoError(t, err)
	assert.Contains(t, cache.KnownURIs(), u)

	cache.Delete(u)
	assert.NotContains(t, cache.KnownURIs(), u)
}

func TestRegisterFiles(t *testing.T) {
	local, _ := newLocal(t, map[string]string{
		"/main.typ":          "a\n",
		"/chapters/one.typ":  "b\n",
		"/notes.txt":         "not typst\n",
		"/assets/figure.svg": "<svg/>\n",
	})
	cache := fs.NewCache(local)

	require.NoError(t, cache.RegisterFiles(mustURI(t, "/proj")))
	assert.ElementsMatch(t, []uri.URI{
		mustURI(t, "/proj/main.typ"),
		mustURI(t, "/proj/chapters/one.typ"),
	}, cache.KnownURIs())
}

func TestLspProviderLifecycle(t *testing.T) {
	p := fs.NewLspProvider(pathResolver{root: "/proj"})
	u := mustURI(t, "/proj/main.typ")

	require.NoError(t, p.Open(u, "= Hello\nworld\n"))
	src, err := p.ReadSource(u)
	require.NoError(t, err)
	assert.Equal(t, "= Hello\nworld\n", src.Text())

	err = p.Edit(u, []fs.Change{{
		Start: &fs.Position{Line: 0, Character: 2},
		End:   &fs.Position{Line: 0, Character: 7},
		Text:  "Edited",
	}}, syntax.EncodingUTF16)
	require.NoError(t, err)
	src, err = p.ReadSource(u)
	require.NoError(t, err)
	assert.Equal(t, "= Edited\nworld\n", src.Text())

	err = p.Edit(u, []fs.Change{{Text: "fresh\n"}}, syntax.EncodingUTF16)
	require.NoError(t, err)
	data, err := p.ReadBytes(u)
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", string(data))

	assert.Equal(t, []uri.URI{u}, p.KnownURIs())
	p.Close(u)
	_, err = p.ReadSource(u)
	assert.True(t, fs.IsNotFound(err))
}

func TestEditUnopened(t *testing.T) {
	p := fs.NewLspProvider(pathResolver{root: "/proj"})
	err := p.Edit(mustURI(t, "/proj/main.typ"), []fs.Change{{Text: "x"}}, syntax.EncodingUTF16)
	var fe *fs.FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fs.NotProvided, fe.Kind)
}

func TestFileErrorText(t *testing.T) {
	u := mustURI(t, "/proj/main.typ")
	fe := &fs.FileError{Kind: fs.Permission, URI: u}
	assert.Contains(t, fe.Error(), "permission denied")
	assert.False(t, fs.IsNotFound(fe))
	assert.True(t, fs.IsNotFound(&fs.FileError{Kind: fs.NotFound, URI: u}))
}

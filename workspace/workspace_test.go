// Copyright © 2025 The typls authors

package workspace_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/typstest"
	"github.com/typls/typls/uri"
	"github.com/typls/typls/workspace/fs"
)

func readText(t *testing.T, p *typstest.Project, rel string) string {
	t.Helper()
	snap := p.Ws.Snapshot()
	defer snap.Release()
	src, err := snap.ReadSource(p.URI(rel))
	require.NoError(t, err)
	return src.Text()
}

func TestOpenBufferShadowsDisk(t *testing.T) {
	p := typstest.NewProject(t, map[string]string{
		"main.typ": "on disk\n",
	})
	u := p.URI("main.typ")

	assert.Equal(t, "on disk\n", readText(t, p, "main.typ"))

	require.NoError(t, p.Ws.OpenLSP(u, "in editor\n"))
	assert.Equal(t, "in editor\n", readText(t, p, "main.typ"))

	p.Ws.CloseLSP(u)
	assert.Equal(t, "on disk\n", readText(t, p, "main.typ"))
}

func TestEditLSP(t *testing.T) {
	p := typstest.NewProject(t, map[string]string{
		"main.typ": "unused\n",
	})
	u := p.URI("main.typ")
	require.NoError(t, p.Ws.OpenLSP(u, "= Hello\nworld\n"))

	err := p.Ws.EditLSP(u, []fs.Change{{
		Start: &fs.Position{Line: 0, Character: 2},
		End:   &fs.Position{Line: 0, Character: 7},
		Text:  "Edited",
	}}, syntax.EncodingUTF16)
	require.NoError(t, err)
	assert.Equal(t, "= Edited\nworld\n", readText(t, p, "main.typ"))

	// A change without a range replaces the whole document.
	err = p.Ws.EditLSP(u, []fs.Change{{Text: "fresh\n"}}, syntax.EncodingUTF16)
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", readText(t, p, "main.typ"))
}

func TestEditLSPUnopened(t *testing.T) {
	p := typstest.NewProject(t, map[string]string{
		"main.typ": "text\n",
	})
	err := p.Ws.EditLSP(p.URI("main.typ"), []fs.Change{{Text: "x"}}, syntax.EncodingUTF16)
	assert.Error(t, err)
}

func TestHandleFileEvent(t *testing.T) {
	p := typstest.NewProject(t, map[string]string{
		"main.typ": "before\n",
	})
	u := p.URI("main.typ")
	assert.Equal(t, "before\n", readText(t, p, "main.typ"))

	// An external write followed by a change event invalidates the cached
	// copy.
	require.NoError(t, afero.WriteFile(p.Fs, "/proj/main.typ", []byte("after\n"), 0o644))
	p.Ws.HandleFileEvent(u, false)
	assert.Equal(t, "after\n", readText(t, p, "main.typ"))

	require.NoError(t, p.Fs.Remove("/proj/main.typ"))
	p.Ws.HandleFileEvent(u, true)
	snap := p.Ws.Snapshot()
	defer snap.Release()
	_, err := snap.ReadSource(u)
	assert.Error(t, err)
}

func TestKnownURIs(t *testing.T) {
	p := typstest.NewProject(t, map[string]string{
		"main.typ": "= Main\n",
		"lib.typ":  "#let x = 1\n",
	})
	scratch := p.URI("scratch.typ")
	require.NoError(t, p.Ws.OpenLSP(scratch, "draft\n"))
	// main.typ is both on disk and open; the union must not list it twice.
	require.NoError(t, p.Ws.OpenLSP(p.URI("main.typ"), "= Main v2\n"))

	snap := p.Ws.Snapshot()
	defer snap.Release()
	uris := snap.KnownURIs()
	assert.Contains(t, uris, p.URI("main.typ"))
	assert.Contains(t, uris, p.URI("lib.typ"))
	assert.Contains(t, uris, scratch)
	seen := make(map[uri.URI]int)
	for _, u := range uris {
		seen[u]++
	}
	assert.Equal(t, 1, seen[p.URI("main.typ")])
}

func TestHandleFolderChange(t *testing.T) {
	p := typstest.NewProject(t, map[string]string{
		"main.typ": "= Main\n",
	})
	otherRoot := "/other"
	require.NoError(t, p.Fs.MkdirAll(otherRoot, 0o755))
	require.NoError(t, afero.WriteFile(p.Fs, "/other/doc.typ", []byte("= Other\n"), 0o644))
	other, err := uri.FromPath(otherRoot)
	require.NoError(t, err)
	docURI, err := uri.Join(other, syntax.MustVirtualPath("/doc.typ"))
	require.NoError(t, err)

	p.Ws.HandleFolderChange([]uri.URI{other}, nil)
	assert.ElementsMatch(t, []uri.URI{p.Root, other}, p.Ws.Roots())
	snap := p.Ws.Snapshot()
	id, err := snap.FullID(docURI)
	require.NoError(t, err)
	assert.Equal(t, string(other), id.Package().Root())
	snap.Release()

	p.Ws.HandleFolderChange(nil, []uri.URI{other})
	assert.Equal(t, []uri.URI{p.Root}, p.Ws.Roots())
}

func TestWriteRaw(t *testing.T) {
	p := typstest.NewProject(t, map[string]string{
		"main.typ": "old\n",
	})
	require.NoError(t, p.Ws.WriteRaw(p.URI("main.typ"), []byte("new\n")))
	assert.Equal(t, "new\n", readText(t, p, "main.typ"))

	data, err := afero.ReadFile(p.Fs, "/proj/main.typ")
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))
}

func TestClearCache(t *testing.T) {
	p := typstest.NewProject(t, map[string]string{
		"main.typ": "stale\n",
	})
	assert.Equal(t, "stale\n", readText(t, p, "main.typ"))
	require.NoError(t, afero.WriteFile(p.Fs, "/proj/main.typ", []byte("fresh\n"), 0o644))
	p.Ws.ClearCache()
	assert.Equal(t, "fresh\n", readText(t, p, "main.typ"))
}

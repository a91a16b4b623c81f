// Copyright © 2025 The typls authors

package uri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typls/typls/typst/syntax"
)

func TestFromPathRoundTrip(t *testing.T) {
	paths := []string{
		"/proj/main.typ",
		"/proj/sub dir/chapter one.typ",
		"/docs/汉字/main.typ",
		"/proj/emoji-🦀.typ",
	}
	for _, p := range paths {
		u, err := FromPath(p)
		require.NoError(t, err, p)
		got, err := ToPath(u)
		require.NoError(t, err, p)
		assert.Equal(t, p, got, "round trip changed the path")
	}
}

func TestFromPathRejectsRelative(t *testing.T) {
	_, err := FromPath("relative/main.typ")
	assert.Error(t, err)
}

func TestToPathRejectsNonFile(t *testing.T) {
	_, err := ToPath("https://example.com/main.typ")
	assert.Error(t, err)
}

func TestJoin(t *testing.T) {
	u, err := Join("file:///proj", syntax.MustVirtualPath("/lib/util.typ"))
	require.NoError(t, err)
	assert.Equal(t, URI("file:///proj/lib/util.typ"), u)
}

func TestJoinTrailingSlashRoot(t *testing.T) {
	u, err := Join("file:///proj/", syntax.MustVirtualPath("/main.typ"))
	require.NoError(t, err)
	assert.Equal(t, URI("file:///proj/main.typ"), u)
}

func TestMakeRelative(t *testing.T) {
	vp, err := MakeRelative("file:///proj", "file:///proj/lib/util.typ")
	require.NoError(t, err)
	assert.Equal(t, syntax.VirtualPath("/lib/util.typ"), vp)
}

func TestMakeRelativeInverseOfJoin(t *testing.T) {
	root := URI("file:///proj")
	vp := syntax.MustVirtualPath("/chapters/ch1.typ")
	u, err := Join(root, vp)
	require.NoError(t, err)
	back, err := MakeRelative(root, u)
	require.NoError(t, err)
	assert.Equal(t, vp, back)
}

func TestMakeRelativeOutsideRoot(t *testing.T) {
	_, err := MakeRelative("file:///proj", "file:///other/main.typ")
	assert.Error(t, err)

	// A sibling with the root as a name prefix is not under the root.
	_, err = MakeRelative("file:///proj", "file:///project/main.typ")
	assert.Error(t, err)
}

func TestWithExtension(t *testing.T) {
	assert.Equal(t, URI("file:///proj/main.pdf"), WithExtension("file:///proj/main.typ", "pdf"))
	// No extension on the final segment: one is appended.
	assert.Equal(t, URI("file:///proj.d/main.pdf"), WithExtension("file:///proj.d/main", "pdf"))
}

func TestComponents(t *testing.T) {
	assert.Equal(t, []string{"proj", "lib", "util.typ"}, Components("file:///proj/lib/util.typ"))
	assert.Nil(t, Components("file:///"))
}

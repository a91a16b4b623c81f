// Copyright © 2025 The typls authors

package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileIDInterning(t *testing.T) {
	pkg := CurrentPackage("file:///proj")
	a := NewFileID(pkg, MustVirtualPath("/main.typ"))
	b := NewFileID(pkg, MustVirtualPath("/main.typ"))
	c := NewFileID(pkg, MustVirtualPath("/other.typ"))

	assert.Equal(t, a, b)
	assert.True(t, a == b, "interned IDs must compare equal as values")
	assert.NotEqual(t, a, c)
	assert.True(t, a.IsValid())
	assert.False(t, FileID{}.IsValid())
}

func TestPackageIDKinds(t *testing.T) {
	cur := CurrentPackage("file:///proj")
	assert.True(t, cur.IsCurrent())
	assert.False(t, cur.IsExternal())
	assert.Equal(t, "file:///proj", cur.Root())

	spec := PackageSpec{Namespace: "preview", Name: "example", Version: "0.1.0"}
	ext := ExternalPackage(spec)
	assert.True(t, ext.IsExternal())
	got, ok := ext.Spec()
	require.True(t, ok)
	assert.Equal(t, spec, got)
	assert.Equal(t, "@preview/example:0.1.0", ext.String())
}

func TestParsePackageSpec(t *testing.T) {
	spec, err := ParsePackageSpec("@preview/cetz:0.2.0")
	require.NoError(t, err)
	assert.Equal(t, PackageSpec{Namespace: "preview", Name: "cetz", Version: "0.2.0"}, spec)

	for _, raw := range []string{"preview/cetz:0.2.0", "@/cetz:0.2.0", "@preview/cetz", "@preview/:0.2.0"} {
		_, err := ParsePackageSpec(raw)
		assert.Error(t, err, raw)
	}
}

func TestVirtualPath(t *testing.T) {
	vp, err := NewVirtualPath("lib/../main.typ")
	require.NoError(t, err)
	assert.Equal(t, VirtualPath("/main.typ"), vp)

	joined, err := MustVirtualPath("/chapters/ch1.typ").Join("figures/plot.typ")
	require.NoError(t, err)
	assert.Equal(t, VirtualPath("/chapters/figures/plot.typ"), joined)

	// Parent segments that stay inside the root are fine.
	up, err := MustVirtualPath("/chapters/ch1.typ").Join("../lib/util.typ")
	require.NoError(t, err)
	assert.Equal(t, VirtualPath("/lib/util.typ"), up)

	rooted, err := MustVirtualPath("/chapters/ch1.typ").Join("/lib/util.typ")
	require.NoError(t, err)
	assert.Equal(t, VirtualPath("/lib/util.typ"), rooted)

	assert.Equal(t, VirtualPath("/main.pdf"), MustVirtualPath("/main.typ").WithExtension("pdf"))
}

func TestVirtualPathRejectsEscapes(t *testing.T) {
	for _, p := range []string{
		"..",
		"../outside.typ",
		"../../etc/passwd",
		"a/../../outside.typ",
		"..\\win.typ",
	} {
		_, err := NewVirtualPath(p)
		assert.Error(t, err, p)
	}

	_, err := MustVirtualPath("/main.typ").Join("../outside.typ")
	assert.Error(t, err)
	_, err = MustVirtualPath("/a/b.typ").Join("../../../outside.typ")
	assert.Error(t, err)
}

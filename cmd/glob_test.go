// Copyright © 2025 The typls authors

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestExpandArgs_Passthrough(t *testing.T) {
	out, err := expandArgs([]string{"main.typ", "other.typ"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.typ", "other.typ"}, out)
}

func TestExpandArgs_Recursive(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.typ":         "= M\n",
		"sub/chapter.typ":  "= C\n",
		"sub/notes.txt":    "not typst",
		"assets/image.png": "png",
	})

	out, err := expandArgs([]string{root + "/..."}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "main.typ"),
		filepath.Join(root, "sub", "chapter.typ"),
	}, out)
}

func TestExpandArgs_ExcludeByName(t *testing.T) {
	out, err := expandArgs([]string{
		"src/main.typ",
		"src/generated.typ",
		"lib/util.typ",
	}, []string{"generated.typ"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.typ", "lib/util.typ"}, out)
}

func TestExpandArgs_ExcludeByDirectory(t *testing.T) {
	out, err := expandArgs([]string{
		"src/main.typ",
		"build/out.typ",
		"build/sub/deep.typ",
	}, []string{"build"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.typ"}, out)
}

func TestExpandArgs_ExcludeGlobPattern(t *testing.T) {
	out, err := expandArgs([]string{
		"src/main.typ",
		"src/gen_a.typ",
		"src/gen_b.typ",
	}, []string{"gen_*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.typ"}, out)
}

func TestExpandArgs_MissingDirectory(t *testing.T) {
	_, err := expandArgs([]string{"/does/not/exist/..."}, nil)
	assert.Error(t, err)
}

func TestExcluded_BaseName(t *testing.T) {
	assert.True(t, excluded("deep/nested/skip.typ", []string{"skip.typ"}))
	assert.False(t, excluded("deep/nested/keep.typ", []string{"skip.typ"}))
}

func TestExcluded_Component(t *testing.T) {
	assert.True(t, excluded("project/build/out.typ", []string{"build"}))
	assert.False(t, excluded("project/src/out.typ", []string{"build"}))
}

func TestExcluded_Empty(t *testing.T) {
	assert.False(t, excluded("anything.typ", nil))
}

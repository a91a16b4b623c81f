// Copyright © 2025 The typls authors

package typst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typls/typls/typst/syntax"
)

func memoID(path string) syntax.FileID {
	pkg := syntax.CurrentPackage("file:///proj")
	return syntax.NewFileID(pkg, syntax.MustVirtualPath(path))
}

func TestMemoParseReusesTree(t *testing.T) {
	EvictAll()
	id := memoID("/memo.typ")

	first := memoParse(id, "= Title\n")
	second := memoParse(id, "= Title\n")
	assert.Same(t, first, second, "unchanged text should hit the cache")

	third := memoParse(id, "= Changed\n")
	assert.NotSame(t, first, third, "changed text should reparse")
}

func TestEvictDropsStaleEntries(t *testing.T) {
	EvictAll()
	stale := memoID("/stale.typ")
	fresh := memoID("/fresh.typ")

	memoParse(stale, "= Stale\n")
	for range 3 {
		advanceGeneration()
	}
	memoParse(fresh, "= Fresh\n")

	Evict(2)

	memo.Lock()
	_, staleOK := memo.entries[stale]
	_, freshOK := memo.entries[fresh]
	memo.Unlock()
	assert.False(t, staleOK, "stale entry should be evicted")
	assert.True(t, freshOK, "recently touched entry should survive")
}

func TestEvictAll(t *testing.T) {
	id := memoID("/doc.typ")
	memoParse(id, "= T\n")
	EvictAll()

	memo.Lock()
	n := len(memo.entries)
	memo.Unlock()
	require.Zero(t, n)
}

func TestDatetimeDisplay(t *testing.T) {
	d := &Datetime{Year: 2024, Month: 3, Day: 7}
	assert.Equal(t, "2024-03-07", d.Display())
}

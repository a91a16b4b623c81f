// Copyright © 2025 The typls authors

package typst

import (
	"sync"

	"github.com/typls/typls/typst/syntax"
)

// The engine keeps a global generation-stamped parse cache. Every
// compilation advances the generation and re-stamps the entries it
// touches; Evict drops entries untouched for too many generations. The
// compile executor serializes all engine entry so the cache behaves
// deterministically, but the table is still locked for safety.
var memo = struct {
	sync.Mutex
	gen     uint64
	entries map[syntax.FileID]*memoEntry
}{entries: make(map[syntax.FileID]*memoEntry)}

type memoEntry struct {
	text string
	root *syntax.Node
	gen  uint64
}

// advanceGeneration starts a new compilation epoch.
func advanceGeneration() {
	memo.Lock()
	defer memo.Unlock()
	memo.gen++
}

// memoParse returns the cached parse for the file if its text is
// unchanged, parsing and caching otherwise. The entry is re-stamped with
// the current generation either way.
func memoParse(id syntax.FileID, text string) *syntax.Node {
	memo.Lock()
	defer memo.Unlock()
	if e, ok := memo.entries[id]; ok && e.text == text {
		e.gen = memo.gen
		return e.root
	}
	root := syntax.Parse(text)
	memo.entries[id] = &memoEntry{text: text, root: root, gen: memo.gen}
	return root
}

// Evict drops cache entries last touched more than maxAge generations
// ago, bounding the memoization tables of a long-running server.
func Evict(maxAge uint64) {
	memo.Lock()
	defer memo.Unlock()
	for id, e := range memo.entries {
		if memo.gen-e.gen > maxAge {
			delete(memo.entries, id)
		}
	}
}

// EvictAll empties the parse cache. Used by the clear-cache command.
func EvictAll() {
	memo.Lock()
	defer memo.Unlock()
	memo.entries = make(map[syntax.FileID]*memoEntry)
}

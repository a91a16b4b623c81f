// Copyright © 2025 The typls authors

package fs

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
)

// typstExtension is the source-file extension pre-registered by
// RegisterFiles.
const typstExtension = ".typ"

// sourceSlot lazily materializes a Source at most once until the entry is
// invalidated.
type sourceSlot struct {
	once sync.Once
	src  *syntax.Source
	err  error
}

// bytesSlot lazily materializes a byte read at most once until the entry
// is invalidated.
type bytesSlot struct {
	once sync.Once
	data []byte
	err  error
}

type cacheEntry struct {
	source *sourceSlot
	bytes  *bytesSlot
}

func newCacheEntry() *cacheEntry {
	return &cacheEntry{source: &sourceSlot{}, bytes: &bytesSlot{}}
}

// Cache memoizes source and byte reads from a local provider by URI.
// Read-through population is concurrency-safe and at-most-once per slot;
// Invalidate, Delete, Clear, and RegisterFiles require the workspace
// writer lock, which the facade enforces.
type Cache struct {
	local *LocalProvider

	mu      sync.Mutex // guards the entries map, not slot population
	entries map[uri.URI]*cacheEntry
}

// NewCache builds an empty cache over the local provider.
func NewCache(local *LocalProvider) *Cache {
	return &Cache{
		local:   local,
		entries: make(map[uri.URI]*cacheEntry),
	}
}

func (c *Cache) entry(u uri.URI) *cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[u]
	if !ok {
		e = newCacheEntry()
		c.entries[u] = e
	}
	return e
}

// ReadSource returns the memoized source for the URI, reading it on
// first access.
func (c *Cache) ReadSource(u uri.URI) (*syntax.Source, error) {
	slot := c.entry(u).source
	slot.once.Do(func() {
		slot.src, slot.err = c.local.ReadSource(u)
	})
	return slot.src, slot.err
}

// ReadBytes returns the memoized bytes for the URI, reading them on
// first access.
func (c *Cache) ReadBytes(u uri.URI) ([]byte, error) {
	slot := c.entry(u).bytes
	slot.once.Do(func() {
		slot.data, slot.err = c.local.ReadBytes(u)
	})
	return slot.data, slot.err
}

// Invalidate drops both lazy slots for the URI but keeps the entry, so a
// later read rematerializes from disk.
func (c *Cache) Invalidate(u uri.URI) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[u]; ok {
		c.entries[u] = newCacheEntry()
	}
}

// Delete removes the entry entirely.
func (c *Cache) Delete(u uri.URI) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, u)
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uri.URI]*cacheEntry)
}

// RegisterFiles walks the root and pre-creates empty entries for every
// Typst source file under it, so KnownURIs covers the whole workspace
// before anything is read.
func (c *Cache) RegisterFiles(root uri.URI) error {
	rootPath, err := uri.ToPath(root)
	if err != nil {
		return err
	}
	return afero.Walk(c.local.fs, rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable subtrees are skipped, not fatal
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(path), typstExtension) {
			return nil
		}
		u, err := uri.FromPath(path)
		if err != nil {
			return nil
		}
		c.mu.Lock()
		if _, ok := c.entries[u]; !ok {
			c.entries[u] = newCacheEntry()
		}
		c.mu.Unlock()
		return nil
	})
}

// KnownURIs returns every URI with a cache entry, registered or read.
func (c *Cache) KnownURIs() []uri.URI {
	c.mu.Lock()
	defer c.mu.Unlock()
	uris := make([]uri.URI, 0, len(c.entries))
	for u := range c.entries {
		uris = append(uris, u)
	}
	return uris
}

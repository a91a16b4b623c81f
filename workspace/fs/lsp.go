// Copyright © 2025 The typls authors

package fs

import (
	"fmt"

	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
)

// Change is one content change from a didChange notification: either a
// ranged replacement (Start and End set) or a whole-document replacement
// (both nil).
type Change struct {
	Start *Position
	End   *Position
	Text  string
}

// Position is an editor position whose Character unit depends on the
// negotiated encoding.
type Position struct {
	Line      int
	Character int
}

// LspProvider holds the sources of documents currently open in the
// editor. An open buffer shadows the on-disk file with the same URI.
type LspProvider struct {
	resolver Resolver
	sources  map[uri.URI]*syntax.Source
}

// NewLspProvider builds an empty editor-buffer provider.
func NewLspProvider(resolver Resolver) *LspProvider {
	return &LspProvider{
		resolver: resolver,
		sources:  make(map[uri.URI]*syntax.Source),
	}
}

// Open inserts a buffer for the URI with the given text. The URI must be
// resolvable to a file identifier.
func (p *LspProvider) Open(u uri.URI, text string) error {
	id, err := p.resolver.FullID(u)
	if err != nil {
		return fmt.Errorf("open %s: %w", u, err)
	}
	p.sources[u] = syntax.NewSource(id, text)
	return nil
}

// Close removes the buffer. Closing an unopened URI is a no-op.
func (p *LspProvider) Close(u uri.URI) {
	delete(p.sources, u)
}

// Edit applies content changes in order to the buffer. Ranged changes
// convert their positions to byte offsets under the given encoding.
func (p *LspProvider) Edit(u uri.URI, changes []Change, enc syntax.PositionEncoding) error {
	src, ok := p.sources[u]
	if !ok {
		return &FileError{Kind: NotProvided, URI: u}
	}
	for _, change := range changes {
		if change.Start == nil || change.End == nil {
			src.Replace(change.Text)
			continue
		}
		start, err := src.PositionToByte(change.Start.Line, change.Start.Character, enc)
		if err != nil {
			return fmt.Errorf("edit %s: %w", u, err)
		}
		end, err := src.PositionToByte(change.End.Line, change.End.Character, enc)
		if err != nil {
			return fmt.Errorf("edit %s: %w", u, err)
		}
		if err := src.Edit(start, end, change.Text); err != nil {
			return fmt.Errorf("edit %s: %w", u, err)
		}
	}
	return nil
}

// ReadSource returns the buffered source for the URI.
func (p *LspProvider) ReadSource(u uri.URI) (*syntax.Source, error) {
	src, ok := p.sources[u]
	if !ok {
		return nil, &FileError{Kind: NotProvided, URI: u}
	}
	return src, nil
}

// ReadBytes returns the UTF-8 bytes of the buffered source.
func (p *LspProvider) ReadBytes(u uri.URI) ([]byte, error) {
	src, err := p.ReadSource(u)
	if err != nil {
		return nil, err
	}
	return []byte(src.Text()), nil
}

// KnownURIs returns the URIs of all open buffers.
func (p *LspProvider) KnownURIs() []uri.URI {
	uris := make([]uri.URI, 0, len(p.sources))
	for u := range p.sources {
		uris = append(uris, u)
	}
	return uris
}

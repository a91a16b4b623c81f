// Copyright © 2025 The typls authors

package lsp

import (
	"context"
	"errors"
	"sort"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/typls/typls/typst"
	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
	"github.com/typls/typls/workspace"
)

var errInvalidFileID = errors.New("invalid file id")

// publisher pushes diagnostics to the client and remembers which URIs
// carried diagnostics last time, so stale ones are cleared explicitly.
type publisher struct {
	mu   sync.Mutex
	last map[string]bool
	send func(method string, params any)
}

func newPublisher(send func(method string, params any)) *publisher {
	return &publisher{
		last: make(map[string]bool),
		send: send,
	}
}

// publish sends a batch. URIs published last round but absent from this
// batch receive an empty publication first, so editors drop markers for
// files whose problems went away.
func (p *publisher) publish(batch map[string][]protocol.Diagnostic) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var stale []string
	for u := range p.last {
		if _, ok := batch[u]; !ok {
			stale = append(stale, u)
		}
	}
	sort.Strings(stale)
	for _, u := range stale {
		p.send(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
			URI:         u,
			Diagnostics: []protocol.Diagnostic{},
		})
	}

	next := make(map[string]bool, len(batch))
	uris := make([]string, 0, len(batch))
	for u := range batch {
		uris = append(uris, u)
		next[u] = true
	}
	sort.Strings(uris)
	for _, u := range uris {
		diags := batch[u]
		if diags == nil {
			diags = []protocol.Diagnostic{}
		}
		p.send(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
			URI:         u,
			Diagnostics: diags,
		})
	}
	p.last = next
}

// clearAll publishes empty diagnostics for every tracked URI.
func (p *publisher) clearAll() {
	p.publish(map[string][]protocol.Diagnostic{})
}

// convertDiagnostics groups engine diagnostics by file URI and converts
// spans to editor ranges under the current encoding. The main URI is
// always present in the batch, so a clean compile clears its markers.
func (s *Server) convertDiagnostics(snap *workspace.Snapshot, main uri.URI, diags []typst.Diagnostic) map[string][]protocol.Diagnostic {
	enc := s.encoding()
	batch := map[string][]protocol.Diagnostic{
		string(main): {},
	}
	for _, d := range diags {
		u, err := fileURI(snap, d.ID)
		if err != nil {
			u = main
		}
		batch[string(u)] = append(batch[string(u)], s.convertDiagnostic(snap, u, d, enc))
	}
	return batch
}

func (s *Server) convertDiagnostic(snap *workspace.Snapshot, u uri.URI, d typst.Diagnostic, enc syntax.PositionEncoding) protocol.Diagnostic {
	sev := mapSeverity(d.Severity)
	diag := protocol.Diagnostic{
		Range:    s.rangeIn(snap, u, d.Span, enc),
		Severity: &sev,
		Source:   strPtr("typst"),
		Message:  d.Message,
	}
	for _, entry := range d.Trace {
		tu, err := fileURI(snap, entry.ID)
		if err != nil {
			continue
		}
		diag.RelatedInformation = append(diag.RelatedInformation, protocol.DiagnosticRelatedInformation{
			Location: protocol.Location{
				URI:   string(tu),
				Range: s.rangeIn(snap, tu, entry.Span, enc),
			},
			Message: entry.Message,
		})
	}
	return diag
}

// rangeIn converts a span within the named file, falling back to a zero
// range when the file cannot be read.
func (s *Server) rangeIn(snap *workspace.Snapshot, u uri.URI, span syntax.Span, enc syntax.PositionEncoding) protocol.Range {
	src, err := snap.ReadSource(u)
	if err != nil {
		return protocol.Range{}
	}
	return spanToRange(src, span, enc)
}

// fileURI maps a file identifier back to a URI through the snapshot's
// package manager. External packages resolve without downloading here;
// the compile that produced the diagnostic already fetched them.
func fileURI(snap *workspace.Snapshot, id syntax.FileID) (uri.URI, error) {
	if !id.IsValid() {
		return "", errInvalidFileID
	}
	pkg := id.Package()
	if pkg.IsCurrent() {
		return uri.Join(uri.URI(pkg.Root()), id.Path())
	}
	p, err := snap.PackageRoot(context.Background(), pkg)
	if err != nil {
		return "", err
	}
	return uri.Join(p.Root, id.Path())
}

func mapSeverity(sev typst.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case typst.SeverityError:
		return protocol.DiagnosticSeverityError
	case typst.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityHint
	}
}

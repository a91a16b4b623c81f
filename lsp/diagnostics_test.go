// Copyright © 2025 The typls authors

package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/typls/typls/typst"
	"github.com/typls/typls/typst/syntax"
)

// capturingPublisher returns a publisher plus the ordered list of
// publications it sent.
func capturingPublisher() (*publisher, *[]*protocol.PublishDiagnosticsParams) {
	var sent []*protocol.PublishDiagnosticsParams
	p := newPublisher(func(method string, params any) {
		if method == protocol.ServerTextDocumentPublishDiagnostics {
			sent = append(sent, params.(*protocol.PublishDiagnosticsParams))
		}
	})
	return p, &sent
}

func oneDiag(msg string) []protocol.Diagnostic {
	return []protocol.Diagnostic{{Message: msg}}
}

func TestPublisherSortsBatch(t *testing.T) {
	p, sent := capturingPublisher()

	p.publish(map[string][]protocol.Diagnostic{
		"file:///b.typ": oneDiag("b"),
		"file:///a.typ": oneDiag("a"),
	})

	require.Len(t, *sent, 2)
	assert.Equal(t, "file:///a.typ", (*sent)[0].URI)
	assert.Equal(t, "file:///b.typ", (*sent)[1].URI)
}

func TestPublisherClearsStale(t *testing.T) {
	p, sent := capturingPublisher()

	p.publish(map[string][]protocol.Diagnostic{
		"file:///a.typ": oneDiag("a"),
		"file:///b.typ": oneDiag("b"),
	})
	*sent = nil

	p.publish(map[string][]protocol.Diagnostic{
		"file:///b.typ": oneDiag("b2"),
	})

	// The URI that dropped out of the batch is cleared before the batch
	// itself is published.
	require.Len(t, *sent, 2)
	assert.Equal(t, "file:///a.typ", (*sent)[0].URI)
	assert.Empty(t, (*sent)[0].Diagnostics)
	assert.Equal(t, "file:///b.typ", (*sent)[1].URI)
	require.Len(t, (*sent)[1].Diagnostics, 1)
	assert.Equal(t, "b2", (*sent)[1].Diagnostics[0].Message)
}

func TestPublisherNilDiagsBecomeEmpty(t *testing.T) {
	p, sent := capturingPublisher()

	p.publish(map[string][]protocol.Diagnostic{"file:///a.typ": nil})

	require.Len(t, *sent, 1)
	assert.NotNil(t, (*sent)[0].Diagnostics)
	assert.Empty(t, (*sent)[0].Diagnostics)
}

func TestPublisherClearAll(t *testing.T) {
	p, sent := capturingPublisher()

	p.publish(map[string][]protocol.Diagnostic{
		"file:///a.typ": oneDiag("a"),
		"file:///b.typ": oneDiag("b"),
	})
	*sent = nil

	p.clearAll()

	require.Len(t, *sent, 2)
	assert.Equal(t, "file:///a.typ", (*sent)[0].URI)
	assert.Empty(t, (*sent)[0].Diagnostics)
	assert.Equal(t, "file:///b.typ", (*sent)[1].URI)
	assert.Empty(t, (*sent)[1].Diagnostics)

	// A second clear has nothing left to publish.
	*sent = nil
	p.clearAll()
	assert.Empty(t, *sent)
}

func TestConvertDiagnosticsMainAlwaysPresent(t *testing.T) {
	s, p := testServer(t, map[string]string{"main.typ": "= T\n"})
	u := p.URI("main.typ")

	snap := s.ws.Snapshot()
	defer snap.Release()
	batch := s.convertDiagnostics(snap, u, nil)

	require.Contains(t, batch, string(u))
	assert.Empty(t, batch[string(u)])
}

func TestConvertDiagnosticsGroupsByFile(t *testing.T) {
	s, p := testServer(t, map[string]string{
		"main.typ":  "= Main\n",
		"other.typ": "= Other\n",
	})
	main := p.URI("main.typ")
	other := p.URI("other.typ")

	snap := s.ws.Snapshot()
	defer snap.Release()
	mainID, err := snap.FullID(main)
	require.NoError(t, err)
	otherID, err := snap.FullID(other)
	require.NoError(t, err)

	batch := s.convertDiagnostics(snap, main, []typst.Diagnostic{
		{Severity: typst.SeverityError, ID: mainID, Span: syntax.Span{Start: 0, End: 1}, Message: "in main"},
		{Severity: typst.SeverityWarning, ID: otherID, Span: syntax.Span{Start: 2, End: 7}, Message: "in other"},
	})

	require.Len(t, batch, 2)
	require.Len(t, batch[string(main)], 1)
	require.Len(t, batch[string(other)], 1)
	assert.Equal(t, "in main", batch[string(main)][0].Message)
	assert.Equal(t, "in other", batch[string(other)][0].Message)

	d := batch[string(other)][0]
	require.NotNil(t, d.Severity)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *d.Severity)
	require.NotNil(t, d.Source)
	assert.Equal(t, "typst", *d.Source)
	assert.Equal(t, protocol.Position{Line: 0, Character: 2}, d.Range.Start)
	assert.Equal(t, protocol.Position{Line: 0, Character: 7}, d.Range.End)
}

func TestConvertDiagnosticsInvalidIDFallsBackToMain(t *testing.T) {
	s, p := testServer(t, map[string]string{"main.typ": "= T\n"})
	main := p.URI("main.typ")

	snap := s.ws.Snapshot()
	defer snap.Release()
	batch := s.convertDiagnostics(snap, main, []typst.Diagnostic{
		{Severity: typst.SeverityError, Message: "lost"},
	})

	require.Len(t, batch, 1)
	require.Len(t, batch[string(main)], 1)
	assert.Equal(t, "lost", batch[string(main)][0].Message)
}

func TestConvertDiagnosticTrace(t *testing.T) {
	s, p := testServer(t, map[string]string{
		"main.typ": "#include \"part.typ\"\n",
		"part.typ": "= Part\n",
	})
	main := p.URI("main.typ")
	part := p.URI("part.typ")

	snap := s.ws.Snapshot()
	defer snap.Release()
	mainID, err := snap.FullID(main)
	require.NoError(t, err)
	partID, err := snap.FullID(part)
	require.NoError(t, err)

	batch := s.convertDiagnostics(snap, main, []typst.Diagnostic{{
		Severity: typst.SeverityError,
		ID:       partID,
		Span:     syntax.Span{Start: 0, End: 1},
		Message:  "broken",
		Trace: []typst.TraceEntry{{
			ID:      mainID,
			Span:    syntax.Span{Start: 0, End: 8},
			Message: "included from here",
		}},
	}})

	require.Len(t, batch[string(part)], 1)
	d := batch[string(part)][0]
	require.Len(t, d.RelatedInformation, 1)
	assert.Equal(t, string(main), d.RelatedInformation[0].Location.URI)
	assert.Equal(t, "included from here", d.RelatedInformation[0].Message)
}

func TestMapSeverity(t *testing.T) {
	assert.Equal(t, protocol.DiagnosticSeverityError, mapSeverity(typst.SeverityError))
	assert.Equal(t, protocol.DiagnosticSeverityWarning, mapSeverity(typst.SeverityWarning))
	assert.Equal(t, protocol.DiagnosticSeverityHint, mapSeverity(typst.SeverityHint))
}

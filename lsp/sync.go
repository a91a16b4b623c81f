// Copyright © 2025 The typls authors

package lsp

import (
	"context"
	"path"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/typls/typls/typst"
	"github.com/typls/typls/typst/pdf"
	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
	"github.com/typls/typls/workspace/fs"
)

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	u := uri.URI(params.TextDocument.URI)
	if err := s.ws.OpenLSP(u, params.TextDocument.Text); err != nil {
		return err
	}
	s.compile(u, false)
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	u := uri.URI(params.TextDocument.URI)

	var changes []fs.Change
	for _, raw := range params.ContentChanges {
		switch c := raw.(type) {
		case protocol.TextDocumentContentChangeEvent:
			change := fs.Change{Text: c.Text}
			if c.Range != nil {
				change.Start = &fs.Position{Line: int(c.Range.Start.Line), Character: int(c.Range.Start.Character)}
				change.End = &fs.Position{Line: int(c.Range.End.Line), Character: int(c.Range.End.Character)}
			}
			changes = append(changes, change)
		case protocol.TextDocumentContentChangeEventWhole:
			changes = append(changes, fs.Change{Text: c.Text})
		}
	}
	if err := s.ws.EditLSP(u, changes, s.encoding()); err != nil {
		return err
	}

	s.compile(u, s.config().ExportPdf == ExportOnType)
	return nil
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	u := uri.URI(params.TextDocument.URI)
	s.compile(u, s.config().ExportPdf == ExportOnSave)
	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.
func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.captureNotify(ctx)
	s.ws.CloseLSP(uri.URI(params.TextDocument.URI))
	return nil
}

// workspaceDidChangeWatchedFiles reacts to on-disk changes reported by
// the client's watcher.
func (s *Server) workspaceDidChangeWatchedFiles(ctx *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	s.captureNotify(ctx)
	for _, event := range params.Changes {
		deleted := event.Type == protocol.FileChangeTypeDeleted
		s.ws.HandleFileEvent(uri.URI(event.URI), deleted)
	}
	return nil
}

// workspaceDidChangeWorkspaceFolders updates the tracked project roots.
func (s *Server) workspaceDidChangeWorkspaceFolders(ctx *glsp.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	s.captureNotify(ctx)
	var added, removed []uri.URI
	for _, folder := range params.Event.Added {
		added = append(added, uri.URI(folder.URI))
	}
	for _, folder := range params.Event.Removed {
		removed = append(removed, uri.URI(folder.URI))
	}
	s.ws.HandleFolderChange(added, removed)
	return nil
}

// workspaceDidChangeConfiguration merges new settings and applies side
// effects: font rescans and the position encoding fallback.
func (s *Server) workspaceDidChangeConfiguration(ctx *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	s.captureNotify(ctx)

	// Clients that support workspace/configuration may send empty
	// settings as a hint to pull the current values instead.
	if params.Settings == nil && s.pullConfig {
		go s.pullConfiguration(ctx)
		return nil
	}
	s.applySettings(ctx, params.Settings)
	return nil
}

// applySettings merges a raw settings object and reacts to the values
// that changed.
func (s *Server) applySettings(ctx *glsp.Context, raw any) {
	s.cfgMu.Lock()
	old := s.cfg
	s.cfg.Merge(raw)
	s.enc = s.cfg.Encoding()
	cfg := s.cfg
	s.cfgMu.Unlock()

	if !equalPaths(old.FontPaths, cfg.FontPaths) {
		s.ws.SetFontPaths(cfg.FontPaths)
	}
	go s.updateSemanticTokensRegistration(ctx, old, cfg)
}

// pullConfiguration requests the current settings section from the
// client and applies it.
func (s *Server) pullConfiguration(ctx *glsp.Context) {
	section := "typst-lsp"
	var result []any
	ctx.Call("workspace/configuration", protocol.ConfigurationParams{
		Items: []protocol.ConfigurationItem{{Section: &section}},
	}, &result)
	if len(result) > 0 && result[0] != nil {
		s.applySettings(ctx, result[0])
	}
}

// compile submits a compile of the document (or the pinned main) and
// publishes the outcome asynchronously.
func (s *Server) compile(trigger uri.URI, export bool) {
	if s.exec == nil {
		return
	}
	main := s.mainFor(trigger)
	ch := s.exec.Compile(context.Background(), main)
	go func() {
		res := <-ch
		if res.Err != nil {
			// The main URI could not be resolved at all; nothing to
			// locate a diagnostic in.
			log.Errorf("compile %s: %s", main, res.Err)
			return
		}
		snap := s.ws.Snapshot()
		batch := s.convertDiagnostics(snap, main, res.Diagnostics)
		snap.Release()
		s.pub.publish(batch)
		if export && res.Document != nil {
			if err := s.exportPdf(main, res.Document); err != nil {
				log.Errorf("export %s: %s", main, err)
			}
		}
	}()
}

// exportPdf serializes the document and writes it to the configured
// output location.
func (s *Server) exportPdf(main uri.URI, doc *typst.Document) error {
	snap := s.ws.Snapshot()
	book := snap.Fonts().Book()
	snap.Release()

	data, err := pdf.Export(doc, book)
	if err != nil {
		return err
	}
	target, err := s.exportTarget(main)
	if err != nil {
		return err
	}
	return s.ws.WriteRaw(target, data)
}

// exportTarget picks the output URI for a main file per the outputRoot
// and outputPath settings. The default writes next to the source.
func (s *Server) exportTarget(main uri.URI) (uri.URI, error) {
	cfg := s.config()
	switch cfg.OutputRoot {
	case OutputWorkspace:
		for _, root := range s.ws.Roots() {
			vp, err := uri.MakeRelative(root, main)
			if err != nil {
				continue
			}
			out := vp.WithExtension("pdf")
			if cfg.OutputPath != "" {
				joined, err := syntax.NewVirtualPath(path.Join("/", cfg.OutputPath, out.String()))
				if err == nil {
					out = joined
				}
			}
			return uri.Join(root, out)
		}
	case OutputAbsolute:
		if cfg.OutputPath != "" {
			name := path.Base(string(uri.WithExtension(main, "pdf")))
			target, err := uri.FromPath(path.Join(cfg.OutputPath, name))
			if err == nil {
				return target, nil
			}
		}
	}
	return uri.WithExtension(main, "pdf"), nil
}

func equalPaths(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

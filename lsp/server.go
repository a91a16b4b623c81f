// Copyright © 2025 The typls authors

// Package lsp implements a Language Server Protocol server for Typst.
// It provides diagnostics, hover, completion, signature help, document
// and workspace symbols, semantic tokens, folding, selection ranges,
// formatting, and PDF export commands.
package lsp

import (
	"os"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	glspserver "github.com/tliron/glsp/server"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
	"github.com/typls/typls/workspace"
	"github.com/typls/typls/world"
)

const serverName = "typls"

var log = commonlog.GetLogger("typls.lsp")

// Command identifiers advertised through executeCommand. The prefix is
// kept for compatibility with existing editor extensions.
const (
	cmdPdfExport  = "typst-lsp.doPdfExport"
	cmdClearCache = "typst-lsp.doClearCache"
	cmdPinMain    = "typst-lsp.doPinMain"
)

// Server is the Typst language server.
type Server struct {
	handler protocol.Handler
	glspSrv *glspserver.Server

	// Workspace and compile executor, built during initialization.
	ws     *workspace.Workspace
	exec   *world.Executor
	wsOnce sync.Once

	// Diagnostics publisher with clear-on-removal tracking.
	pub *publisher

	// Negotiated configuration.
	cfgMu sync.RWMutex
	cfg   Config
	enc   syntax.PositionEncoding

	// Pinned main file, when set compiles target it instead of the
	// triggering document.
	pinMu  sync.Mutex
	pinned uri.URI
	pinSet bool

	// Per-document semantic token result cache for delta requests.
	semMu      sync.Mutex
	semResults map[string]*semResult
	semCounter int

	// Trace annotators handed to the executor.
	annotators []world.Annotator

	// Context for sending notifications (captured from latest request).
	notifyMu sync.Mutex
	notify   glsp.NotifyFunc

	// Client supports the workspace/configuration pull request and
	// dynamic watched-file registration.
	pullConfig bool
	watchFiles bool

	// exitFn is called on the LSP exit notification. Defaults to os.Exit.
	// Overridable for testing.
	exitFn       func(int)
	shutdownSeen bool
}

// Option configures the LSP server.
type Option func(*Server)

// WithAnnotators attaches compile trace annotators.
func WithAnnotators(annotators ...world.Annotator) Option {
	return func(s *Server) { s.annotators = annotators }
}

// New creates a new Typst LSP server.
func New(opts ...Option) *Server {
	s := &Server{
		cfg:        DefaultConfig(),
		enc:        syntax.EncodingUTF16,
		semResults: make(map[string]*semResult),
		exitFn:     os.Exit,
	}
	s.pub = newPublisher(s.sendNotification)
	for _, o := range opts {
		o(s)
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		Exit:        s.exit,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentHover:          s.textDocumentHover,
		TextDocumentCompletion:     s.textDocumentCompletion,
		TextDocumentSignatureHelp:  s.textDocumentSignatureHelp,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
		TextDocumentFormatting:     s.textDocumentFormatting,
		TextDocumentFoldingRange:   s.textDocumentFoldingRange,
		TextDocumentSelectionRange: s.textDocumentSelectionRange,

		TextDocumentSemanticTokensFull:      s.textDocumentSemanticTokensFull,
		TextDocumentSemanticTokensFullDelta: s.textDocumentSemanticTokensFullDelta,

		WorkspaceSymbol:                    s.workspaceSymbol,
		WorkspaceExecuteCommand:            s.workspaceExecuteCommand,
		WorkspaceDidChangeConfiguration:    s.workspaceDidChangeConfiguration,
		WorkspaceDidChangeWatchedFiles:     s.workspaceDidChangeWatchedFiles,
		WorkspaceDidChangeWorkspaceFolders: s.workspaceDidChangeWorkspaceFolders,
	}

	s.glspSrv = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

// RunStdio starts the server using stdio transport.
func (s *Server) RunStdio() error {
	return s.glspSrv.RunStdio()
}

// RunTCP starts the server listening on the given address.
func (s *Server) RunTCP(addr string) error {
	return s.glspSrv.RunTCP(addr)
}

// initialize handles the LSP initialize request.
func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.captureNotify(ctx)

	if w := params.Capabilities.Workspace; w != nil {
		if w.Configuration != nil {
			s.pullConfig = *w.Configuration
		}
		if dw := w.DidChangeWatchedFiles; dw != nil && dw.DynamicRegistration != nil {
			s.watchFiles = *dw.DynamicRegistration
		}
	}

	cfg := DefaultConfig()
	cfg.Merge(params.InitializationOptions)
	s.cfgMu.Lock()
	s.cfg = cfg
	s.enc = cfg.Encoding()
	s.cfgMu.Unlock()

	var roots []uri.URI
	for _, folder := range params.WorkspaceFolders {
		roots = append(roots, uri.URI(folder.URI))
	}
	if len(roots) == 0 && params.RootURI != nil {
		roots = append(roots, uri.URI(*params.RootURI))
	}
	if len(roots) == 0 && params.RootPath != nil {
		if u, err := uri.FromPath(*params.RootPath); err == nil {
			roots = append(roots, u)
		}
	}
	if err := s.initWorkspace(roots, cfg.FontPaths); err != nil {
		return nil, err
	}

	capabilities := s.handler.CreateServerCapabilities()

	// Override text document sync to incremental.
	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: boolPtr(false)},
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"#", ".", "@"},
	}
	capabilities.SignatureHelpProvider = &protocol.SignatureHelpOptions{
		TriggerCharacters:   []string{"(", ","},
		RetriggerCharacters: []string{")"},
	}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{cmdPdfExport, cmdClearCache, cmdPinMain},
	}
	if cfg.SemanticTokens == SemanticTokensEnable {
		capabilities.SemanticTokensProvider = &protocol.SemanticTokensOptions{
			Legend: semanticTokenLegend(),
			Full:   map[string]any{"delta": true},
		}
	}
	capabilities.Workspace = &protocol.ServerCapabilitiesWorkspace{
		WorkspaceFolders: &protocol.WorkspaceFoldersServerCapabilities{
			Supported:           boolPtr(true),
			ChangeNotifications: &protocol.BoolOrString{Value: true},
		},
	}

	version := "0.1.0"
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

// initWorkspace builds the workspace and executor exactly once.
func (s *Server) initWorkspace(roots []uri.URI, fontPaths []string) error {
	var err error
	s.wsOnce.Do(func() {
		s.ws, err = workspace.New(roots, workspace.WithFontPaths(fontPaths))
		if err != nil {
			return
		}
		s.exec = world.NewExecutor(s.ws, s.annotators...)
	})
	return err
}

// initialized handles the initialized notification by registering the
// file watcher so the client reports on-disk changes.
func (s *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	s.captureNotify(ctx)
	if s.watchFiles {
		go s.registerWatcher(ctx)
	}
	if s.pullConfig {
		go s.pullConfiguration(ctx)
	}
	return nil
}

// registerWatcher asks the client to watch every file under the
// workspace. Package files and non-Typst resources matter too, so the
// glob is deliberately broad.
func (s *Server) registerWatcher(ctx *glsp.Context) {
	ctx.Call("client/registerCapability", protocol.RegistrationParams{
		Registrations: []protocol.Registration{{
			ID:     "watch_typst_files",
			Method: "workspace/didChangeWatchedFiles",
			RegisterOptions: protocol.DidChangeWatchedFilesRegistrationOptions{
				Watchers: []protocol.FileSystemWatcher{{GlobPattern: "**/*"}},
			},
		}},
	}, nil)
}

// shutdown handles the LSP shutdown request.
func (s *Server) shutdown(_ *glsp.Context) error {
	s.shutdownSeen = true
	if s.exec != nil {
		s.exec.Close()
	}
	return nil
}

// exit terminates the process: cleanly after a shutdown request, with a
// failure status otherwise.
func (s *Server) exit(_ *glsp.Context) error {
	if s.shutdownSeen {
		s.exitFn(0)
	} else {
		s.exitFn(1)
	}
	return nil
}

// setTrace handles the $/setTrace notification (required by some clients).
func (s *Server) setTrace(_ *glsp.Context, _ *protocol.SetTraceParams) error {
	return nil
}

// mainFor picks the compile entry point: the pinned main when set, else
// the triggering document.
func (s *Server) mainFor(trigger uri.URI) uri.URI {
	s.pinMu.Lock()
	defer s.pinMu.Unlock()
	if s.pinSet {
		return s.pinned
	}
	return trigger
}

// pinMain pins or unpins the compile entry point.
func (s *Server) pinMain(u uri.URI, pin bool) {
	s.pinMu.Lock()
	defer s.pinMu.Unlock()
	s.pinned, s.pinSet = u, pin
}

// config returns a copy of the current configuration.
func (s *Server) config() Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// encoding returns the negotiated position encoding.
func (s *Server) encoding() syntax.PositionEncoding {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.enc
}

// captureNotify stores the notification function from the context for
// async use (e.g., publishing diagnostics after a compile).
func (s *Server) captureNotify(ctx *glsp.Context) {
	s.notifyMu.Lock()
	s.notify = ctx.Notify
	s.notifyMu.Unlock()
}

// sendNotification sends a notification to the client.
func (s *Server) sendNotification(method string, params any) {
	s.notifyMu.Lock()
	fn := s.notify
	s.notifyMu.Unlock()
	if fn != nil {
		fn(method, params)
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}

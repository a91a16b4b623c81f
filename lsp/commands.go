// Copyright © 2025 The typls authors

package lsp

import (
	"context"
	"fmt"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/typls/typls/typst"
	"github.com/typls/typls/uri"
)

// detachedMain unpins the main file when passed to doPinMain.
const detachedMain = "detached"

// workspaceExecuteCommand handles the workspace/executeCommand request.
func (s *Server) workspaceExecuteCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	s.captureNotify(ctx)
	switch params.Command {
	case cmdPdfExport:
		return s.doPdfExport(params.Arguments)
	case cmdClearCache:
		return s.doClearCache()
	case cmdPinMain:
		return s.doPinMain(params.Arguments)
	default:
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: fmt.Sprintf("unknown command %q", params.Command),
		}
	}
}

// doPdfExport compiles the named document and writes its PDF.
func (s *Server) doPdfExport(args []any) (any, error) {
	target, err := uriArgument(args)
	if err != nil {
		return nil, err
	}
	res := s.exec.CompileWait(context.Background(), target)
	if res.Err != nil {
		return nil, res.Err
	}

	snap := s.ws.Snapshot()
	batch := s.convertDiagnostics(snap, target, res.Diagnostics)
	snap.Release()
	s.pub.publish(batch)

	if res.Document == nil {
		return nil, fmt.Errorf("%s did not produce a document", target)
	}
	if err := s.exportPdf(target, res.Document); err != nil {
		return nil, err
	}
	return nil, nil
}

// doClearCache drops workspace caches and all memoized parses.
func (s *Server) doClearCache() (any, error) {
	s.ws.ClearCache()
	typst.EvictAll()
	return nil, nil
}

// doPinMain pins the compile entry point to the given URI, or unpins it
// when the argument is "detached".
func (s *Server) doPinMain(args []any) (any, error) {
	target, err := uriArgument(args)
	if err != nil {
		return nil, err
	}
	if string(target) == detachedMain {
		s.pinMain("", false)
		return nil, nil
	}
	s.pinMain(target, true)
	return nil, nil
}

// uriArgument extracts the leading URI string argument. A missing or
// non-string argument is an invalid-params error per JSON-RPC.
func uriArgument(args []any) (uri.URI, error) {
	if len(args) == 0 {
		return "", &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidParams,
			Message: "expected a document URI argument",
		}
	}
	str, ok := args[0].(string)
	if !ok {
		return "", &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidParams,
			Message: fmt.Sprintf("expected a string URI argument, got %T", args[0]),
		}
	}
	return uri.URI(str), nil
}

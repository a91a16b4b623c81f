// Copyright © 2025 The typls authors

package lsp

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
)

// Semantic token type indices, which must match the order in semanticTokenLegend().
const (
	semTokenNamespace = iota
	semTokenParameter
	semTokenVariable
	semTokenFunction
	semTokenMacro
	semTokenKeyword
	semTokenComment
	semTokenString
	semTokenNumber
	semTokenOperator
)

// Semantic token modifier bit flags, which must match the order in semanticTokenLegend().
const (
	semModDefinition = 1 << iota
)

// semanticTokenLegend returns the legend that the client uses to decode tokens.
func semanticTokenLegend() protocol.SemanticTokensLegend {
	return protocol.SemanticTokensLegend{
		TokenTypes: []string{
			"namespace", // 0
			"parameter", // 1
			"variable",  // 2
			"function",  // 3
			"macro",     // 4
			"keyword",   // 5
			"comment",   // 6
			"string",    // 7
			"number",    // 8
			"operator",  // 9
		},
		TokenModifiers: []string{
			"definition", // bit 0
		},
	}
}

// rawToken is an intermediate representation before delta encoding.
type rawToken struct {
	line      int // 0-based
	startChar int // 0-based, in the negotiated encoding
	length    int
	tokenType int
	modifiers int
}

// semanticTokensRegistrationID identifies the dynamic registration that
// toggling the semanticTokens setting adds and removes.
const semanticTokensRegistrationID = "semantic_tokens"

// updateSemanticTokensRegistration re-registers or unregisters the
// semantic tokens capability when the setting toggles. Disabling also
// drops the cached results so a re-enable starts from full requests.
func (s *Server) updateSemanticTokensRegistration(ctx *glsp.Context, old, cfg Config) {
	if old.SemanticTokens == cfg.SemanticTokens {
		return
	}
	if cfg.SemanticTokens == SemanticTokensEnable {
		pattern := "**/*.typ"
		ctx.Call("client/registerCapability", protocol.RegistrationParams{
			Registrations: []protocol.Registration{{
				ID:     semanticTokensRegistrationID,
				Method: "textDocument/semanticTokens",
				RegisterOptions: protocol.SemanticTokensRegistrationOptions{
					TextDocumentRegistrationOptions: protocol.TextDocumentRegistrationOptions{
						DocumentSelector: &protocol.DocumentSelector{{Pattern: &pattern}},
					},
					SemanticTokensOptions: protocol.SemanticTokensOptions{
						Legend: semanticTokenLegend(),
						Full:   map[string]any{"delta": true},
					},
				},
			}},
		}, nil)
		return
	}
	ctx.Call("client/unregisterCapability", protocol.UnregistrationParams{
		Unregisterations: []protocol.Unregistration{{
			ID:     semanticTokensRegistrationID,
			Method: "textDocument/semanticTokens",
		}},
	}, nil)
	s.semMu.Lock()
	s.semResults = make(map[string]*semResult)
	s.semMu.Unlock()
}

// semResult caches one published token set for delta requests.
type semResult struct {
	id   string
	data []protocol.UInteger
}

// textDocumentSemanticTokensFull handles the textDocument/semanticTokens/full request.
func (s *Server) textDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	s.captureNotify(ctx)
	if s.config().SemanticTokens != SemanticTokensEnable {
		return nil, nil
	}
	data, ok := s.computeTokens(uri.URI(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	id := s.storeTokens(params.TextDocument.URI, data)
	return &protocol.SemanticTokens{ResultID: &id, Data: data}, nil
}

// textDocumentSemanticTokensFullDelta handles the delta request. The
// delta is a single splice computed from the common prefix and suffix of
// the previous and current encodings.
func (s *Server) textDocumentSemanticTokensFullDelta(ctx *glsp.Context, params *protocol.SemanticTokensDeltaParams) (any, error) {
	s.captureNotify(ctx)
	if s.config().SemanticTokens != SemanticTokensEnable {
		return nil, nil
	}
	data, ok := s.computeTokens(uri.URI(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}

	s.semMu.Lock()
	prev := s.semResults[params.TextDocument.URI]
	s.semMu.Unlock()

	id := s.storeTokens(params.TextDocument.URI, data)
	if prev == nil || prev.id != params.PreviousResultID {
		return &protocol.SemanticTokens{ResultID: &id, Data: data}, nil
	}
	return &protocol.SemanticTokensDelta{
		ResultId: &id,
		Edits:    []protocol.SemanticTokensEdit{spliceEdit(prev.data, data)},
	}, nil
}

// storeTokens caches the data under a fresh result id.
func (s *Server) storeTokens(uri string, data []protocol.UInteger) string {
	s.semMu.Lock()
	defer s.semMu.Unlock()
	s.semCounter++
	id := strconv.Itoa(s.semCounter)
	s.semResults[uri] = &semResult{id: id, data: data}
	return id
}

// spliceEdit reduces old → new to one edit covering the changed middle.
func spliceEdit(old, new []protocol.UInteger) protocol.SemanticTokensEdit {
	prefix := 0
	for prefix < len(old) && prefix < len(new) && old[prefix] == new[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(old)-prefix && suffix < len(new)-prefix &&
		old[len(old)-1-suffix] == new[len(new)-1-suffix] {
		suffix++
	}
	return protocol.SemanticTokensEdit{
		Start:       safeUint(prefix),
		DeleteCount: safeUint(len(old) - prefix - suffix),
		Data:        new[prefix : len(new)-suffix],
	}
}

// computeTokens parses the document and encodes its semantic tokens.
func (s *Server) computeTokens(u uri.URI) ([]protocol.UInteger, bool) {
	enc := s.encoding()
	snap := s.ws.Snapshot()
	defer snap.Release()
	src, err := snap.ReadSource(u)
	if err != nil {
		return nil, false
	}

	var tokens []rawToken
	collectSemanticTokens(syntax.Parse(src.Text()), nil, src, enc, &tokens)

	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].line != tokens[j].line {
			return tokens[i].line < tokens[j].line
		}
		return tokens[i].startChar < tokens[j].startChar
	})
	return deltaEncode(tokens), true
}

// collectSemanticTokens recursively walks the tree and collects tokens.
func collectSemanticTokens(n, parent *syntax.Node, src *syntax.Source, enc syntax.PositionEncoding, tokens *[]rawToken) {
	switch n.Kind() {
	case syntax.KindLineComment, syntax.KindBlockComment:
		emitToken(n.Span(), semTokenComment, 0, src, enc, tokens)
	case syntax.KindStr:
		emitToken(n.Span(), semTokenString, 0, src, enc, tokens)
	case syntax.KindRaw:
		emitToken(n.Span(), semTokenString, 0, src, enc, tokens)
		return
	case syntax.KindInt, syntax.KindFloat:
		emitToken(n.Span(), semTokenNumber, 0, src, enc, tokens)
	case syntax.KindBool, syntax.KindNone:
		emitToken(n.Span(), semTokenKeyword, 0, src, enc, tokens)
	case syntax.KindHeadingMarker:
		emitToken(n.Span(), semTokenKeyword, 0, src, enc, tokens)
	case syntax.KindLabel, syntax.KindRef:
		emitToken(n.Span(), semTokenMacro, 0, src, enc, tokens)
	case syntax.KindLet, syntax.KindImport, syntax.KindInclude, syntax.KindSet, syntax.KindShow:
		emitToken(hashKeywordSpan(n), semTokenKeyword, 0, src, enc, tokens)
	case syntax.KindIdent:
		emitToken(n.Span(), identTokenType(n, parent), identModifiers(parent), src, enc, tokens)
	}
	for _, c := range n.Children() {
		collectSemanticTokens(c, n, src, enc, tokens)
	}
}

// hashKeywordSpan covers "#let", "#import", and friends at the start of
// a hash expression.
func hashKeywordSpan(n *syntax.Node) syntax.Span {
	var word string
	switch n.Kind() {
	case syntax.KindLet:
		word = "let"
	case syntax.KindImport:
		word = "import"
	case syntax.KindInclude:
		word = "include"
	case syntax.KindSet:
		word = "set"
	default:
		word = "show"
	}
	start := n.Span().Start
	end := start + 1 + len(word)
	if end > n.Span().End {
		end = n.Span().End
	}
	return syntax.Span{Start: start, End: end}
}

func identTokenType(n, parent *syntax.Node) int {
	if parent == nil {
		return semTokenVariable
	}
	switch parent.Kind() {
	case syntax.KindFuncCall, syntax.KindFieldAccess:
		return semTokenFunction
	case syntax.KindParams:
		return semTokenParameter
	case syntax.KindImport, syntax.KindImportItems:
		return semTokenNamespace
	default:
		return semTokenVariable
	}
}

func identModifiers(parent *syntax.Node) int {
	if parent != nil && parent.Kind() == syntax.KindLet {
		return semModDefinition
	}
	return 0
}

// emitToken appends one raw token per line of the span, since LSP
// semantic tokens cannot cross line boundaries.
func emitToken(span syntax.Span, tokenType, modifiers int, src *syntax.Source, enc syntax.PositionEncoding, tokens *[]rawToken) {
	if span.End <= span.Start {
		return
	}
	text := src.Text()[span.Start:span.End]
	offset := span.Start
	for _, part := range strings.Split(text, "\n") {
		if part != "" {
			line, startChar, err := src.ByteToPosition(offset, enc)
			if err == nil {
				length := len(part)
				if enc == syntax.EncodingUTF16 {
					length = syntax.UTF16Len(part)
				}
				*tokens = append(*tokens, rawToken{
					line:      line,
					startChar: startChar,
					length:    length,
					tokenType: tokenType,
					modifiers: modifiers,
				})
			}
		}
		offset += len(part) + 1
	}
}

// deltaEncode converts sorted raw tokens to the LSP relative encoding.
func deltaEncode(tokens []rawToken) []protocol.UInteger {
	data := make([]protocol.UInteger, 0, len(tokens)*5)
	prevLine, prevChar := 0, 0
	for _, t := range tokens {
		deltaLine := t.line - prevLine
		deltaChar := t.startChar
		if deltaLine == 0 {
			deltaChar = t.startChar - prevChar
		}
		data = append(data,
			safeUint(deltaLine),
			safeUint(deltaChar),
			safeUint(t.length),
			safeUint(t.tokenType),
			safeUint(t.modifiers),
		)
		prevLine, prevChar = t.line, t.startChar
	}
	return data
}

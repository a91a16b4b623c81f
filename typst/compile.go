// Copyright © 2025 The typls authors

package typst

import (
	"fmt"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/typls/typls/lint"
	"github.com/typls/typls/typst/syntax"
)

// maxIncludeDepth bounds import/include nesting independently of cycle
// detection, in case distinct files chain pathologically deep.
const maxIncludeDepth = 64

// Compile evaluates the world's main file into a document and the full
// diagnostic set. A nil document is returned only when the main source
// cannot be loaded at all; parse errors still yield a best-effort
// document.
func Compile(w World) (*Document, []Diagnostic) {
	advanceGeneration()
	ev := &evaluator{
		w:      w,
		lib:    w.Library(),
		active: make(map[syntax.FileID]bool),
		labels: make(map[string]bool),
		linter: &lint.Linter{Analyzers: lint.DefaultAnalyzers()},
	}
	main := w.Main()
	src, err := w.Source(main)
	if err != nil {
		return nil, []Diagnostic{{
			Severity: SeverityError,
			ID:       main,
			Message:  fmt.Sprintf("failed to load main file: %v", err),
		}}
	}
	doc := &Document{Date: w.Today(nil)}
	ev.doc = doc
	ev.evalFile(src, true)
	ev.flushParagraph()
	ev.checkRefs()
	for _, block := range doc.Blocks {
		if h, ok := block.(*HeadingBlock); ok {
			doc.Title = h.Plain()
			break
		}
	}
	return doc, ev.diags
}

// binding records one name bound by #let or an import.
type binding struct {
	params []string // non-nil for function bindings
}

// scope is one file's top-level namespace.
type scope struct {
	bindings map[string]binding
}

func newScope() *scope {
	return &scope{bindings: make(map[string]binding)}
}

// refSite is a deferred @ref check; labels may be defined after use.
type refSite struct {
	name string
	id   syntax.FileID
	span syntax.Span
}

type evaluator struct {
	w      World
	lib    *Library
	doc    *Document
	diags  []Diagnostic
	linter *lint.Linter

	// trace is the current import/include chain, outermost first.
	trace []TraceEntry
	// active marks files on the chain for cycle detection.
	active map[syntax.FileID]bool

	labels map[string]bool
	refs   []refSite

	para []TextSpan
}

func (ev *evaluator) errorf(id syntax.FileID, span syntax.Span, format string, args ...any) {
	ev.report(SeverityError, id, span, fmt.Sprintf(format, args...))
}

func (ev *evaluator) warnf(id syntax.FileID, span syntax.Span, format string, args ...any) {
	ev.report(SeverityWarning, id, span, fmt.Sprintf(format, args...))
}

func (ev *evaluator) report(sev Severity, id syntax.FileID, span syntax.Span, msg string) {
	d := Diagnostic{Severity: sev, ID: id, Span: span, Message: msg}
	if len(ev.trace) > 0 {
		d.Trace = append(d.Trace, ev.trace...)
	}
	ev.diags = append(ev.diags, d)
}

// evalFile parses and evaluates one file. When emit is true its markup
// contributes blocks to the document; imports evaluate with emit off so
// they only populate a scope. The file's scope is returned for import
// binding.
func (ev *evaluator) evalFile(src *syntax.Source, emit bool) *scope {
	root := memoParse(src.ID(), src.Text())
	for _, errNode := range root.Errors() {
		ev.errorf(src.ID(), errNode.Span(), "%s", errNode.ErrorMessage())
	}
	if findings, err := ev.linter.Check(src, root); err == nil {
		for _, f := range findings {
			ev.warnf(src.ID(), f.Span, "%s", f.Message)
		}
	}
	sc := newScope()
	for _, n := range root.Children() {
		ev.evalMarkupNode(n, src, sc, emit)
	}
	return sc
}

func (ev *evaluator) evalMarkupNode(n *syntax.Node, src *syntax.Source, sc *scope, emit bool) {
	switch n.Kind() {
	case syntax.KindText:
		ev.appendText(n.Text(), TextSpan{}, emit)
	case syntax.KindSpace:
		if emit && len(ev.para) > 0 {
			ev.appendText(" ", TextSpan{}, emit)
		}
	case syntax.KindParbreak:
		ev.flushParagraph()
	case syntax.KindLineComment, syntax.KindBlockComment, syntax.KindError:
		// Errors were reported from the tree walk already.
	case syntax.KindHeading:
		ev.flushParagraph()
		level := lint.HeadingLevel(n)
		var spans []TextSpan
		for _, c := range n.Children() {
			if c.Kind() == syntax.KindHeadingMarker {
				continue
			}
			spans = ev.inlineSpans(c, src, sc, spans, TextSpan{})
		}
		if emit {
			ev.doc.Blocks = append(ev.doc.Blocks, &HeadingBlock{Level: level, Spans: spans})
		}
	case syntax.KindStrong:
		ev.inlineInto(n, src, sc, TextSpan{Strong: true}, emit)
	case syntax.KindEmph:
		ev.inlineInto(n, src, sc, TextSpan{Emph: true}, emit)
	case syntax.KindRaw:
		ev.evalRaw(n, emit)
	case syntax.KindLabel:
		ev.labels[n.Text()] = true
		if emit {
			ev.attachLabel(n.Text())
		}
	case syntax.KindRef:
		ev.refs = append(ev.refs, refSite{name: n.Text(), id: src.ID(), span: n.Span()})
	case syntax.KindLet:
		ev.evalLet(n, src, sc)
	case syntax.KindImport:
		ev.evalImport(n, src, sc)
	case syntax.KindInclude:
		ev.evalInclude(n, src, sc, emit)
	case syntax.KindSet, syntax.KindShow:
		ev.evalSetShow(n, src, sc)
	case syntax.KindContentBlock:
		for _, c := range n.Children() {
			ev.evalMarkupNode(c, src, sc, emit)
		}
	case syntax.KindCodeBlock:
		for _, c := range n.Children() {
			ev.evalExpr(c, src, sc)
		}
	default:
		// A hash expression in markup: evaluate for diagnostics only.
		ev.evalExpr(n, src, sc)
	}
}

// inlineInto appends a styled construct's inline content to the current
// paragraph.
func (ev *evaluator) inlineInto(n *syntax.Node, src *syntax.Source, sc *scope, style TextSpan, emit bool) {
	if !emit {
		for _, c := range n.Children() {
			ev.evalMarkupNode(c, src, sc, false)
		}
		return
	}
	ev.para = ev.inlineSpans(n, src, sc, ev.para, TextSpan{})
}

// inlineSpans renders a node's inline content into a span list with the
// given inherited style.
func (ev *evaluator) inlineSpans(n *syntax.Node, src *syntax.Source, sc *scope, out []TextSpan, style TextSpan) []TextSpan {
	switch n.Kind() {
	case syntax.KindText:
		out = append(out, TextSpan{Text: n.Text(), Strong: style.Strong, Emph: style.Emph, Mono: style.Mono})
	case syntax.KindSpace:
		if len(out) > 0 {
			out = append(out, TextSpan{Text: " ", Strong: style.Strong, Emph: style.Emph, Mono: style.Mono})
		}
	case syntax.KindStrong:
		inner := style
		inner.Strong = true
		for _, c := range n.Children() {
			out = ev.inlineSpans(c, src, sc, out, inner)
		}
	case syntax.KindEmph:
		inner := style
		inner.Emph = true
		for _, c := range n.Children() {
			out = ev.inlineSpans(c, src, sc, out, inner)
		}
	case syntax.KindRaw:
		if body := n.ChildOfKind(syntax.KindText); body != nil {
			out = append(out, TextSpan{Text: body.Text(), Mono: true})
		}
	case syntax.KindRef:
		ev.refs = append(ev.refs, refSite{name: n.Text(), id: src.ID(), span: n.Span()})
		out = append(out, TextSpan{Text: "@" + n.Text(), Strong: style.Strong, Emph: style.Emph})
	case syntax.KindLabel:
		ev.labels[n.Text()] = true
	case syntax.KindLineComment, syntax.KindBlockComment, syntax.KindError:
	default:
		ev.evalExpr(n, src, sc)
	}
	return out
}

func (ev *evaluator) evalRaw(n *syntax.Node, emit bool) {
	body := n.ChildOfKind(syntax.KindText)
	if body == nil {
		return
	}
	lang := ""
	if ident := n.ChildOfKind(syntax.KindIdent); ident != nil {
		lang = ident.Text()
	}
	fenced := lang != "" || strings.Contains(body.Text(), "\n")
	if !emit {
		return
	}
	if fenced {
		ev.flushParagraph()
		text := strings.Trim(body.Text(), "\n")
		ev.doc.Blocks = append(ev.doc.Blocks, &RawBlock{Lang: lang, Text: text})
		return
	}
	ev.para = append(ev.para, TextSpan{Text: body.Text(), Mono: true})
}

func (ev *evaluator) evalLet(n *syntax.Node, src *syntax.Source, sc *scope) {
	ident := n.ChildOfKind(syntax.KindIdent)
	if ident == nil {
		return // the parser reported the malformed binding
	}
	b := binding{}
	if params := n.ChildOfKind(syntax.KindParams); params != nil {
		b.params = []string{}
		for _, p := range params.Children() {
			if p.Kind() == syntax.KindIdent {
				b.params = append(b.params, p.Text())
			}
		}
	}
	sc.bindings[ident.Text()] = b
	// The bound expression still gets checked.
	for _, c := range n.Children() {
		if c.Kind() != syntax.KindIdent && c.Kind() != syntax.KindParams {
			ev.evalExpr(c, src, sc)
		}
	}
}

// evalImport resolves an import path, evaluates the target module, and
// binds the requested items into the importing scope.
func (ev *evaluator) evalImport(n *syntax.Node, src *syntax.Source, sc *scope) {
	pathNode := n.ChildOfKind(syntax.KindStr)
	if pathNode == nil {
		return
	}
	target, ok := ev.resolveModule(pathNode, src)
	if !ok {
		return
	}
	module := ev.evalDependency(target, pathNode, src)
	if module == nil {
		return
	}
	items := n.ChildOfKind(syntax.KindImportItems)
	if items == nil {
		// A bare import binds the module name itself.
		name := moduleName(pathNode.Text())
		if name != "" {
			sc.bindings[name] = binding{}
		}
		return
	}
	for _, item := range items.Children() {
		switch {
		case item.Kind() == syntax.KindText && item.Text() == "*":
			for name, b := range module.bindings {
				sc.bindings[name] = b
			}
		case item.Kind() == syntax.KindIdent:
			b, ok := module.bindings[item.Text()]
			if !ok {
				ev.errorf(src.ID(), item.Span(), "unresolved import: %s has no binding %q", pathNode.Text(), item.Text())
				continue
			}
			sc.bindings[item.Text()] = b
		}
	}
}

func (ev *evaluator) evalInclude(n *syntax.Node, src *syntax.Source, sc *scope, emit bool) {
	pathNode := n.ChildOfKind(syntax.KindStr)
	if pathNode == nil {
		return
	}
	target, ok := ev.resolveModule(pathNode, src)
	if !ok {
		return
	}
	ev.flushParagraph()
	ev.evalDependencyEmit(target, pathNode, src, emit)
	ev.flushParagraph()
}

// resolveModule maps an import/include path string to a FileID. Paths
// beginning with "@" name external packages, whose entry point comes
// from the package manifest; other paths resolve relative to the
// importing file inside its package.
func (ev *evaluator) resolveModule(pathNode *syntax.Node, src *syntax.Source) (syntax.FileID, bool) {
	raw := pathNode.Text()
	if strings.HasPrefix(raw, "@") {
		spec, err := syntax.ParsePackageSpec(raw)
		if err != nil {
			ev.errorf(src.ID(), pathNode.Span(), "invalid package spec: %v", err)
			return syntax.FileID{}, false
		}
		pkg := syntax.ExternalPackage(spec)
		entry := ev.packageEntrypoint(pkg)
		return syntax.NewFileID(pkg, entry), true
	}
	vp, err := src.ID().Path().Join(raw)
	if err != nil {
		ev.errorf(src.ID(), pathNode.Span(), "invalid path: %v", err)
		return syntax.FileID{}, false
	}
	return syntax.NewFileID(src.ID().Package(), vp), true
}

// packageEntrypoint reads a package's typst.toml through the World to
// find its main file, defaulting to /lib.typ.
func (ev *evaluator) packageEntrypoint(pkg syntax.PackageID) syntax.VirtualPath {
	fallback := syntax.MustVirtualPath("/lib.typ")
	manifestID := syntax.NewFileID(pkg, syntax.MustVirtualPath("/typst.toml"))
	data, err := ev.w.File(manifestID)
	if err != nil {
		return fallback
	}
	var manifest struct {
		Package struct {
			Entrypoint string `toml:"entrypoint"`
		} `toml:"package"`
	}
	if err := toml.Unmarshal(data, &manifest); err != nil || manifest.Package.Entrypoint == "" {
		return fallback
	}
	vp, err := syntax.NewVirtualPath("/" + manifest.Package.Entrypoint)
	if err != nil {
		return fallback
	}
	return vp
}

// evalDependency evaluates an imported module without emitting content.
func (ev *evaluator) evalDependency(target syntax.FileID, site *syntax.Node, src *syntax.Source) *scope {
	return ev.withDependency(target, site, src, func(dep *syntax.Source) *scope {
		return ev.evalFile(dep, false)
	})
}

// evalDependencyEmit evaluates an included file, contributing its blocks
// to the document when emit is set.
func (ev *evaluator) evalDependencyEmit(target syntax.FileID, site *syntax.Node, src *syntax.Source, emit bool) {
	ev.withDependency(target, site, src, func(dep *syntax.Source) *scope {
		return ev.evalFile(dep, emit)
	})
}

// withDependency loads a dependency file with cycle and depth checks,
// pushing a trace frame for diagnostics raised inside it.
func (ev *evaluator) withDependency(target syntax.FileID, site *syntax.Node, src *syntax.Source, eval func(*syntax.Source) *scope) *scope {
	if ev.active[target] {
		ev.errorf(src.ID(), site.Span(), "cyclic import of %s", target.Path())
		return nil
	}
	if len(ev.trace) >= maxIncludeDepth {
		ev.errorf(src.ID(), site.Span(), "imports nested too deeply")
		return nil
	}
	dep, err := ev.w.Source(target)
	if err != nil {
		ev.errorf(src.ID(), site.Span(), "file not found: %s", target.Path())
		return nil
	}
	ev.active[target] = true
	ev.trace = append(ev.trace, TraceEntry{ID: src.ID(), Span: site.Span(), Message: "imported from here"})
	sc := eval(dep)
	ev.trace = ev.trace[:len(ev.trace)-1]
	delete(ev.active, target)
	return sc
}

func (ev *evaluator) evalSetShow(n *syntax.Node, src *syntax.Source, sc *scope) {
	for _, c := range n.Children() {
		ev.evalExpr(c, src, sc)
	}
}

// evalExpr checks a code-level expression for unknown names and recurses
// into arguments and blocks.
func (ev *evaluator) evalExpr(n *syntax.Node, src *syntax.Source, sc *scope) {
	switch n.Kind() {
	case syntax.KindIdent:
		ev.checkName(n, src, sc, "unknown variable")
	case syntax.KindFuncCall:
		callee := n.Children()[0]
		switch callee.Kind() {
		case syntax.KindIdent:
			ev.checkCallable(callee, src, sc)
		case syntax.KindFieldAccess:
			ev.checkFieldAccess(callee, src, sc, true)
		}
		if args := n.ChildOfKind(syntax.KindArgs); args != nil {
			for _, arg := range args.Children() {
				if arg.Kind() == syntax.KindNamedArg {
					// Only the value side of name: value is an expression.
					children := arg.Children()
					ev.evalExpr(children[len(children)-1], src, sc)
					continue
				}
				ev.evalExpr(arg, src, sc)
			}
		}
	case syntax.KindFieldAccess:
		ev.checkFieldAccess(n, src, sc, false)
	case syntax.KindContentBlock:
		for _, c := range n.Children() {
			ev.evalMarkupNode(c, src, sc, false)
		}
	case syntax.KindCodeBlock:
		for _, c := range n.Children() {
			ev.evalExpr(c, src, sc)
		}
	case syntax.KindStr, syntax.KindInt, syntax.KindFloat, syntax.KindBool, syntax.KindNone, syntax.KindError:
	default:
		for _, c := range n.Children() {
			ev.evalExpr(c, src, sc)
		}
	}
}

func (ev *evaluator) checkCallable(ident *syntax.Node, src *syntax.Source, sc *scope) {
	name := ident.Text()
	if _, ok := sc.bindings[name]; ok {
		return
	}
	if _, ok := ev.lib.Func(name); ok {
		return
	}
	ev.errorf(src.ID(), ident.Span(), "unknown function: %s", name)
}

func (ev *evaluator) checkName(ident *syntax.Node, src *syntax.Source, sc *scope, what string) {
	name := ident.Text()
	if _, ok := sc.bindings[name]; ok {
		return
	}
	if _, ok := ev.lib.Func(name); ok {
		return
	}
	for _, kw := range ev.lib.Keywords() {
		if kw == name {
			return
		}
	}
	ev.errorf(src.ID(), ident.Span(), "%s: %s", what, name)
}

// checkFieldAccess validates dotted access like datetime.today against
// the library's method tables. Access on local bindings is not checked;
// their shapes are unknown.
func (ev *evaluator) checkFieldAccess(n *syntax.Node, src *syntax.Source, sc *scope, called bool) {
	children := n.Children()
	if len(children) != 2 {
		return
	}
	base, field := children[0], children[1]
	if base.Kind() != syntax.KindIdent {
		ev.evalExpr(base, src, sc)
		return
	}
	if _, ok := sc.bindings[base.Text()]; ok {
		return
	}
	def, ok := ev.lib.Func(base.Text())
	if !ok {
		ev.errorf(src.ID(), base.Span(), "unknown variable: %s", base.Text())
		return
	}
	if called {
		if _, ok := def.Methods[field.Text()]; !ok {
			ev.errorf(src.ID(), field.Span(), "%s has no method %q", base.Text(), field.Text())
		}
	}
}

// checkRefs verifies every @ref against the labels collected across the
// whole compilation.
func (ev *evaluator) checkRefs() {
	for _, ref := range ev.refs {
		if !ev.labels[ref.name] {
			ev.warnf(ref.id, ref.span, "label <%s> does not exist in the document", ref.name)
		}
	}
}

func (ev *evaluator) appendText(text string, style TextSpan, emit bool) {
	if !emit || text == "" {
		return
	}
	style.Text = text
	ev.para = append(ev.para, style)
}

func (ev *evaluator) flushParagraph() {
	if len(ev.para) == 0 {
		return
	}
	spans := ev.para
	ev.para = nil
	if plainText(spans) == "" {
		return
	}
	ev.doc.Blocks = append(ev.doc.Blocks, &ParagraphBlock{Spans: spans})
}

// attachLabel records a label on the most recent heading block, so
// references can resolve to sections.
func (ev *evaluator) attachLabel(name string) {
	for i := len(ev.doc.Blocks) - 1; i >= 0; i-- {
		if h, ok := ev.doc.Blocks[i].(*HeadingBlock); ok {
			if h.Label == "" {
				h.Label = name
			}
			return
		}
	}
}

// moduleName derives the binding name of a bare import from its path.
func moduleName(path string) string {
	if strings.HasPrefix(path, "@") {
		spec, err := syntax.ParsePackageSpec(path)
		if err != nil {
			return ""
		}
		return spec.Name
	}
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".typ")
}

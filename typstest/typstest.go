// Copyright © 2025 The typls authors

// Package typstest provides helpers for compiling Typst projects inside
// tests. Projects live on an in-memory filesystem so tests never touch
// the host disk and never race each other.
package typstest

import (
	"context"
	"path"
	"testing"

	"github.com/spf13/afero"

	"github.com/typls/typls/typst"
	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
	"github.com/typls/typls/workspace"
	"github.com/typls/typls/workspace/packages"
	"github.com/typls/typls/world"
)

// ProjectRoot is the directory every test project is rooted at on the
// in-memory filesystem.
const ProjectRoot = "/proj"

// Project is an in-memory Typst workspace for tests.
type Project struct {
	T  testing.TB
	Fs afero.Fs
	Ws *workspace.Workspace

	// Root is the workspace folder URI.
	Root uri.URI

	exec *world.Executor
}

// Option configures a test project.
type Option func(*options)

type options struct {
	repo      packages.Repo
	fontPaths []string
}

// WithRepo substitutes the package download backend, letting tests serve
// external packages from a fake.
func WithRepo(repo packages.Repo) Option {
	return func(o *options) { o.repo = repo }
}

// WithFontPaths seeds extra font scan directories.
func WithFontPaths(paths []string) Option {
	return func(o *options) { o.fontPaths = paths }
}

// NewProject builds a workspace over the given files, keyed by
// project-relative path such as "main.typ" or "lib/util.typ".
func NewProject(t testing.TB, files map[string]string, opts ...Option) *Project {
	t.Helper()
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	memfs := afero.NewMemMapFs()
	for rel, text := range files {
		full := path.Join(ProjectRoot, rel)
		if err := memfs.MkdirAll(path.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := afero.WriteFile(memfs, full, []byte(text), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}

	root, err := uri.FromPath(ProjectRoot)
	if err != nil {
		t.Fatalf("root uri: %v", err)
	}
	wsOpts := []workspace.Option{
		workspace.WithFs(memfs),
		workspace.WithFontPaths(o.fontPaths),
	}
	if o.repo != nil {
		wsOpts = append(wsOpts, workspace.WithRepo(o.repo))
	}
	ws, err := workspace.New([]uri.URI{root}, wsOpts...)
	if err != nil {
		t.Fatalf("workspace: %v", err)
	}

	p := &Project{T: t, Fs: memfs, Ws: ws, Root: root}
	p.exec = world.NewExecutor(ws)
	t.Cleanup(p.exec.Close)
	return p
}

// URI returns the workspace URI for a project-relative path.
func (p *Project) URI(rel string) uri.URI {
	p.T.Helper()
	u, err := uri.FromPath(path.Join(ProjectRoot, rel))
	if err != nil {
		p.T.Fatalf("uri for %s: %v", rel, err)
	}
	return u
}

// Executor returns the project's compile executor.
func (p *Project) Executor() *world.Executor { return p.exec }

// Compile compiles the given main file and waits for the result.
func (p *Project) Compile(rel string) world.Result {
	p.T.Helper()
	return p.exec.CompileWait(context.Background(), p.URI(rel))
}

// MustCompile compiles and fails the test on any error diagnostic.
func (p *Project) MustCompile(rel string) *typst.Document {
	p.T.Helper()
	res := p.Compile(rel)
	if res.Err != nil {
		p.T.Fatalf("compile %s: %v", rel, res.Err)
	}
	for _, d := range res.Diagnostics {
		if d.Severity == typst.SeverityError {
			p.T.Fatalf("compile %s: %s", rel, d.Message)
		}
	}
	if res.Document == nil {
		p.T.Fatalf("compile %s: no document", rel)
	}
	return res.Document
}

// WriteFile replaces a file on disk and reports the change to the
// workspace, as an editor's file watcher would.
func (p *Project) WriteFile(rel, text string) {
	p.T.Helper()
	full := path.Join(ProjectRoot, rel)
	if err := afero.WriteFile(p.Fs, full, []byte(text), 0o644); err != nil {
		p.T.Fatalf("write %s: %v", rel, err)
	}
	p.Ws.HandleFileEvent(p.URI(rel), false)
}

// RemoveFile deletes a file and reports the deletion to the workspace.
func (p *Project) RemoveFile(rel string) {
	p.T.Helper()
	full := path.Join(ProjectRoot, rel)
	if err := p.Fs.Remove(full); err != nil {
		p.T.Fatalf("remove %s: %v", rel, err)
	}
	p.Ws.HandleFileEvent(p.URI(rel), true)
}

// Source reads the current source for a project-relative path.
func (p *Project) Source(rel string) *syntax.Source {
	p.T.Helper()
	snap := p.Ws.Snapshot()
	defer snap.Release()
	src, err := snap.ReadSource(p.URI(rel))
	if err != nil {
		p.T.Fatalf("read %s: %v", rel, err)
	}
	return src
}

// ErrorMessages extracts the messages of all error diagnostics.
func ErrorMessages(diags []typst.Diagnostic) []string {
	var msgs []string
	for _, d := range diags {
		if d.Severity == typst.SeverityError {
			msgs = append(msgs, d.Message)
		}
	}
	return msgs
}

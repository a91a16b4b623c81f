// Copyright © 2025 The typls authors

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/typls/typls/diagnostic"
	"github.com/typls/typls/typst"
	"github.com/typls/typls/typst/pdf"
	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
	"github.com/typls/typls/workspace"
	"github.com/typls/typls/world"
)

var (
	compileOutput    string
	compileRoot      string
	compileFontPaths []string
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] FILE",
	Short: "Compile a Typst document to PDF",
	Long: `Compile a Typst document to PDF.

The file's directory is the workspace root unless --root is given; the
root determines how absolute import paths such as "/lib/util.typ"
resolve. External packages ("@preview/...") are fetched on demand and
cached under the user data directory.

Diagnostics are printed to stderr with source snippets. The command
exits non-zero when the document has errors.

Examples:
  typls compile main.typ                   Write main.pdf next to main.typ
  typls compile -o out/doc.pdf main.typ    Choose the output path
  typls compile --root . chapters/ch1.typ  Resolve imports from the project root
  typls compile --font-path ./fonts main.typ`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		session, err := newCompileSession(args[0], compileRoot, compileFontPaths)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		defer session.Close()

		if !session.compileAndExport(context.Background(), compileOutput) {
			os.Exit(1)
		}
	},
}

// compileSession holds the workspace and executor for one CLI compile
// target. The watch command reuses it across recompilations.
type compileSession struct {
	ws   *workspace.Workspace
	exec *world.Executor
	main uri.URI
	path string
	root string
}

func newCompileSession(file, root string, fontPaths []string) (*compileSession, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, err
	}
	rootDir := root
	if rootDir == "" {
		rootDir = filepath.Dir(abs)
	}
	rootDir, err = filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", root, err)
	}
	rootURI, err := uri.FromPath(rootDir)
	if err != nil {
		return nil, err
	}
	ws, err := workspace.New([]uri.URI{rootURI}, workspace.WithFontPaths(fontPaths))
	if err != nil {
		return nil, err
	}
	main, err := uri.FromPath(abs)
	if err != nil {
		return nil, err
	}
	return &compileSession{
		ws:   ws,
		exec: world.NewExecutor(ws),
		main: main,
		path: abs,
		root: rootDir,
	}, nil
}

func (s *compileSession) Close() {
	s.exec.Close()
}

// compileAndExport runs one compilation, renders diagnostics to stderr,
// and writes the PDF when the document is error free. It reports success.
func (s *compileSession) compileAndExport(ctx context.Context, output string) bool {
	res := s.exec.CompileWait(ctx, s.main)
	if res.Err != nil {
		fmt.Fprintln(os.Stderr, res.Err)
		return false
	}

	s.renderDiagnostics(res.Diagnostics)
	if hasErrors(res.Diagnostics) || res.Document == nil {
		return false
	}

	out := output
	if out == "" {
		out = strings.TrimSuffix(s.path, filepath.Ext(s.path)) + ".pdf"
	}
	snap := s.ws.Snapshot()
	book := snap.Fonts().Book()
	snap.Release()
	data, err := pdf.Export(res.Document, book)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return false
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}
	return true
}

func (s *compileSession) renderDiagnostics(diags []typst.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	snap := s.ws.Snapshot()
	defer snap.Release()
	converted := diagnostic.FromCompile(diags, snapshotLookup(snap))
	_ = newRenderer().RenderAll(os.Stderr, converted)
}

// snapshotLookup resolves engine file IDs back to sources by scanning
// the snapshot's known URIs. Linear, but only runs when rendering
// diagnostics from the CLI.
func snapshotLookup(snap *workspace.Snapshot) diagnostic.SourceLookup {
	return func(id syntax.FileID) (*syntax.Source, string, error) {
		for _, u := range snap.KnownURIs() {
			fid, err := snap.FullID(u)
			if err != nil || fid != id {
				continue
			}
			src, err := snap.ReadSource(u)
			if err != nil {
				return nil, "", err
			}
			path, err := uri.ToPath(u)
			if err != nil {
				path = string(u)
			}
			return src, path, nil
		}
		return nil, "", fmt.Errorf("no source for %s", id)
	}
}

func hasErrors(diags []typst.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == typst.SeverityError {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "",
		"Output PDF path (default: source file with .pdf extension)")
	compileCmd.Flags().StringVar(&compileRoot, "root", "",
		"Workspace root for resolving absolute import paths")
	compileCmd.Flags().StringArrayVar(&compileFontPaths, "font-path", nil,
		"Additional directory to scan for fonts (may be repeated)")
}

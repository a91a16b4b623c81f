// Copyright © 2025 The typls authors

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/typls/typls/uri"
)

var (
	watchOutput    string
	watchRoot      string
	watchFontPaths []string
)

// debounce window for filesystem event bursts. Editors commonly emit
// several events per save.
const watchSettle = 100 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [flags] FILE",
	Short: "Recompile a document whenever a source file changes",
	Long: `Watch the workspace and recompile the document on every change.

Compiles FILE once, then watches the workspace root recursively and
recompiles after any .typ file is created, modified, renamed, or
deleted. Diagnostics are reprinted after each compilation and the PDF
is rewritten when the document is error free.

Examples:
  typls watch main.typ
  typls watch -o out/doc.pdf --root . chapters/ch1.typ`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		session, err := newCompileSession(args[0], watchRoot, watchFontPaths)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		defer session.Close()

		if err := watchLoop(session, watchOutput); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	},
}

func watchLoop(session *compileSession, output string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchTree(watcher, session.root); err != nil {
		return err
	}

	session.compileAndExport(context.Background(), output)
	fmt.Fprintf(os.Stderr, "watching %s\n", session.root)

	var settle *time.Timer
	var settleC <-chan time.Time
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = watchTree(watcher, ev.Name)
				}
			}
			if filepath.Ext(ev.Name) != ".typ" {
				continue
			}
			if u, err := uriFromEvent(ev.Name); err == nil {
				deleted := ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename)
				session.ws.HandleFileEvent(u, deleted)
			}
			if settle == nil {
				settle = time.NewTimer(watchSettle)
				settleC = settle.C
			} else {
				settle.Reset(watchSettle)
			}
		case <-settleC:
			settle = nil
			settleC = nil
			session.compileAndExport(context.Background(), output)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "watch error:", err)
		}
	}
}

// watchTree registers dir and every subdirectory with the watcher.
func watchTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

func uriFromEvent(name string) (u uri.URI, err error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", err
	}
	return uri.FromPath(abs)
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "",
		"Output PDF path (default: source file with .pdf extension)")
	watchCmd.Flags().StringVar(&watchRoot, "root", "",
		"Workspace root for resolving absolute import paths")
	watchCmd.Flags().StringArrayVar(&watchFontPaths, "font-path", nil,
		"Additional directory to scan for fonts (may be repeated)")
}

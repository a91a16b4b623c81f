// Copyright © 2025 The typls authors

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/typls/typls/lint"
	"github.com/typls/typls/typst/syntax"
)

var (
	lintJSON     bool
	lintChecks   string
	lintListAll  bool
	lintExcludes []string
)

var lintCmd = &cobra.Command{
	Use:   "lint [flags] [files...]",
	Short: "Run static analysis checks on Typst source files",
	Long: `Run static analysis checks on Typst source files.

The linter reports likely mistakes in Typst markup, similar to "go vet"
for Go. Each check is an independent analyzer that examines the parse
tree and reports findings. The linter does NOT report style issues;
use "typls fmt" for that.

With no files, reads from stdin. With files, analyzes each file and
reports all findings to stderr.

Exit codes:
  0  No problems found
  1  One or more problems were reported
  2  Bad invocation (invalid flags, unreadable files)

Available checks (use --checks to select specific ones):
` + lint.AnalyzerDoc() + `
Examples:
  typls lint file.typ                            # Lint a single file
  typls lint ./...                               # Lint every .typ file recursively
  typls lint --json file.typ                     # Output findings as JSON
  typls lint --checks=heading-skip file.typ      # Run only specific checks
  typls lint --list                              # List available checks
  typls lint --exclude='template.typ' ./...      # Exclude a file by name
  typls lint --exclude='build' ./...             # Exclude a directory
  cat file.typ | typls lint                      # Lint from stdin`,
	Run: func(cmd *cobra.Command, args []string) {
		if lintListAll {
			for _, name := range lint.AnalyzerNames() {
				fmt.Println(name)
			}
			return
		}

		analyzers := lint.DefaultAnalyzers()
		if lintChecks != "" {
			selected := make(map[string]bool)
			for _, name := range strings.Split(lintChecks, ",") {
				selected[strings.TrimSpace(name)] = true
			}
			var filtered []*lint.Analyzer
			for _, a := range analyzers {
				if selected[a.Name] {
					filtered = append(filtered, a)
					delete(selected, a.Name)
				}
			}
			for name := range selected {
				fmt.Fprintf(os.Stderr, "typls lint: unknown check: %s\n", name)
				os.Exit(2)
			}
			analyzers = filtered
		}

		l := &lint.Linter{Analyzers: analyzers}

		if len(args) == 0 {
			if err := lintStdin(l); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			return
		}

		expanded, err := expandArgs(args, lintExcludes)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		var located []lint.Located
		reported := false
		for _, path := range expanded {
			src, findings, err := lintFile(l, path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			if len(findings) == 0 {
				continue
			}
			reported = true
			if lintJSON {
				located = append(located, lint.Locate(src, path, findings)...)
			} else {
				renderLintFindings(src, path, findings)
			}
		}

		if !reported {
			return
		}
		if lintJSON {
			if err := lint.FormatJSON(os.Stdout, located); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
		}
		os.Exit(1)
	},
}

func lintStdin(l *lint.Linter) error {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	src, findings, err := l.CheckFile(raw)
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		return nil
	}
	if lintJSON {
		if err := lint.FormatJSON(os.Stdout, lint.Locate(src, "<stdin>", findings)); err != nil {
			return err
		}
	} else {
		renderLintFindings(src, "<stdin>", findings)
	}
	os.Exit(1)
	return nil
}

func lintFile(l *lint.Linter, path string) (*syntax.Source, []lint.Finding, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	src, findings, err := l.CheckFile(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, findings, nil
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().BoolVar(&lintJSON, "json", false,
		"Output findings as JSON.")
	lintCmd.Flags().StringVar(&lintChecks, "checks", "",
		"Comma-separated list of checks to run (default: all).")
	lintCmd.Flags().BoolVar(&lintListAll, "list", false,
		"List available checks and exit.")
	lintCmd.Flags().StringArrayVar(&lintExcludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
}

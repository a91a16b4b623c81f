// Copyright © 2025 The typls authors

package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/typls/typls/formatter"
)

var (
	fmtWrite      bool
	fmtDiff       bool
	fmtList       bool
	fmtIndentSize int
	fmtExcludes   []string
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [flags] [files...]",
	Short: "Format Typst source files",
	Long: `Format Typst source files, similar to gofmt for Go.

Normalizes whitespace and indentation, spaces heading markers, and
collapses runs of blank lines. Raw blocks are left untouched. The
formatter is idempotent.

With no files, reads from stdin and writes to stdout.
With files, prints formatted output to stdout unless -w is given.

Modes:
  (default)   Print formatted code to stdout
  -w          Write result back to source file
  -d          Display a diff of changes
  -l          List files that would be changed

Examples:
  typls fmt file.typ               Print formatted output
  typls fmt -w file.typ            Format in place
  typls fmt -w ./...               Format every .typ file recursively
  typls fmt -d file.typ            Show what would change
  typls fmt -l ./...               List files needing formatting
  cat file.typ | typls fmt         Format from stdin
  typls fmt --indent-size 4 f.typ  Use 4-space indentation`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := formatter.DefaultConfig()
		cfg.IndentSize = fmtIndentSize

		if len(args) == 0 {
			if err := fmtStdin(cfg); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}

		expanded, err := expandArgs(args, fmtExcludes)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		exitCode := 0
		for _, path := range expanded {
			changed, err := fmtFile(path, cfg)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				exitCode = 1
			} else if fmtList && changed {
				exitCode = 1
			}
		}
		os.Exit(exitCode)
	},
}

func fmtStdin(cfg *formatter.Config) error {
	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	out, err := formatter.Format(src, cfg)
	if err != nil {
		return fmt.Errorf("<stdin>: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}

func fmtFile(path string, cfg *formatter.Config) (bool, error) {
	src, err := os.ReadFile(path) //nolint:gosec // formats user-specified files
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	out, err := formatter.FormatFile(src, path, cfg)
	if err != nil {
		return false, err
	}
	changed := !bytes.Equal(src, out)

	switch {
	case fmtList:
		if changed {
			fmt.Println(path)
		}
	case fmtDiff:
		if changed {
			writeDiff(os.Stdout, path, src, out)
		}
	case fmtWrite:
		if changed {
			info, err := os.Stat(path)
			if err != nil {
				return false, fmt.Errorf("%s: %w", path, err)
			}
			return true, os.WriteFile(path, out, info.Mode().Perm())
		}
	default:
		if _, err := os.Stdout.Write(out); err != nil {
			return changed, err
		}
	}
	return changed, nil
}

// writeDiff prints a minimal line diff: context, then removals, then
// additions. Good enough for eyeballing formatter changes without a
// diffing dependency.
func writeDiff(w io.Writer, path string, before, after []byte) {
	fmt.Fprintf(w, "--- %s\n", path)
	fmt.Fprintf(w, "+++ %s\n", path)

	oldLines := strings.Split(strings.TrimSuffix(string(before), "\n"), "\n")
	newLines := strings.Split(strings.TrimSuffix(string(after), "\n"), "\n")

	i, j := 0, 0
	for i < len(oldLines) || j < len(newLines) {
		switch {
		case i < len(oldLines) && j < len(newLines) && oldLines[i] == newLines[j]:
			fmt.Fprintf(w, " %s\n", oldLines[i])
			i++
			j++
		case i < len(oldLines):
			fmt.Fprintf(w, "-%s\n", oldLines[i])
			i++
		default:
			fmt.Fprintf(w, "+%s\n", newLines[j])
			j++
		}
	}
}

func init() {
	rootCmd.AddCommand(fmtCmd)

	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false,
		"Write result to (source) file instead of stdout.")
	fmtCmd.Flags().BoolVarP(&fmtDiff, "diff", "d", false,
		"Display diffs instead of rewriting files.")
	fmtCmd.Flags().BoolVarP(&fmtList, "list", "l", false,
		"List files whose formatting differs from typls fmt's.")
	fmtCmd.Flags().IntVar(&fmtIndentSize, "indent-size", 2,
		"Number of spaces per indentation level.")
	fmtCmd.Flags().StringArrayVar(&fmtExcludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
}

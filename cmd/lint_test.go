// Copyright © 2025 The typls authors

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typls/typls/lint"
)

func TestLintCommand_DefaultFlags(t *testing.T) {
	assert.Equal(t, "lint [flags] [files...]", lintCmd.Use)

	for _, name := range []string{"json", "checks", "list", "exclude"} {
		assert.NotNil(t, lintCmd.Flags().Lookup(name), "missing flag: %s", name)
	}
}

func TestLintFile_ReportsFindings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.typ")
	require.NoError(t, os.WriteFile(path, []byte("= Top\n\n=== Deep\n"), 0o600))

	l := &lint.Linter{Analyzers: lint.DefaultAnalyzers()}
	src, findings, err := lintFile(l, path)
	require.NoError(t, err)
	require.NotNil(t, src)
	require.NotEmpty(t, findings)
	assert.Equal(t, "heading level 3 skips level 2", findings[0].Message)
}

func TestLintFile_Clean(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.typ")
	require.NoError(t, os.WriteFile(path, []byte("= Top\n\n== Next\n"), 0o600))

	l := &lint.Linter{Analyzers: lint.DefaultAnalyzers()}
	_, findings, err := lintFile(l, path)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestLintFile_Missing(t *testing.T) {
	l := &lint.Linter{Analyzers: lint.DefaultAnalyzers()}
	_, _, err := lintFile(l, filepath.Join(t.TempDir(), "absent.typ"))
	assert.Error(t, err)
}

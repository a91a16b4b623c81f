// Copyright © 2025 The typls authors

package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formatTest struct {
	name     string
	input    string
	expected string
	config   *Config
}

func runFormatTests(t *testing.T, tests []formatTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			got, err := Format([]byte(tt.input), cfg)
			require.NoError(t, err, "Format failed")
			assert.Equal(t, tt.expected, string(got), "formatted output mismatch")

			// Idempotency: formatting the output again should produce identical output
			got2, err := Format(got, cfg)
			require.NoError(t, err, "Format (idempotency) failed")
			assert.Equal(t, string(got), string(got2), "not idempotent")
		})
	}
}

func TestFormatHeadings(t *testing.T) {
	runFormatTests(t, []formatTest{
		{
			name:     "marker spacing added",
			input:    "==Overview\n",
			expected: "== Overview\n",
		},
		{
			name:     "marker spacing collapsed",
			input:    "=   Title\n",
			expected: "= Title\n",
		},
		{
			name:     "bare marker kept",
			input:    "==\n",
			expected: "==\n",
		},
		{
			name:     "already formatted",
			input:    "= Title\n\n== Section\n",
			expected: "= Title\n\n== Section\n",
		},
	})
}

func TestFormatWhitespace(t *testing.T) {
	runFormatTests(t, []formatTest{
		{
			name:     "trailing whitespace removed",
			input:    "Hello world   \n",
			expected: "Hello world\n",
		},
		{
			name:     "blank runs collapsed",
			input:    "one\n\n\n\ntwo\n",
			expected: "one\n\ntwo\n",
		},
		{
			name:     "leading blanks dropped",
			input:    "\n\n= Title\n",
			expected: "= Title\n",
		},
		{
			name:     "trailing newline added",
			input:    "text",
			expected: "text\n",
		},
		{
			name:     "blank input yields empty output",
			input:    "  \n\n\t\n",
			expected: "",
		},
	})
}

func TestFormatCodeIndentation(t *testing.T) {
	runFormatTests(t, []formatTest{
		{
			name:     "code block reindented",
			input:    "#if x {\ny\n}\n",
			expected: "#if x {\n  y\n}\n",
		},
		{
			name:     "nested blocks",
			input:    "#if x {\n#if y {\nz\n}\n}\n",
			expected: "#if x {\n  #if y {\n    z\n  }\n}\n",
		},
		{
			name:     "inline block does not indent",
			input:    "#let x = {1 + 2}\nnext\n",
			expected: "#let x = {1 + 2}\nnext\n",
		},
		{
			name:     "braces in strings ignored",
			input:    "#let s = \"{\"\nnext\n",
			expected: "#let s = \"{\"\nnext\n",
		},
		{
			name:     "braces in comments ignored",
			input:    "#let x = 1 // {\nnext\n",
			expected: "#let x = 1 // {\nnext\n",
		},
		{
			name:     "custom indent size",
			input:    "#if x {\ny\n}\n",
			expected: "#if x {\n    y\n}\n",
			config:   &Config{IndentSize: 4, MaxBlankLines: 1},
		},
	})
}

func TestFormatRawBlocks(t *testing.T) {
	runFormatTests(t, []formatTest{
		{
			name:     "raw block preserved verbatim",
			input:    "```\n  keep   this \n```\n",
			expected: "```\n  keep   this \n```\n",
		},
		{
			name:     "raw block with language tag",
			input:    "```go\nfunc main() {}\n```\nafter   \n",
			expected: "```go\nfunc main() {}\n```\nafter\n",
		},
		{
			name:     "heading markers inside raw untouched",
			input:    "```\n==not a heading\n```\n",
			expected: "```\n==not a heading\n```\n",
		},
	})
}

func TestFormatFileDelegates(t *testing.T) {
	got, err := FormatFile([]byte("==Title\n"), "doc.typ", nil)
	require.NoError(t, err)
	assert.Equal(t, "== Title\n", string(got))
}

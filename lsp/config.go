// Copyright © 2025 The typls authors

package lsp

import (
	"encoding/json"

	"github.com/typls/typls/typst/syntax"
)

// Export modes for the exportPdf setting.
const (
	ExportNever  = "never"
	ExportOnSave = "onSave"
	ExportOnType = "onType"
)

// Output root modes for the outputRoot setting.
const (
	OutputSource    = "source"
	OutputWorkspace = "workspace"
	OutputAbsolute  = "absolute"
)

// Semantic token gate values.
const (
	SemanticTokensEnable  = "enable"
	SemanticTokensDisable = "disable"
)

// Config is the server settings object, delivered through
// initializationOptions or workspace/didChangeConfiguration. Unknown
// keys are ignored; absent keys keep their previous values.
type Config struct {
	ExportPdf        string   `json:"exportPdf"`
	OutputRoot       string   `json:"outputRoot"`
	OutputPath       string   `json:"outputPath"`
	SemanticTokens   string   `json:"semanticTokens"`
	PositionEncoding string   `json:"positionEncoding"`
	FontPaths        []string `json:"fontPaths"`
}

// DefaultConfig returns the settings used when the client sends none.
func DefaultConfig() Config {
	return Config{
		ExportPdf:        ExportOnSave,
		OutputRoot:       OutputSource,
		SemanticTokens:   SemanticTokensEnable,
		PositionEncoding: "utf-16",
	}
}

// Merge overlays a raw settings object onto the config. Clients nest the
// settings under a "typst-lsp" key in didChangeConfiguration; both the
// nested and the flat shape are accepted.
func (c *Config) Merge(raw any) {
	if raw == nil {
		return
	}
	if m, ok := raw.(map[string]any); ok {
		if nested, ok := m["typst-lsp"]; ok {
			raw = nested
		}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return
	}
	// Unmarshal onto the existing values so partial objects keep
	// defaults.
	_ = json.Unmarshal(data, c)
	c.normalize()
}

func (c *Config) normalize() {
	switch c.ExportPdf {
	case ExportNever, ExportOnSave, ExportOnType:
	default:
		c.ExportPdf = ExportOnSave
	}
	switch c.OutputRoot {
	case OutputSource, OutputWorkspace, OutputAbsolute:
	default:
		c.OutputRoot = OutputSource
	}
	switch c.SemanticTokens {
	case SemanticTokensEnable, SemanticTokensDisable:
	default:
		c.SemanticTokens = SemanticTokensEnable
	}
	switch c.PositionEncoding {
	case "utf-8", "utf-16":
	default:
		c.PositionEncoding = "utf-16"
	}
}

// Encoding maps the positionEncoding setting to the engine encoding.
func (c Config) Encoding() syntax.PositionEncoding {
	if c.PositionEncoding == "utf-8" {
		return syntax.EncodingUTF8
	}
	return syntax.EncodingUTF16
}

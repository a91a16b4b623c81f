// Copyright © 2025 The typls authors

// Package docs embeds the typls reference guides for use by the CLI.
package docs

import _ "embed"

//go:embed configuration.md
var ConfigGuide string

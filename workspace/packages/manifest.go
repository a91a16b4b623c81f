// Copyright © 2025 The typls authors

package packages

import (
	"fmt"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// manifestName is the file describing a package at its root.
const manifestName = "typst.toml"

// defaultEntrypoint is assumed when a manifest does not name one.
const defaultEntrypoint = "lib.typ"

// Manifest is the decoded typst.toml of an external package. Unknown
// keys are ignored.
type Manifest struct {
	Package struct {
		Name       string `toml:"name"`
		Version    string `toml:"version"`
		Entrypoint string `toml:"entrypoint"`
	} `toml:"package"`
}

// Entrypoint returns the package's main file, defaulting to lib.typ.
func (m *Manifest) Entrypoint() string {
	if m.Package.Entrypoint == "" {
		return defaultEntrypoint
	}
	return m.Package.Entrypoint
}

// ReadManifest decodes the typst.toml inside a package directory.
func ReadManifest(filesystem afero.Fs, dir string) (*Manifest, error) {
	data, err := afero.ReadFile(filesystem, filepath.Join(dir, manifestName))
	if err != nil {
		return nil, fmt.Errorf("read manifest in %s: %w", dir, err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest in %s: %w", dir, err)
	}
	return &m, nil
}

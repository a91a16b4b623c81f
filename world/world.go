// Copyright © 2025 The typls authors

package world

import (
	"context"
	"fmt"

	"github.com/typls/typls/typst"
	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/uri"
	"github.com/typls/typls/workspace"
	"github.com/typls/typls/workspace/fonts"
)

// ProjectWorld adapts one workspace snapshot and one main file to the
// engine's World interface. It lives no longer than the snapshot it
// wraps.
type ProjectWorld struct {
	ctx     context.Context
	snap    *workspace.Snapshot
	main    syntax.FileID
	library *typst.Library
	clock   clock
}

var _ typst.World = &ProjectWorld{}

// NewProjectWorld binds a snapshot to a main file. The context governs
// package downloads triggered by imports during compilation.
func NewProjectWorld(ctx context.Context, snap *workspace.Snapshot, main syntax.FileID) *ProjectWorld {
	return &ProjectWorld{
		ctx:     ctx,
		snap:    snap,
		main:    main,
		library: typst.DefaultLibrary(),
	}
}

func (w *ProjectWorld) Library() *typst.Library { return w.library }

func (w *ProjectWorld) Book() *fonts.Book { return w.snap.Fonts().Book() }

func (w *ProjectWorld) Main() syntax.FileID { return w.main }

func (w *ProjectWorld) Source(id syntax.FileID) (*syntax.Source, error) {
	u, err := w.uriFor(id)
	if err != nil {
		return nil, err
	}
	return w.snap.ReadSource(u)
}

func (w *ProjectWorld) File(id syntax.FileID) ([]byte, error) {
	u, err := w.uriFor(id)
	if err != nil {
		return nil, err
	}
	return w.snap.ReadBytes(u)
}

func (w *ProjectWorld) Font(index int) *fonts.Font { return w.snap.Fonts().Font(index) }

func (w *ProjectWorld) Today(offset *int) *typst.Datetime { return w.clock.today(offset) }

func (w *ProjectWorld) Packages() []syntax.PackageSpec { return w.snap.Packages().Packages() }

// uriFor maps a file identifier back to a concrete URI. External package
// files may trigger a blocking download of the package archive.
func (w *ProjectWorld) uriFor(id syntax.FileID) (uri.URI, error) {
	if !id.IsValid() {
		return "", fmt.Errorf("invalid file id")
	}
	pkg := id.Package()
	if pkg.IsCurrent() {
		return uri.Join(uri.URI(pkg.Root()), id.Path())
	}
	p, err := w.snap.PackageRoot(w.ctx, pkg)
	if err != nil {
		return "", err
	}
	return uri.Join(p.Root, id.Path())
}

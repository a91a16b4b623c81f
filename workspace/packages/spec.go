// Copyright © 2025 The typls authors

// Package packages resolves package identities to filesystem roots. It
// tracks current workspace folders, two on-disk stores for external
// packages, and a remote repository that downloads missing versions.
package packages

import (
	"fmt"
	"sort"

	goversion "github.com/hashicorp/go-version"

	"github.com/typls/typls/typst/syntax"
)

// ParseSpec parses "@namespace/name:version" and validates the version
// as semver.
func ParseSpec(raw string) (syntax.PackageSpec, error) {
	spec, err := syntax.ParsePackageSpec(raw)
	if err != nil {
		return syntax.PackageSpec{}, err
	}
	if _, err := goversion.NewSemver(spec.Version); err != nil {
		return syntax.PackageSpec{}, fmt.Errorf("package spec %q: %w", raw, err)
	}
	return spec, nil
}

// CompareVersions orders two semver strings. Unparseable versions sort
// before parseable ones, and equal garbage compares as a plain string.
func CompareVersions(a, b string) int {
	va, errA := goversion.NewSemver(a)
	vb, errB := goversion.NewSemver(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	default:
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
}

// SortSpecs orders specs by namespace, name, then descending version, so
// the newest version of each package lists first.
func SortSpecs(specs []syntax.PackageSpec) {
	sort.Slice(specs, func(i, j int) bool {
		a, b := specs[i], specs[j]
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return CompareVersions(a.Version, b.Version) > 0
	})
}

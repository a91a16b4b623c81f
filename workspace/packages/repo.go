// Copyright © 2025 The typls authors

package packages

import (
	"archive/tar"
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/typls/typls/typst/syntax"
)

// Repository protocol constants.
const (
	repoBase = "https://packages.typst.org"

	// previewNamespace is the only namespace the repository serves.
	previewNamespace = "preview"

	repoTotalTimeout   = 30 * time.Second
	repoConnectTimeout = 5 * time.Second
)

// RepoErrorKind classifies package download failures.
type RepoErrorKind int

const (
	// InvalidNamespace rejects specs outside the preview namespace
	// before any network activity.
	InvalidNamespace RepoErrorKind = iota
	// RepoNotFound means the repository answered 404 for the spec.
	RepoNotFound
	// NetworkError covers transport failures and non-404 error statuses.
	NetworkError
	// MalformedArchive means the response decoded as neither valid gzip
	// nor valid tar.
	MalformedArchive
	// LocalFS means extraction failed writing to the target directory.
	LocalFS
)

func (k RepoErrorKind) String() string {
	switch k {
	case InvalidNamespace:
		return "invalid namespace"
	case RepoNotFound:
		return "package not found"
	case NetworkError:
		return "network error"
	case MalformedArchive:
		return "malformed archive"
	default:
		return "local filesystem error"
	}
}

// RepoError is the error type for all repository operations.
type RepoError struct {
	Kind RepoErrorKind
	Spec syntax.PackageSpec
	Err  error
}

func (e *RepoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("package %s: %s: %v", e.Spec, e.Kind, e.Err)
	}
	return fmt.Sprintf("package %s: %s", e.Spec, e.Kind)
}

func (e *RepoError) Unwrap() error { return e.Err }

// Repo downloads a package archive and unpacks it into dir.
type Repo interface {
	Download(ctx context.Context, spec syntax.PackageSpec, dir string) error
}

// RemoteRepo downloads packages over HTTPS from the Typst package
// repository: GET <base>/<namespace>/<name>-<version>.tar.gz.
type RemoteRepo struct {
	base   string
	client *http.Client
}

// NewRemoteRepo builds a repository client with a 30s total timeout and
// a 5s connect timeout.
func NewRemoteRepo() *RemoteRepo {
	return &RemoteRepo{
		base: repoBase,
		client: &http.Client{
			Timeout: repoTotalTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: repoConnectTimeout,
				}).DialContext,
			},
		},
	}
}

// Download fetches the package archive and streams it through gzip and
// tar into dir.
func (r *RemoteRepo) Download(ctx context.Context, spec syntax.PackageSpec, dir string) error {
	if spec.Namespace != previewNamespace {
		return &RepoError{Kind: InvalidNamespace, Spec: spec}
	}
	url := fmt.Sprintf("%s/%s/%s-%s.tar.gz", r.base, spec.Namespace, spec.Name, spec.Version)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &RepoError{Kind: NetworkError, Spec: spec, Err: err}
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return &RepoError{Kind: NetworkError, Spec: spec, Err: err}
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &RepoError{Kind: RepoNotFound, Spec: spec}
	case resp.StatusCode != http.StatusOK:
		return &RepoError{Kind: NetworkError, Spec: spec, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if err := Extract(resp.Body, dir); err != nil {
		return &RepoError{Kind: classifyExtract(err), Spec: spec, Err: err}
	}
	return nil
}

// Extract unpacks a gzipped tar stream into dir. Entries that would land
// outside dir are rejected.
func Extract(r io.Reader, dir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("gzip: %w", err)
	}
	defer gz.Close()
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("tar: %w", err)
		}
		target, err := sanitizePath(dir, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("mkdir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("mkdir %s: %w", filepath.Dir(target), err)
			}
			f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, hdr.FileInfo().Mode().Perm())
			if err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
			//nolint:gosec // G110: package archives are size-bounded upstream
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return fmt.Errorf("write %s: %w", target, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", target, err)
			}
		default:
			// Symlinks and other special entries are skipped.
		}
	}
}

// sanitizePath joins an archive entry name onto dir, rejecting absolute
// names and names that escape dir.
func sanitizePath(dir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("tar: entry %q escapes the target directory", name)
	}
	return filepath.Join(dir, cleaned), nil
}

// classifyExtract decides whether an extraction failure came from the
// archive or from the local filesystem. The Go codecs expose typed
// errors for structural problems; a substring check on the wrapped
// message remains as the fallback for untyped errors.
func classifyExtract(err error) RepoErrorKind {
	var corrupt flate.CorruptInputError
	switch {
	case errors.Is(err, gzip.ErrHeader),
		errors.Is(err, gzip.ErrChecksum),
		errors.Is(err, tar.ErrHeader),
		errors.As(err, &corrupt),
		errors.Is(err, io.ErrUnexpectedEOF):
		return MalformedArchive
	}
	msg := err.Error()
	if strings.Contains(msg, "gzip") || strings.Contains(msg, "tar") || strings.Contains(msg, "archive") {
		return MalformedArchive
	}
	return LocalFS
}

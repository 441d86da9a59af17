package source

import (
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/protobuild/internal/adapters/fs"
	"go.trai.ch/protobuild/internal/core/domain"
)

// LocalSource handles file:// URIs and bare filesystem paths. A directory is copied as a source
// checkout; a file is treated as a package archive.
type LocalSource struct{}

// NewLocalSource creates a LocalSource.
func NewLocalSource() *LocalSource {
	return &LocalSource{}
}

// Name implements ports.Source.
func (s *LocalSource) Name() string { return "local" }

// Accepts implements ports.Source.
func (s *LocalSource) Accepts(uri string) bool {
	return strings.HasPrefix(uri, "file://") || !strings.Contains(uri, "://")
}

func localPath(uri string) (string, error) {
	return filepath.Abs(filepath.FromSlash(strings.TrimPrefix(uri, "file://")))
}

// Lookup inspects the path.
func (s *LocalSource) Lookup(_ context.Context, uri, ref, platform string) (*domain.ResolvedPackageMetadata, error) {
	path, err := localPath(uri)
	if err != nil {
		return nil, domain.NewFetchError(domain.FetchUnreachable, uri, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, domain.NewFetchError(domain.FetchRefNotFound, uri, err)
		}
		return nil, domain.NewFetchError(domain.FetchUnreachable, uri, err)
	}

	meta := &domain.ResolvedPackageMetadata{
		Source:   s.Name(),
		URI:      uri,
		Ref:      ref,
		Platform: platform,
	}
	if info.IsDir() {
		meta.SourceAvailable = true
		meta.GitURI = path
		return meta, nil
	}

	meta.BinaryAvailable = true
	meta.BinaryURI = path
	meta.Format, _ = formatFromPath(path)
	return meta, nil
}

// DownloadBinary copies the archive file.
func (s *LocalSource) DownloadBinary(_ context.Context, meta *domain.ResolvedPackageMetadata, w io.Writer) error {
	if !meta.BinaryAvailable {
		return domain.NewFetchError(domain.FetchBinaryUnavailable, meta.URI, errors.New("path is a directory"))
	}
	f, err := os.Open(meta.BinaryURI)
	if err != nil {
		return domain.NewFetchError(domain.FetchUnreachable, meta.URI, err)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	if _, err := io.Copy(w, f); err != nil {
		return domain.NewFetchError(domain.FetchUnreachable, meta.URI, err)
	}
	return nil
}

// CheckoutSource copies the directory tree, including any .git folder.
func (s *LocalSource) CheckoutSource(_ context.Context, meta *domain.ResolvedPackageMetadata, dest string) error {
	if !meta.SourceAvailable {
		return domain.NewFetchError(domain.FetchSourceUnavailable, meta.URI, errors.New("path is not a directory"))
	}
	if err := fs.CopyDir(meta.GitURI, dest); err != nil {
		return domain.NewFetchError(domain.FetchSourceUnavailable, meta.URI, err)
	}
	return nil
}

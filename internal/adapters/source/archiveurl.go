package source

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"

	"go.trai.ch/protobuild/internal/core/domain"
)

// ArchiveURLSource handles HTTP URLs that point straight at a package archive.
type ArchiveURLSource struct {
	client HTTPDoer
}

// NewArchiveURLSource creates an ArchiveURLSource.
func NewArchiveURLSource(client HTTPDoer) *ArchiveURLSource {
	return &ArchiveURLSource{client: client}
}

// Name implements ports.Source.
func (s *ArchiveURLSource) Name() string { return "archive" }

// Accepts implements ports.Source.
func (s *ArchiveURLSource) Accepts(uri string) bool {
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return false
	}
	_, ok := formatFromPath(uri)
	return ok
}

// formatFromPath guesses the archive format from a URL or file path extension.
func formatFromPath(p string) (domain.ArchiveFormat, bool) {
	if u, err := url.Parse(p); err == nil && u.Path != "" {
		p = u.Path
	}
	lower := strings.ToLower(p)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return domain.FormatTarGzip, true
	case strings.HasSuffix(lower, ".tar.lzma"):
		return domain.FormatTarLZMA, true
	case strings.HasSuffix(lower, ".nupkg"):
		return domain.FormatNuGetZip, true
	}
	return "", false
}

// Lookup checks the archive exists. The ref is ignored since the URL names one artifact.
func (s *ArchiveURLSource) Lookup(ctx context.Context, uri, ref, platform string) (*domain.ResolvedPackageMetadata, error) {
	ok, err := exists(ctx, s.client, uri)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewFetchError(domain.FetchRefNotFound, uri, errors.New("archive not found"))
	}

	format, _ := formatFromPath(uri)
	return &domain.ResolvedPackageMetadata{
		Source:          s.Name(),
		URI:             uri,
		Ref:             ref,
		Platform:        platform,
		BinaryAvailable: true,
		BinaryURI:       uri,
		Format:          format,
	}, nil
}

// DownloadBinary streams the archive.
func (s *ArchiveURLSource) DownloadBinary(ctx context.Context, meta *domain.ResolvedPackageMetadata, w io.Writer) error {
	return download(ctx, s.client, meta.BinaryURI, w)
}

// CheckoutSource implements ports.Source.
func (s *ArchiveURLSource) CheckoutSource(_ context.Context, meta *domain.ResolvedPackageMetadata, _ string) error {
	return domain.NewFetchError(domain.FetchSourceUnavailable, meta.URI, errors.New("archive URLs are binary only"))
}

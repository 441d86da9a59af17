package source

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.trai.ch/protobuild/internal/core/domain"
)

// PointerPrefix marks URIs that forward a package folder to another folder.
const PointerPrefix = domain.PointerScheme

// PointerSource handles local-pointer:// URIs. It never produces content; the resolver writes a
// .redirect marker instead.
type PointerSource struct{}

// NewPointerSource creates a PointerSource.
func NewPointerSource() *PointerSource {
	return &PointerSource{}
}

// Name implements ports.Source.
func (s *PointerSource) Name() string { return "local-pointer" }

// Accepts implements ports.Source.
func (s *PointerSource) Accepts(uri string) bool {
	return strings.HasPrefix(uri, PointerPrefix)
}

// Lookup returns metadata whose Pointer is the target path, possibly relative to the declaring module.
func (s *PointerSource) Lookup(_ context.Context, uri, ref, platform string) (*domain.ResolvedPackageMetadata, error) {
	target := strings.TrimPrefix(uri, PointerPrefix)
	if target == "" {
		return nil, domain.NewFetchError(domain.FetchRefNotFound, uri, errors.New("pointer has no target"))
	}
	return &domain.ResolvedPackageMetadata{
		Source:   s.Name(),
		URI:      uri,
		Ref:      ref,
		Platform: platform,
		Pointer:  target,
	}, nil
}

// DownloadBinary implements ports.Source.
func (s *PointerSource) DownloadBinary(_ context.Context, meta *domain.ResolvedPackageMetadata, _ io.Writer) error {
	return domain.NewFetchError(domain.FetchBinaryUnavailable, meta.URI, errors.New("pointers carry no content"))
}

// CheckoutSource implements ports.Source.
func (s *PointerSource) CheckoutSource(_ context.Context, meta *domain.ResolvedPackageMetadata, _ string) error {
	return domain.NewFetchError(domain.FetchSourceUnavailable, meta.URI, errors.New("pointers carry no content"))
}

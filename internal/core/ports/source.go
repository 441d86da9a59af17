package ports

import (
	"context"
	"io"

	"go.trai.ch/protobuild/internal/core/domain"
)

//go:generate mockgen -source=source.go -destination=mocks/mock_source.go -package=mocks

// Source fetches packages for one family of URIs.
type Source interface {
	// Name identifies the adapter in logs.
	Name() string

	// Accepts reports whether the adapter handles uri.
	Accepts(uri string) bool

	// Lookup resolves uri at ref for platform without fetching content.
	Lookup(ctx context.Context, uri, ref, platform string) (*domain.ResolvedPackageMetadata, error)

	// DownloadBinary writes the prebuilt archive described by meta to w.
	DownloadBinary(ctx context.Context, meta *domain.ResolvedPackageMetadata, w io.Writer) error

	// CheckoutSource materializes an editable working copy into dest.
	CheckoutSource(ctx context.Context, meta *domain.ResolvedPackageMetadata, dest string) error
}

// SourceRegistry selects the Source for a URI.
type SourceRegistry interface {
	For(uri string) (Source, error)
}

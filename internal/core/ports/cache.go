package ports

import (
	"context"
	"io"

	"go.trai.ch/protobuild/internal/core/domain"
)

// DownloadFunc writes a package archive to w.
type DownloadFunc func(ctx context.Context, w io.Writer) error

// PackageCache stores downloaded package archives keyed by (URI, ref, platform).
//
//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type PackageCache interface {
	// Lookup returns the cached entry for key, or domain.ErrCacheMiss.
	Lookup(key domain.CacheKey) (*domain.CacheEntry, error)

	// Store copies r into the cache under key.
	Store(key domain.CacheKey, meta *domain.ResolvedPackageMetadata, r io.Reader) (*domain.CacheEntry, error)

	// Fetch returns the cached archive for key, downloading and storing it on a miss.
	// An entry recorded for a different effective source than meta.URI is treated as a miss.
	Fetch(
		ctx context.Context,
		key domain.CacheKey,
		meta *domain.ResolvedPackageMetadata,
		download DownloadFunc,
	) (*domain.CacheEntry, error)

	// Evict removes any entry for key.
	Evict(key domain.CacheKey) error
}

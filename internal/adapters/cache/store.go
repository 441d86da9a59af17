// Package cache implements the on-disk package archive cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/protobuild/internal/adapters/fs"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

const (
	archiveExt = ".pkg"
	sidecarExt = ".json"
)

// Store implements ports.PackageCache as one archive plus one JSON sidecar per key.
// Files are renamed into place, so several processes may share the directory.
type Store struct {
	dir      string
	hasher   ports.Hasher
	archiver ports.Archiver
	logger   ports.Logger
	group    singleflight.Group
	now      func() time.Time
}

var _ ports.PackageCache = (*Store)(nil)

// NewStore creates a Store rooted at dir.
func NewStore(dir string, hasher ports.Hasher, archiver ports.Archiver, logger ports.Logger) *Store {
	return &Store{
		dir:      filepath.Clean(dir),
		hasher:   hasher,
		archiver: archiver,
		logger:   logger,
		now:      time.Now,
	}
}

// Dir returns the cache root.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) name(key domain.CacheKey) string {
	return s.hasher.Key(key.URI, key.Ref, key.Platform)
}

func (s *Store) paths(key domain.CacheKey) (archivePath, sidecarPath string) {
	base := filepath.Join(s.dir, s.name(key))
	return base + archiveExt, base + sidecarExt
}

// Lookup returns the entry for key. Missing entries and entries that fail validation are
// reported as domain.ErrCacheMiss; invalid entries are deleted.
func (s *Store) Lookup(key domain.CacheKey) (*domain.CacheEntry, error) {
	archivePath, sidecarPath := s.paths(key)

	data, err := os.ReadFile(sidecarPath) //nolint:gosec // Path is derived from the cache key
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, miss(key)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read cache entry"), "path", sidecarPath)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Key != key {
		s.discard(key, "unreadable cache metadata")
		return nil, miss(key)
	}

	format, err := s.archiver.Detect(archivePath)
	if err != nil {
		s.discard(key, "corrupt cached archive")
		return nil, miss(key)
	}

	entry.Format = format
	entry.Path = archivePath
	return &entry, nil
}

// Store copies r into the cache under key. The archive must be in a recognized format.
func (s *Store) Store(key domain.CacheKey, meta *domain.ResolvedPackageMetadata, r io.Reader) (*domain.CacheEntry, error) {
	tmp, err := s.tempFile()
	if err != nil {
		return nil, err
	}
	defer removeIfExists(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "uri", key.URI)
	}
	if err := tmp.Close(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "uri", key.URI)
	}

	return s.commit(key, meta, tmp.Name())
}

// Fetch returns the entry for key, downloading it first on a miss. Concurrent calls for one key
// in this process share a single download.
func (s *Store) Fetch(
	ctx context.Context,
	key domain.CacheKey,
	meta *domain.ResolvedPackageMetadata,
	download ports.DownloadFunc,
) (*domain.CacheEntry, error) {
	v, err, _ := s.group.Do(s.name(key), func() (any, error) {
		entry, err := s.Lookup(key)
		switch {
		case err == nil && entry.Source != meta.URI:
			s.logger.Info(fmt.Sprintf("cache miss %s: cached from %s, now %s", key.URI, entry.Source, meta.URI))
		case err == nil && meta.Commit != "" && entry.Commit != meta.Commit:
			s.logger.Info(fmt.Sprintf("cache miss %s: cached at %s, now %s", key.URI, entry.Commit, meta.Commit))
		case err == nil:
			s.logger.Info(fmt.Sprintf("cache hit %s (%s, %s)", key.URI, key.Ref, key.Platform))
			return entry, nil
		case errors.Is(err, domain.ErrCacheMiss):
			s.logger.Info(fmt.Sprintf("cache miss %s (%s, %s)", key.URI, key.Ref, key.Platform))
		default:
			return nil, err
		}

		return s.download(ctx, key, meta, download)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CacheEntry), nil
}

func (s *Store) download(
	ctx context.Context,
	key domain.CacheKey,
	meta *domain.ResolvedPackageMetadata,
	download ports.DownloadFunc,
) (*domain.CacheEntry, error) {
	tmp, err := s.tempFile()
	if err != nil {
		return nil, err
	}
	defer removeIfExists(tmp.Name())

	s.logger.Info("fetching " + meta.URI)
	if err := download(ctx, tmp); err != nil {
		_ = tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "uri", key.URI)
	}

	return s.commit(key, meta, tmp.Name())
}

// commit validates the archive at tmpPath and moves it into place, then writes the sidecar.
// The sidecar is written last so a reader never sees metadata for a partial archive.
func (s *Store) commit(key domain.CacheKey, meta *domain.ResolvedPackageMetadata, tmpPath string) (*domain.CacheEntry, error) {
	format, err := s.archiver.Detect(tmpPath)
	if err != nil {
		return nil, zerr.With(err, "uri", meta.URI)
	}

	archivePath, sidecarPath := s.paths(key)
	if err := os.Rename(tmpPath, archivePath); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "path", archivePath)
	}

	entry := &domain.CacheEntry{
		Key:      key,
		Path:     archivePath,
		Source:   meta.URI,
		Format:   format,
		Commit:   meta.Commit,
		StoredAt: s.now().UTC(),
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}
	if err := fs.AtomicWriteFile(sidecarPath, data, domain.FilePerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "path", sidecarPath)
	}
	return entry, nil
}

// Evict removes the entry for key. Evicting a missing entry is not an error.
func (s *Store) Evict(key domain.CacheKey) error {
	archivePath, sidecarPath := s.paths(key)
	for _, p := range []string{sidecarPath, archivePath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, iofs.ErrNotExist) {
			return zerr.With(zerr.Wrap(err, "failed to evict cache entry"), "path", p)
		}
	}
	return nil
}

func (s *Store) discard(key domain.CacheKey, reason string) {
	s.logger.Warn(fmt.Sprintf("discarding %s for %s", reason, key.URI))
	_ = s.Evict(key)
}

func (s *Store) tempFile() (*os.File, error) {
	if err := os.MkdirAll(s.dir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheCreateFailed.Error()), "path", s.dir)
	}
	tmp, err := os.CreateTemp(s.dir, ".download-*")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheCreateFailed.Error()), "path", s.dir)
	}
	return tmp, nil
}

func miss(key domain.CacheKey) error {
	return zerr.With(zerr.Wrap(domain.ErrCacheMiss, "no cached archive"), "uri", key.URI)
}

func removeIfExists(p string) {
	if _, err := os.Stat(p); err == nil {
		_ = os.Remove(p)
	}
}

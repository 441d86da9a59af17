package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"

	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// manifestEntry is where a module manifest sits inside a package archive.
const manifestEntry = "Build/Module.xml"

// PrecacheRequest names a package to download into the cache with its dependencies.
type PrecacheRequest struct {
	Scope
	URI string
	Ref string
}

// Precache stores the binary archive of a package and of every package it declares,
// without materializing anything. Source-only packages are skipped with a warning.
func (a *App) Precache(ctx context.Context, req PrecacheRequest) error {
	opts, err := a.options(req.Scope)
	if err != nil {
		return err
	}

	root := domain.PackageReference{URI: req.URI, GitRef: req.Ref}
	if err := root.Validate(); err != nil {
		return zerr.With(err, "uri", req.URI)
	}

	visited := make(map[domain.CacheKey]struct{})
	queue := []domain.PackageReference{root}
	var errs []error

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		ref := queue[0]
		queue = queue[1:]

		key := domain.CacheKey{URI: ref.URI, Ref: ref.Ref(), Platform: opts.Platform}
		if _, seen := visited[key]; seen {
			continue
		}
		visited[key] = struct{}{}

		nested, err := a.precacheOne(ctx, key, opts)
		if err != nil {
			if ref.Optional {
				a.logger.Warn("skipping optional package " + ref.URI + ": " + err.Error())
				continue
			}
			if !opts.ContinueOnError {
				return err
			}
			errs = append(errs, err)
			continue
		}
		queue = append(queue, nested...)
	}

	if len(errs) > 0 {
		return joinFailures(errs)
	}
	return nil
}

// precacheOne caches one archive and returns the packages its manifest declares.
func (a *App) precacheOne(
	ctx context.Context,
	key domain.CacheKey,
	opts ports.ResolveOptions,
) ([]domain.PackageReference, error) {
	effective := key.URI
	if target, ok := opts.Redirects.Resolve(key.URI); ok {
		effective = target
	}

	src, err := a.sources.For(effective)
	if err != nil {
		return nil, err
	}
	meta, err := src.Lookup(ctx, effective, key.Ref, key.Platform)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "package lookup failed"), "uri", key.URI)
	}
	if meta.IsPointer() {
		return nil, nil
	}
	if !meta.BinaryAvailable {
		a.logger.Warn("skipping " + key.URI + ": no binary package for " + key.Platform)
		return nil, nil
	}

	entry, err := a.cache.Fetch(ctx, key, meta, func(ctx context.Context, w io.Writer) error {
		return src.DownloadBinary(ctx, meta, w)
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to cache package"), "uri", key.URI)
	}
	a.logger.Info("cached " + key.URI + " (" + key.Ref + ", " + key.Platform + ")")

	return a.declaredBy(entry, key.Platform)
}

// declaredBy reads the module manifest out of a cached archive, if it carries one.
func (a *App) declaredBy(entry *domain.CacheEntry, platform string) ([]domain.PackageReference, error) {
	files, err := a.archiver.ReadFile(entry.Path)
	if err != nil {
		return nil, err
	}

	data, ok := files[manifestEntry]
	if !ok {
		data, ok = files[path.Join("protobuild", platform, manifestEntry)]
	}
	if !ok {
		return nil, nil
	}

	dir, err := os.MkdirTemp("", "protobuild-precache-")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create temporary module folder")
	}
	defer func() { _ = os.RemoveAll(dir) }()

	manifestPath := filepath.Join(dir, filepath.FromSlash(manifestEntry))
	if err := os.MkdirAll(filepath.Dir(manifestPath), 0o750); err != nil {
		return nil, zerr.Wrap(err, "failed to create temporary module folder")
	}
	if err := os.WriteFile(manifestPath, data, 0o600); err != nil {
		return nil, zerr.Wrap(err, "failed to write temporary manifest")
	}

	module, err := a.manifests.Load(dir)
	if err != nil {
		return nil, err
	}
	return module.Packages, nil
}

func joinFailures(errs []error) error {
	return errors.Join(append([]error{domain.ErrResolutionFailed}, errs...)...)
}

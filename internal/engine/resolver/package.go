package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/protobuild/internal/adapters/fs"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/protobuild/internal/ui/style"
	"go.trai.ch/zerr"
)

// resolveJob satisfies one declaration and returns the folder holding real content, or ""
// when the folder only forwards elsewhere.
func (r *Resolver) resolveJob(ctx context.Context, j job, opts ports.ResolveOptions) (string, error) {
	ctx, span := r.tracer.Start(ctx, j.ref.URI, ports.WithKind(PackageSpanKind))
	defer span.End()
	span.SetAttribute("folder", j.folder)
	span.SetAttribute("platform", opts.Platform)

	if !j.direct {
		opts.PreferSource = false
		opts.ForceBinary = false
		opts.Force = false
	}

	var (
		folder string
		err    error
	)
	if j.claimed != "" {
		span.SetAttribute("pointer", j.claimed)
		err = r.point(j.folder, j.claimed, opts)
	} else {
		folder, err = r.materialize(ctx, j.module, j.ref, j.folder, opts)
	}
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return folder, nil
}

// point makes folder forward to target. Unless safe resolve is on, anything already in folder
// except version control metadata is removed so the package lives only at target.
func (r *Resolver) point(folder, target string, opts ports.ResolveOptions) error {
	if filepath.Clean(folder) == filepath.Clean(target) {
		return nil
	}
	if !opts.SafeResolve {
		if err := fs.CleanFolder(folder, domain.GitDirName); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(folder, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error()), "path", folder)
	}
	removeMarker(folder, domain.PackageMarkerName)
	if err := fs.WriteRedirect(folder, target); err != nil {
		return err
	}
	r.logger.Info(fmt.Sprintf("%s %s already provided by %s", style.Link, folder, target))
	return nil
}

func (r *Resolver) materialize(
	ctx context.Context,
	module *domain.ModuleInfo,
	ref domain.PackageReference,
	folder string,
	opts ports.ResolveOptions,
) (string, error) {
	key := domain.CacheKey{URI: ref.URI, Ref: ref.Ref(), Platform: opts.Platform}

	effective := ref.URI
	target, redirected := opts.Redirects.Resolve(ref.URI)
	if redirected {
		effective = target
	}

	if !opts.Force && !strings.HasPrefix(effective, domain.PointerScheme) {
		if marker := readMarker(folder); marker.Satisfies(key, requestedMode(opts)) && fs.HasContent(folder) {
			r.logger.Info(fmt.Sprintf("%s is up to date (%s)", ref.URI, marker.Mode))
			return folder, nil
		}
	}
	if redirected {
		r.logger.Info(fmt.Sprintf("redirecting %s to %s", ref.URI, target))
	}

	src, err := r.sources.For(effective)
	if err != nil {
		return "", err
	}

	var meta *domain.ResolvedPackageMetadata
	err = r.retry(ctx, opts, "lookup "+effective, func() error {
		var lookupErr error
		meta, lookupErr = src.Lookup(ctx, effective, key.Ref, key.Platform)
		return lookupErr
	})
	if err != nil {
		return "", err
	}

	if meta.IsPointer() {
		return "", r.point(folder, localTarget(module.Path, meta.Pointer), opts)
	}

	if err := r.prepare(folder, opts); err != nil {
		return "", err
	}

	mode, err := r.fetch(ctx, src, key, meta, folder, opts)
	if err != nil {
		return "", err
	}

	marker := domain.PackageMarker{
		URI:      ref.URI,
		Ref:      key.Ref,
		Platform: key.Platform,
		Mode:     mode,
		Commit:   meta.Commit,
	}
	if err := fs.WritePackageMarker(folder, marker); err != nil {
		return "", err
	}
	return folder, nil
}

// prepare clears folder for new content. Version control metadata always survives; with
// safe resolve nothing is removed.
func (r *Resolver) prepare(folder string, opts ports.ResolveOptions) error {
	removeMarker(folder, domain.RedirectMarkerName)
	if !opts.SafeResolve {
		if err := fs.CleanFolder(folder, domain.GitDirName); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(folder, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "path", folder)
	}
	return nil
}

// fetch obtains the package content in binary mode when possible, falling back to source.
func (r *Resolver) fetch(
	ctx context.Context,
	src ports.Source,
	key domain.CacheKey,
	meta *domain.ResolvedPackageMetadata,
	folder string,
	opts ports.ResolveOptions,
) (domain.ResolveMode, error) {
	canSource := meta.SourceAvailable && !opts.ForceBinary

	if meta.BinaryAvailable && !opts.PreferSource {
		err := r.fetchBinary(ctx, src, key, meta, folder, opts)
		if err == nil {
			return domain.ModeBinary, nil
		}
		if !canSource {
			return "", err
		}
		r.logger.Warn(fmt.Sprintf("binary package for %s unavailable, falling back to source: %v", key.URI, err))
	}

	if !canSource {
		if opts.ForceBinary || (!meta.SourceAvailable && !meta.BinaryAvailable) {
			return "", domain.NewFetchError(domain.FetchBinaryUnavailable, meta.URI,
				fmt.Errorf("no binary package for platform %s", key.Platform))
		}
		return "", domain.NewFetchError(domain.FetchSourceUnavailable, meta.URI, errors.New("source checkout requested"))
	}

	r.logger.Info(fmt.Sprintf("checking out %s (%s) into %s", meta.URI, key.Ref, folder))
	err := r.retry(ctx, opts, "checkout "+meta.URI, func() error {
		return src.CheckoutSource(ctx, meta, folder)
	})
	if err != nil {
		return "", err
	}
	return domain.ModeSource, nil
}

func (r *Resolver) fetchBinary(
	ctx context.Context,
	src ports.Source,
	key domain.CacheKey,
	meta *domain.ResolvedPackageMetadata,
	folder string,
	opts ports.ResolveOptions,
) error {
	var entry *domain.CacheEntry
	err := r.retry(ctx, opts, "download "+meta.URI, func() error {
		var fetchErr error
		entry, fetchErr = r.cache.Fetch(ctx, key, meta, func(ctx context.Context, w io.Writer) error {
			return src.DownloadBinary(ctx, meta, w)
		})
		return fetchErr
	})
	if err != nil {
		return err
	}

	r.logger.Info(fmt.Sprintf("extracting %s into %s", key.URI, folder))
	return r.archiver.Extract(ctx, entry.Path, folder, key.Platform)
}

// requestedMode is the mode a satisfied marker must record, or "" for either.
func requestedMode(opts ports.ResolveOptions) domain.ResolveMode {
	switch {
	case opts.PreferSource:
		return domain.ModeSource
	case opts.ForceBinary:
		return domain.ModeBinary
	default:
		return ""
	}
}

// localTarget resolves a pointer target relative to the declaring module.
func localTarget(modulePath, target string) string {
	target = filepath.FromSlash(strings.TrimPrefix(target, "file://"))
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Join(modulePath, target)
}

func readMarker(folder string) *domain.PackageMarker {
	return fs.ReadPackageMarker(folder)
}

func removeMarker(folder, name string) {
	_ = os.Remove(filepath.Join(folder, name))
}

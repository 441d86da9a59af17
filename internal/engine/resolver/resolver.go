// Package resolver materializes the packages of a module tree, breadth first, so that no
// package's content is materialized more than once.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// PackageSpanKind is the span kind of one package resolution.
const PackageSpanKind = "package"

// Resolver implements ports.PackageResolver.
type Resolver struct {
	manifests ports.ManifestLoader
	sources   ports.SourceRegistry
	cache     ports.PackageCache
	archiver  ports.Archiver
	tracer    ports.Tracer
	logger    ports.Logger

	// invoker handles nested modules. Nil continues the walk in this process.
	invoker ports.SubmoduleInvoker
}

var _ ports.PackageResolver = (*Resolver)(nil)

// New creates a Resolver. A nil invoker resolves submodules in-process.
func New(
	manifests ports.ManifestLoader,
	sources ports.SourceRegistry,
	cache ports.PackageCache,
	archiver ports.Archiver,
	tracer ports.Tracer,
	logger ports.Logger,
	invoker ports.SubmoduleInvoker,
) *Resolver {
	return &Resolver{
		manifests: manifests,
		sources:   sources,
		cache:     cache,
		archiver:  archiver,
		tracer:    tracer,
		logger:    logger,
		invoker:   invoker,
	}
}

// ResolveAll resolves every package declared by module and, level by level, by the submodules
// and packages below it.
func (r *Resolver) ResolveAll(ctx context.Context, module *domain.ModuleInfo, opts ports.ResolveOptions) error {
	w := r.newWalk(opts)
	w.visit(module)
	return w.run(ctx, []*domain.ModuleInfo{module}, w.claim([]*domain.ModuleInfo{module}, true))
}

// Resolve resolves a single package of parent and then the packages nested in it. Packages of
// parent that are already materialized keep their claims, so nested declarations of them
// become pointers.
func (r *Resolver) Resolve(
	ctx context.Context,
	parent *domain.ModuleInfo,
	ref domain.PackageReference,
	opts ports.ResolveOptions,
) error {
	if err := ref.Validate(); err != nil {
		return zerr.With(err, "module", parent.Name)
	}

	w := r.newWalk(opts)
	w.visit(parent)
	for _, other := range parent.Packages {
		if other.URI == ref.URI {
			continue
		}
		folder := parent.PackageFolder(other)
		if marker := readMarker(folder); marker != nil && marker.URI == other.URI {
			w.claims[other.URI] = folder
		}
	}

	jobs := w.claimRefs(parent, []domain.PackageReference{ref}, true)
	return w.run(ctx, nil, jobs)
}

// job is one package declaration to satisfy.
type job struct {
	module *domain.ModuleInfo
	ref    domain.PackageReference
	folder string
	// claimed is set when another declaration already owns the URI.
	claimed string
	// direct jobs honor the per-package overrides in the options.
	direct bool
}

// walk holds the state of one breadth-first pass.
type walk struct {
	r    *Resolver
	opts ports.ResolveOptions

	// claims maps a package URI to the folder that materializes it.
	claims  map[string]string
	visited map[string]struct{}

	mu   sync.Mutex
	errs []error
}

func (r *Resolver) newWalk(opts ports.ResolveOptions) *walk {
	if opts.MaxParallel < 1 {
		opts.MaxParallel = 1
	}
	return &walk{
		r:       r,
		opts:    opts,
		claims:  make(map[string]string),
		visited: make(map[string]struct{}),
	}
}

// visit marks a module as seen and reports whether it was new.
func (w *walk) visit(m *domain.ModuleInfo) bool {
	key := filepath.Clean(m.Path)
	if _, ok := w.visited[key]; ok {
		return false
	}
	w.visited[key] = struct{}{}
	return true
}

// claim assigns every package declared by modules, in module then manifest order.
func (w *walk) claim(modules []*domain.ModuleInfo, direct bool) []job {
	var jobs []job
	for _, m := range modules {
		jobs = append(jobs, w.claimRefs(m, m.Packages, direct)...)
	}
	return jobs
}

func (w *walk) claimRefs(m *domain.ModuleInfo, refs []domain.PackageReference, direct bool) []job {
	jobs := make([]job, 0, len(refs))
	for _, ref := range refs {
		if err := ref.Validate(); err != nil {
			w.fail(ref, zerr.With(err, "module", m.Name))
			continue
		}

		folder := filepath.Clean(m.PackageFolder(ref))
		j := job{module: m, ref: ref, folder: folder, direct: direct}
		if owner, ok := w.claims[ref.URI]; ok {
			if owner == folder {
				continue
			}
			j.claimed = owner
		} else {
			w.claims[ref.URI] = folder
		}
		jobs = append(jobs, j)
	}
	return jobs
}

// run processes one level of jobs at a time until no new modules appear.
func (w *walk) run(ctx context.Context, level []*domain.ModuleInfo, jobs []job) error {
	for len(jobs) > 0 || len(level) > 0 {
		materialized, err := w.execute(ctx, jobs)
		if err != nil && !w.opts.ContinueOnError {
			w.recordIfEmpty(err)
			break
		}

		next := w.discover(level, materialized)
		if len(next) == 0 {
			break
		}

		if w.opts.SkipNestedResolution {
			for _, m := range next {
				w.r.logger.Info(fmt.Sprintf("skipping package resolution for nested module %s", m.Name))
			}
			break
		}

		if w.r.invoker != nil {
			w.invoke(ctx, next)
			break
		}

		level = next
		jobs = w.claim(next, false)
	}

	return w.result()
}

// execute runs the jobs of one level and returns the folders that now hold real content.
func (w *walk) execute(ctx context.Context, jobs []job) ([]string, error) {
	var (
		mu           sync.Mutex
		materialized []string
	)

	runJob := func(ctx context.Context, j job) error {
		folder, err := w.r.resolveJob(ctx, j, w.opts)
		if err != nil {
			if j.ref.Optional {
				w.r.logger.Warn(fmt.Sprintf("optional package %s could not be resolved: %v", j.ref.URI, err))
				return nil
			}
			return w.fail(j.ref, err)
		}
		if folder != "" {
			mu.Lock()
			materialized = append(materialized, folder)
			mu.Unlock()
		}
		return nil
	}

	if !w.opts.Parallel || len(jobs) < 2 {
		for _, j := range jobs {
			if err := runJob(ctx, j); err != nil && !w.opts.ContinueOnError {
				return materialized, err
			}
		}
		return materialized, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.MaxParallel)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil && !w.opts.ContinueOnError {
				// A sibling already failed and stopped the level.
				return err
			}
			err := runJob(gctx, j)
			if w.opts.ContinueOnError {
				return nil
			}
			return err
		})
	}
	err := g.Wait()
	return materialized, err
}

// fail records a package failure and returns the recorded error.
func (w *walk) fail(ref domain.PackageReference, err error) error {
	wrapped := zerr.With(zerr.Wrap(err, domain.ErrPackageResolveFailed.Error()), "uri", ref.URI)

	w.mu.Lock()
	w.errs = append(w.errs, wrapped)
	w.mu.Unlock()
	return wrapped
}

// discover returns the modules of the next level: submodules of the current level and
// materialized package folders that carry a manifest.
func (w *walk) discover(level []*domain.ModuleInfo, materialized []string) []*domain.ModuleInfo {
	var next []*domain.ModuleInfo

	for _, m := range level {
		if err := w.r.manifests.LoadSubmodules(m); err != nil {
			w.record(err)
			continue
		}
		for _, sub := range m.Submodules {
			if w.visit(sub) {
				next = append(next, sub)
			}
		}
	}

	for _, folder := range materialized {
		if !domain.HasManifest(folder) {
			continue
		}
		if _, seen := w.visited[filepath.Clean(folder)]; seen {
			continue
		}
		m, err := w.r.manifests.Load(folder)
		if err != nil {
			w.record(err)
			continue
		}
		w.visit(m)
		next = append(next, m)
	}

	return next
}

// invoke hands nested modules to the configured invoker one at a time. Packages already
// claimed in this pass are passed down as pointer redirects so the child does not fetch them again.
func (w *walk) invoke(ctx context.Context, modules []*domain.ModuleInfo) {
	opts := w.opts
	opts.Redirects = w.claimRedirects()

	for _, m := range modules {
		w.r.logger.Info(fmt.Sprintf("resolving submodule %s", m.Name))
		if err := w.r.invoker.Invoke(ctx, m, opts); err != nil {
			w.record(err)
			if !w.opts.ContinueOnError {
				return
			}
		}
	}
}

// claimRedirects copies the configured redirects and points every claimed URI whose folder
// exists at that folder.
func (w *walk) claimRedirects() *domain.PackageRedirectTable {
	table := w.opts.Redirects.Clone()
	for uri, owner := range w.claims {
		if _, err := os.Stat(owner); err != nil {
			continue
		}
		table.RegisterLocalRedirect(uri, domain.PointerScheme+filepath.ToSlash(owner))
	}
	return table
}

func (w *walk) record(err error) {
	w.mu.Lock()
	w.errs = append(w.errs, err)
	w.mu.Unlock()
}

// recordIfEmpty keeps err when nothing else explains why the pass stopped.
func (w *walk) recordIfEmpty(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.errs) == 0 {
		w.errs = append(w.errs, err)
	}
}

func (w *walk) result() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{domain.ErrResolutionFailed}, w.errs...)...)
}

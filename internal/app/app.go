// Package app implements the application layer for protobuild.
package app

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// App coordinates the resolver, packer and repository client for the command line.
type App struct {
	settings  *domain.Settings
	manifests ports.ManifestLoader
	resolver  ports.PackageResolver
	packer    ports.Packer
	repo      ports.Repository
	sources   ports.SourceRegistry
	cache     ports.PackageCache
	archiver  ports.Archiver
	logger    ports.Logger
}

// Dependencies groups the ports App is built from.
type Dependencies struct {
	Settings   *domain.Settings
	Manifests  ports.ManifestLoader
	Resolver   ports.PackageResolver
	Packer     ports.Packer
	Repository ports.Repository
	Sources    ports.SourceRegistry
	Cache      ports.PackageCache
	Archiver   ports.Archiver
	Logger     ports.Logger
}

// New creates a new App instance.
func New(deps Dependencies) *App {
	settings := deps.Settings
	if settings == nil {
		defaults := domain.DefaultSettings()
		settings = &defaults
	}
	return &App{
		settings:  settings,
		manifests: deps.Manifests,
		resolver:  deps.Resolver,
		packer:    deps.Packer,
		repo:      deps.Repository,
		sources:   deps.Sources,
		cache:     deps.Cache,
		archiver:  deps.Archiver,
		logger:    deps.Logger,
	}
}

// SetJSONLog switches the logger to JSON output when it supports it.
func (a *App) SetJSONLog(enable bool) {
	if l, ok := a.logger.(interface{ SetJSON(bool) }); ok {
		l.SetJSON(enable)
	}
}

// Scope carries the options shared by every command that works on a module folder.
type Scope struct {
	Dir       string
	Platform  string
	Redirects []string
}

// ResolveRequest overrides settings for one resolve run. Nil fields keep the configured value.
type ResolveRequest struct {
	Scope
	SafeResolve     *bool
	Parallel        *bool
	ContinueOnError *bool
	SkipNested      bool
}

// Resolve materializes every package of the module in Dir and of its nested modules.
func (a *App) Resolve(ctx context.Context, req ResolveRequest) error {
	module, err := a.load(req.Dir)
	if err != nil {
		return err
	}
	opts, err := a.options(req.Scope)
	if err != nil {
		return err
	}
	if req.SafeResolve != nil {
		opts.SafeResolve = *req.SafeResolve
	}
	if req.Parallel != nil {
		opts.Parallel = *req.Parallel
	}
	if req.ContinueOnError != nil {
		opts.ContinueOnError = *req.ContinueOnError
	}
	opts.SkipNestedResolution = req.SkipNested

	return a.resolver.ResolveAll(ctx, module, opts)
}

// InstallRequest adds a package to the module manifest.
type InstallRequest struct {
	Scope
	URI      string
	Ref      string
	Folder   string
	Optional bool
	Source   bool
	Binary   bool
}

// Install declares a package in Build/Module.xml and resolves it.
// Installing a URI that is already declared only warns.
func (a *App) Install(ctx context.Context, req InstallRequest) error {
	module, err := a.load(req.Dir)
	if err != nil {
		return err
	}

	ref := domain.PackageReference{
		URI:      req.URI,
		GitRef:   req.Ref,
		Folder:   req.Folder,
		Optional: req.Optional,
	}
	if ref.Folder == "" {
		ref.Folder = DefaultFolder(req.URI)
	}
	if err := ref.Validate(); err != nil {
		return zerr.With(err, "uri", req.URI)
	}

	if !module.AddPackage(ref) {
		a.logger.Warn("package " + req.URI + " is already installed")
		return nil
	}
	if err := a.manifests.Save(module); err != nil {
		return err
	}
	a.logger.Info("added " + req.URI + " to " + module.Name)

	opts, err := a.options(req.Scope)
	if err != nil {
		return err
	}
	opts.PreferSource = req.Source
	opts.ForceBinary = req.Binary
	return a.resolver.Resolve(ctx, module, ref, opts)
}

// PackageRequest names one declared package.
type PackageRequest struct {
	Scope
	URI string
}

// Upgrade evicts the cached archive for a declared package and resolves it again.
func (a *App) Upgrade(ctx context.Context, req PackageRequest) error {
	module, ref, opts, err := a.declared(req)
	if err != nil {
		return err
	}
	return a.upgrade(ctx, module, *ref, opts)
}

// UpgradeAll upgrades every package declared by the module in Dir.
func (a *App) UpgradeAll(ctx context.Context, scope Scope) error {
	module, err := a.load(scope.Dir)
	if err != nil {
		return err
	}
	opts, err := a.options(scope)
	if err != nil {
		return err
	}

	var errs []error
	for _, ref := range module.Packages {
		if err := a.upgrade(ctx, module, ref, opts); err != nil {
			if !opts.ContinueOnError {
				return err
			}
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return joinFailures(errs)
	}
	return nil
}

func (a *App) upgrade(ctx context.Context, module *domain.ModuleInfo, ref domain.PackageReference, opts ports.ResolveOptions) error {
	key := domain.CacheKey{URI: ref.URI, Ref: ref.Ref(), Platform: opts.Platform}
	if err := a.cache.Evict(key); err != nil {
		return err
	}
	a.logger.Info("upgrading " + ref.URI)
	opts.Force = true
	return a.resolver.Resolve(ctx, module, ref, opts)
}

// SwapToSource replaces a binary package with a source checkout.
func (a *App) SwapToSource(ctx context.Context, req PackageRequest) error {
	module, ref, opts, err := a.declared(req)
	if err != nil {
		return err
	}
	opts.PreferSource = true
	return a.resolver.Resolve(ctx, module, *ref, opts)
}

// SwapToBinary replaces a source checkout with the prebuilt binary package.
func (a *App) SwapToBinary(ctx context.Context, req PackageRequest) error {
	module, ref, opts, err := a.declared(req)
	if err != nil {
		return err
	}
	opts.ForceBinary = true
	return a.resolver.Resolve(ctx, module, *ref, opts)
}

// declared loads the module and finds req.URI without touching the filesystem or cache.
func (a *App) declared(req PackageRequest) (*domain.ModuleInfo, *domain.PackageReference, ports.ResolveOptions, error) {
	module, err := a.load(req.Dir)
	if err != nil {
		return nil, nil, ports.ResolveOptions{}, err
	}
	ref := module.FindPackage(req.URI)
	if ref == nil {
		return nil, nil, ports.ResolveOptions{}, zerr.With(
			zerr.Wrap(domain.ErrPackageNotInManifest, "cannot change package"),
			"uri", req.URI,
		)
	}
	opts, err := a.options(req.Scope)
	if err != nil {
		return nil, nil, ports.ResolveOptions{}, err
	}
	return module, ref, opts, nil
}

// Pack builds a package archive from a module folder.
func (a *App) Pack(ctx context.Context, req ports.PackRequest) error {
	if req.Platform == "" {
		req.Platform = domain.HostPlatform()
	}
	return a.packer.Pack(ctx, req)
}

// Unify merges per-platform NuGet packages.
func (a *App) Unify(ctx context.Context, output string, inputs []string) error {
	return a.packer.Unify(ctx, output, inputs)
}

// Push uploads an archive to a package repository.
func (a *App) Push(ctx context.Context, req ports.PushRequest) error {
	return a.repo.Push(ctx, req)
}

// Repush points a repository branch at an existing version.
func (a *App) Repush(ctx context.Context, req ports.RepushRequest) error {
	return a.repo.Repush(ctx, req)
}

func (a *App) load(dir string) (*domain.ModuleInfo, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve module directory"), "dir", dir)
	}
	return a.manifests.Load(abs)
}

// options builds resolver options from settings and the shared command scope.
func (a *App) options(scope Scope) (ports.ResolveOptions, error) {
	redirects, err := RedirectTable(scope.Redirects)
	if err != nil {
		return ports.ResolveOptions{}, err
	}
	platform := scope.Platform
	if platform == "" {
		platform = domain.HostPlatform()
	}
	return ports.ResolveOptions{
		Platform:        platform,
		SafeResolve:     a.settings.SafeResolve,
		Parallel:        a.settings.Parallel,
		MaxParallel:     a.settings.MaxParallel,
		ContinueOnError: a.settings.ContinueOnError,
		Redirects:       redirects,
		Retries:         a.settings.Retries,
		RetryDelay:      a.settings.RetryDelay,
	}, nil
}

// RedirectTable parses redirect directives. Relative local targets are made absolute so
// they survive a change of working directory in a child process.
func RedirectTable(directives []string) (*domain.PackageRedirectTable, error) {
	table := domain.NewPackageRedirectTable()
	for _, d := range directives {
		original, target, err := domain.ParseRedirect(d)
		if err != nil {
			return nil, err
		}
		if isRelativeLocal(target) {
			abs, err := filepath.Abs(target)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, "failed to resolve redirect target"), "target", target)
			}
			target = abs
		}
		table.RegisterLocalRedirect(original, target)
	}
	return table, nil
}

func isRelativeLocal(target string) bool {
	if strings.Contains(target, "://") || strings.HasPrefix(target, "git@") {
		return false
	}
	return !filepath.IsAbs(target)
}

// DefaultFolder derives the package folder name from the last element of a URI.
func DefaultFolder(uri string) string {
	trimmed := strings.TrimRight(uri, "/")
	if _, id, ok := strings.Cut(trimmed, "|"); ok {
		return id
	}
	if _, rest, ok := strings.Cut(trimmed, "://"); ok {
		trimmed = rest
	}
	name := path.Base(strings.ReplaceAll(trimmed, ":", "/"))
	return strings.TrimSuffix(name, ".git")
}

package app_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/protobuild/internal/adapters/manifest"
	"go.trai.ch/protobuild/internal/app"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/protobuild/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type harness struct {
	app       *app.App
	manifests *mocks.MockManifestLoader
	resolver  *mocks.MockPackageResolver
	packer    *mocks.MockPacker
	repo      *mocks.MockRepository
	sources   *mocks.MockSourceRegistry
	cache     *mocks.MockPackageCache
	archiver  *mocks.MockArchiver
	logger    *mocks.MockLogger
}

func newHarness(t *testing.T, settings domain.Settings) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	h := &harness{
		manifests: mocks.NewMockManifestLoader(ctrl),
		resolver:  mocks.NewMockPackageResolver(ctrl),
		packer:    mocks.NewMockPacker(ctrl),
		repo:      mocks.NewMockRepository(ctrl),
		sources:   mocks.NewMockSourceRegistry(ctrl),
		cache:     mocks.NewMockPackageCache(ctrl),
		archiver:  mocks.NewMockArchiver(ctrl),
		logger:    mocks.NewMockLogger(ctrl),
	}
	h.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	h.app = app.New(app.Dependencies{
		Settings:   &settings,
		Manifests:  h.manifests,
		Resolver:   h.resolver,
		Packer:     h.packer,
		Repository: h.repo,
		Sources:    h.sources,
		Cache:      h.cache,
		Archiver:   h.archiver,
		Logger:     h.logger,
	})
	return h
}

func testSettings() domain.Settings {
	s := domain.DefaultSettings()
	s.MaxParallel = 4
	s.Retries = 3
	return s
}

func ptr[T any](v T) *T { return &v }

func TestApp_Resolve_MergesSettingsAndFlags(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testSettings())
	dir := t.TempDir()
	module := &domain.ModuleInfo{Name: "Root", Path: dir}

	h.manifests.EXPECT().Load(dir).Return(module, nil)
	h.resolver.EXPECT().ResolveAll(gomock.Any(), module, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *domain.ModuleInfo, opts ports.ResolveOptions) error {
			assert.Equal(t, "Windows", opts.Platform)
			assert.True(t, opts.SafeResolve)
			assert.False(t, opts.Parallel)
			assert.True(t, opts.ContinueOnError)
			assert.True(t, opts.SkipNestedResolution)
			assert.Equal(t, 4, opts.MaxParallel)
			assert.Equal(t, 3, opts.Retries)
			assert.False(t, opts.Force)

			target, ok := opts.Redirects.Resolve("https://example.com/A")
			assert.True(t, ok)
			assert.Equal(t, "https://mirror.example.com/A", target)
			return nil
		})

	err := h.app.Resolve(context.Background(), app.ResolveRequest{
		Scope: app.Scope{
			Dir:       dir,
			Platform:  "Windows",
			Redirects: []string{"https://example.com/A=https://mirror.example.com/A"},
		},
		SafeResolve: ptr(true),
		Parallel:    ptr(false),
		SkipNested:  true,
	})
	require.NoError(t, err)
}

func TestApp_Resolve_InvalidRedirect(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testSettings())
	dir := t.TempDir()
	h.manifests.EXPECT().Load(dir).Return(&domain.ModuleInfo{Path: dir}, nil)

	err := h.app.Resolve(context.Background(), app.ResolveRequest{
		Scope: app.Scope{Dir: dir, Redirects: []string{"no-separator"}},
	})
	require.ErrorIs(t, err, domain.ErrInvalidRedirect)
}

func TestApp_Install(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testSettings())
	dir := t.TempDir()
	module := &domain.ModuleInfo{Name: "Root", Path: dir}
	want := domain.PackageReference{URI: "https://example.com/Lib.git", GitRef: "v2", Folder: "Lib"}

	h.manifests.EXPECT().Load(dir).Return(module, nil)
	h.manifests.EXPECT().Save(module).DoAndReturn(func(m *domain.ModuleInfo) error {
		assert.Equal(t, []domain.PackageReference{want}, m.Packages)
		return nil
	})
	h.resolver.EXPECT().Resolve(gomock.Any(), module, want, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *domain.ModuleInfo, _ domain.PackageReference, opts ports.ResolveOptions) error {
			assert.True(t, opts.PreferSource)
			assert.False(t, opts.ForceBinary)
			return nil
		})

	err := h.app.Install(context.Background(), app.InstallRequest{
		Scope:  app.Scope{Dir: dir},
		URI:    "https://example.com/Lib.git",
		Ref:    "v2",
		Source: true,
	})
	require.NoError(t, err)
}

func TestApp_Install_AlreadyDeclaredWarns(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testSettings())
	dir := t.TempDir()
	module := &domain.ModuleInfo{
		Path:     dir,
		Packages: []domain.PackageReference{{URI: "https://example.com/Lib", Folder: "Lib"}},
	}

	h.manifests.EXPECT().Load(dir).Return(module, nil)
	h.logger.EXPECT().Warn(gomock.Any())

	err := h.app.Install(context.Background(), app.InstallRequest{
		Scope: app.Scope{Dir: dir},
		URI:   "https://example.com/Lib",
	})
	require.NoError(t, err)
	assert.Len(t, module.Packages, 1)
}

func TestApp_Upgrade_NotDeclared(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testSettings())
	dir := t.TempDir()
	h.manifests.EXPECT().Load(dir).Return(&domain.ModuleInfo{Path: dir}, nil)

	err := h.app.Upgrade(context.Background(), app.PackageRequest{
		Scope: app.Scope{Dir: dir},
		URI:   "https://example.com/Missing",
	})
	require.ErrorIs(t, err, domain.ErrPackageNotInManifest)
}

func TestApp_Upgrade_EvictsAndForces(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testSettings())
	dir := t.TempDir()
	ref := domain.PackageReference{URI: "https://example.com/Lib", Folder: "Lib"}
	module := &domain.ModuleInfo{Path: dir, Packages: []domain.PackageReference{ref}}

	h.manifests.EXPECT().Load(dir).Return(module, nil)
	gomock.InOrder(
		h.cache.EXPECT().Evict(domain.CacheKey{URI: ref.URI, Ref: domain.DefaultGitRef, Platform: "Linux"}),
		h.resolver.EXPECT().Resolve(gomock.Any(), module, ref, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *domain.ModuleInfo, _ domain.PackageReference, opts ports.ResolveOptions) error {
				assert.True(t, opts.Force)
				return nil
			}),
	)

	err := h.app.Upgrade(context.Background(), app.PackageRequest{
		Scope: app.Scope{Dir: dir, Platform: "Linux"},
		URI:   ref.URI,
	})
	require.NoError(t, err)
}

func TestApp_UpgradeAll_CollectsFailures(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testSettings())
	dir := t.TempDir()
	a := domain.PackageReference{URI: "https://example.com/A", Folder: "A"}
	b := domain.PackageReference{URI: "https://example.com/B", Folder: "B"}
	module := &domain.ModuleInfo{Path: dir, Packages: []domain.PackageReference{a, b}}
	boom := errors.New("boom")

	h.manifests.EXPECT().Load(dir).Return(module, nil)
	h.cache.EXPECT().Evict(gomock.Any()).Times(2)
	h.resolver.EXPECT().Resolve(gomock.Any(), module, a, gomock.Any()).Return(boom)
	h.resolver.EXPECT().Resolve(gomock.Any(), module, b, gomock.Any()).Return(nil)

	err := h.app.UpgradeAll(context.Background(), app.Scope{Dir: dir})
	require.ErrorIs(t, err, domain.ErrResolutionFailed)
	require.ErrorIs(t, err, boom)
}

func TestApp_Swap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		swap   func(*app.App, context.Context, app.PackageRequest) error
		source bool
		binary bool
	}{
		{name: "to source", swap: (*app.App).SwapToSource, source: true},
		{name: "to binary", swap: (*app.App).SwapToBinary, binary: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, testSettings())
			dir := t.TempDir()
			ref := domain.PackageReference{URI: "https://example.com/Lib", Folder: "Lib"}
			module := &domain.ModuleInfo{Path: dir, Packages: []domain.PackageReference{ref}}

			h.manifests.EXPECT().Load(dir).Return(module, nil)
			h.resolver.EXPECT().Resolve(gomock.Any(), module, ref, gomock.Any()).
				DoAndReturn(func(_ context.Context, _ *domain.ModuleInfo, _ domain.PackageReference, opts ports.ResolveOptions) error {
					assert.Equal(t, tt.source, opts.PreferSource)
					assert.Equal(t, tt.binary, opts.ForceBinary)
					return nil
				})

			require.NoError(t, tt.swap(h.app, context.Background(), app.PackageRequest{
				Scope: app.Scope{Dir: dir},
				URI:   ref.URI,
			}))
		})
	}
}

func TestApp_PackDefaultsPlatform(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testSettings())
	h.packer.EXPECT().Pack(gomock.Any(), ports.PackRequest{
		SourceDir: "src",
		Output:    "out.tar.lzma",
		Platform:  domain.HostPlatform(),
		Format:    domain.FormatTarLZMA,
	})

	require.NoError(t, h.app.Pack(context.Background(), ports.PackRequest{
		SourceDir: "src",
		Output:    "out.tar.lzma",
		Format:    domain.FormatTarLZMA,
	}))
}

func TestApp_Precache_FollowsDeclaredPackages(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testSettings())
	h.app = app.New(app.Dependencies{
		Settings:  ptr(testSettings()),
		Manifests: manifest.NewLoader(),
		Sources:   h.sources,
		Cache:     h.cache,
		Archiver:  h.archiver,
		Logger:    h.logger,
	})
	ctrl := gomock.NewController(t)
	src := mocks.NewMockSource(ctrl)

	// A declares B and itself; B declares C, which only has source.
	manifests := map[string]string{
		"https://example.com/A": `<Module><Packages>` +
			`<Package Uri="https://example.com/B" Folder="B" />` +
			`<Package Uri="https://example.com/A" Folder="A" />` +
			`</Packages></Module>`,
		"https://example.com/B": `<Module><Packages><Package Uri="https://example.com/C" Folder="C" /></Packages></Module>`,
	}

	h.sources.EXPECT().For(gomock.Any()).Return(src, nil).Times(3)
	src.EXPECT().Lookup(gomock.Any(), gomock.Any(), domain.DefaultGitRef, "Linux").
		DoAndReturn(func(_ context.Context, uri, ref, platform string) (*domain.ResolvedPackageMetadata, error) {
			meta := &domain.ResolvedPackageMetadata{URI: uri, Ref: ref, Platform: platform, SourceAvailable: true}
			meta.BinaryAvailable = uri != "https://example.com/C"
			return meta, nil
		}).Times(3)
	h.cache.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, key domain.CacheKey, _ *domain.ResolvedPackageMetadata, _ ports.DownloadFunc) (*domain.CacheEntry, error) {
			return &domain.CacheEntry{Key: key, Path: key.URI}, nil
		}).Times(2)
	h.archiver.EXPECT().ReadFile(gomock.Any()).
		DoAndReturn(func(path string) (map[string][]byte, error) {
			if path == "https://example.com/B" {
				return map[string][]byte{
					"protobuild/Linux/Build/Module.xml": []byte(manifests[path]),
				}, nil
			}
			return map[string][]byte{"Build/Module.xml": []byte(manifests[path])}, nil
		}).Times(2)
	h.logger.EXPECT().Warn(gomock.Any())

	err := h.app.Precache(context.Background(), app.PrecacheRequest{
		Scope: app.Scope{Platform: "Linux"},
		URI:   "https://example.com/A",
	})
	require.NoError(t, err)
}

func TestRedirectTable(t *testing.T) {
	t.Parallel()

	table, err := app.RedirectTable([]string{
		"https://example.com/A=../local/A",
		"https://example.com/B=https://mirror.example.com/B?x=1",
		"https://example.com/C=git@example.com:C.git",
	})
	require.NoError(t, err)

	target, ok := table.Resolve("https://example.com/A")
	require.True(t, ok)
	assert.True(t, filepath.IsAbs(target))
	assert.Equal(t, "A", filepath.Base(target))

	target, _ = table.Resolve("https://example.com/B")
	assert.Equal(t, "https://mirror.example.com/B?x=1", target)

	target, _ = table.Resolve("https://example.com/C")
	assert.Equal(t, "git@example.com:C.git", target)
}

func TestDefaultFolder(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://github.com/Org/Protogame.git": "Protogame",
		"https://example.com/packages/Lib/":    "Lib",
		"git@github.com:Org/Thing.git":         "Thing",
		"https://nuget.org/api|Some.Package":   "Some.Package",
		"local-pointer://../Shared":            "Shared",
	}
	for uri, want := range tests {
		assert.Equal(t, want, app.DefaultFolder(uri), uri)
	}
}

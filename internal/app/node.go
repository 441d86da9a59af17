package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/protobuild/internal/adapters/cache"      //nolint:depguard // Wired in app layer
	"go.trai.ch/protobuild/internal/adapters/config"     //nolint:depguard // Wired in app layer
	"go.trai.ch/protobuild/internal/adapters/logger"     //nolint:depguard // Wired in app layer
	"go.trai.ch/protobuild/internal/adapters/manifest"   //nolint:depguard // Wired in app layer
	"go.trai.ch/protobuild/internal/adapters/repository" //nolint:depguard // Wired in app layer
	"go.trai.ch/protobuild/internal/adapters/source"     //nolint:depguard // Wired in app layer
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/protobuild/internal/engine/archive"
	"go.trai.ch/protobuild/internal/engine/packer"
	"go.trai.ch/protobuild/internal/engine/resolver"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components is what the command line needs from the dependency graph.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.SettingsNodeID,
			manifest.NodeID,
			resolver.NodeID,
			packer.NodeID,
			repository.NodeID,
			source.NodeID,
			cache.NodeID,
			archive.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	settings, err := graft.Dep[*domain.Settings](ctx)
	if err != nil {
		return nil, err
	}
	manifests, err := graft.Dep[ports.ManifestLoader](ctx)
	if err != nil {
		return nil, err
	}
	res, err := graft.Dep[ports.PackageResolver](ctx)
	if err != nil {
		return nil, err
	}
	pk, err := graft.Dep[ports.Packer](ctx)
	if err != nil {
		return nil, err
	}
	repo, err := graft.Dep[ports.Repository](ctx)
	if err != nil {
		return nil, err
	}
	sources, err := graft.Dep[ports.SourceRegistry](ctx)
	if err != nil {
		return nil, err
	}
	pkgCache, err := graft.Dep[ports.PackageCache](ctx)
	if err != nil {
		return nil, err
	}
	archiver, err := graft.Dep[ports.Archiver](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(Dependencies{
		Settings:   settings,
		Manifests:  manifests,
		Resolver:   res,
		Packer:     pk,
		Repository: repo,
		Sources:    sources,
		Cache:      pkgCache,
		Archiver:   archiver,
		Logger:     log,
	}), nil
}

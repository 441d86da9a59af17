package resolver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/protobuild/internal/adapters/cache"
	"go.trai.ch/protobuild/internal/adapters/config"
	"go.trai.ch/protobuild/internal/adapters/logger"
	"go.trai.ch/protobuild/internal/adapters/manifest"
	"go.trai.ch/protobuild/internal/adapters/shell"
	"go.trai.ch/protobuild/internal/adapters/source"
	"go.trai.ch/protobuild/internal/adapters/telemetry"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/protobuild/internal/engine/archive"
)

// NodeID is the unique identifier for the package resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[ports.PackageResolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.SettingsNodeID,
			manifest.NodeID,
			source.NodeID,
			cache.NodeID,
			archive.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
			shell.NodeID,
		},
		Run: func(ctx context.Context) (ports.PackageResolver, error) {
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			manifests, err := graft.Dep[ports.ManifestLoader](ctx)
			if err != nil {
				return nil, err
			}
			sources, err := graft.Dep[ports.SourceRegistry](ctx)
			if err != nil {
				return nil, err
			}
			packages, err := graft.Dep[ports.PackageCache](ctx)
			if err != nil {
				return nil, err
			}
			archiver, err := graft.Dep[ports.Archiver](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			var invoker ports.SubmoduleInvoker
			if settings.SubmoduleInvoker == domain.InvokerProcess {
				process, err := graft.Dep[*shell.ProcessInvoker](ctx)
				if err != nil {
					return nil, err
				}
				invoker = process
			}

			return New(manifests, sources, packages, archiver, tracer, log, invoker), nil
		},
	})
}

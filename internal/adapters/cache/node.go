package cache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/protobuild/internal/adapters/config"
	"go.trai.ch/protobuild/internal/adapters/fs"
	"go.trai.ch/protobuild/internal/adapters/logger"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/protobuild/internal/engine/archive"
)

// NodeID is the unique identifier for the package cache Graft node.
const NodeID graft.ID = "adapter.package_cache"

func init() {
	graft.Register(graft.Node[ports.PackageCache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID, fs.HasherNodeID, archive.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.PackageCache, error) {
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			hasher, err := graft.Dep[ports.Hasher](ctx)
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
			return NewStore(settings.CacheDir, hasher, archiver, log), nil
		},
	})
}

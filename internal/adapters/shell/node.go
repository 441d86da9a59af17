package shell

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/protobuild/internal/adapters/config"
	"go.trai.ch/protobuild/internal/adapters/logger"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
)

// NodeID is the unique identifier for the process invoker Graft node.
const NodeID graft.ID = "adapter.process_invoker"

func init() {
	graft.Register(graft.Node[*ProcessInvoker]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID, logger.NodeID},
		Run: func(ctx context.Context) (*ProcessInvoker, error) {
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewProcessInvoker("", settings.CacheDir, log), nil
		},
	})
}

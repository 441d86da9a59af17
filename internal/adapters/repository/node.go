package repository

import (
	"context"
	"net/http"

	"github.com/grindlemire/graft"
	"go.trai.ch/protobuild/internal/adapters/logger"
	"go.trai.ch/protobuild/internal/adapters/source"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/protobuild/internal/engine/archive"
)

// NodeID is the unique identifier for the repository client Graft node.
const NodeID graft.ID = "adapter.repository"

func init() {
	graft.Register(graft.Node[ports.Repository]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{source.HTTPClientNodeID, archive.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Repository, error) {
			client, err := graft.Dep[*http.Client](ctx)
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
			return NewClient(client, archiver, log), nil
		},
	})
}

package archive

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/protobuild/internal/engine/dedup"
)

// NodeID is the unique identifier for the archiver Graft node.
const NodeID graft.ID = "engine.archive"

func init() {
	graft.Register(graft.Node[ports.Archiver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{dedup.NodeID},
		Run: func(ctx context.Context) (ports.Archiver, error) {
			d, err := graft.Dep[*dedup.Deduplicator](ctx)
			if err != nil {
				return nil, err
			}
			return New(d), nil
		},
	})
}

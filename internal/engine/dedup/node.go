package dedup

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/protobuild/internal/adapters/fs"
	"go.trai.ch/protobuild/internal/core/ports"
)

// NodeID is the unique identifier for the deduplicator Graft node.
const NodeID graft.ID = "engine.dedup"

func init() {
	graft.Register(graft.Node[*Deduplicator]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.HasherNodeID},
		Run: func(ctx context.Context) (*Deduplicator, error) {
			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}
			return New(hasher), nil
		},
	})
}

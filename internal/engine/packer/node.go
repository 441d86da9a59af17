package packer

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/protobuild/internal/adapters/fs"
	"go.trai.ch/protobuild/internal/adapters/logger"
	"go.trai.ch/protobuild/internal/adapters/manifest"
	"go.trai.ch/protobuild/internal/adapters/telemetry"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/protobuild/internal/engine/archive"
	"go.trai.ch/protobuild/internal/engine/dedup"
)

// NodeID is the unique identifier for the packer Graft node.
const NodeID graft.ID = "engine.packer"

func init() {
	graft.Register(graft.Node[ports.Packer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.WalkerNodeID,
			fs.VerifierNodeID,
			dedup.NodeID,
			archive.NodeID,
			manifest.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (ports.Packer, error) {
			walker, err := graft.Dep[*fs.Walker](ctx)
			if err != nil {
				return nil, err
			}
			verifier, err := graft.Dep[*fs.Verifier](ctx)
			if err != nil {
				return nil, err
			}
			d, err := graft.Dep[*dedup.Deduplicator](ctx)
			if err != nil {
				return nil, err
			}
			archiver, err := graft.Dep[ports.Archiver](ctx)
			if err != nil {
				return nil, err
			}
			manifests, err := graft.Dep[ports.ManifestLoader](ctx)
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
			return New(walker, verifier, d, archiver, manifests, tracer, log), nil
		},
	})
}

package source

import (
	"context"
	"net/http"

	"github.com/grindlemire/graft"
	"go.trai.ch/protobuild/internal/adapters/config"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the source registry Graft node.
	NodeID graft.ID = "adapter.source_registry"
	// HTTPClientNodeID is the unique identifier for the shared HTTP client Graft node.
	HTTPClientNodeID graft.ID = "adapter.http_client"
)

func init() {
	graft.Register(graft.Node[*http.Client]{
		ID:        HTTPClientNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (*http.Client, error) {
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewHTTPClient(settings.HTTPTimeout), nil
		},
	})

	graft.Register(graft.Node[ports.SourceRegistry]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{HTTPClientNodeID},
		Run: func(ctx context.Context) (ports.SourceRegistry, error) {
			client, err := graft.Dep[*http.Client](ctx)
			if err != nil {
				return nil, err
			}
			return NewDefaultRegistry(client), nil
		},
	})
}

package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/protobuild/internal/adapters/logger"
	"go.trai.ch/protobuild/internal/core/ports"
)

// TracerNodeID is the unique identifier for the Telemetry adapter Graft node.
const TracerNodeID graft.ID = "adapter.telemetry"

// PackageKind marks spans covering one package resolution.
const PackageKind = "package"

// NewProvider creates a tracer provider whose spans of the given kinds are reported to log.
func NewProvider(log ports.Logger, kinds ...string) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(NewLogBridge(log, kinds...)))
}

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Tracer, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			provider := NewProvider(log, PackageKind)
			otel.SetTracerProvider(provider)
			return NewOTelTracer(provider, "protobuild"), nil
		},
	})
}

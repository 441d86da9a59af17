package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/protobuild/internal/ui/style"
)

// LogBridge implements sdktrace.SpanProcessor and logs the start and end of spans whose kind
// is in the watched set, as they happen.
type LogBridge struct {
	logger ports.Logger
	kinds  map[string]bool
}

var _ sdktrace.SpanProcessor = (*LogBridge)(nil)

// NewLogBridge returns a LogBridge reporting spans of the given kinds.
func NewLogBridge(logger ports.Logger, kinds ...string) *LogBridge {
	watched := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		watched[k] = true
	}
	return &LogBridge{logger: logger, kinds: watched}
}

// OnStart is called when a span starts.
func (b *LogBridge) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	if !b.watches(s) {
		return
	}
	b.logger.Info(fmt.Sprintf("%s %s", style.Arrow, s.Name()))
}

// OnEnd is called when a span ends.
func (b *LogBridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if !b.watches(s) {
		return
	}

	elapsed := s.EndTime().Sub(s.StartTime()).Round(1e6)
	if s.Status().Code == codes.Error {
		b.logger.Warn(fmt.Sprintf("%s failed after %s: %s", s.Name(), elapsed, s.Status().Description))
		return
	}
	b.logger.Info(fmt.Sprintf("%s %s (%s)", style.Check, s.Name(), elapsed))
}

func (b *LogBridge) watches(s sdktrace.ReadOnlySpan) bool {
	if !s.SpanContext().IsValid() {
		return false
	}
	for _, kv := range s.Attributes() {
		if string(kv.Key) == KindKey {
			return b.kinds[kv.Value.AsString()]
		}
	}
	return false
}

// ForceFlush does nothing.
func (b *LogBridge) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *LogBridge) Shutdown(context.Context) error {
	return nil
}

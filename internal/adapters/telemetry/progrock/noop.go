package progrock

import (
	"context"

	"go.trai.ch/prefab/internal/core/domain"
	"go.trai.ch/prefab/internal/core/ports"
)

// NoOp is a ports.Telemetry that records nothing.
type NoOp struct{}

// NewNoOp creates a new NoOp recorder.
func NewNoOp() NoOp { return NoOp{} }

// Record returns ctx and a vertex that discards everything.
func (NoOp) Record(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	return ctx, noopVertex{}
}

type noopVertex struct{}

func (noopVertex) Log(domain.LogLevel, string) {}
func (noopVertex) Complete(error)              {}
func (noopVertex) Cached()                     {}

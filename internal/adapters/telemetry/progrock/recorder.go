// Package progrock provides the Progrock implementation of the telemetry adapter.
package progrock

import (
	"context"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/prefab/internal/core/ports"
)

var _ ports.Telemetry = (*Recorder)(nil)

type parentKey struct{}

// Recorder implements the ports.Telemetry interface using the vito/progrock library.
// A vertex recorded with a context returned by Record becomes a child of that vertex,
// so the instances of a pass are listed under it.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a new Recorder with a default tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Record starts recording a new vertex. Vertex digests are derived from the name and the
// parent digest, so equal instance identities in different documents do not collide.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	var opts []progrock.VertexOpt
	key := name
	if parent, ok := ctx.Value(parentKey{}).(digest.Digest); ok {
		opts = append(opts, progrock.WithInputs(parent))
		key = parent.String() + "/" + name
	}
	d := digest.FromString(key)
	v := r.rec.Vertex(d, name, opts...)
	return context.WithValue(ctx, parentKey{}, d), &Vertex{vertex: v}
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

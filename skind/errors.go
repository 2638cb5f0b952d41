package skind

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNoSampleData is returned when the exhaustive simplification strategy
// is invoked before any frames have been sampled.
var ErrNoSampleData = errors.New("no sample data: exhaustive simplification requires sampled frames")

// An InvalidVertexError indicates an out-of-range vertex index. This is a
// caller bug and is never retried.
type InvalidVertexError struct {
	Vertex int
}

func (e *InvalidVertexError) Error() string {
	return fmt.Sprintf("invalid vertex index %d", e.Vertex)
}

// An UnweightedVertexError indicates a vertex without any candidate joints.
// Simplification skips the vertex and continues.
type UnweightedVertexError struct {
	Vertex int
}

func (e *UnweightedVertexError) Error() string {
	return fmt.Sprintf("vertex %d has no joint influences", e.Vertex)
}

// An EmptyJointSampleError indicates a joint with no recorded samples at
// dataset-build time. The joint is excluded rather than failing the build.
type EmptyJointSampleError struct {
	Joint string
}

func (e *EmptyJointSampleError) Error() string {
	return fmt.Sprintf("joint %q has no recorded samples", e.Joint)
}

// A Diagnostic is one isolated per-vertex or per-joint failure collected
// during a full pass.
type Diagnostic struct {
	// Vertex is the affected vertex index, or -1 if not vertex-specific.
	Vertex int

	// Joint is the affected joint name, or "" if not joint-specific.
	Joint string

	Err error
}

func (d Diagnostic) String() string {
	return d.Err.Error()
}

// A Report accumulates diagnostics across a pass so that one bad vertex or
// joint does not abort the rest of the run.
type Report struct {
	Diagnostics []Diagnostic
}

func (r *Report) add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// Empty reports whether the pass completed without diagnostics.
func (r *Report) Empty() bool {
	return len(r.Diagnostics) == 0
}

func logOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

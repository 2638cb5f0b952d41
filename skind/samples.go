package skind

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// A Sample is one per-joint observation at a frame: the joint's local
// (parent-relative) transform packed as 7 floats, plus the local offset of
// every vertex the joint drives. Samples are immutable once recorded.
type Sample struct {
	Frame int `json:"frame"`

	// Transform is quaternion (x, y, z, w) followed by translation.
	Transform [7]float64 `json:"joint_transform"`

	// Offsets maps vertex index to the vertex's offset, expressed in the
	// driving joint's coordinate frame so trained models are invariant to
	// the joint's own motion.
	Offsets map[int][3]float64 `json:"vertex_offsets"`
}

// JointSamples is the per-joint slice of a SampleSet.
type JointSamples struct {
	// Vertices lists the vertices driven by the joint, in the stable
	// ascending order used for dataset columns.
	Vertices []int `json:"vertices"`

	// Samples is ordered by frame.
	Samples []Sample `json:"samples"`
}

// A SampleSet is the full training corpus, keyed by joint name.
//
// Offsets are persisted exactly as recorded; no normalization is applied
// before serialization. The reference pipeline behaves the same way and
// existing trained models depend on the raw scale, so normalization is an
// explicit opt-in on DatasetBuilder instead.
type SampleSet map[string]*JointSamples

// JointNames returns the joint keys in sorted order.
func (s SampleSet) JointNames() []string {
	names := maps.Keys(s)
	slices.Sort(names)
	return names
}

// NumSamples returns the total number of recorded samples across joints.
func (s SampleSet) NumSamples() int {
	var total int
	for _, js := range s {
		total += len(js.Samples)
	}
	return total
}

// A SampleWriter accumulates per-frame snapshots into a SampleSet.
//
// The writer only records vertices whose driving joint is known, i.e. the
// weight model must already be simplified for them. A partially recorded
// set must be discarded with Abort rather than finalized if a sampling run
// is interrupted, so per-joint sample counts never end up truncated.
type SampleWriter struct {
	Log *zap.Logger

	skeleton    *Skeleton
	numVertices int
	joints      []int
	vertices    map[int][]int
	set         SampleSet
	sealed      bool
	aborted     bool
}

// NewSampleWriter creates a writer for a simplified weight model. Vertices
// that still have multiple influences are reported in the Report and will
// not be recorded.
func NewSampleWriter(skeleton *Skeleton, model *SkinWeightModel) (*SampleWriter, *Report, error) {
	if skeleton == nil {
		return nil, nil, errors.New("sample writer: no skeleton")
	}
	if model == nil {
		return nil, nil, errors.New("sample writer: no weight model")
	}
	if model.NumJoints() != skeleton.NumJoints() {
		return nil, nil, errors.Errorf("sample writer: weight model has %d joints, skeleton has %d",
			model.NumJoints(), skeleton.NumJoints())
	}

	report := &Report{}
	for v := 0; v < model.NumVertices(); v++ {
		if _, ok := model.DrivingJoint(v); !ok {
			report.add(Diagnostic{
				Vertex: v,
				Err:    errors.Errorf("vertex %d has no single driving joint", v),
			})
		}
	}

	vertices := model.JointVertices()
	joints := maps.Keys(vertices)
	slices.Sort(joints)

	set := SampleSet{}
	for _, j := range joints {
		set[skeleton.Joints[j].Name] = &JointSamples{Vertices: vertices[j]}
	}

	return &SampleWriter{
		skeleton:    skeleton,
		numVertices: model.NumVertices(),
		joints:      joints,
		vertices:    vertices,
		set:         set,
	}, report, nil
}

// Record appends one sample per driving joint from a frame snapshot.
func (w *SampleWriter) Record(snap *Snapshot) error {
	if w.aborted {
		return errors.New("sample writer: aborted")
	}
	if w.sealed {
		return errors.New("sample writer: already finalized")
	}
	if len(snap.JointWorld) != w.skeleton.NumJoints() {
		return errors.Errorf("sample writer: snapshot has %d joints, skeleton has %d",
			len(snap.JointWorld), w.skeleton.NumJoints())
	}
	if len(snap.Target) != w.numVertices {
		return errors.Errorf("sample writer: snapshot has %d target vertices, weight model has %d",
			len(snap.Target), w.numVertices)
	}
	for _, j := range w.joints {
		if len(snap.Rigid) <= j || len(snap.Rigid[j]) != w.numVertices {
			return errors.Errorf("sample writer: snapshot rigid projection for joint %d has the wrong shape", j)
		}
	}

	log := logOrNop(w.Log)
	log.Debug("recording frame", zap.Int("frame", snap.Frame))

	for _, j := range w.joints {
		world := snap.JointWorld[j]
		local := w.skeleton.LocalTransform(j, snap.JointWorld)
		invRot := world.Rotation.Transpose()

		offsets := make(map[int][3]float64, len(w.vertices[j]))
		for _, v := range w.vertices[j] {
			delta := snap.Target[v].Sub(snap.Rigid[j][v])
			off := invRot.MulColumn(delta)
			offsets[v] = [3]float64{off.X, off.Y, off.Z}
		}

		js := w.set[w.skeleton.Joints[j].Name]
		js.Samples = append(js.Samples, Sample{
			Frame:     snap.Frame,
			Transform: local.Params(),
			Offsets:   offsets,
		})
	}
	return nil
}

// Finalize seals collection and returns the corpus. Recording after
// Finalize is an error.
func (w *SampleWriter) Finalize() (SampleSet, error) {
	if w.aborted {
		return nil, errors.New("sample writer: aborted")
	}
	w.sealed = true
	return w.set, nil
}

// Abort discards everything recorded so far. An aborted writer cannot be
// finalized.
func (w *SampleWriter) Abort() {
	w.aborted = true
	w.set = nil
}

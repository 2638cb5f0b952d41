package skind

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"go.uber.org/zap"
)

// A FrameRange is an inclusive range of frames with a step size.
type FrameRange struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`

	// Step is the interval between sampled frames. Zero means 1.
	Step int `json:"step" yaml:"step"`
}

// Frames expands the range into the list of sampled frames.
func (f FrameRange) Frames() []int {
	step := f.Step
	if step <= 0 {
		step = 1
	}
	var res []int
	for frame := f.Start; frame <= f.End; frame += step {
		res = append(res, frame)
	}
	return res
}

// A Snapshot captures everything the pipeline needs from the host scene at
// one frame: all joint world transforms, the rigid projection of every
// vertex under every candidate joint, and the ground-truth target position
// of every vertex. Snapshots are immutable once produced.
type Snapshot struct {
	Frame int

	// JointWorld has one transform per joint in the skeleton arena.
	JointWorld []RigidTransform

	// Rigid[j][v] is where vertex v would sit if rigidly attached to
	// joint j at this frame.
	Rigid [][]model3d.Coord3D

	// Target[v] is the host's observed world position of vertex v on the
	// target mesh.
	Target []model3d.Coord3D
}

// A FrameSampler produces per-frame snapshots by querying a host scene one
// frame at a time.
//
// Sampling is a synchronous pull: each snapshot is computed on demand and
// no background work runs. Iterating again replays the same frame range,
// and the scene's current frame is restored after a pass.
type FrameSampler struct {
	Scene    Scene
	Skeleton *Skeleton

	// Rest holds the rest-pose position of every vertex.
	Rest []model3d.Coord3D

	// TargetMesh names the ground-truth mesh in the scene.
	TargetMesh string

	Range FrameRange

	Log *zap.Logger
}

func (f *FrameSampler) check() error {
	if f.Scene == nil {
		return errors.New("sampler: no scene")
	}
	if f.Skeleton == nil {
		return errors.New("sampler: no skeleton")
	}
	if len(f.Rest) == 0 {
		return errors.New("sampler: no rest-pose vertices")
	}
	if f.Range.Start > f.Range.End {
		return errors.Errorf("sampler: empty frame range %d..%d", f.Range.Start, f.Range.End)
	}
	return nil
}

// Each iterates the frame range, calling fn with the snapshot for every
// sampled frame. Returning an error from fn aborts the pass.
func (f *FrameSampler) Each(fn func(*Snapshot) error) error {
	if err := f.check(); err != nil {
		return err
	}
	log := logOrNop(f.Log)

	// Rigid projections depend only on the bind pose, so the per-joint
	// local rest positions are derived once per pass.
	numJoints := f.Skeleton.NumJoints()
	restWorld := f.Skeleton.RestWorld()
	restLocal := make([][]model3d.Coord3D, numJoints)
	for j := 0; j < numJoints; j++ {
		bindInv := restWorld[j].Inverse()
		local := make([]model3d.Coord3D, len(f.Rest))
		for v, p := range f.Rest {
			local[v] = bindInv.Apply(p)
		}
		restLocal[j] = local
	}

	restore := f.Scene.CurrentFrame()
	defer f.Scene.SetCurrentFrame(restore)

	for _, frame := range f.Range.Frames() {
		log.Debug("processing frame", zap.Int("frame", frame))
		if err := f.Scene.SetCurrentFrame(frame); err != nil {
			return err
		}
		snap := &Snapshot{
			Frame:      frame,
			JointWorld: make([]RigidTransform, numJoints),
			Rigid:      make([][]model3d.Coord3D, numJoints),
			Target:     make([]model3d.Coord3D, len(f.Rest)),
		}
		for j := 0; j < numJoints; j++ {
			world, err := f.Scene.JointWorldTransform(j, frame)
			if err != nil {
				return err
			}
			snap.JointWorld[j] = world
			projected := make([]model3d.Coord3D, len(f.Rest))
			for v := range f.Rest {
				projected[v] = world.Apply(restLocal[j][v])
			}
			snap.Rigid[j] = projected
		}
		for v := range f.Rest {
			target, err := f.Scene.VertexWorldPosition(f.TargetMesh, v, frame)
			if err != nil {
				return err
			}
			snap.Target[v] = target
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
	return nil
}

// Collect runs a full pass and returns every snapshot.
func (f *FrameSampler) Collect() ([]*Snapshot, error) {
	var res []*Snapshot
	err := f.Each(func(s *Snapshot) error {
		res = append(res, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

package skind

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// A Scene is the narrow view of a host scene that the pipeline needs.
//
// The host scene is mutable shared state evaluated one frame at a time, so
// implementations need not be safe for concurrent queries. Callers pass a
// Scene explicitly rather than reading ambient globals, which keeps the
// pipeline testable against a fake scene.
type Scene interface {
	// JointWorldTransform evaluates a joint's world transform at a frame.
	JointWorldTransform(joint, frame int) (RigidTransform, error)

	// VertexWorldPosition evaluates a vertex's deformed world position on
	// the named mesh at a frame.
	VertexWorldPosition(mesh string, vertex, frame int) (model3d.Coord3D, error)

	// SetCurrentFrame moves the scene's evaluation time.
	SetCurrentFrame(frame int) error

	// CurrentFrame returns the scene's current evaluation time, so a
	// sampling pass can restore it when finished.
	CurrentFrame() int
}

// A FramePose is one frame of a baked scene: every joint's world transform
// and every mesh's deformed vertex positions.
type FramePose struct {
	Joints []RigidTransform             `json:"joints"`
	Meshes map[string][]model3d.Coord3D `json:"meshes"`
}

// A StaticScene is a Scene backed by precomputed per-frame data.
//
// Hosts export a bake once and the rest of the pipeline runs offline on it.
// It also serves as the fake scene for tests.
type StaticScene struct {
	Skeleton *Skeleton          `json:"skeleton"`
	Rest     []model3d.Coord3D  `json:"rest"`
	Frames   map[int]*FramePose `json:"frames"`

	current int
}

// Validate checks the bake for structural consistency.
func (s *StaticScene) Validate() error {
	if s.Skeleton == nil {
		return errors.New("scene: missing skeleton")
	}
	if err := s.Skeleton.Validate(); err != nil {
		return err
	}
	for frame, pose := range s.Frames {
		if pose == nil {
			return errors.Errorf("scene: frame %d: missing pose", frame)
		}
		if len(pose.Joints) != s.Skeleton.NumJoints() {
			return errors.Errorf("scene: frame %d: %d joint transforms for %d joints",
				frame, len(pose.Joints), s.Skeleton.NumJoints())
		}
		for i, rt := range pose.Joints {
			if rt.Rotation == nil {
				return errors.Errorf("scene: frame %d: joint %d has no rotation", frame, i)
			}
		}
		for mesh, points := range pose.Meshes {
			if len(points) != len(s.Rest) {
				return errors.Errorf("scene: frame %d: mesh %q has %d vertices, rest pose has %d",
					frame, mesh, len(points), len(s.Rest))
			}
		}
	}
	return nil
}

func (s *StaticScene) pose(frame int) (*FramePose, error) {
	pose, ok := s.Frames[frame]
	if !ok {
		return nil, errors.Errorf("scene: frame %d is not baked", frame)
	}
	return pose, nil
}

func (s *StaticScene) JointWorldTransform(joint, frame int) (RigidTransform, error) {
	pose, err := s.pose(frame)
	if err != nil {
		return RigidTransform{}, err
	}
	if joint < 0 || joint >= len(pose.Joints) {
		return RigidTransform{}, errors.Errorf("scene: frame %d: joint index %d out of range", frame, joint)
	}
	return pose.Joints[joint], nil
}

func (s *StaticScene) VertexWorldPosition(mesh string, vertex, frame int) (model3d.Coord3D, error) {
	pose, err := s.pose(frame)
	if err != nil {
		return model3d.Coord3D{}, err
	}
	points, ok := pose.Meshes[mesh]
	if !ok {
		return model3d.Coord3D{}, errors.Errorf("scene: frame %d: no mesh %q", frame, mesh)
	}
	if vertex < 0 || vertex >= len(points) {
		return model3d.Coord3D{}, &InvalidVertexError{Vertex: vertex}
	}
	return points[vertex], nil
}

// SetCurrentFrame accepts any frame, including frames outside the bake, so
// that a sampler can put back whatever time the host was at.
func (s *StaticScene) SetCurrentFrame(frame int) error {
	s.current = frame
	return nil
}

func (s *StaticScene) CurrentFrame() int {
	return s.current
}

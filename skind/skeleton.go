package skind

import (
	"github.com/pkg/errors"
)

// A Joint is one transform in a skeleton hierarchy.
//
// Parent is an index into the owning Skeleton's joint arena, or -1 for a
// root joint. Joints never hold pointers to each other, so a Skeleton can
// be copied and serialized freely.
type Joint struct {
	Name   string         `json:"name"`
	Parent int            `json:"parent"`
	Rest   RigidTransform `json:"rest"`
}

// A Skeleton is an arena of joints forming a tree.
type Skeleton struct {
	Joints []Joint `json:"joints"`
}

// NewSkeleton creates a skeleton and validates its hierarchy.
func NewSkeleton(joints []Joint) (*Skeleton, error) {
	s := &Skeleton{Joints: joints}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that every parent reference is in bounds and that the
// joint graph is a tree.
func (s *Skeleton) Validate() error {
	n := len(s.Joints)
	if n == 0 {
		return errors.New("skeleton: no joints")
	}
	for i, j := range s.Joints {
		if j.Parent < -1 || j.Parent >= n {
			return errors.Errorf("skeleton: joint %q parent out of bounds", j.Name)
		}
		if j.Parent == i {
			return errors.Errorf("skeleton: joint %q is its own parent", j.Name)
		}
		if j.Rest.Rotation == nil {
			return errors.Errorf("skeleton: joint %q has no rest rotation", j.Name)
		}
	}
	for i := range s.Joints {
		parent := s.Joints[i].Parent
		for steps := 0; parent >= 0; steps++ {
			if steps >= n {
				return errors.Errorf("skeleton: cycle through joint %q", s.Joints[i].Name)
			}
			parent = s.Joints[parent].Parent
		}
	}
	return nil
}

// NumJoints returns the number of joints in the arena.
func (s *Skeleton) NumJoints() int {
	return len(s.Joints)
}

// JointIndex finds a joint by name, or returns -1.
func (s *Skeleton) JointIndex(name string) int {
	for i, j := range s.Joints {
		if j.Name == name {
			return i
		}
	}
	return -1
}

// RestWorld resolves the rest-pose world transform of every joint by
// walking parent chains.
func (s *Skeleton) RestWorld() []RigidTransform {
	world := make([]RigidTransform, len(s.Joints))
	done := make([]bool, len(s.Joints))
	var resolve func(i int) RigidTransform
	resolve = func(i int) RigidTransform {
		if done[i] {
			return world[i]
		}
		j := s.Joints[i]
		if j.Parent < 0 {
			world[i] = j.Rest
		} else {
			world[i] = resolve(j.Parent).Compose(j.Rest)
		}
		done[i] = true
		return world[i]
	}
	for i := range s.Joints {
		resolve(i)
	}
	return world
}

// LocalTransform converts a joint's world transform to its parent-relative
// transform, given the world transforms of all joints at the same frame.
func (s *Skeleton) LocalTransform(joint int, world []RigidTransform) RigidTransform {
	parent := s.Joints[joint].Parent
	if parent < 0 {
		return world[joint]
	}
	return world[parent].Inverse().Compose(world[joint])
}

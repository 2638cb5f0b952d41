package skind

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// An Influence is one (joint, weight) pair in a vertex's weight list.
type Influence struct {
	Joint  int     `json:"joint"`
	Weight float64 `json:"weight"`
}

// A SkinWeightModel is a sparse per-vertex joint-weight table.
//
// Weights for a vertex are kept ordered by joint index, are non-negative,
// and sum to 1. After simplification every vertex has exactly one influence
// with weight 1.
type SkinWeightModel struct {
	numJoints int
	weights   [][]Influence
}

// NewSkinWeightModel creates an empty weight table for a fixed-topology
// mesh with the given vertex count and joint arena size.
func NewSkinWeightModel(numVertices, numJoints int) *SkinWeightModel {
	return &SkinWeightModel{
		numJoints: numJoints,
		weights:   make([][]Influence, numVertices),
	}
}

// NumVertices returns the vertex count of the bound mesh.
func (s *SkinWeightModel) NumVertices() int {
	return len(s.weights)
}

// NumJoints returns the size of the joint arena the table refers into.
func (s *SkinWeightModel) NumJoints() int {
	return s.numJoints
}

// Weights returns a copy of the influence list for a vertex, ordered by
// joint index.
func (s *SkinWeightModel) Weights(vertex int) ([]Influence, error) {
	if vertex < 0 || vertex >= len(s.weights) {
		return nil, &InvalidVertexError{Vertex: vertex}
	}
	return append([]Influence{}, s.weights[vertex]...), nil
}

// SetWeights installs a multi-influence binding for a vertex. Zero weights
// are dropped and the remainder is normalized to sum to 1.
func (s *SkinWeightModel) SetWeights(vertex int, influences []Influence) error {
	if vertex < 0 || vertex >= len(s.weights) {
		return &InvalidVertexError{Vertex: vertex}
	}
	var total float64
	kept := make([]Influence, 0, len(influences))
	for _, inf := range influences {
		if inf.Joint < 0 || inf.Joint >= s.numJoints {
			return errors.Errorf("vertex %d: joint index %d out of range", vertex, inf.Joint)
		}
		if inf.Weight < 0 {
			return errors.Errorf("vertex %d: negative weight for joint %d", vertex, inf.Joint)
		}
		if inf.Weight > 0 {
			kept = append(kept, inf)
			total += inf.Weight
		}
	}
	if total > 0 {
		for i := range kept {
			kept[i].Weight /= total
		}
	}
	slices.SortFunc(kept, func(a, b Influence) bool {
		return a.Joint < b.Joint
	})
	s.weights[vertex] = kept
	return nil
}

// SetSingleInfluence collapses a vertex to exactly one influence with
// weight 1, discarding all prior influences.
func (s *SkinWeightModel) SetSingleInfluence(vertex, joint int) error {
	if vertex < 0 || vertex >= len(s.weights) {
		return &InvalidVertexError{Vertex: vertex}
	}
	if joint < 0 || joint >= s.numJoints {
		return errors.Errorf("vertex %d: joint index %d out of range", vertex, joint)
	}
	s.weights[vertex] = []Influence{{Joint: joint, Weight: 1}}
	return nil
}

// DrivingJoint returns the single joint driving a vertex, if the vertex has
// been simplified to one influence.
func (s *SkinWeightModel) DrivingJoint(vertex int) (int, bool) {
	if vertex < 0 || vertex >= len(s.weights) {
		return 0, false
	}
	if len(s.weights[vertex]) != 1 || s.weights[vertex][0].Weight != 1 {
		return 0, false
	}
	return s.weights[vertex][0].Joint, true
}

// JointVertices maps each joint to the vertices it drives, in ascending
// vertex order. Vertices without a single driving joint are omitted.
func (s *SkinWeightModel) JointVertices() map[int][]int {
	res := map[int][]int{}
	for v := range s.weights {
		if joint, ok := s.DrivingJoint(v); ok {
			res[joint] = append(res[joint], v)
		}
	}
	return res
}

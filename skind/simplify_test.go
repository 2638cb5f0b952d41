package skind

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
)

func TestSimplifyFast(t *testing.T) {
	m := NewSkinWeightModel(2, 3)
	require.NoError(t, m.SetWeights(0, []Influence{
		{Joint: 0, Weight: 0.2},
		{Joint: 1, Weight: 0.5},
		{Joint: 2, Weight: 0.3},
	}))
	require.NoError(t, m.SetWeights(1, []Influence{
		{Joint: 0, Weight: 0.9},
		{Joint: 2, Weight: 0.1},
	}))

	s := &Simplifier{Model: m}
	report, err := s.SimplifyFast()
	require.NoError(t, err)
	require.True(t, report.Empty())
	require.Equal(t, Simplified, s.State())

	for v, want := range []int{1, 0} {
		joint, ok := m.DrivingJoint(v)
		require.True(t, ok)
		require.Equal(t, want, joint)

		weights, err := m.Weights(v)
		require.NoError(t, err)
		require.Len(t, weights, 1)
		require.Equal(t, 1.0, weights[0].Weight)
	}
}

func TestSimplifyFastTieBreak(t *testing.T) {
	build := func() *SkinWeightModel {
		m := NewSkinWeightModel(1, 4)
		require.NoError(t, m.SetWeights(0, []Influence{
			{Joint: 1, Weight: 0.5},
			{Joint: 3, Weight: 0.5},
		}))
		return m
	}

	m := build()
	_, err := (&Simplifier{Model: m}).SimplifyFast()
	require.NoError(t, err)
	joint, _ := m.DrivingJoint(0)
	require.Equal(t, 1, joint)

	m = build()
	_, err = (&Simplifier{Model: m, TieBreak: TieBreakHighestJoint}).SimplifyFast()
	require.NoError(t, err)
	joint, _ = m.DrivingJoint(0)
	require.Equal(t, 3, joint)
}

func TestSimplifyFastIdempotent(t *testing.T) {
	m := NewSkinWeightModel(1, 2)
	require.NoError(t, m.SetWeights(0, []Influence{
		{Joint: 0, Weight: 0.4},
		{Joint: 1, Weight: 0.6},
	}))

	s := &Simplifier{Model: m}
	_, err := s.SimplifyFast()
	require.NoError(t, err)
	first, _ := m.DrivingJoint(0)

	_, err = s.SimplifyFast()
	require.NoError(t, err)
	second, _ := m.DrivingJoint(0)
	require.Equal(t, first, second)
}

// exhaustiveFixture bakes a 4-joint rig where vertex 0 rigidly follows the
// joint at index "follow".
func exhaustiveFixture(t *testing.T, follow int) ([]*Snapshot, *SkinWeightModel) {
	skel := chainSkeleton(t, 4)
	rest := []model3d.Coord3D{model3d.XYZ(2, 0.5, 0)}
	frames := map[int][]RigidTransform{}
	for f := 1; f <= 5; f++ {
		frames[f] = wavingPose(4, f)
	}
	scene := rigidScene(skel, rest, []int{follow}, frames, "target")

	sampler := &FrameSampler{
		Scene:      scene,
		Skeleton:   skel,
		Rest:       rest,
		TargetMesh: "target",
		Range:      FrameRange{Start: 1, End: 5},
	}
	snapshots, err := sampler.Collect()
	require.NoError(t, err)

	m := NewSkinWeightModel(1, 4)
	require.NoError(t, m.SetWeights(0, []Influence{
		{Joint: 1, Weight: 0.3},
		{Joint: 2, Weight: 0.7},
	}))
	return snapshots, m
}

func TestSimplifyExhaustivePicksBestJoint(t *testing.T) {
	snapshots, m := exhaustiveFixture(t, 2)

	s := &Simplifier{Model: m}
	report, err := s.SimplifyExhaustive(snapshots)
	require.NoError(t, err)
	require.True(t, report.Empty())

	joint, ok := m.DrivingJoint(0)
	require.True(t, ok)
	require.Equal(t, 2, joint)
}

func TestSimplifyExhaustiveRestrictsCandidates(t *testing.T) {
	// The vertex follows joint 3 perfectly, but joint 3 never influenced
	// it, so the search must stay within {1, 2}.
	snapshots, m := exhaustiveFixture(t, 3)

	s := &Simplifier{Model: m}
	_, err := s.SimplifyExhaustive(snapshots)
	require.NoError(t, err)

	joint, ok := m.DrivingJoint(0)
	require.True(t, ok)
	require.Contains(t, []int{1, 2}, joint)
}

func TestSimplifyExhaustiveNoSamples(t *testing.T) {
	m := NewSkinWeightModel(1, 2)
	require.NoError(t, m.SetSingleInfluence(0, 0))

	s := &Simplifier{Model: m}
	_, err := s.SimplifyExhaustive(nil)
	require.ErrorIs(t, err, ErrNoSampleData)
	require.Equal(t, Unsimplified, s.State())
}

func TestSimplifyUnweightedVertexContinues(t *testing.T) {
	snapshots, _ := exhaustiveFixture(t, 2)

	// Vertex 1 has no influences at all; vertex 0 is weighted normally.
	m := NewSkinWeightModel(2, 4)
	require.NoError(t, m.SetWeights(0, []Influence{
		{Joint: 1, Weight: 0.3},
		{Joint: 2, Weight: 0.7},
	}))

	// The snapshots only cover one vertex; extend them to two by
	// duplicating the data so dimensions line up.
	for _, snap := range snapshots {
		for j := range snap.Rigid {
			snap.Rigid[j] = append(snap.Rigid[j], snap.Rigid[j][0])
		}
		snap.Target = append(snap.Target, snap.Target[0])
	}

	s := &Simplifier{Model: m}
	report, err := s.SimplifyExhaustive(snapshots)
	require.NoError(t, err)

	require.Len(t, report.Diagnostics, 1)
	require.Equal(t, 1, report.Diagnostics[0].Vertex)
	var unweighted *UnweightedVertexError
	require.ErrorAs(t, report.Diagnostics[0].Err, &unweighted)

	joint, ok := m.DrivingJoint(0)
	require.True(t, ok)
	require.Equal(t, 2, joint)
}

func TestSimplifyErrorDeterminism(t *testing.T) {
	snapshots, _ := exhaustiveFixture(t, 2)
	first := RigidError(1, 0, snapshots)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, RigidError(1, 0, snapshots))
	}
}

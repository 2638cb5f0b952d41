package skind

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
)

func testSampleSet() SampleSet {
	return SampleSet{
		"a_joint": {
			Vertices: []int{0, 2},
			Samples: []Sample{
				{
					Frame:     1,
					Transform: [7]float64{0, 0, 0.25, 0.968, 1, 2, 3},
					Offsets: map[int][3]float64{
						0: {0.5, -0.25, 0.125},
						2: {0, 0, 1.5},
					},
				},
				{
					Frame:     2,
					Transform: [7]float64{0, 0, 0.5, 0.866, 4, 5, 6},
					Offsets: map[int][3]float64{
						0: {0.75, 0, 0},
						2: {-1, 0.0625, 0},
					},
				},
			},
		},
		"b_joint": {
			Vertices: []int{1},
			Samples: []Sample{
				{
					Frame:     1,
					Transform: [7]float64{0, 0, 0, 1, 0, 0, 0},
					Offsets:   map[int][3]float64{1: {0, 0, 0}},
				},
			},
		},
	}
}

func TestSampleSetRoundTrip(t *testing.T) {
	set := testSampleSet()
	var b bytes.Buffer
	require.NoError(t, WriteSampleSet(&b, set))
	restored, err := ReadSampleSet(&b)
	require.NoError(t, err)
	require.Equal(t, set, restored)
}

func TestSampleSetSaveLoad(t *testing.T) {
	set := testSampleSet()
	path := filepath.Join(t.TempDir(), "samples.json")
	require.NoError(t, SaveSampleSet(path, set))
	restored, err := LoadSampleSet(path)
	require.NoError(t, err)
	require.Equal(t, set, restored)
}

func TestReadSampleSetMalformed(t *testing.T) {
	_, err := ReadSampleSet(strings.NewReader("{not json"))
	require.Error(t, err)

	// An offset for a vertex the joint does not drive names the joint and
	// the offending frame.
	doc := `{"a": {"vertices": [0], "samples": [
		{"frame": 7, "joint_transform": [0,0,0,1,0,0,0],
		 "vertex_offsets": {"9": [1,2,3]}}]}}`
	_, err = ReadSampleSet(strings.NewReader(doc))
	require.ErrorContains(t, err, `joint "a"`)
	require.ErrorContains(t, err, "frame 7")
	require.ErrorContains(t, err, "vertex 9")
}

func TestLoadSampleSetMissingFileMentionsPath(t *testing.T) {
	_, err := LoadSampleSet(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorContains(t, err, "nope.json")
}

func TestWeightsRoundTrip(t *testing.T) {
	m := NewSkinWeightModel(3, 2)
	require.NoError(t, m.SetWeights(0, []Influence{
		{Joint: 0, Weight: 0.25},
		{Joint: 1, Weight: 0.75},
	}))
	require.NoError(t, m.SetSingleInfluence(2, 1))
	// Vertex 1 stays unweighted.

	var b bytes.Buffer
	require.NoError(t, WriteWeights(&b, m))
	restored, err := ReadWeights(&b)
	require.NoError(t, err)

	require.Equal(t, m.NumVertices(), restored.NumVertices())
	require.Equal(t, m.NumJoints(), restored.NumJoints())
	for v := 0; v < m.NumVertices(); v++ {
		expected, err := m.Weights(v)
		require.NoError(t, err)
		actual, err := restored.Weights(v)
		require.NoError(t, err)
		require.Equal(t, expected, actual)
	}
}

func TestSceneRoundTrip(t *testing.T) {
	skel := chainSkeleton(t, 2)
	rest := []model3d.Coord3D{model3d.XYZ(1, 0, 0), model3d.XYZ(0, 1, 0)}
	frames := map[int][]RigidTransform{
		1: wavingPose(2, 1),
		2: wavingPose(2, 2),
	}
	scene := rigidScene(skel, rest, []int{0, 1}, frames, "target")

	path := filepath.Join(t.TempDir(), "scene.json")
	require.NoError(t, SaveScene(path, scene))
	restored, err := LoadScene(path)
	require.NoError(t, err)

	require.Equal(t, scene.Rest, restored.Rest)
	require.Equal(t, scene.Skeleton, restored.Skeleton)
	for frame, pose := range scene.Frames {
		got := restored.Frames[frame]
		require.NotNil(t, got, "frame %d", frame)
		require.Equal(t, pose.Meshes, got.Meshes)
		for j, world := range pose.Joints {
			p := model3d.XYZ(0.5, 0.5, 0.5)
			requireCoordNear(t, world.Apply(p), got.Joints[j].Apply(p))
		}
	}
}

func TestReadSceneInvalid(t *testing.T) {
	// A pose with the wrong joint count fails validation on read.
	doc := `{"skeleton": {"joints": [{"name": "root", "parent": -1,
		"rest": {"rotation": [1,0,0,0,1,0,0,0,1], "translation": {"X":0,"Y":0,"Z":0}}}]},
		"rest": [{"X":1,"Y":0,"Z":0}],
		"frames": {"1": {"joints": [], "meshes": {}}}}`
	_, err := ReadScene(strings.NewReader(doc))
	require.ErrorContains(t, err, "frame 1")

	// A pose joint with no rotation fails validation instead of leaving a
	// nil matrix behind for Apply to hit.
	doc = `{"skeleton": {"joints": [{"name": "root", "parent": -1,
		"rest": {"rotation": [1,0,0,0,1,0,0,0,1], "translation": {"X":0,"Y":0,"Z":0}}}]},
		"rest": [{"X":1,"Y":0,"Z":0}],
		"frames": {"2": {"joints": [{"translation": {"X":0,"Y":0,"Z":0}}], "meshes": {}}}}`
	_, err = ReadScene(strings.NewReader(doc))
	require.ErrorContains(t, err, "frame 2")
	require.ErrorContains(t, err, "no rotation")

	// Same for a skeleton whose rest transform lacks a rotation.
	doc = `{"skeleton": {"joints": [{"name": "root", "parent": -1,
		"rest": {"translation": {"X":0,"Y":0,"Z":0}}}]},
		"rest": [],
		"frames": {}}`
	_, err = ReadScene(strings.NewReader(doc))
	require.ErrorContains(t, err, "no rest rotation")
}

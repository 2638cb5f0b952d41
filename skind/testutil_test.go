package skind

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
)

func rotationZ(angle float64, translation model3d.Coord3D) RigidTransform {
	return NewRigidTransform(
		[4]float64{0, 0, math.Sin(angle / 2), math.Cos(angle / 2)},
		translation,
	)
}

// chainSkeleton builds a chain of n joints spaced one unit along X.
func chainSkeleton(t *testing.T, n int) *Skeleton {
	joints := make([]Joint, n)
	for i := range joints {
		rest := RigidIdentity()
		if i > 0 {
			rest.Translation = model3d.X(1)
		}
		joints[i] = Joint{
			Name:   jointName(i),
			Parent: i - 1,
			Rest:   rest,
		}
	}
	skel, err := NewSkeleton(joints)
	require.NoError(t, err)
	return skel
}

func jointName(i int) string {
	return string(rune('a'+i)) + "_joint"
}

// rigidScene bakes a scene in which every vertex rigidly follows the joint
// named by follow[v], so that joint's rigid projection matches the target
// exactly.
func rigidScene(skel *Skeleton, rest []model3d.Coord3D, follow []int,
	frames map[int][]RigidTransform, mesh string) *StaticScene {
	restWorld := skel.RestWorld()
	scene := &StaticScene{
		Skeleton: skel,
		Rest:     rest,
		Frames:   map[int]*FramePose{},
	}
	for frame, world := range frames {
		points := make([]model3d.Coord3D, len(rest))
		for v, p := range rest {
			j := follow[v]
			local := restWorld[j].Inverse().Apply(p)
			points[v] = world[j].Apply(local)
		}
		scene.Frames[frame] = &FramePose{
			Joints: world,
			Meshes: map[string][]model3d.Coord3D{mesh: points},
		}
	}
	return scene
}

// wavingPose gives every joint a distinct world transform at a frame.
func wavingPose(numJoints, frame int) []RigidTransform {
	world := make([]RigidTransform, numJoints)
	for j := range world {
		world[j] = rotationZ(
			0.2*float64(j+1)*float64(frame),
			model3d.XYZ(float64(j), 0.1*float64(frame), 0),
		)
	}
	return world
}

func requireCoordNear(t *testing.T, expected, actual model3d.Coord3D) {
	t.Helper()
	require.InDelta(t, expected.X, actual.X, 1e-8)
	require.InDelta(t, expected.Y, actual.Y, 1e-8)
	require.InDelta(t, expected.Z, actual.Z, 1e-8)
}

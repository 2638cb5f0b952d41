package skind

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
)

// A RigidTransform is a rotation followed by a translation.
//
// Joint transforms in this package are always rigid, so a 3x3 rotation
// matrix plus a translation vector stands in for the usual 4x4 matrix.
type RigidTransform struct {
	Rotation    *model3d.Matrix3 `json:"rotation"`
	Translation model3d.Coord3D  `json:"translation"`
}

// RigidIdentity returns the identity transform.
func RigidIdentity() RigidTransform {
	return RigidTransform{
		Rotation: &model3d.Matrix3{1, 0, 0, 0, 1, 0, 0, 0, 1},
	}
}

// NewRigidTransform creates a transform from a unit quaternion (x, y, z, w)
// and a translation.
func NewRigidTransform(quat [4]float64, translation model3d.Coord3D) RigidTransform {
	x, y, z, w := quat[0], quat[1], quat[2], quat[3]
	n := math.Sqrt(x*x + y*y + z*z + w*w)
	if n > 0 {
		x, y, z, w = x/n, y/n, z/n, w/n
	} else {
		w = 1
	}
	return RigidTransform{
		Rotation: &model3d.Matrix3{
			1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w),
			2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w),
			2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y),
		},
		Translation: translation,
	}
}

// RigidFromParams is the inverse of RigidTransform.Params().
func RigidFromParams(params [7]float64) RigidTransform {
	return NewRigidTransform(
		[4]float64{params[0], params[1], params[2], params[3]},
		model3d.XYZ(params[4], params[5], params[6]),
	)
}

// Apply transforms a point.
func (r RigidTransform) Apply(c model3d.Coord3D) model3d.Coord3D {
	return r.Rotation.MulColumn(c).Add(r.Translation)
}

// ApplyVector rotates a direction vector, ignoring the translation.
func (r RigidTransform) ApplyVector(c model3d.Coord3D) model3d.Coord3D {
	return r.Rotation.MulColumn(c)
}

// Inverse returns the transform mapping outputs of r back to its inputs.
func (r RigidTransform) Inverse() RigidTransform {
	rt := r.Rotation.Transpose()
	return RigidTransform{
		Rotation:    rt,
		Translation: rt.MulColumn(r.Translation).Scale(-1),
	}
}

// Compose returns the transform which applies other first, then r.
func (r RigidTransform) Compose(other RigidTransform) RigidTransform {
	return RigidTransform{
		Rotation:    r.Rotation.Mul(other.Rotation),
		Translation: r.Rotation.MulColumn(other.Translation).Add(r.Translation),
	}
}

// Quaternion extracts the rotation as a unit quaternion (x, y, z, w).
func (r RigidTransform) Quaternion() [4]float64 {
	m := r.Rotation
	trace := m[0] + m[4] + m[8]
	var x, y, z, w float64
	if trace > 0 {
		s := 2 * math.Sqrt(trace+1)
		w = s / 4
		x = (m[7] - m[5]) / s
		y = (m[2] - m[6]) / s
		z = (m[3] - m[1]) / s
	} else if m[0] > m[4] && m[0] > m[8] {
		s := 2 * math.Sqrt(1+m[0]-m[4]-m[8])
		w = (m[7] - m[5]) / s
		x = s / 4
		y = (m[1] + m[3]) / s
		z = (m[2] + m[6]) / s
	} else if m[4] > m[8] {
		s := 2 * math.Sqrt(1+m[4]-m[0]-m[8])
		w = (m[2] - m[6]) / s
		x = (m[1] + m[3]) / s
		y = s / 4
		z = (m[5] + m[7]) / s
	} else {
		s := 2 * math.Sqrt(1+m[8]-m[0]-m[4])
		w = (m[3] - m[1]) / s
		x = (m[2] + m[6]) / s
		y = (m[5] + m[7]) / s
		z = s / 4
	}
	return [4]float64{x, y, z, w}
}

// Params packs the transform as the 7-float parameterization used in
// persisted samples: quaternion (x, y, z, w) followed by the translation.
func (r RigidTransform) Params() [7]float64 {
	q := r.Quaternion()
	return [7]float64{
		q[0], q[1], q[2], q[3],
		r.Translation.X, r.Translation.Y, r.Translation.Z,
	}
}

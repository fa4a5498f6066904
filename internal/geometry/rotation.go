package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Rotation is a row-major 3x3 matrix taking module-local (u, v, w)
// coordinates to global (x, y, z) directions:
//
//	rot_xu rot_xv rot_xw
//	rot_yu rot_yv rot_yw
//	rot_zu rot_zv rot_zw
type Rotation [9]float64

// Identity returns the identity rotation.
func Identity() Rotation {
	return Rotation{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// RotationZ returns a rotation by theta radians about the z axis.
func RotationZ(theta float64) Rotation {
	s, c := math.Sincos(theta)
	return Rotation{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// Apply returns the matrix-vector product r·v.
func (r Rotation) Apply(v r3.Vec) r3.Vec {
	m := mat.NewDense(3, 3, r[:])
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

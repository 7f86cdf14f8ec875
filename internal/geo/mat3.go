package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// singularEpsilon is the determinant magnitude below which a matrix is treated as singular
const singularEpsilon = 1e-12

// Mat3 is a row-major 3x3 matrix
type Mat3 [3][3]float64

// Identity3 returns the 3x3 identity matrix
func Identity3() Mat3 {
	return Mat3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// Mul returns the matrix product m·n
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return out
}

// MulVec returns the product m·v
func (m Mat3) MulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Transpose returns the transpose of m
func (m Mat3) Transpose() Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[j][i]
		}
	}
	return out
}

// Det returns the determinant of m
func (m Mat3) Det() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// Inverse returns the inverse of m computed from its adjugate.
// A singular (or non-finite) matrix yields ErrConfig.
func (m Mat3) Inverse() (Mat3, error) {
	det := m.Det()
	if math.IsNaN(det) || math.IsInf(det, 0) || math.Abs(det) < singularEpsilon {
		return Mat3{}, fmt.Errorf("%w: singular matrix (det=%g)", ErrConfig, det)
	}

	inv := 1 / det
	return Mat3{
		{
			(m[1][1]*m[2][2] - m[1][2]*m[2][1]) * inv,
			(m[0][2]*m[2][1] - m[0][1]*m[2][2]) * inv,
			(m[0][1]*m[1][2] - m[0][2]*m[1][1]) * inv,
		},
		{
			(m[1][2]*m[2][0] - m[1][0]*m[2][2]) * inv,
			(m[0][0]*m[2][2] - m[0][2]*m[2][0]) * inv,
			(m[0][2]*m[1][0] - m[0][0]*m[1][2]) * inv,
		},
		{
			(m[1][0]*m[2][1] - m[1][1]*m[2][0]) * inv,
			(m[0][1]*m[2][0] - m[0][0]*m[2][1]) * inv,
			(m[0][0]*m[1][1] - m[0][1]*m[1][0]) * inv,
		},
	}, nil
}

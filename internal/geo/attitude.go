package geo

import (
	"math"

	"github.com/golang/geo/s1"
)

// Attitude is the camera orientation in degrees. Zero values describe a camera
// looking straight down with the image top pointing along the local Y axis.
type Attitude struct {
	RollDeg  float64
	PitchDeg float64
	YawDeg   float64
}

// Matrix returns the combined rotation Rz(yaw)·Ry(pitch)·Rx(roll), mapping
// camera-frame vectors into the local tangent frame.
func (a Attitude) Matrix() Mat3 {
	return RotationZ(a.YawDeg).Mul(RotationY(a.PitchDeg)).Mul(RotationX(a.RollDeg))
}

// RotationX returns the elementary rotation about the X axis (roll)
func RotationX(deg float64) Mat3 {
	sin, cos := sinCos(deg)
	return Mat3{
		{1, 0, 0},
		{0, cos, -sin},
		{0, sin, cos},
	}
}

// RotationY returns the elementary rotation about the Y axis (pitch)
func RotationY(deg float64) Mat3 {
	sin, cos := sinCos(deg)
	return Mat3{
		{cos, 0, sin},
		{0, 1, 0},
		{-sin, 0, cos},
	}
}

// RotationZ returns the elementary rotation about the Z axis (yaw)
func RotationZ(deg float64) Mat3 {
	sin, cos := sinCos(deg)
	return Mat3{
		{cos, -sin, 0},
		{sin, cos, 0},
		{0, 0, 1},
	}
}

func sinCos(deg float64) (float64, float64) {
	return math.Sincos((s1.Angle(deg) * s1.Degree).Radians())
}

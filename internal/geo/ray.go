package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// ProjectRay back-projects the pixel (px, py) through the inverse intrinsic
// matrix k, scales the result by altitude and rotates it with r into the local
// tangent frame. X and Y of the returned vector are the east/north-like ground
// offsets from the drone in meters.
//
// Altitude is used as the depth along the optical axis, which matches a true
// ground intersection only for a near-nadir camera.
func ProjectRay(px, py float64, k, r Mat3, altitude float64) (r3.Vector, error) {
	if math.IsNaN(altitude) || altitude <= 0 {
		return r3.Vector{}, fmt.Errorf("%w: altitude must be positive: %g given", ErrInvalidAltitude, altitude)
	}

	kInv, err := k.Inverse()
	if err != nil {
		return r3.Vector{}, fmt.Errorf("inverting intrinsic matrix: %w", err)
	}

	camPoint := kInv.MulVec(r3.Vector{X: px, Y: py, Z: 1}).Mul(altitude)
	return r.MulVec(camPoint), nil
}

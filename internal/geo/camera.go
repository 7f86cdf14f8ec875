package geo

import (
	"fmt"
	"math"
)

// Intrinsics holds the pinhole camera parameters of a single image
type Intrinsics struct {
	FocalLengthMm  float64 // Lens focal length in millimeters, from telemetry
	SensorWidthMm  float64 // Sensor width in millimeters, from the camera profile
	SensorHeightMm float64 // Sensor height in millimeters, from the camera profile
	ImageWidthPx   float64 // Image width in pixels, from telemetry
	ImageHeightPx  float64 // Image height in pixels, from telemetry
}

// NewIntrinsics validates the camera parameters and returns them as Intrinsics.
// All parameters must be finite and strictly positive.
func NewIntrinsics(focalMm, sensorWMm, sensorHMm, imgWpx, imgHpx float64) (Intrinsics, error) {
	params := []struct {
		name  string
		value float64
	}{
		{"focal length", focalMm},
		{"sensor width", sensorWMm},
		{"sensor height", sensorHMm},
		{"image width", imgWpx},
		{"image height", imgHpx},
	}
	for _, p := range params {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) || p.value <= 0 {
			return Intrinsics{}, fmt.Errorf("%w: %s must be positive: %g given", ErrConfig, p.name, p.value)
		}
	}

	return Intrinsics{
		FocalLengthMm:  focalMm,
		SensorWidthMm:  sensorWMm,
		SensorHeightMm: sensorHMm,
		ImageWidthPx:   imgWpx,
		ImageHeightPx:  imgHpx,
	}, nil
}

// FocalPx returns the focal length expressed in pixels along both image axes
func (in Intrinsics) FocalPx() (fx, fy float64) {
	fx = in.FocalLengthMm / in.SensorWidthMm * in.ImageWidthPx
	fy = in.FocalLengthMm / in.SensorHeightMm * in.ImageHeightPx
	return
}

// PrincipalPoint returns the image center in pixels
func (in Intrinsics) PrincipalPoint() (cx, cy float64) {
	return in.ImageWidthPx / 2, in.ImageHeightPx / 2
}

// Matrix returns the intrinsic matrix K:
//
//	[ fx  0 cx ]
//	[  0 fy cy ]
//	[  0  0  1 ]
func (in Intrinsics) Matrix() Mat3 {
	fx, fy := in.FocalPx()
	cx, cy := in.PrincipalPoint()

	return Mat3{
		{fx, 0, cx},
		{0, fy, cy},
		{0, 0, 1},
	}
}

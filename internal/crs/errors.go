package crs

import "errors"

var (
	// ErrInvalidLongitude is returned for a longitude that is NaN or lies
	// outside [-180, 180]
	ErrInvalidLongitude = errors.New("invalid longitude")

	// ErrTransform is returned when a point cannot be projected through a CRS,
	// including an unsupported EPSG code or a point too far from the zone
	ErrTransform = errors.New("coordinate transform failed")
)

package geo

import "errors"

var (
	// ErrParse is returned when an angle or a numeric telemetry value cannot be parsed
	ErrParse = errors.New("parse error")

	// ErrConfig is returned for invalid camera parameters, including parameters that
	// would produce a singular intrinsic matrix
	ErrConfig = errors.New("invalid camera configuration")

	// ErrInvalidAltitude is returned when the projection depth is not strictly positive
	ErrInvalidAltitude = errors.New("invalid altitude")
)

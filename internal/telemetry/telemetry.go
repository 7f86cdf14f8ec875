package telemetry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roman-kulish/sar-geolocator/internal/geo"
)

// Telemetry record keys as reported by exiftool
const (
	KeyLatitude         = "GPS Latitude"
	KeyLongitude        = "GPS Longitude"
	KeyRelativeAltitude = "Relative Altitude"
	KeyFocalLength      = "Focal Length"
	KeyImageWidth       = "Exif Image Width"
	KeyImageHeight      = "Exif Image Height"
	KeyCameraRoll       = "Camera Roll"
	KeyCameraPitch      = "Camera Pitch"
	KeyCameraYaw        = "Camera Yaw"
)

// RequiredKeys lists the keys every record must carry before it can be parsed
var RequiredKeys = []string{
	KeyLatitude,
	KeyLongitude,
	KeyRelativeAltitude,
	KeyFocalLength,
	KeyImageWidth,
	KeyImageHeight,
}

var (
	// ErrMissingField is returned when a required key is absent from a record
	ErrMissingField = errors.New("missing metadata field")

	// ErrTransient marks provider failures that may succeed when retried
	ErrTransient = errors.New("transient metadata read failure")
)

// Record is the raw key/value telemetry of one image
type Record map[string]string

// Pose is the drone position at capture time
type Pose struct {
	Latitude         float64 // Decimal degrees, negative south
	Longitude        float64 // Decimal degrees, negative west
	RelativeAltitude float64 // Meters above the take-off point
}

// Telemetry is the validated telemetry of one image
type Telemetry struct {
	Pose          Pose
	Attitude      geo.Attitude
	FocalLengthMm float64
	ImageWidth    int
	ImageHeight   int
	Hemisphere    string // Latitude hemisphere letter, "N" or "S"
}

// Parse validates the record and converts it into Telemetry. Presence of every
// required key is checked before any value is parsed.
func Parse(rec Record) (*Telemetry, error) {
	for _, key := range RequiredKeys {
		if _, ok := rec[key]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingField, key)
		}
	}

	var (
		t   Telemetry
		err error
	)

	if t.Pose.Latitude, err = geo.ToDecimalDegrees(rec[KeyLatitude]); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", KeyLatitude, err)
	}
	if t.Hemisphere, err = geo.Hemisphere(rec[KeyLatitude]); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", KeyLatitude, err)
	}
	if t.Pose.Longitude, err = geo.ToDecimalDegrees(rec[KeyLongitude]); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", KeyLongitude, err)
	}
	if t.Pose.RelativeAltitude, err = parseFloat(rec, KeyRelativeAltitude); err != nil {
		return nil, err
	}

	// "4.5 mm" or "4.5 mm (35 mm equivalent: 24.0 mm)"
	focal := strings.Fields(rec[KeyFocalLength])
	if len(focal) == 0 {
		return nil, fmt.Errorf("parsing %s: %w: empty value", KeyFocalLength, geo.ErrParse)
	}
	if t.FocalLengthMm, err = strconv.ParseFloat(focal[0], 64); err != nil {
		return nil, fmt.Errorf("parsing %s: %w: %q", KeyFocalLength, geo.ErrParse, rec[KeyFocalLength])
	}

	if t.ImageWidth, err = parseInt(rec, KeyImageWidth); err != nil {
		return nil, err
	}
	if t.ImageHeight, err = parseInt(rec, KeyImageHeight); err != nil {
		return nil, err
	}

	angles := []struct {
		key string
		dst *float64
	}{
		{KeyCameraRoll, &t.Attitude.RollDeg},
		{KeyCameraPitch, &t.Attitude.PitchDeg},
		{KeyCameraYaw, &t.Attitude.YawDeg},
	}
	for _, a := range angles {
		if _, ok := rec[a.key]; !ok {
			continue // defaults to 0
		}
		if *a.dst, err = parseFloat(rec, a.key); err != nil {
			return nil, err
		}
	}

	return &t, nil
}

func parseFloat(rec Record, key string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[key]), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w: %q", key, geo.ErrParse, rec[key])
	}
	return v, nil
}

func parseInt(rec Record, key string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(rec[key]))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w: %q", key, geo.ErrParse, rec[key])
	}
	return v, nil
}

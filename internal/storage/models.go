package storage

import (
	"database/sql"
	"time"

	"github.com/roman-kulish/sar-geolocator/internal/detection"
)

// Mission is one batch run of the geolocation pipeline
type Mission struct {
	ID        int64
	UUID      string
	StartTime time.Time
	Config    *string // JSON encoded run configuration
}

// MissionDetection is a stored GeoDetection with the image it was found on
type MissionDetection struct {
	detection.GeoDetection

	ImagePath string
}

// Summary holds mission totals
type Summary struct {
	Images     int // Images processed, including failed ones
	Failed     int // Images that produced an error
	Detections int // Stored GeoDetections
}

type imageData struct {
	MissionID        int64
	Path             string
	ProcessedAt      time.Time
	Latitude         sql.NullFloat64
	Longitude        sql.NullFloat64
	RelativeAltitude sql.NullFloat64
	Roll             sql.NullFloat64
	Pitch            sql.NullFloat64
	Yaw              sql.NullFloat64
	Error            sql.NullString
}

package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/sar-geolocator/internal/detection"
	"github.com/roman-kulish/sar-geolocator/internal/telemetry"
)

// Store persists geolocation missions. Writes are expected from a single
// goroutine; reads may run concurrently with it.
type Store interface {
	// CreateMission starts a new mission and returns it.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - config: Optional run configuration. Can be string, []byte, or JSON-serializable object
	//
	// Returns:
	//   - mission: The created mission with its ID and UUID
	//   - error: If mission creation fails or context is cancelled
	CreateMission(ctx context.Context, config any) (mission *Mission, err error)

	// Mission retrieves a mission by its ID.
	Mission(ctx context.Context, id int64) (mission *Mission, err error)

	// Missions returns all missions ordered by start time.
	Missions(ctx context.Context) (missions []*Mission, err error)

	// StoreImage records a processed image. The telemetry is nil when the image
	// failed before its metadata was parsed; procErr is nil on success.
	//
	// Returns:
	//   - imageID: Unique identifier for the stored image record
	//   - error: If storage fails or context is cancelled
	StoreImage(ctx context.Context, missionID int64, path string, t *telemetry.Telemetry, procErr error) (imageID int64, err error)

	// StoreGeoDetections saves all detections of an image in a single atomic transaction.
	StoreGeoDetections(ctx context.Context, missionID, imageID int64, dets []detection.GeoDetection) error

	// ReadGeoDetections returns an iterator over the stored detections of a mission.
	// The returned reader must be closed after use.
	ReadGeoDetections(ctx context.Context, missionID int64, opts ...ReaderOption) (*SqliteDetectionReader, error)

	// Summary returns the image and detection totals of a mission.
	Summary(ctx context.Context, missionID int64) (Summary, error)

	// Close releases all database connections and resources.
	// It is safe to call Close multiple times.
	Close() error
}

var _ Store = (*SqliteStore)(nil)

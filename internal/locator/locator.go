// Package locator turns image detections into ground coordinates using the
// drone telemetry of the image.
package locator

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/golang/geo/s2"

	"github.com/roman-kulish/sar-geolocator/internal/crs"
	"github.com/roman-kulish/sar-geolocator/internal/detection"
	"github.com/roman-kulish/sar-geolocator/internal/geo"
	"github.com/roman-kulish/sar-geolocator/internal/telemetry"
)

// earthRadiusM is the mean Earth radius used for informational ground distances
const earthRadiusM = 6371008.8

// CameraProfile is the static sensor geometry of the drone camera
type CameraProfile struct {
	SensorWidthMm  float64 `yaml:"sensor_width_mm"`
	SensorHeightMm float64 `yaml:"sensor_height_mm"`
}

// Validate checks that both sensor dimensions are positive
func (p CameraProfile) Validate() error {
	if !(p.SensorWidthMm > 0) || math.IsInf(p.SensorWidthMm, 0) {
		return fmt.Errorf("%w: sensor_width_mm must be positive: %g given", geo.ErrConfig, p.SensorWidthMm)
	}
	if !(p.SensorHeightMm > 0) || math.IsInf(p.SensorHeightMm, 0) {
		return fmt.Errorf("%w: sensor_height_mm must be positive: %g given", geo.ErrConfig, p.SensorHeightMm)
	}
	return nil
}

// Config is the immutable configuration of a GeoLocator
type Config struct {
	Camera              CameraProfile
	ConfidenceThreshold float64 // Detections must score strictly above it
}

// WithLogger sets the logger for the locator
func WithLogger(logger *slog.Logger) func(g *GeoLocator) {
	return func(g *GeoLocator) {
		g.logger = logger.With(slog.String("component", "geolocator"))
	}
}

// GeoLocator places detections on the ground. It holds no per-image state and
// is safe for concurrent use.
type GeoLocator struct {
	cfg    Config
	logger *slog.Logger
}

// New validates cfg and returns a GeoLocator
func New(cfg Config, options ...func(g *GeoLocator)) (*GeoLocator, error) {
	if err := cfg.Camera.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(cfg.ConfidenceThreshold) || cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("%w: confidence_threshold must be within [0, 1]: %g given", geo.ErrConfig, cfg.ConfidenceThreshold)
	}

	g := GeoLocator{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&g)
	}

	return &g, nil
}

// Config returns the locator configuration
func (g *GeoLocator) Config() Config {
	return g.cfg
}

// ProcessRecord parses the raw telemetry record and geolocates dets. A record
// with a missing or malformed field fails the whole image, even when no
// detection passes the threshold.
func (g *GeoLocator) ProcessRecord(rec telemetry.Record, dets []detection.Detection) ([]detection.GeoDetection, error) {
	t, err := telemetry.Parse(rec)
	if err != nil {
		return nil, fmt.Errorf("parsing telemetry: %w", err)
	}
	return g.Process(t, dets)
}

// Process geolocates every detection scoring above the confidence threshold.
// Output keeps the input order; any failure fails the whole image.
func (g *GeoLocator) Process(t *telemetry.Telemetry, dets []detection.Detection) ([]detection.GeoDetection, error) {
	var (
		k     geo.Mat3
		r     geo.Mat3
		epsg  int
		ready bool
	)

	out := make([]detection.GeoDetection, 0, len(dets))
	for i, d := range dets {
		if !(d.Confidence > g.cfg.ConfidenceThreshold) {
			continue
		}

		// the camera and CRS setup is shared by all detections of the image
		if !ready {
			intrinsics, err := geo.NewIntrinsics(
				t.FocalLengthMm,
				g.cfg.Camera.SensorWidthMm,
				g.cfg.Camera.SensorHeightMm,
				float64(t.ImageWidth),
				float64(t.ImageHeight),
			)
			if err != nil {
				return nil, fmt.Errorf("building camera intrinsics: %w", err)
			}

			zone, err := crs.UTMZone(t.Pose.Longitude)
			if err != nil {
				return nil, fmt.Errorf("resolving UTM zone: %w", err)
			}

			k = intrinsics.Matrix()
			r = t.Attitude.Matrix()
			epsg = crs.EPSGCode(zone, t.Hemisphere)
			ready = true
		}

		gd, err := g.locate(t, d, k, r, epsg)
		if err != nil {
			return nil, fmt.Errorf("locating detection %d: %w", i, err)
		}
		out = append(out, gd)
	}

	return out, nil
}

func (g *GeoLocator) locate(t *telemetry.Telemetry, d detection.Detection, k, r geo.Mat3, epsg int) (detection.GeoDetection, error) {
	px, py := d.Center()

	offset, err := geo.ProjectRay(px, py, k, r, t.Pose.RelativeAltitude)
	if err != nil {
		return detection.GeoDetection{}, fmt.Errorf("projecting ray: %w", err)
	}

	drone := crs.Point{X: t.Pose.Longitude, Y: t.Pose.Latitude}
	target, err := crs.Translate(drone, epsg, offset.X, offset.Y)
	if err != nil {
		return detection.GeoDetection{}, fmt.Errorf("transforming through EPSG:%d: %w", epsg, err)
	}

	gd := detection.GeoDetection{
		Detection:      d,
		Latitude:       target.Y,
		Longitude:      target.X,
		Elevation:      t.Pose.RelativeAltitude,
		GroundDistance: GroundDistance(t.Pose.Latitude, t.Pose.Longitude, target.Y, target.X),
	}

	g.logger.Debug("detection located",
		slog.Int("class_id", d.ClassID),
		slog.Float64("confidence", d.Confidence),
		slog.String("offset", fmt.Sprintf("%sm E, %sm N", humanize.FtoaWithDigits(offset.X, 2), humanize.FtoaWithDigits(offset.Y, 2))),
		slog.Float64("latitude", gd.Latitude),
		slog.Float64("longitude", gd.Longitude),
		slog.Int("epsg", epsg),
	)

	return gd, nil
}

// GroundDistance returns the great-circle distance in meters between two
// WGS84 positions given in decimal degrees
func GroundDistance(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * earthRadiusM
}

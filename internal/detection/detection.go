package detection

import (
	"context"
	"image"
)

// Detection is a single object detected on an image
type Detection struct {
	BBox       [4]float64 `json:"bbox"`       // Center X, center Y, width, height in pixels
	Confidence float64    `json:"confidence"` // Detector confidence in [0, 1]
	ClassID    int        `json:"class_id"`   // Detector class index
}

// Center returns the bounding box center in pixels
func (d Detection) Center() (x, y float64) {
	return d.BBox[0], d.BBox[1]
}

// Rect returns the bounding box as an integer rectangle
func (d Detection) Rect() image.Rectangle {
	cx, cy, w, h := d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3]
	return image.Rect(int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2))
}

// GeoDetection is a Detection located on the ground
type GeoDetection struct {
	Detection

	Latitude       float64 `json:"latitude"`        // Decimal degrees
	Longitude      float64 `json:"longitude"`       // Decimal degrees
	Elevation      float64 `json:"elevation"`       // Drone relative altitude in meters
	GroundDistance float64 `json:"ground_distance"` // Great-circle distance from the drone in meters
}

// Detector finds objects on an image prepared at the inference resolution.
// Bounding boxes are returned in the pixel space of img.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}

// Package visual renders GeoDetections as GeoJSON maps and annotated images.
package visual

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/roman-kulish/sar-geolocator/internal/detection"
)

// FeatureCollection is a GeoJSON collection of detection markers
type FeatureCollection struct {
	collection *geojson.FeatureCollection
}

// NewFeatureCollection returns an empty collection
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{
		collection: geojson.NewFeatureCollection(),
	}
}

// Add appends a marker for a detection found on image
func (fc *FeatureCollection) Add(image string, d detection.GeoDetection, classes Classes) {
	f := geojson.NewFeature(orb.Point{d.Longitude, d.Latitude})
	f.Properties["image"] = image
	f.Properties["class_id"] = d.ClassID
	f.Properties["class"] = classes.Name(d.ClassID)
	f.Properties["confidence"] = round(d.Confidence, 3)
	f.Properties["elevation"] = round(d.Elevation, 2)
	f.Properties["ground_distance"] = round(d.GroundDistance, 2)
	f.Properties["marker-color"] = markerColor(d.Confidence)

	fc.collection.Append(f)
}

// Len returns the number of features
func (fc *FeatureCollection) Len() int {
	return len(fc.collection.Features)
}

// Encode writes the collection as indented JSON
func (fc *FeatureCollection) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc.collection); err != nil {
		return fmt.Errorf("encoding GeoJSON: %w", err)
	}
	return nil
}

// WriteFile writes the collection to path, replacing any existing file
func (fc *FeatureCollection) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	return fc.Encode(f)
}

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

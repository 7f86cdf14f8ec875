package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/sar-geolocator/internal/geo"
	"github.com/roman-kulish/sar-geolocator/internal/telemetry"
)

func TestRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	img := writeImage(t, dir, "DJI_0001.JPG")

	config := NewConfig()
	config.Camera.SensorWidthMm = 6.3
	config.Camera.SensorHeightMm = 4.7
	config.Detector.URL = "http://unused"
	config.Detector.Classes = []string{"clothing"}
	config.Storage.DataDirectory = filepath.Join(dir, "data")
	config.Output.GeoJSON = filepath.Join(dir, "map.geojson")

	deps := Dependencies{
		Provider: telemetry.Static{img: droneRecord()},
		Detector: inferenceDetections,
	}

	require.NoError(t, Run(context.Background(), config, []string{dir}, deps, discardLogger))

	data, err := os.ReadFile(config.Output.GeoJSON)
	require.NoError(t, err)

	var fc struct {
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "DJI_0001.JPG", fc.Features[0].Properties["image"])
	assert.Equal(t, "clothing", fc.Features[0].Properties["class"])
	assert.InDelta(t, -122.41936, fc.Features[0].Geometry.Coordinates[0], 1e-5)

	dbs, err := filepath.Glob(filepath.Join(config.Storage.DataDirectory, "mission_*.sqlite"))
	require.NoError(t, err)
	assert.Len(t, dbs, 1)
}

func TestRun_InvalidCameraIsFatal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeImage(t, dir, "a.jpg")

	config := NewConfig()
	config.Storage.DataDirectory = filepath.Join(dir, "data")

	err := Run(context.Background(), config, []string{dir}, Dependencies{}, discardLogger)
	assert.ErrorIs(t, err, geo.ErrConfig)

	_, statErr := os.Stat(config.Storage.DataDirectory)
	assert.True(t, os.IsNotExist(statErr), "no storage is created for an invalid camera profile")
}

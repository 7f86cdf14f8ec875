package app

import (
	"context"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/sar-geolocator/internal/detection"
	"github.com/roman-kulish/sar-geolocator/internal/locator"
	"github.com/roman-kulish/sar-geolocator/internal/storage"
	"github.com/roman-kulish/sar-geolocator/internal/telemetry"
	"github.com/roman-kulish/sar-geolocator/internal/visual"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for x := 0; x < 400; x++ {
		img.Set(x, 150, color.White)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func droneRecord() telemetry.Record {
	return telemetry.Record{
		telemetry.KeyLatitude:         `37 deg 46' 29.64" N`,
		telemetry.KeyLongitude:        `122 deg 25' 9.84" W`,
		telemetry.KeyRelativeAltitude: "+50.000",
		telemetry.KeyFocalLength:      "4.5 mm",
		telemetry.KeyImageWidth:       "4000",
		telemetry.KeyImageHeight:      "3000",
	}
}

// inference-space detections; the first maps onto pixel (2200, 1600) of a 4000x3000 image
var inferenceDetections = detection.Static{
	{BBox: [4]float64{352, 1600.0 * 640 / 3000, 12.8, 12.8}, Confidence: 0.8, ClassID: 0},
	{BBox: [4]float64{100, 100, 10, 10}, Confidence: 0.3, ClassID: 1},
}

type fixture struct {
	dir    string
	images []string
	store  *storage.SqliteStore
	orch   *Orchestrator
}

func newFixture(t *testing.T, options ...func(*Orchestrator)) *fixture {
	t.Helper()

	dir := t.TempDir()
	ok := writeImage(t, dir, "a.jpg")
	missing := writeImage(t, dir, "b.jpg")
	unknown := writeImage(t, dir, "c.jpg")

	incomplete := droneRecord()
	delete(incomplete, telemetry.KeyFocalLength)

	provider := telemetry.Static{
		ok:      droneRecord(),
		missing: incomplete,
	}

	loc, err := locator.New(locator.Config{
		Camera:              locator.CameraProfile{SensorWidthMm: 6.3, SensorHeightMm: 4.7},
		ConfidenceThreshold: 0.5,
	})
	require.NoError(t, err)

	store := storage.NewSqliteStore(filepath.Join(dir, "mission.sqlite"))
	t.Cleanup(func() { _ = store.Close() })

	return &fixture{
		dir:    dir,
		images: []string{ok, missing, unknown},
		store:  store,
		orch:   NewOrchestrator(loc, provider, inferenceDetections, store, discardLogger, options...),
	}
}

func TestOrchestrator_Run(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	annotated := filepath.Join(t.TempDir(), "annotated")

	annotator, err := visual.NewAnnotator(visual.Classes{"clothing"})
	require.NoError(t, err)

	f := newFixture(t, WithWorkers(2), WithAnnotator(annotator, annotated))

	mission, err := f.store.CreateMission(ctx, nil)
	require.NoError(t, err)

	report, err := f.orch.Run(ctx, mission.ID, f.images)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Submitted)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 1, report.Detections)
	require.Len(t, report.Results, 1)

	r := report.Results[0]
	assert.Equal(t, f.images[0], r.Path)
	require.Len(t, r.Detections, 1)
	assert.Equal(t, 50.0, r.Detections[0].Elevation)
	assert.InDelta(t, 37.7749154931, r.Detections[0].Latitude, 1e-8)
	assert.InDelta(t, -122.4193601360, r.Detections[0].Longitude, 1e-8)

	// the stored bbox is in the Exif resolution
	assert.InDelta(t, 2200, r.Detections[0].BBox[0], 1e-9)
	assert.InDelta(t, 1600, r.Detections[0].BBox[1], 1e-9)

	summary, err := f.store.Summary(ctx, mission.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.Summary{Images: 3, Failed: 2, Detections: 1}, summary)

	_, err = os.Stat(filepath.Join(annotated, "a.jpg"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(annotated, "b.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestOrchestrator_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	mission, err := f.store.CreateMission(context.Background(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.orch.Run(ctx, mission.ID, f.images)
	require.NoError(t, err)
	assert.Zero(t, report.Submitted)
	assert.Zero(t, report.Failed)
	assert.Empty(t, report.Results)
}

func TestOrchestrator_NoImages(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.orch.Run(context.Background(), 1, nil)
	assert.Error(t, err)
}

func TestResolveImages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeImage(t, dir, "b.JPG")
	b := writeImage(t, dir, "a.jpeg")
	c := writeImage(t, dir, "c.png")
	d := writeImage(t, dir, "d.TIFF")
	e := writeImage(t, dir, "e.bmp")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "raw.dng"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755))

	got, err := ResolveImages([]string{dir, a})
	require.NoError(t, err)
	assert.Equal(t, []string{b, a, c, d, e}, got)

	_, err = ResolveImages([]string{filepath.Join(dir, "missing.jpg")})
	assert.Error(t, err)

	_, err = ResolveImages([]string{t.TempDir()})
	assert.Error(t, err)
}

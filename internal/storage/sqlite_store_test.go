package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/sar-geolocator/internal/detection"
	"github.com/roman-kulish/sar-geolocator/internal/geo"
	"github.com/roman-kulish/sar-geolocator/internal/telemetry"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()

	s := NewSqliteStore(filepath.Join(t.TempDir(), "missions.db"))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func geoDetection(classID int, confidence, lat, lon float64) detection.GeoDetection {
	return detection.GeoDetection{
		Detection: detection.Detection{
			BBox:       [4]float64{2200, 1600, 80, 60},
			Confidence: confidence,
			ClassID:    classID,
		},
		Latitude:       lat,
		Longitude:      lon,
		Elevation:      50,
		GroundDistance: 3.9,
	}
}

func TestSqliteStore_MissionRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	m, err := s.CreateMission(ctx, map[string]any{"confidence_threshold": 0.5})
	require.NoError(t, err)
	assert.Positive(t, m.ID)
	_, err = uuid.Parse(m.UUID)
	assert.NoError(t, err)
	require.NotNil(t, m.Config)
	assert.JSONEq(t, `{"confidence_threshold":0.5}`, *m.Config)

	second, err := s.CreateMission(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, second.Config)

	got, err := s.Mission(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.UUID, got.UUID)
	assert.WithinDuration(t, m.StartTime, got.StartTime, 0)

	missions, err := s.Missions(ctx)
	require.NoError(t, err)
	require.Len(t, missions, 2)
	assert.Equal(t, m.ID, missions[0].ID)
	assert.Equal(t, second.ID, missions[1].ID)
}

func TestSqliteStore_GeoDetections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	m, err := s.CreateMission(ctx, "{}")
	require.NoError(t, err)

	tm := &telemetry.Telemetry{
		Pose:     telemetry.Pose{Latitude: 37.7749, Longitude: -122.4194, RelativeAltitude: 50},
		Attitude: geo.Attitude{YawDeg: 12},
	}

	img1, err := s.StoreImage(ctx, m.ID, "a.jpg", tm, nil)
	require.NoError(t, err)
	img2, err := s.StoreImage(ctx, m.ID, "b.jpg", tm, nil)
	require.NoError(t, err)
	_, err = s.StoreImage(ctx, m.ID, "broken.jpg", nil, errors.New("parsing telemetry: missing metadata field"))
	require.NoError(t, err)

	require.NoError(t, s.StoreGeoDetections(ctx, m.ID, img1, []detection.GeoDetection{
		geoDetection(0, 0.8, 37.77491, -122.41936),
		geoDetection(1, 0.6, 37.77492, -122.41937),
	}))
	require.NoError(t, s.StoreGeoDetections(ctx, m.ID, img2, []detection.GeoDetection{
		geoDetection(0, 0.95, 37.77493, -122.41938),
	}))
	require.NoError(t, s.StoreGeoDetections(ctx, m.ID, img2, nil))

	t.Run("all", func(t *testing.T) {
		r, err := s.ReadGeoDetections(ctx, m.ID)
		require.NoError(t, err)
		defer r.Close()

		assert.Equal(t, m.UUID, r.Mission().UUID)

		all, err := r.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)

		assert.Equal(t, "a.jpg", all[0].ImagePath)
		assert.Equal(t, geoDetection(0, 0.8, 37.77491, -122.41936), all[0].GeoDetection)
		assert.Equal(t, "a.jpg", all[1].ImagePath)
		assert.Equal(t, "b.jpg", all[2].ImagePath)
	})

	t.Run("filtered", func(t *testing.T) {
		r, err := s.ReadGeoDetections(ctx, m.ID, WithMinConfidence(0.7), WithClass(0))
		require.NoError(t, err)
		defer r.Close()

		all, err := r.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, 0.8, all[0].Confidence)
		assert.Equal(t, 0.95, all[1].Confidence)
	})

	t.Run("invalid filter", func(t *testing.T) {
		_, err := s.ReadGeoDetections(ctx, m.ID, WithMinConfidence(2))
		assert.Error(t, err)
	})

	t.Run("unknown mission", func(t *testing.T) {
		_, err := s.ReadGeoDetections(ctx, m.ID+100)
		assert.Error(t, err)
	})

	t.Run("summary", func(t *testing.T) {
		summary, err := s.Summary(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, Summary{Images: 3, Failed: 1, Detections: 3}, summary)
	})
}

func TestSqliteStore_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewSqliteStore(filepath.Join(t.TempDir(), "missions.db"))
	_, err := s.CreateMission(context.Background(), nil)
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

package crs

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectToLocal_Reference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    Point
		epsg  int
		wantE float64
		wantN float64
	}{
		{"san francisco", Point{X: -122.4194, Y: 37.7749}, 32610, 551130.768, 4180998.881},
		{"sydney", Point{X: 151.2093, Y: -33.8688}, 32756, 334368.634, 6250948.345},
		{"paris", Point{X: 2.2945, Y: 48.8584}, 32631, 448252.001, 5411954.910},
		{"equator on central meridian", Point{X: 3, Y: 0}, 32631, 500000, 0},
		{"equator on central meridian south", Point{X: -105, Y: 0}, 32713, 500000, 10000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ProjectToLocal(tt.in, tt.epsg)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantE, got.X, 1e-3)
			assert.InDelta(t, tt.wantN, got.Y, 1e-3)
		})
	}
}

func TestProjection_RoundTrip(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		zone := rnd.Intn(60) + 1
		in := Point{
			X: centralMeridian(zone) - 3 + 6*rnd.Float64(),
			Y: -80 + 164*rnd.Float64(),
		}

		hemisphere := "N"
		if in.Y < 0 {
			hemisphere = "S"
		}
		epsg := EPSGCode(zone, hemisphere)

		local, err := ProjectToLocal(in, epsg)
		require.NoError(t, err)

		out, err := ProjectToWGS84(local, epsg)
		require.NoError(t, err)

		assert.InDelta(t, in.X, out.X, 1e-9, "lon of %+v in EPSG:%d", in, epsg)
		assert.InDelta(t, in.Y, out.Y, 1e-9, "lat of %+v in EPSG:%d", in, epsg)
	}
}

func TestProjection_RoundTripZoneEdges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Point
		epsg int
	}{
		{"western edge near the equator", Point{X: 72.0397, Y: 0.0081}, 32643},
		{"eastern edge south of the equator", Point{X: -173.0001, Y: -0.0100}, 32701},
		{"neighbouring zone", Point{X: 6.5, Y: 52.0}, 32631},
		{"far north", Point{X: 2.9, Y: 83.9}, 32631},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			local, err := ProjectToLocal(tt.in, tt.epsg)
			require.NoError(t, err)

			out, err := ProjectToWGS84(local, tt.epsg)
			require.NoError(t, err)
			assert.InDelta(t, tt.in.X, out.X, 1e-9)
			assert.InDelta(t, tt.in.Y, out.Y, 1e-9)
		})
	}
}

func TestProjection_Errors(t *testing.T) {
	t.Parallel()

	_, err := ProjectToLocal(Point{X: 0, Y: 0}, WGS84)
	assert.ErrorIs(t, err, ErrTransform)

	_, err = ProjectToWGS84(Point{X: 500000, Y: 0}, 12345)
	assert.ErrorIs(t, err, ErrTransform)

	_, err = ProjectToLocal(Point{X: 0, Y: 91}, 32631)
	assert.ErrorIs(t, err, ErrTransform)
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	drone := Point{X: -122.4194, Y: 37.7749}

	t.Run("zero offset", func(t *testing.T) {
		t.Parallel()

		got, err := Translate(drone, 32610, 0, 0)
		require.NoError(t, err)
		assert.InDelta(t, drone.X, got.X, 1e-9)
		assert.InDelta(t, drone.Y, got.Y, 1e-9)
	})

	t.Run("east and north offset", func(t *testing.T) {
		t.Parallel()

		got, err := Translate(drone, 32610, 3.5, 1.740740741)
		require.NoError(t, err)
		assert.InDelta(t, -122.4193601360, got.X, 1e-9)
		assert.InDelta(t, 37.7749154931, got.Y, 1e-9)
	})

	t.Run("unsupported code", func(t *testing.T) {
		t.Parallel()

		_, err := Translate(drone, WGS84, 1, 1)
		assert.ErrorIs(t, err, ErrTransform)
	})
}

func TestNormalizeLongitude(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, -180.0, normalizeLongitude(180), 1e-12)
	assert.InDelta(t, 179.0, normalizeLongitude(-181), 1e-12)
	assert.InDelta(t, 10.0, normalizeLongitude(370), 1e-12)
}

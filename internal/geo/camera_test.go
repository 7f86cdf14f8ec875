package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIntrinsics(t *testing.T) {
	t.Parallel()

	in, err := NewIntrinsics(4.5, 6.3, 4.7, 4000, 3000)
	require.NoError(t, err)

	k := in.Matrix()
	assert.InDelta(t, 2857.142857, k[0][0], 1e-6)
	assert.InDelta(t, 2872.340426, k[1][1], 1e-6)
	assert.InDelta(t, 2000.0, k[0][2], 1e-12)
	assert.InDelta(t, 1500.0, k[1][2], 1e-12)
	assert.Equal(t, 1.0, k[2][2])
	assert.Zero(t, k[0][1])
	assert.Zero(t, k[1][0])
	assert.Zero(t, k[2][0])
	assert.Zero(t, k[2][1])
}

func TestNewIntrinsics_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params [5]float64
	}{
		{"zero focal length", [5]float64{0, 6.3, 4.7, 4000, 3000}},
		{"negative sensor width", [5]float64{4.5, -6.3, 4.7, 4000, 3000}},
		{"zero sensor height", [5]float64{4.5, 6.3, 0, 4000, 3000}},
		{"zero image width", [5]float64{4.5, 6.3, 4.7, 0, 3000}},
		{"negative image height", [5]float64{4.5, 6.3, 4.7, 4000, -1}},
		{"NaN focal length", [5]float64{math.NaN(), 6.3, 4.7, 4000, 3000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := tt.params
			_, err := NewIntrinsics(p[0], p[1], p[2], p[3], p[4])
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDecimalDegrees(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dms  string
		want float64
	}{
		{"north", "37 46 30.00 N", 37.775},
		{"south", "37 46 30.00 S", -37.775},
		{"east", "122 25 9.84 E", 122.4194},
		{"west", "122 25 9.84 W", -122.4194},
		{"exiftool format", `37 deg 46' 30.00" N`, 37.775},
		{"zero", "0 0 0 N", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ToDecimalDegrees(tt.dms)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestToDecimalDegrees_Malformed(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"37 46 N",
		"37 46 30 12 N",
		"37 46 30",
		"N 37 46 30",
		"37 46 30.0.0 N",
	}

	for _, in := range inputs {
		_, err := ToDecimalDegrees(in)
		assert.ErrorIs(t, err, ErrParse, "input %q", in)
	}
}

func TestHemisphere(t *testing.T) {
	t.Parallel()

	h, err := Hemisphere(`33 deg 51' 54.00" S`)
	require.NoError(t, err)
	assert.Equal(t, "S", h)

	_, err = Hemisphere("33 51 54")
	assert.ErrorIs(t, err, ErrParse)
}

package visual

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	hueStart = 236.0
	hueEnd   = 0.0
)

// confidenceColor maps a confidence in [0, 1] onto a blue (low) to red (high) hue
func confidenceColor(confidence float64) colorful.Color {
	c := math.Min(math.Max(confidence, 0), 1)
	hue := hueStart - c*(hueStart-hueEnd)
	return colorful.Hsv(hue, 1, 0.90)
}

// markerColor returns the confidence color as a "#rrggbb" string
func markerColor(confidence float64) string {
	return confidenceColor(confidence).Hex()
}

func boxColor(confidence float64) color.RGBA {
	r, g, b := confidenceColor(confidence).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

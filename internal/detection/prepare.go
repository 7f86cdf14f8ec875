package detection

import (
	"image"

	"github.com/disintegration/imaging"
)

// DefaultInputSize is the square inference resolution of YOLO models
const DefaultInputSize = 640

// Prepare resizes img to the square inference resolution
func Prepare(img image.Image, size int) *image.NRGBA {
	return imaging.Resize(img, size, size, imaging.Lanczos)
}

// Rescale maps bounding boxes from a from-sized pixel space to a to-sized one.
// Horizontal components scale with width, vertical with height.
func Rescale(dets []Detection, from, to image.Point) []Detection {
	sx := float64(to.X) / float64(from.X)
	sy := float64(to.Y) / float64(from.Y)

	out := make([]Detection, len(dets))
	for i, d := range dets {
		d.BBox = [4]float64{d.BBox[0] * sx, d.BBox[1] * sy, d.BBox[2] * sx, d.BBox[3] * sy}
		out[i] = d
	}
	return out
}

package visual

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/roman-kulish/sar-geolocator/internal/detection"
)

const (
	dpi       float64 = 72
	fontSize  float64 = 28
	lineWidth int     = 4
	padding   int     = 6
)

// Annotator draws detection boxes and their labels onto images. It is safe for
// concurrent use.
type Annotator struct {
	mu      sync.Mutex
	context *freetype.Context
	face    font.Face
	classes Classes
}

// NewAnnotator creates an Annotator using the Go regular font
func NewAnnotator(classes Classes) (*Annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	context := freetype.NewContext()
	context.SetDPI(dpi)
	context.SetFont(parsedFont)
	context.SetFontSize(fontSize)
	context.SetHinting(font.HintingFull)

	return &Annotator{
		context: context,
		face:    truetype.NewFace(parsedFont, &truetype.Options{Size: fontSize, DPI: dpi}),
		classes: classes,
	}, nil
}

// Annotate returns a copy of img with a box, a "class confidence" label and a
// "lat, lon" label drawn for every detection. Bounding boxes must be in the
// pixel space of img.
func (a *Annotator) Annotate(img image.Image, dets []detection.GeoDetection) (*image.RGBA, error) {
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.context.SetClip(out.Bounds())
	a.context.SetDst(out)

	for i, d := range dets {
		c := boxColor(d.Confidence)
		rect := d.Rect().Add(out.Bounds().Min)

		drawRect(out, rect, c)

		header := fmt.Sprintf("%s %.2f", a.classes.Name(d.ClassID), d.Confidence)
		if err := a.drawLabel(out, header, image.Pt(rect.Min.X, rect.Min.Y-padding), c); err != nil {
			return nil, fmt.Errorf("drawing label of detection %d: %w", i, err)
		}

		footer := fmt.Sprintf("%.6f, %.6f", d.Latitude, d.Longitude)
		if err := a.drawLabel(out, footer, image.Pt(rect.Min.X, rect.Max.Y+padding+a.lineHeight()), c); err != nil {
			return nil, fmt.Errorf("drawing coordinates of detection %d: %w", i, err)
		}
	}

	return out, nil
}

func (a *Annotator) lineHeight() int {
	return a.face.Metrics().Ascent.Ceil()
}

// drawLabel draws text with a solid background, baseline at pt
func (a *Annotator) drawLabel(dst *image.RGBA, text string, pt image.Point, bg color.RGBA) error {
	width := font.MeasureString(a.face, text).Ceil()
	box := image.Rect(pt.X, pt.Y-a.lineHeight()-padding/2, pt.X+width+padding, pt.Y+padding/2)
	draw.Draw(dst, box, image.NewUniform(bg), image.Point{}, draw.Src)

	a.context.SetSrc(image.White)
	if _, err := a.context.DrawString(text, freetype.Pt(pt.X+padding/2, pt.Y)); err != nil {
		return err
	}
	return nil
}

func drawRect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+lineWidth),
		image.Rect(r.Min.X, r.Max.Y-lineWidth, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+lineWidth, r.Max.Y),
		image.Rect(r.Max.X-lineWidth, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}

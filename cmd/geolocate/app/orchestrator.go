package app

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/mdobak/go-xerrors"

	"github.com/roman-kulish/sar-geolocator/internal/detection"
	"github.com/roman-kulish/sar-geolocator/internal/locator"
	"github.com/roman-kulish/sar-geolocator/internal/storage"
	"github.com/roman-kulish/sar-geolocator/internal/telemetry"
	"github.com/roman-kulish/sar-geolocator/internal/visual"
)

// WithWorkers sets the number of images processed concurrently
func WithWorkers(n int) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.workers = max(n, 1)
	}
}

// WithInputSize sets the square inference resolution images are resized to
func WithInputSize(size int) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.inputSize = size
	}
}

// WithAnnotator enables writing annotated copies of images into dir
func WithAnnotator(a *visual.Annotator, dir string) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.annotator = a
		o.annotateDir = dir
	}
}

// ImageResult is the outcome of processing one image
type ImageResult struct {
	Path       string
	Telemetry  *telemetry.Telemetry // nil when metadata could not be read
	Detections []detection.GeoDetection
	Err        error
}

// Report summarises an orchestrator run
type Report struct {
	Submitted  int
	Failed     int
	Detections int
	Results    []ImageResult // Successful images in completion order
}

// Orchestrator runs the per-image pipeline over a worker pool and stores the
// results of a mission. Failures are isolated to the image they occur on.
type Orchestrator struct {
	locator  *locator.GeoLocator
	provider telemetry.Provider
	detector detection.Detector
	store    storage.Store
	logger   *slog.Logger

	workers     int
	inputSize   int
	annotator   *visual.Annotator
	annotateDir string
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	loc *locator.GeoLocator,
	provider telemetry.Provider,
	detector detection.Detector,
	store storage.Store,
	logger *slog.Logger,
	options ...func(*Orchestrator),
) *Orchestrator {
	o := Orchestrator{
		locator:   loc,
		provider:  provider,
		detector:  detector,
		store:     store,
		logger:    logger,
		workers:   defaultWorkers,
		inputSize: detection.DefaultInputSize,
	}

	for _, option := range options {
		option(&o)
	}

	return &o
}

// Run processes images for the mission. Cancelling ctx stops submission of new
// images; images already in flight run to completion on a detached context.
func (o *Orchestrator) Run(ctx context.Context, missionID int64, images []string) (*Report, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no images to process")
	}

	if o.annotator != nil {
		if err := os.MkdirAll(o.annotateDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating annotation directory: %w", err)
		}
	}

	jobs := make(chan string)
	results := make(chan ImageResult, o.workers)
	detached := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- o.processImage(detached, path)
			}
		}()
	}

	report := Report{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		o.handleResults(detached, missionID, results, &report)
	}()

	for _, path := range images {
		if !o.submit(ctx, jobs, path) {
			o.logger.Warn("cancelled, waiting for in-flight images",
				slog.Int("submitted", report.Submitted),
				slog.Int("skipped", len(images)-report.Submitted),
			)
			break
		}
		report.Submitted++
	}
	close(jobs)

	wg.Wait()
	close(results)
	<-done

	return &report, nil
}

// submit hands path to a worker unless ctx is done first
func (o *Orchestrator) submit(ctx context.Context, jobs chan<- string, path string) bool {
	if ctx.Err() != nil {
		return false
	}

	select {
	case <-ctx.Done():
		return false
	case jobs <- path:
		return true
	}
}

func (o *Orchestrator) handleResults(ctx context.Context, missionID int64, results <-chan ImageResult, report *Report) {
	for r := range results {
		logger := o.logger.With(slog.String("image", r.Path))

		if r.Err != nil {
			logger.ErrorContext(ctx, "image processing failed", slog.Any("error", xerrors.New(r.Err)))
		}

		imageID, err := o.store.StoreImage(ctx, missionID, r.Path, r.Telemetry, r.Err)
		if err != nil {
			logger.Error(fmt.Sprintf("storing image: %s", err.Error()))
		} else if err = o.store.StoreGeoDetections(ctx, missionID, imageID, r.Detections); err != nil {
			logger.Error(fmt.Sprintf("storing geodetections: %s", err.Error()))
		}

		if r.Err != nil {
			report.Failed++
			continue
		}

		logger.Info("image processed", slog.Int("detections", len(r.Detections)))
		report.Detections += len(r.Detections)
		report.Results = append(report.Results, r)
	}
}

func (o *Orchestrator) processImage(ctx context.Context, path string) ImageResult {
	result := ImageResult{Path: path}

	steps := []struct {
		msg string
		fn  func(context.Context, *ImageResult) error
	}{
		{"reading metadata", o.readTelemetry},
		{"geolocating detections", o.geolocate},
	}
	for _, s := range steps {
		if err := s.fn(ctx, &result); err != nil {
			result.Err = fmt.Errorf("%s: %w", s.msg, err)
			result.Detections = nil
			return result
		}
	}

	return result
}

func (o *Orchestrator) readTelemetry(ctx context.Context, r *ImageResult) error {
	rec, err := o.provider.Metadata(ctx, r.Path)
	if err != nil {
		return err
	}

	if r.Telemetry, err = telemetry.Parse(rec); err != nil {
		return fmt.Errorf("parsing telemetry: %w", err)
	}
	return nil
}

func (o *Orchestrator) geolocate(ctx context.Context, r *ImageResult) error {
	img, err := imaging.Open(r.Path)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}

	dets, err := o.detector.Detect(ctx, detection.Prepare(img, o.inputSize))
	if err != nil {
		return fmt.Errorf("detecting objects: %w", err)
	}

	exifSize := image.Pt(r.Telemetry.ImageWidth, r.Telemetry.ImageHeight)
	dets = detection.Rescale(dets, image.Pt(o.inputSize, o.inputSize), exifSize)

	if r.Detections, err = o.locator.Process(r.Telemetry, dets); err != nil {
		return err
	}

	if o.annotator != nil && len(r.Detections) > 0 {
		if err = o.annotate(img, exifSize, r); err != nil {
			return fmt.Errorf("annotating image: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) annotate(img image.Image, exifSize image.Point, r *ImageResult) error {
	// boxes are in Exif resolution, the decoded image may differ
	boxes := make([]detection.Detection, len(r.Detections))
	for i, d := range r.Detections {
		boxes[i] = d.Detection
	}
	boxes = detection.Rescale(boxes, exifSize, img.Bounds().Size())

	dets := make([]detection.GeoDetection, len(r.Detections))
	for i, d := range r.Detections {
		d.Detection = boxes[i]
		dets[i] = d
	}

	out, err := o.annotator.Annotate(img, dets)
	if err != nil {
		return err
	}

	return imaging.Save(out, filepath.Join(o.annotateDir, filepath.Base(r.Path)))
}

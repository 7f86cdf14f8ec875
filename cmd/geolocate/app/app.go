package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/sar-geolocator/internal/detection"
	"github.com/roman-kulish/sar-geolocator/internal/locator"
	"github.com/roman-kulish/sar-geolocator/internal/storage"
	"github.com/roman-kulish/sar-geolocator/internal/telemetry"
	"github.com/roman-kulish/sar-geolocator/internal/visual"
)

// formats decodable by imaging.Open
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
}

// Dependencies holds the external collaborators of a run. Nil fields are
// built from the configuration.
type Dependencies struct {
	Provider telemetry.Provider
	Detector detection.Detector
}

func Run(ctx context.Context, config *Config, inputs []string, deps Dependencies, logger *slog.Logger) error {
	started := time.Now()

	images, err := ResolveImages(inputs)
	if err != nil {
		return fmt.Errorf("resolving images: %w", err)
	}

	// static camera configuration errors are fatal before any image is touched
	loc, err := locator.New(config.LocatorConfig(), locator.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("creating geolocator: %w", err)
	}

	store, err := createStorage(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer store.Close()

	if deps.Provider == nil {
		deps.Provider = telemetry.NewExifTool(config.Metadata.ExifTool,
			telemetry.WithTimeout(time.Duration(config.Metadata.Timeout)),
			telemetry.WithRetries(config.Metadata.Retries),
			telemetry.WithLogger(logger),
		)
	}
	if deps.Detector == nil {
		deps.Detector = detection.NewHTTPDetector(config.Detector.URL,
			detection.WithTimeout(time.Duration(config.Detector.Timeout)),
			detection.WithLogger(logger),
		)
	}

	options := []func(*Orchestrator){
		WithWorkers(config.Settings.Workers),
		WithInputSize(config.Detector.InputSize),
	}
	if config.Output.AnnotateDir != "" {
		annotator, err := visual.NewAnnotator(config.Detector.Classes)
		if err != nil {
			return fmt.Errorf("creating annotator: %w", err)
		}
		options = append(options, WithAnnotator(annotator, config.Output.AnnotateDir))
	}

	mission, err := store.CreateMission(ctx, config)
	if err != nil {
		return fmt.Errorf("creating mission: %w", err)
	}

	logger.Info("mission started",
		slog.Int64("mission_id", mission.ID),
		slog.String("uuid", mission.UUID),
		slog.Int("images", len(images)),
		slog.Int("workers", config.Settings.Workers),
	)

	orchestrator := NewOrchestrator(loc, deps.Provider, deps.Detector, store, logger, options...)

	report, err := orchestrator.Run(ctx, mission.ID, images)
	if err != nil {
		return fmt.Errorf("running mission: %w", err)
	}

	if config.Output.GeoJSON != "" {
		if err = writeGeoJSON(config.Output.GeoJSON, report, config.Detector.Classes); err != nil {
			return fmt.Errorf("writing map: %w", err)
		}
		logger.Info("map written", slog.String("path", config.Output.GeoJSON))
	}

	logger.Info("mission complete",
		slog.Int64("mission_id", mission.ID),
		slog.Group("images",
			slog.String("total", humanize.Comma(int64(len(images)))),
			slog.String("submitted", humanize.Comma(int64(report.Submitted))),
			slog.String("failed", humanize.Comma(int64(report.Failed))),
		),
		slog.String("detections", humanize.Comma(int64(report.Detections))),
		slog.String("elapsed", time.Since(started).Round(time.Millisecond).String()),
	)

	return nil
}

// ResolveImages expands directories into the image files they contain. Files
// are passed through as given; the result is sorted and free of duplicates.
func ResolveImages(inputs []string) ([]string, error) {
	var images []string
	for _, in := range inputs {
		stat, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", in, err)
		}

		if !stat.IsDir() {
			images = append(images, in)
			continue
		}

		entries, err := os.ReadDir(in)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", in, err)
		}
		for _, e := range entries {
			if _, ok := imageExtensions[strings.ToLower(filepath.Ext(e.Name()))]; ok && !e.IsDir() {
				images = append(images, filepath.Join(in, e.Name()))
			}
		}
	}

	slices.Sort(images)
	images = slices.Compact(images)

	if len(images) == 0 {
		return nil, fmt.Errorf("no images found")
	}
	return images, nil
}

func writeGeoJSON(path string, report *Report, classes visual.Classes) error {
	fc := visual.NewFeatureCollection()

	results := slices.Clone(report.Results)
	slices.SortFunc(results, func(a, b ImageResult) int { return strings.Compare(a.Path, b.Path) })

	for _, r := range results {
		for _, d := range r.Detections {
			fc.Add(filepath.Base(r.Path), d, classes)
		}
	}

	return fc.WriteFile(path)
}

func createStorage(config *StorageConfig) (*storage.SqliteStore, error) {
	dir := config.DataDirectory
	if dir == "" {
		dir = defaultDataDir
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory '%s': %w", dir, err)
	}

	dbPath := filepath.Join(dir, fmt.Sprintf("mission_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return storage.NewSqliteStore(dbPath), nil
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/sar-geolocator/internal/storage"
	"github.com/roman-kulish/sar-geolocator/internal/visual"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	if config.List {
		return listMissions(ctx, store, logger)
	}

	return exportMission(ctx, store, config, logger)
}

func listMissions(ctx context.Context, store *storage.SqliteStore, logger *slog.Logger) error {
	missions, err := store.Missions(ctx)
	if err != nil {
		return fmt.Errorf("reading missions: %w", err)
	}

	for _, m := range missions {
		summary, err := store.Summary(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("reading mission %d summary: %w", m.ID, err)
		}

		logger.Info("mission",
			slog.Int64("id", m.ID),
			slog.String("uuid", m.UUID),
			slog.String("started", m.StartTime.Format(time.DateTime)),
			slog.Int("images", summary.Images),
			slog.Int("failed", summary.Failed),
			slog.Int("detections", summary.Detections),
		)
	}
	return nil
}

func exportMission(ctx context.Context, store *storage.SqliteStore, config *Config, logger *slog.Logger) error {
	var opts []storage.ReaderOption
	filters := []any{slog.Float64("minConfidence", config.MinConfidence)}

	opts = append(opts, storage.WithMinConfidence(config.MinConfidence))
	if config.ClassID != nil {
		opts = append(opts, storage.WithClass(*config.ClassID))
		filters = append(filters, slog.Int("class", *config.ClassID))
	}

	logger.Info("reader configuration", filters...)

	iter, err := store.ReadGeoDetections(ctx, config.MissionID, opts...)
	if err != nil {
		return err
	}
	defer iter.Close()

	fc := visual.NewFeatureCollection()
	for iter.Next(ctx) {
		d := iter.Current()
		fc.Add(filepath.Base(d.ImagePath), d.GeoDetection, config.Classes)
	}
	if err = iter.Error(); err != nil {
		return fmt.Errorf("reading geodetections: %w", err)
	}

	if err = fc.WriteFile(config.OutputFile); err != nil {
		return err
	}

	logger.Info("map written",
		slog.String("mission", iter.Mission().UUID),
		slog.String("detections", humanize.Comma(int64(fc.Len()))),
		slog.String("path", config.OutputFile),
	)
	return nil
}

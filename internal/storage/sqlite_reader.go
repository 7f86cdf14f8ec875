package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReaderOption configures a SqliteDetectionReader with filtering criteria
type ReaderOption func(*SqliteDetectionReader)

// WithMinConfidence excludes detections scoring below c
func WithMinConfidence(c float64) ReaderOption {
	return func(r *SqliteDetectionReader) {
		r.minConfidence = c
	}
}

// WithClass keeps only detections of the given class
func WithClass(classID int) ReaderOption {
	return func(r *SqliteDetectionReader) {
		r.classID = &classID
	}
}

// SqliteDetectionReader iterates over the stored detections of a mission.
// A reader must be used from a single goroutine.
type SqliteDetectionReader struct {
	db *sql.DB

	missionID int64
	mission   *Mission

	minConfidence float64 // Optional minimum confidence filter
	classID       *int    // Optional class filter

	current *MissionDetection
	rows    *sql.Rows
	err     error
}

func newSqliteDetectionReader(ctx context.Context, db *sql.DB, missionID int64, opts ...ReaderOption) (*SqliteDetectionReader, error) {
	dr := &SqliteDetectionReader{
		db:        db,
		missionID: missionID,
	}
	for _, opt := range opts {
		opt(dr)
	}
	if err := dr.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return dr, nil
}

func (dr *SqliteDetectionReader) init(ctx context.Context) error {
	if dr.db == nil {
		return errors.New("database connection required")
	}
	if dr.missionID <= 0 {
		return errors.New("mission ID required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "loading mission", fn: dr.loadMission},
		{msg: "validating filters", fn: dr.validateFilters},
		{msg: "initializing query", fn: dr.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (dr *SqliteDetectionReader) loadMission(ctx context.Context) (err error) {
	dr.mission, err = loadMission(ctx, dr.db, dr.missionID)
	return
}

func (dr *SqliteDetectionReader) validateFilters(context.Context) error {
	if dr.minConfidence < 0 || dr.minConfidence > 1 {
		return fmt.Errorf("min confidence %f is outside [0, 1]", dr.minConfidence)
	}
	if dr.classID != nil && *dr.classID < 0 {
		return fmt.Errorf("class ID %d is negative", *dr.classID)
	}
	return nil
}

func (dr *SqliteDetectionReader) initQuery(ctx context.Context) (err error) {
	classID := -1
	if dr.classID != nil {
		classID = *dr.classID
	}

	dr.rows, err = dr.db.QueryContext(ctx, selectGeoDetectionsSQL, dr.missionID, dr.minConfidence, classID, classID)
	return
}

// Mission returns the mission this reader is accessing
func (dr *SqliteDetectionReader) Mission() *Mission {
	return dr.mission
}

// Next advances the iterator. It returns false when all detections are read or
// an error occurred; check Error to tell them apart.
func (dr *SqliteDetectionReader) Next(ctx context.Context) bool {
	if dr.err != nil || dr.rows == nil {
		return false
	}

	select {
	case <-ctx.Done():
		dr.err = ctx.Err()
		return false
	default:
	}

	if !dr.rows.Next() {
		dr.err = dr.rows.Err()
		return false
	}

	var d MissionDetection
	err := dr.rows.Scan(
		&d.ImagePath,
		&d.ClassID,
		&d.Confidence,
		&d.BBox[0],
		&d.BBox[1],
		&d.BBox[2],
		&d.BBox[3],
		&d.Latitude,
		&d.Longitude,
		&d.Elevation,
		&d.GroundDistance,
	)
	if err != nil {
		dr.err = fmt.Errorf("scanning geodetection: %w", err)
		return false
	}

	dr.current = &d
	return true
}

// Current returns the detection read by the last successful Next
func (dr *SqliteDetectionReader) Current() *MissionDetection {
	return dr.current
}

func (dr *SqliteDetectionReader) Error() error {
	return dr.err
}

func (dr *SqliteDetectionReader) Close() error {
	if dr.rows == nil {
		return nil
	}
	err := dr.rows.Close()
	dr.rows = nil
	return err
}

// All drains the reader into a slice
func (dr *SqliteDetectionReader) All(ctx context.Context) ([]MissionDetection, error) {
	var out []MissionDetection
	for dr.Next(ctx) {
		out = append(out, *dr.Current())
	}
	return out, dr.Error()
}

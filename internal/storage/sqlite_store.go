package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roman-kulish/sar-geolocator/internal/detection"
	"github.com/roman-kulish/sar-geolocator/internal/telemetry"
)

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the SQLite database at dbPath.
// Connections are opened lazily; the schema is created on first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateMission(ctx context.Context, config any) (mission *Mission, err error) {
	configData, err := toConfigData(config)
	if err != nil {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertMissionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	m := Mission{
		UUID:      uuid.New().String(),
		StartTime: time.Now().UTC(),
	}
	if configData.Valid {
		m.Config = &configData.String
	}

	result, err := stmt.ExecContext(ctx, m.UUID, m.StartTime, configData)
	if err != nil {
		err = fmt.Errorf("inserting mission: %w", err)
		return
	}

	if m.ID, err = result.LastInsertId(); err != nil {
		err = fmt.Errorf("getting mission ID: %w", err)
		return
	}

	return &m, nil
}

func (s *SqliteStore) Mission(ctx context.Context, id int64) (mission *Mission, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	return loadMission(ctx, db, id)
}

func (s *SqliteStore) Missions(ctx context.Context) (missions []*Mission, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectMissionsSQL)
	if err != nil {
		err = fmt.Errorf("querying missions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var m *Mission
		if m, err = scanMission(rows); err != nil {
			return
		}
		missions = append(missions, m)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating missions: %w", err)
	}
	return
}

func (s *SqliteStore) StoreImage(ctx context.Context, missionID int64, path string, t *telemetry.Telemetry, procErr error) (imageID int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertImageSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	data := toImageData(missionID, path, t, procErr)

	result, err := stmt.ExecContext(
		ctx,
		data.MissionID,
		data.Path,
		data.ProcessedAt,
		data.Latitude,
		data.Longitude,
		data.RelativeAltitude,
		data.Roll,
		data.Pitch,
		data.Yaw,
		data.Error,
	)
	if err != nil {
		err = fmt.Errorf("inserting image: %w", err)
		return
	}

	imageID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting image ID: %w", err)
	}
	return
}

func (s *SqliteStore) StoreGeoDetections(ctx context.Context, missionID, imageID int64, dets []detection.GeoDetection) (err error) {
	if len(dets) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	const valuesPlaceholder = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	values := make([]any, 0, len(dets)*12)

	var sb strings.Builder
	sb.WriteString(insertGeoDetectionSQL)

	for i, d := range dets {
		values = append(values,
			missionID,
			imageID,
			d.ClassID,
			d.Confidence,
			d.BBox[0],
			d.BBox[1],
			d.BBox[2],
			d.BBox[3],
			d.Latitude,
			d.Longitude,
			d.Elevation,
			d.GroundDistance,
		)

		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(valuesPlaceholder)
	}

	// Single batch insert
	if _, err = tx.ExecContext(ctx, sb.String(), values...); err != nil {
		return fmt.Errorf("batch inserting geodetections: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// ReadGeoDetections creates a reader over the stored detections of a mission,
// ordered by image and insertion order. Options narrow the result set
// (WithMinConfidence, WithClass).
func (s *SqliteStore) ReadGeoDetections(ctx context.Context, missionID int64, opts ...ReaderOption) (*SqliteDetectionReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqliteDetectionReader(ctx, db, missionID, opts...)
}

func (s *SqliteStore) Summary(ctx context.Context, missionID int64) (summary Summary, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	err = db.QueryRowContext(ctx, selectMissionSummarySQL, missionID, missionID).
		Scan(&summary.Images, &summary.Failed, &summary.Detections)
	if err != nil {
		err = fmt.Errorf("scanning summary: %w", err)
	}
	return
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}

func loadMission(ctx context.Context, db *sql.DB, id int64) (mission *Mission, err error) {
	stmt, err := db.PrepareContext(ctx, selectMissionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	return scanMission(stmt.QueryRowContext(ctx, id))
}

func scanMission(row interface{ Scan(...any) error }) (*Mission, error) {
	var m Mission
	var config sql.NullString
	if err := row.Scan(&m.ID, &m.UUID, &m.StartTime, &config); err != nil {
		return nil, fmt.Errorf("scanning mission: %w", err)
	}
	if config.Valid {
		m.Config = &config.String
	}
	return &m, nil
}

package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roman-kulish/sar-geolocator/internal/telemetry"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && cErr != sql.ErrTxDone && *err == nil {
		*err = cErr
	}
}

func toConfigData(config any) (sql.NullString, error) {
	var data sql.NullString

	switch c := config.(type) {
	case nil:
	case string:
		data.Valid = true
		data.String = c

	case []byte:
		data.Valid = true
		data.String = string(c)

	default:
		p, err := json.Marshal(config)
		if err != nil {
			return data, fmt.Errorf("marshaling config: %w", err)
		}

		data.Valid = true
		data.String = string(p)
	}

	return data, nil
}

func toImageData(missionID int64, path string, t *telemetry.Telemetry, procErr error) *imageData {
	data := imageData{
		MissionID:   missionID,
		Path:        path,
		ProcessedAt: time.Now().UTC(),
	}

	if t != nil {
		data.Latitude = toNullFloat64(t.Pose.Latitude)
		data.Longitude = toNullFloat64(t.Pose.Longitude)
		data.RelativeAltitude = toNullFloat64(t.Pose.RelativeAltitude)
		data.Roll = toNullFloat64(t.Attitude.RollDeg)
		data.Pitch = toNullFloat64(t.Attitude.PitchDeg)
		data.Yaw = toNullFloat64(t.Attitude.YawDeg)
	}

	if procErr != nil {
		data.Error = sql.NullString{String: procErr.Error(), Valid: true}
	}

	return &data
}

func toNullFloat64(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

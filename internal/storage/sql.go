package storage

import (
	_ "embed"
)

//go:embed schema.sql
var initSchemaSQL string

// indexes are created when the write connection is closed, after bulk inserts
//
//go:embed indexes.sql
var initIndexesSQL string

const (
	insertMissionSQL = `
INSERT INTO missions (uuid,
                      start_time,
                      config)
VALUES (?, ?, ?)`

	selectMissionSQL = `
SELECT 
    id, 
    uuid, 
    start_time, 
    config 
FROM missions 
WHERE 
    id = ?`

	selectMissionsSQL = `
SELECT 
    id, 
    uuid, 
    start_time, 
    config 
FROM missions
ORDER BY start_time, id`

	insertImageSQL = `
INSERT INTO images (mission_id,
                    path,
                    processed_at,
                    latitude,
                    longitude,
                    relative_altitude,
                    roll,
                    pitch,
                    yaw,
                    error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertGeoDetectionSQL = `
INSERT INTO geodetections (mission_id,
                           image_id,
                           class_id,
                           confidence,
                           bbox_cx,
                           bbox_cy,
                           bbox_w,
                           bbox_h,
                           latitude,
                           longitude,
                           elevation,
                           ground_distance)
VALUES `

	selectGeoDetectionsSQL = `
SELECT 
    i.path,
    d.class_id,
    d.confidence,
    d.bbox_cx,
    d.bbox_cy,
    d.bbox_w,
    d.bbox_h,
    d.latitude,
    d.longitude,
    d.elevation,
    d.ground_distance
FROM geodetections d
    JOIN images i ON i.id = d.image_id
WHERE 
    d.mission_id = ?
    AND d.confidence >= ?
    AND (? < 0 OR d.class_id = ?)
ORDER BY d.image_id, d.id`

	selectMissionSummarySQL = `
SELECT 
    COUNT(*),
    COUNT(error),
    (SELECT COUNT(*) FROM geodetections WHERE mission_id = ?)
FROM images 
WHERE 
    mission_id = ?`
)

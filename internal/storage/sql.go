package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (start_time,
                      label)
VALUES (?, ?)`

	selectSessionSQL = `
SELECT 
    id, 
    start_time, 
    label
FROM sessions 
WHERE 
    id = ?`

	selectSessionsSQL = `
SELECT 
    id, 
    start_time, 
    label
FROM sessions
ORDER BY id`

	selectLatestSessionSQL = `
SELECT 
    id, 
    start_time, 
    label
FROM sessions
ORDER BY id DESC
LIMIT 1`

	insertSweepSQL = `
INSERT INTO sweeps (session_id,
                    time_key,
                    timestamp,
                    range_low,
                    range_high,
                    step,
                    num_samples,
                    samples)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectSweepsSQL = `
SELECT 
    time_key,
    timestamp,
    range_low,
    range_high,
    step,
    num_samples,
    samples
FROM sweeps
WHERE 
    session_id = ?
    AND timestamp >= ?
    AND timestamp <= ?
ORDER BY id`

	countSweepsSQL = `
SELECT 
    COUNT(*)
FROM sweeps
WHERE 
    session_id = ?`
)

var (
	//go:embed schema.sql
	initSchemaSQL string

	//go:embed indexes.sql
	initIndexesSQL string
)

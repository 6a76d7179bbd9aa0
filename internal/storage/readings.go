package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vigil/internal/models"
)

// ReadingStore serves historical sensor readings for baseline computation.
// It implements the engine's HistoricalProvider.
type ReadingStore struct {
	db *sql.DB
}

// NewReadingStore creates a reading store
func NewReadingStore(db *sql.DB) *ReadingStore {
	return &ReadingStore{db: db}
}

// Fetch returns the readings behind a condition's metric over the trailing
// period, oldest first. When the condition binds an explicit sensor the query
// filters on it; otherwise it matches the metric type recorded at ingest.
func (s *ReadingStore) Fetch(ctx context.Context, cond models.AlertCondition, period time.Duration) ([]models.SensorReading, error) {
	since := time.Now().Add(-period)

	var (
		rows *sql.Rows
		err  error
	)

	if cond.Metric.SensorID != "" {
		query := `
			SELECT sensor_id, ts, value, unit, quality
			FROM sensor_readings
			WHERE sensor_id = $1
			  AND ts >= $2
			ORDER BY ts ASC
		`
		rows, err = s.db.QueryContext(ctx, query, cond.Metric.SensorID, since)
	} else {
		query := `
			SELECT sensor_id, ts, value, unit, quality
			FROM sensor_readings
			WHERE metric_type = $1
			  AND ts >= $2
			ORDER BY ts ASC
		`
		rows, err = s.db.QueryContext(ctx, query, string(cond.Metric.Type), since)
	}
	if err != nil {
		return nil, fmt.Errorf("query historical readings: %w", err)
	}
	defer rows.Close()

	var readings []models.SensorReading
	for rows.Next() {
		var r models.SensorReading
		if err := rows.Scan(&r.SensorID, &r.Timestamp, &r.Value, &r.Unit, &r.Quality); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}

	return readings, nil
}

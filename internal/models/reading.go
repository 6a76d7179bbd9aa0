package models

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Quality represents the reported quality of a sensor reading
type Quality string

const (
	QualityGood    Quality = "good"
	QualityWarning Quality = "warning"
	QualityError   Quality = "error"
)

// SensorReading is a single immutable telemetry sample from a sensor.
type SensorReading struct {
	// Identifier of the reporting sensor
	SensorID string `json:"sensor_id"`

	// Timestamp when the reading was taken
	Timestamp time.Time `json:"timestamp"`

	// Measured value
	Value float64 `json:"value"`

	// Unit of measurement (e.g. "kWh", "°C", "ppm")
	Unit string `json:"unit"`

	// Reported quality of the sample
	Quality Quality `json:"quality"`
}

// Validation errors
var (
	ErrEmptySensorID    = errors.New("sensor ID cannot be empty")
	ErrZeroTimestamp    = errors.New("timestamp cannot be zero")
	ErrNonFiniteValue   = errors.New("value must be finite")
	ErrInvalidQuality   = errors.New("invalid quality level")
	ErrInvalidTimestamp = errors.New("invalid timestamp format")
)

// Validate checks the reading has all required fields and finite value
func (r *SensorReading) Validate() error {
	if r.SensorID == "" {
		return ErrEmptySensorID
	}

	if r.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}

	if math.IsInf(r.Value, 0) {
		return ErrNonFiniteValue
	}

	if !r.Quality.IsValid() {
		return ErrInvalidQuality
	}

	return nil
}

// IsValid checks if the quality level is valid
func (q Quality) IsValid() bool {
	switch q {
	case QualityGood, QualityWarning, QualityError:
		return true
	default:
		return false
	}
}

// Normalize applies field normalization to a SensorReading
// - trims and lower-cases SensorID
// - trims Unit
// - lower-cases Quality
func (r *SensorReading) Normalize() {
	r.SensorID = strings.ToLower(strings.TrimSpace(r.SensorID))
	r.Unit = strings.TrimSpace(r.Unit)
	r.Quality = Quality(strings.ToLower(strings.TrimSpace(string(r.Quality))))
}

// SupportedTimestampFormats lists formats we attempt to parse
var SupportedTimestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp attempts to parse a timestamp string into time.Time
func ParseTimestamp(ts string) (time.Time, error) {
	ts = strings.TrimSpace(ts)

	for _, format := range SupportedTimestampFormats {
		if t, err := time.Parse(format, ts); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, ErrInvalidTimestamp
}

package models

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestSensorReadingValidate(t *testing.T) {
	valid := SensorReading{
		SensorID:  "energy-meter-1",
		Timestamp: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		Value:     1200,
		Unit:      "kWh",
		Quality:   QualityGood,
	}

	tests := []struct {
		name    string
		mutate  func(*SensorReading)
		wantErr error
	}{
		{"valid", func(r *SensorReading) {}, nil},
		{"empty sensor id", func(r *SensorReading) { r.SensorID = "" }, ErrEmptySensorID},
		{"zero timestamp", func(r *SensorReading) { r.Timestamp = time.Time{} }, ErrZeroTimestamp},
		{"infinite value", func(r *SensorReading) { r.Value = math.Inf(1) }, ErrNonFiniteValue},
		{"negative infinity", func(r *SensorReading) { r.Value = math.Inf(-1) }, ErrNonFiniteValue},
		{"bad quality", func(r *SensorReading) { r.Quality = "excellent" }, ErrInvalidQuality},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSensorReadingNormalize(t *testing.T) {
	r := SensorReading{
		SensorID: "  Energy-Meter-1 ",
		Unit:     " kWh ",
		Quality:  "GOOD",
	}
	r.Normalize()

	if r.SensorID != "energy-meter-1" {
		t.Errorf("SensorID = %q", r.SensorID)
	}
	if r.Unit != "kWh" {
		t.Errorf("Unit = %q", r.Unit)
	}
	if r.Quality != QualityGood {
		t.Errorf("Quality = %q", r.Quality)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"rfc3339", "2025-06-02T10:00:00Z", false},
		{"rfc3339 with offset", "2025-06-02T17:00:00+07:00", false},
		{"rfc3339 nano", "2025-06-02T10:00:00.123456789Z", false},
		{"no zone", "2025-06-02T10:00:00", false},
		{"space separated", "2025-06-02 10:00:00", false},
		{"padded", "  2025-06-02T10:00:00Z  ", false},
		{"epoch digits", "1748858400", true},
		{"garbage", "yesterday", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimestamp) {
					t.Errorf("ParseTimestamp(%q) err = %v, want ErrInvalidTimestamp", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) err = %v", tt.input, err)
			}
			if got.Location() != time.UTC {
				t.Errorf("result not normalized to UTC: %v", got)
			}
		})
	}
}

func TestParseTimestampOffsetNormalized(t *testing.T) {
	got, err := ParseTimestamp("2025-06-02T17:00:00+07:00")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

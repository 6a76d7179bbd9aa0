package service

import (
	"testing"
	"time"

	"vigil/internal/models"
)

func bufReading(id string, ts time.Time) models.SensorReading {
	return models.SensorReading{SensorID: id, Timestamp: ts, Value: 1, Quality: models.QualityGood}
}

func TestBufferCountBound(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	b := newReadingBuffer(3, time.Hour)

	for i := 0; i < 5; i++ {
		b.Add(bufReading("s", now.Add(time.Duration(i)*time.Second)))
	}

	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}

	snap := b.Snapshot(now)
	if len(snap) != 3 {
		t.Fatalf("snapshot len = %d, want 3", len(snap))
	}
	// oldest two were evicted
	if !snap[0].Timestamp.Equal(now.Add(2 * time.Second)) {
		t.Fatalf("oldest surviving reading at %v", snap[0].Timestamp)
	}
}

func TestBufferAgePruning(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	b := newReadingBuffer(100, time.Hour)

	b.Add(bufReading("stale", now.Add(-2*time.Hour)))
	b.Add(bufReading("fresh", now.Add(-10*time.Minute)))

	snap := b.Snapshot(now)
	if len(snap) != 1 {
		t.Fatalf("snapshot len = %d, want 1", len(snap))
	}
	if snap[0].SensorID != "fresh" {
		t.Fatalf("kept %q, want fresh", snap[0].SensorID)
	}
	if b.Len() != 1 {
		t.Fatalf("expired readings must be dropped from the buffer, Len = %d", b.Len())
	}
}

func TestBufferSnapshotIsACopy(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	b := newReadingBuffer(100, time.Hour)
	b.Add(bufReading("s", now))

	snap := b.Snapshot(now)
	snap[0].SensorID = "mutated"

	if got := b.Snapshot(now); got[0].SensorID != "s" {
		t.Fatal("snapshot aliased the internal slice")
	}
}

func TestBufferDefaults(t *testing.T) {
	b := newReadingBuffer(0, 0)
	if b.maxCount != 100000 {
		t.Fatalf("maxCount = %d", b.maxCount)
	}
	if b.maxAge != 24*time.Hour {
		t.Fatalf("maxAge = %v", b.maxAge)
	}
}

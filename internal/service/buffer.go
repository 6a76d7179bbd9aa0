package service

import (
	"sync"
	"time"

	"vigil/internal/models"
)

// readingBuffer accumulates consumed readings between evaluation ticks. It is
// bounded by count and by age so a quiet evaluation loop cannot grow it
// without limit.
type readingBuffer struct {
	mu       sync.Mutex
	readings []models.SensorReading
	maxCount int
	maxAge   time.Duration
}

func newReadingBuffer(maxCount int, maxAge time.Duration) *readingBuffer {
	if maxCount <= 0 {
		maxCount = 100000
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &readingBuffer{maxCount: maxCount, maxAge: maxAge}
}

// Add appends a reading, evicting the oldest entries past capacity
func (b *readingBuffer) Add(r models.SensorReading) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.readings = append(b.readings, r)
	if len(b.readings) > b.maxCount {
		b.readings = b.readings[len(b.readings)-b.maxCount:]
	}
}

// Snapshot returns a copy of the readings newer than now-maxAge, preserving
// arrival order.
func (b *readingBuffer) Snapshot(now time.Time) []models.SensorReading {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := now.Add(-b.maxAge)

	// Drop expired entries in place; arrival order is roughly chronological.
	kept := b.readings[:0]
	for _, r := range b.readings {
		if r.Timestamp.After(cutoff) {
			kept = append(kept, r)
		}
	}
	b.readings = kept

	out := make([]models.SensorReading, len(b.readings))
	copy(out, b.readings)
	return out
}

// Len returns the buffered reading count
func (b *readingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.readings)
}

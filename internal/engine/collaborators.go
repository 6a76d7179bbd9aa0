package engine

import (
	"context"
	"time"

	"vigil/internal/models"
)

// AlertFinder is the deduplication collaborator. It must be consistent enough
// that two concurrent evaluations of the same rule do not both create new
// instances when suppression is requested.
type AlertFinder interface {
	// FindUnresolved returns the open alert instance for a (configuration,
	// rule) pair, or nil when none exists.
	FindUnresolved(ctx context.Context, configurationID, ruleID string) (*models.AlertInstance, error)
}

// HistoricalProvider supplies baseline readings for percentage_change and
// anomaly-detection operators.
type HistoricalProvider interface {
	Fetch(ctx context.Context, cond models.AlertCondition, period time.Duration) ([]models.SensorReading, error)
}

// Dispatcher delivers a triggered alert. Retry, backoff, and signing live
// entirely behind this interface.
type Dispatcher interface {
	Send(ctx context.Context, settings models.NotificationSettings, inst *models.AlertInstance) ([]models.NotificationLog, error)
}

// BaselineCache is an optional read-through cache for baseline aggregates,
// saving repeated historical fetches within a batch cadence.
type BaselineCache interface {
	GetBaseline(ctx context.Context, key string) (float64, bool, error)
	SetBaseline(ctx context.Context, key string, value float64, ttl time.Duration) error
}

package engine

import (
	"math"

	"vigil/internal/models"
)

// Z-score thresholds per confidence level. The 1.6 default covers the 90%
// case; it is a tuning constant, not a derived quantile.
const (
	ZThreshold99      = 2.6
	ZThreshold95      = 2.0
	DefaultZThreshold = 1.6
)

// MinAnomalySamples is the smallest historical series the detector will
// classify against. Below it the value is never anomalous.
const MinAnomalySamples = 10

// AnomalyDetector classifies a live value against a per-sensor historical
// baseline using a z-score test.
type AnomalyDetector struct {
	// Threshold applied for confidence levels other than 0.95/0.99
	FallbackZ float64
}

// NewAnomalyDetector returns a detector with the default fallback threshold
func NewAnomalyDetector() *AnomalyDetector {
	return &AnomalyDetector{FallbackZ: DefaultZThreshold}
}

// IsAnomalous reports whether value is a statistical outlier against the
// historical series at the given confidence level. Detection is disabled
// unless the condition opts in; an undersized or flat series yields false
// (insufficient evidence, not an error).
func (d *AnomalyDetector) IsAnomalous(value float64, cond models.AlertCondition, historical []models.SensorReading, confidenceLevel float64) bool {
	if !cond.AnomalyDetection {
		return false
	}

	values := make([]float64, 0, len(historical))
	for _, r := range historical {
		if math.IsNaN(r.Value) {
			continue
		}
		values = append(values, r.Value)
	}

	if len(values) < MinAnomalySamples {
		return false
	}

	mean := Mean(values)
	stddev := PopulationStdDev(values)
	if stddev == 0 {
		return false
	}

	z := math.Abs(value-mean) / stddev
	return z > d.zThreshold(confidenceLevel)
}

// zThreshold maps a confidence level to its z cutoff
func (d *AnomalyDetector) zThreshold(confidenceLevel float64) float64 {
	switch confidenceLevel {
	case 0.99:
		return ZThreshold99
	case 0.95:
		return ZThreshold95
	default:
		if d.FallbackZ > 0 {
			return d.FallbackZ
		}
		return DefaultZThreshold
	}
}

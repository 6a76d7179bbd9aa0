package engine

import (
	"math"
	"sort"

	"vigil/internal/models"
)

// Reduce collapses a filtered reading window to one scalar using the
// condition's aggregation function. Fewer readings than the configured
// minimum yields 0: not enough evidence, not an error. NaN values are
// ignored.
func Reduce(readings []models.SensorReading, agg models.TimeAggregation) float64 {
	if len(readings) < agg.MinimumDataPoints {
		return 0
	}

	values := make([]float64, 0, len(readings))
	for _, r := range readings {
		if math.IsNaN(r.Value) {
			continue
		}
		values = append(values, r.Value)
	}

	switch agg.Function {
	case models.AggSum:
		return sum(values)
	case models.AggMinimum:
		return minimum(values)
	case models.AggMaximum:
		return maximum(values)
	case models.AggCount:
		return float64(len(values))
	case models.AggMedian:
		return median(values)
	case models.AggPercentile:
		return percentile95(values)
	case models.AggStandardDeviation:
		return PopulationStdDev(values)
	case models.AggRateOfChange:
		return rateOfChange(readings)
	case models.AggAverage:
		return Mean(values)
	default:
		// Unknown functions fall back to average for compatibility with
		// configurations written before the validator rejected them.
		return Mean(values)
	}
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Mean returns the arithmetic mean, 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

func minimum(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

func maximum(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// median sorts ascending; even-length windows average the two central values
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// percentile95 returns the 95th percentile: index = floor(0.95*n), clamped
func percentile95(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	idx := int(math.Floor(0.95 * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// PopulationStdDev divides by n, not n-1
func PopulationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// rateOfChange is (last - first) / minutes elapsed, by array position: the
// filter step preserves chronological order, so first and last are the window
// boundaries. Fewer than 2 points or zero elapsed time yields 0.
func rateOfChange(readings []models.SensorReading) float64 {
	if len(readings) < 2 {
		return 0
	}

	first := readings[0]
	last := readings[len(readings)-1]

	minutes := last.Timestamp.Sub(first.Timestamp).Minutes()
	if minutes == 0 {
		return 0
	}
	return (last.Value - first.Value) / minutes
}

package engine

import (
	"math"

	"vigil/internal/models"
)

// EqualityEpsilon is the tolerance under which two float values compare equal
const EqualityEpsilon = 0.001

// Compare applies a self-contained operator to the aggregated value. The
// baseline-relative operators (percentage_change, anomaly_detected) need
// collaborator data and are resolved by the condition evaluator.
func Compare(op models.Operator, actual float64, th models.Threshold) bool {
	switch op {
	case models.OpGreaterThan:
		return actual > th.Value
	case models.OpGreaterThanOrEqual:
		return actual >= th.Value
	case models.OpLessThan:
		return actual < th.Value
	case models.OpLessThanOrEqual:
		return actual <= th.Value
	case models.OpEquals:
		return math.Abs(actual-th.Value) < EqualityEpsilon
	case models.OpNotEquals:
		return math.Abs(actual-th.Value) >= EqualityEpsilon
	case models.OpBetween:
		return actual >= th.Value && actual <= th.Upper()
	case models.OpOutsideRange:
		return actual < th.Value || actual > th.Upper()
	case models.OpRateOfChange:
		// actual is already a rate, computed by the aggregator
		return math.Abs(actual) > th.Value
	default:
		return false
	}
}

// PercentageChangeMet reports whether actual deviates from baseline by more
// than threshold percent. A zero baseline never meets the condition.
func PercentageChangeMet(actual, baseline, thresholdPct float64) bool {
	if baseline == 0 {
		return false
	}
	change := math.Abs((actual-baseline)/baseline) * 100
	return change > thresholdPct
}

// Deviation measures how far past the threshold the actual value landed.
// Range operators have no meaningful single-axis deviation and yield 0;
// percentage_change reports the actual value informationally.
func Deviation(actual float64, th models.Threshold, op models.Operator) float64 {
	switch op {
	case models.OpGreaterThan, models.OpGreaterThanOrEqual:
		return math.Max(0, actual-th.Value)
	case models.OpLessThan, models.OpLessThanOrEqual:
		return math.Max(0, th.Value-actual)
	case models.OpEquals, models.OpNotEquals:
		return math.Abs(actual - th.Value)
	case models.OpBetween, models.OpOutsideRange:
		return 0
	case models.OpPercentageChange:
		return actual
	case models.OpRateOfChange, models.OpAnomalyDetected:
		return math.Abs(actual - th.Value)
	default:
		return 0
	}
}

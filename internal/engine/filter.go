package engine

import (
	"strconv"
	"strings"

	"vigil/internal/models"
)

// SelectReadings returns the subset of the context's readings relevant to one
// condition: metric match, all field filters, and the trailing aggregation
// window ending at the context's current time. Input order is preserved so
// rate-of-change aggregation sees readings chronologically. An empty result
// is a valid outcome, never an error.
func SelectReadings(cond models.AlertCondition, evalCtx *models.EvaluationContext) []models.SensorReading {
	cutoff := evalCtx.CurrentTime.Add(-cond.TimeAggregation.Window())

	var out []models.SensorReading
	for _, r := range evalCtx.SensorReadings {
		if !MatchesMetric(cond.Metric, r) {
			continue
		}
		if !passesFilters(cond.Filters, r) {
			continue
		}
		if r.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// MatchesMetric reports whether a reading belongs to the condition's metric.
// An explicit sensor id wins; otherwise the reading's sensor id or unit must
// contain one of the metric type's keywords.
func MatchesMetric(m models.Metric, r models.SensorReading) bool {
	if m.SensorID != "" {
		return r.SensorID == m.SensorID
	}

	keywords, ok := models.MetricKeywords[m.Type]
	if !ok {
		return false
	}

	id := strings.ToLower(r.SensorID)
	unit := strings.ToLower(r.Unit)
	for _, kw := range keywords {
		if strings.Contains(id, kw) || strings.Contains(unit, kw) {
			return true
		}
	}
	return false
}

// passesFilters applies every filter (logical AND)
func passesFilters(filters []models.Filter, r models.SensorReading) bool {
	for _, f := range filters {
		if !matchFilter(f, r) {
			return false
		}
	}
	return true
}

// matchFilter applies one field filter to a reading. Unknown fields or
// non-numeric values under ordering operators fail the filter rather than
// erroring.
func matchFilter(f models.Filter, r models.SensorReading) bool {
	fieldVal, ok := readingField(f.Field, r)
	if !ok {
		return false
	}

	switch f.Operator {
	case models.FilterEquals:
		// Numeric fields compare as numbers so "5.0" matches a reading of 5
		if actual, err := strconv.ParseFloat(fieldVal, 64); err == nil {
			if want, err := strconv.ParseFloat(f.Value, 64); err == nil {
				return actual == want
			}
		}
		return strings.EqualFold(fieldVal, f.Value)
	case models.FilterContains:
		return strings.Contains(strings.ToLower(fieldVal), strings.ToLower(f.Value))
	case models.FilterGreaterThan, models.FilterLessThan:
		actual, err1 := strconv.ParseFloat(fieldVal, 64)
		want, err2 := strconv.ParseFloat(f.Value, 64)
		if err1 != nil || err2 != nil {
			return false
		}
		if f.Operator == models.FilterGreaterThan {
			return actual > want
		}
		return actual < want
	default:
		return false
	}
}

// readingField resolves a filter field name to its string form
func readingField(name string, r models.SensorReading) (string, bool) {
	switch name {
	case "sensor_id":
		return r.SensorID, true
	case "unit":
		return r.Unit, true
	case "quality":
		return string(r.Quality), true
	case "value":
		return strconv.FormatFloat(r.Value, 'f', -1, 64), true
	default:
		return "", false
	}
}

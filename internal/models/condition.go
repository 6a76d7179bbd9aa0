package models

import (
	"errors"
	"time"
)

// MetricType categorizes what a condition measures
type MetricType string

const (
	MetricEnergyConsumption MetricType = "energy_consumption"
	MetricTemperature       MetricType = "temperature"
	MetricHumidity          MetricType = "humidity"
	MetricPressure          MetricType = "pressure"
	MetricAirQuality        MetricType = "air_quality"
	MetricOccupancy         MetricType = "occupancy"
	MetricPowerDemand       MetricType = "power_demand"
	MetricElectrical        MetricType = "electrical"
	MetricSystemStatus      MetricType = "system_status"
)

// MetricKeywords maps a metric type to substrings matched against a
// reading's sensor id or unit when the condition names no explicit sensor.
var MetricKeywords = map[MetricType][]string{
	MetricEnergyConsumption: {"energy", "power", "kwh"},
	MetricTemperature:       {"temp", "°c", "celsius"},
	MetricHumidity:          {"humidity", "rh", "%rh"},
	MetricPressure:          {"pressure", "pa", "bar"},
	MetricAirQuality:        {"co2", "ppm", "aqi", "air"},
	MetricOccupancy:         {"occupancy", "people", "count"},
	MetricPowerDemand:       {"demand", "kw", "load"},
	MetricElectrical:        {"voltage", "current", "amp"},
	MetricSystemStatus:      {"status", "state", "health"},
}

// Metric describes what a condition measures
type Metric struct {
	Type MetricType `json:"type"`

	// Optional explicit sensor binding; when set, keyword matching is skipped
	SensorID string `json:"sensor_id,omitempty"`

	EquipmentType string `json:"equipment_type,omitempty"`
	FloorNumber   int    `json:"floor_number,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	Units         string `json:"units,omitempty"`
}

// Operator is a condition's comparison operator
type Operator string

const (
	OpGreaterThan        Operator = "greater_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
	OpLessThan           Operator = "less_than"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "not_equals"
	OpBetween            Operator = "between"
	OpOutsideRange       Operator = "outside_range"
	OpPercentageChange   Operator = "percentage_change"
	OpRateOfChange       Operator = "rate_of_change"
	OpAnomalyDetected    Operator = "anomaly_detected"
)

// IsValid checks if the operator is a known comparison operator
func (o Operator) IsValid() bool {
	switch o {
	case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual,
		OpEquals, OpNotEquals, OpBetween, OpOutsideRange,
		OpPercentageChange, OpRateOfChange, OpAnomalyDetected:
		return true
	default:
		return false
	}
}

// NeedsSecondaryValue reports whether the operator compares against a range
func (o Operator) NeedsSecondaryValue() bool {
	return o == OpBetween || o == OpOutsideRange
}

// NeedsBaseline reports whether the operator requires historical data
func (o Operator) NeedsBaseline() bool {
	return o == OpPercentageChange || o == OpAnomalyDetected
}

// Threshold carries the comparison target for a condition. SecondaryValue is
// only meaningful for range operators; BaselinePeriod and ConfidenceLevel only
// for baseline-relative operators.
type Threshold struct {
	Value           float64        `json:"value"`
	SecondaryValue  *float64       `json:"secondary_value,omitempty"`
	BaselinePeriod  *time.Duration `json:"baseline_period,omitempty"`
	ConfidenceLevel *float64       `json:"confidence_level,omitempty"`
}

// Upper returns the top of the range for between/outside_range, falling back
// to Value when no secondary value was configured.
func (t Threshold) Upper() float64 {
	if t.SecondaryValue != nil {
		return *t.SecondaryValue
	}
	return t.Value
}

// AggregationFunc reduces a window of readings to one scalar
type AggregationFunc string

const (
	AggAverage           AggregationFunc = "average"
	AggSum               AggregationFunc = "sum"
	AggMinimum           AggregationFunc = "minimum"
	AggMaximum           AggregationFunc = "maximum"
	AggCount             AggregationFunc = "count"
	AggMedian            AggregationFunc = "median"
	AggPercentile        AggregationFunc = "percentile"
	AggStandardDeviation AggregationFunc = "standard_deviation"
	AggRateOfChange      AggregationFunc = "rate_of_change"
)

// IsValid checks if the aggregation function is known
func (f AggregationFunc) IsValid() bool {
	switch f {
	case AggAverage, AggSum, AggMinimum, AggMaximum, AggCount,
		AggMedian, AggPercentile, AggStandardDeviation, AggRateOfChange:
		return true
	default:
		return false
	}
}

// TimeAggregation describes the trailing window reduced before comparison
type TimeAggregation struct {
	Function AggregationFunc `json:"function"`

	// Window length in minutes
	PeriodMinutes int `json:"period"`

	// Below this sample count the window yields a neutral zero
	MinimumDataPoints int `json:"minimum_data_points"`
}

// FilterOperator is the per-field filter comparison
type FilterOperator string

const (
	FilterEquals      FilterOperator = "equals"
	FilterContains    FilterOperator = "contains"
	FilterGreaterThan FilterOperator = "greater_than"
	FilterLessThan    FilterOperator = "less_than"
)

// IsValid checks if the filter operator is known
func (f FilterOperator) IsValid() bool {
	switch f {
	case FilterEquals, FilterContains, FilterGreaterThan, FilterLessThan:
		return true
	default:
		return false
	}
}

// Filter narrows the reading set for one condition. All filters on a
// condition must pass (logical AND).
type Filter struct {
	Field    string         `json:"field"`
	Operator FilterOperator `json:"operator"`
	Value    string         `json:"value"`
}

// AlertCondition is one measurable comparison inside a rule
type AlertCondition struct {
	ID               string          `json:"id"`
	Metric           Metric          `json:"metric"`
	Operator         Operator        `json:"operator"`
	Threshold        Threshold       `json:"threshold"`
	TimeAggregation  TimeAggregation `json:"time_aggregation"`
	Filters          []Filter        `json:"filters,omitempty"`
	AnomalyDetection bool            `json:"anomaly_detection,omitempty"`
}

// Condition validation errors
var (
	ErrEmptyConditionID      = errors.New("condition ID cannot be empty")
	ErrInvalidOperator       = errors.New("unknown comparison operator")
	ErrInvalidAggregation    = errors.New("unknown aggregation function")
	ErrInvalidFilterOperator = errors.New("unknown filter operator")
	ErrMissingSecondaryValue = errors.New("range operator requires a secondary value")
	ErrInvalidPeriod         = errors.New("aggregation period must be positive")
	ErrInvalidMinDataPoints  = errors.New("minimum data points must be at least 1")
)

// Validate checks structural validity of the condition
func (c *AlertCondition) Validate() error {
	if c.ID == "" {
		return ErrEmptyConditionID
	}

	if !c.Operator.IsValid() {
		return ErrInvalidOperator
	}

	if c.Operator.NeedsSecondaryValue() && c.Threshold.SecondaryValue == nil {
		return ErrMissingSecondaryValue
	}

	if !c.TimeAggregation.Function.IsValid() {
		return ErrInvalidAggregation
	}

	if c.TimeAggregation.PeriodMinutes <= 0 {
		return ErrInvalidPeriod
	}

	if c.TimeAggregation.MinimumDataPoints < 1 {
		return ErrInvalidMinDataPoints
	}

	for _, f := range c.Filters {
		if !f.Operator.IsValid() {
			return ErrInvalidFilterOperator
		}
	}

	return nil
}

// Window returns the aggregation window as a duration
func (a TimeAggregation) Window() time.Duration {
	return time.Duration(a.PeriodMinutes) * time.Minute
}

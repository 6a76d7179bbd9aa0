package models

import (
	"errors"
	"testing"
	"time"
)

func baseCondition() AlertCondition {
	return AlertCondition{
		ID:        "c1",
		Metric:    Metric{Type: MetricEnergyConsumption},
		Operator:  OpGreaterThan,
		Threshold: Threshold{Value: 1500},
		TimeAggregation: TimeAggregation{
			Function:          AggAverage,
			PeriodMinutes:     15,
			MinimumDataPoints: 3,
		},
	}
}

func TestAlertConditionValidate(t *testing.T) {
	secondary := 24.0

	tests := []struct {
		name    string
		mutate  func(*AlertCondition)
		wantErr error
	}{
		{"valid", func(c *AlertCondition) {}, nil},
		{"valid range", func(c *AlertCondition) {
			c.Operator = OpBetween
			c.Threshold.SecondaryValue = &secondary
		}, nil},
		{"empty id", func(c *AlertCondition) { c.ID = "" }, ErrEmptyConditionID},
		{"bad operator", func(c *AlertCondition) { c.Operator = "matches" }, ErrInvalidOperator},
		{"range without secondary", func(c *AlertCondition) { c.Operator = OpOutsideRange }, ErrMissingSecondaryValue},
		{"bad aggregation", func(c *AlertCondition) { c.TimeAggregation.Function = "mode" }, ErrInvalidAggregation},
		{"zero period", func(c *AlertCondition) { c.TimeAggregation.PeriodMinutes = 0 }, ErrInvalidPeriod},
		{"zero min points", func(c *AlertCondition) { c.TimeAggregation.MinimumDataPoints = 0 }, ErrInvalidMinDataPoints},
		{"bad filter operator", func(c *AlertCondition) {
			c.Filters = []Filter{{Field: "unit", Operator: "regex", Value: "kwh"}}
		}, ErrInvalidFilterOperator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseCondition()
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOperatorClassification(t *testing.T) {
	if !OpBetween.NeedsSecondaryValue() || !OpOutsideRange.NeedsSecondaryValue() {
		t.Error("range operators must need a secondary value")
	}
	if OpGreaterThan.NeedsSecondaryValue() {
		t.Error("greater_than must not need a secondary value")
	}
	if !OpPercentageChange.NeedsBaseline() || !OpAnomalyDetected.NeedsBaseline() {
		t.Error("baseline-relative operators must need a baseline")
	}
	if OpEquals.NeedsBaseline() {
		t.Error("equals must not need a baseline")
	}
}

func TestThresholdUpper(t *testing.T) {
	secondary := 24.0
	th := Threshold{Value: 18, SecondaryValue: &secondary}
	if th.Upper() != 24 {
		t.Errorf("Upper() = %v, want 24", th.Upper())
	}

	th = Threshold{Value: 18}
	if th.Upper() != 18 {
		t.Errorf("Upper() without secondary = %v, want 18", th.Upper())
	}
}

func TestTimeAggregationWindow(t *testing.T) {
	agg := TimeAggregation{PeriodMinutes: 90}
	if agg.Window() != 90*time.Minute {
		t.Errorf("Window() = %v", agg.Window())
	}
}

func TestMetricKeywordsCoverAllTypes(t *testing.T) {
	types := []MetricType{
		MetricEnergyConsumption, MetricTemperature, MetricHumidity,
		MetricPressure, MetricAirQuality, MetricOccupancy,
		MetricPowerDemand, MetricElectrical, MetricSystemStatus,
	}
	for _, mt := range types {
		if len(MetricKeywords[mt]) == 0 {
			t.Errorf("metric type %q has no keywords", mt)
		}
	}
}

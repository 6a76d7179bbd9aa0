package engine

import (
	"testing"

	"vigil/internal/models"
)

func fptr(v float64) *float64 { return &v }

func TestCompare(t *testing.T) {
	tests := []struct {
		name   string
		op     models.Operator
		actual float64
		th     models.Threshold
		want   bool
	}{
		{"gt met", models.OpGreaterThan, 1620, models.Threshold{Value: 1500}, true},
		{"gt boundary not met", models.OpGreaterThan, 1500, models.Threshold{Value: 1500}, false},
		{"gte boundary met", models.OpGreaterThanOrEqual, 1500, models.Threshold{Value: 1500}, true},
		{"lt met", models.OpLessThan, 4, models.Threshold{Value: 5}, true},
		{"lte boundary met", models.OpLessThanOrEqual, 5, models.Threshold{Value: 5}, true},
		{"equals within epsilon", models.OpEquals, 100.0005, models.Threshold{Value: 100}, true},
		{"equals outside epsilon", models.OpEquals, 100.002, models.Threshold{Value: 100}, false},
		{"not_equals outside epsilon", models.OpNotEquals, 100.002, models.Threshold{Value: 100}, true},
		{"not_equals within epsilon", models.OpNotEquals, 100.0005, models.Threshold{Value: 100}, false},
		{"between inside", models.OpBetween, 21, models.Threshold{Value: 18, SecondaryValue: fptr(24.0)}, true},
		{"between lower edge", models.OpBetween, 18, models.Threshold{Value: 18, SecondaryValue: fptr(24.0)}, true},
		{"between outside", models.OpBetween, 25, models.Threshold{Value: 18, SecondaryValue: fptr(24.0)}, false},
		{"outside_range above", models.OpOutsideRange, 25, models.Threshold{Value: 18, SecondaryValue: fptr(24.0)}, true},
		{"outside_range inside", models.OpOutsideRange, 21, models.Threshold{Value: 18, SecondaryValue: fptr(24.0)}, false},
		{"rate_of_change magnitude", models.OpRateOfChange, -6, models.Threshold{Value: 5}, true},
		{"rate_of_change under", models.OpRateOfChange, 3, models.Threshold{Value: 5}, false},
		{"unknown operator", models.Operator("regex_match"), 1, models.Threshold{Value: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.op, tt.actual, tt.th); got != tt.want {
				t.Errorf("Compare(%s, %v) = %v, want %v", tt.op, tt.actual, got, tt.want)
			}
		})
	}
}

func TestPercentageChangeMet(t *testing.T) {
	tests := []struct {
		name      string
		actual    float64
		baseline  float64
		threshold float64
		want      bool
	}{
		// 1620 vs 1200 baseline is a 35% rise
		{"rise over threshold", 1620, 1200, 20, true},
		{"rise under threshold", 1620, 1200, 40, false},
		// drops count by magnitude
		{"drop over threshold", 780, 1200, 20, true},
		{"zero baseline never met", 1620, 0, 20, false},
		{"exact threshold not met", 1440, 1200, 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PercentageChangeMet(tt.actual, tt.baseline, tt.threshold); got != tt.want {
				t.Errorf("PercentageChangeMet(%v, %v, %v) = %v, want %v", tt.actual, tt.baseline, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestDeviation(t *testing.T) {
	tests := []struct {
		name   string
		op     models.Operator
		actual float64
		th     models.Threshold
		want   float64
	}{
		{"gt overshoot", models.OpGreaterThan, 1620, models.Threshold{Value: 1500}, 120},
		{"gt not exceeded", models.OpGreaterThan, 1400, models.Threshold{Value: 1500}, 0},
		{"lt undershoot", models.OpLessThan, 3, models.Threshold{Value: 5}, 2},
		{"lt not undershot", models.OpLessThan, 6, models.Threshold{Value: 5}, 0},
		{"equals distance", models.OpEquals, 103, models.Threshold{Value: 100}, 3},
		{"between has none", models.OpBetween, 30, models.Threshold{Value: 18, SecondaryValue: fptr(24.0)}, 0},
		{"outside_range has none", models.OpOutsideRange, 30, models.Threshold{Value: 18, SecondaryValue: fptr(24.0)}, 0},
		{"percentage_change reports actual", models.OpPercentageChange, 35, models.Threshold{Value: 20}, 35},
		{"rate_of_change distance", models.OpRateOfChange, 8, models.Threshold{Value: 5}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Deviation(tt.actual, tt.th, tt.op); got != tt.want {
				t.Errorf("Deviation(%v, %s) = %v, want %v", tt.actual, tt.op, got, tt.want)
			}
		})
	}
}

// Package validator statically analyzes candidate alert configurations:
// structural validity, estimated daily alert volume, cost impact, and
// subscription-tier compatibility. It is pure and performs no I/O, so it can
// be called from a configuration editor independently of evaluation.
package validator

import (
	"fmt"
	"math"

	"vigil/internal/models"
)

// Issue codes
const (
	CodeRequired           = "REQUIRED"
	CodeUnknownOperator    = "UNKNOWN_OPERATOR"
	CodeUnknownAggregation = "UNKNOWN_AGGREGATION"
	CodeUnknownLogical     = "UNKNOWN_LOGICAL_OPERATOR"
	CodeMissingSecondary   = "MISSING_SECONDARY_VALUE"
	CodeInvalidWindow      = "INVALID_WINDOW"
	CodeSensitiveThreshold = "SENSITIVE_THRESHOLD"
	CodeHighVolume         = "HIGH_VOLUME"
)

// Issue is one validation finding
type Issue struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validation is the full verdict for one configuration
type Validation struct {
	IsValid                   bool     `json:"is_valid"`
	Errors                    []Issue  `json:"errors"`
	Warnings                  []Issue  `json:"warnings"`
	EstimatedAlertVolume      int      `json:"estimated_alert_volume"`
	EstimatedCostImpact       float64  `json:"estimated_cost_impact"`
	SubscriptionCompatibility []string `json:"subscription_compatibility"`
}

// Volume model parameters. The trigger rate and unit cost are flat business
// placeholders, not statistically derived.
const (
	minutesPerDay      = 1440.0
	assumedTriggerRate = 0.05
	costPerAlert       = 0.10
	highVolumeWarning  = 100
)

// Daily alert allowance per subscription tier
var tierLimits = []struct {
	name  string
	limit int
}{
	{"starter", 50},
	{"professional", 500},
	{"enterprise", math.MaxInt32},
}

// Validate statically checks a candidate configuration. Blocking errors make
// IsValid false; warnings never do.
func Validate(cfg models.AlertConfiguration) Validation {
	v := Validation{
		Errors:   []Issue{},
		Warnings: []Issue{},
	}

	if cfg.Name == "" {
		v.Errors = append(v.Errors, Issue{Field: "name", Code: CodeRequired, Message: "configuration name is required"})
	}

	if len(cfg.Rules) == 0 {
		v.Errors = append(v.Errors, Issue{Field: "rules", Code: CodeRequired, Message: "configuration must contain at least one rule"})
	}

	for i, rule := range cfg.Rules {
		v.checkRule(i, rule)
	}

	v.EstimatedAlertVolume = EstimateDailyVolume(cfg)
	v.EstimatedCostImpact = math.Round(float64(v.EstimatedAlertVolume)*costPerAlert*100) / 100
	v.SubscriptionCompatibility = compatibleTiers(v.EstimatedAlertVolume)

	if v.EstimatedAlertVolume > highVolumeWarning {
		v.Warnings = append(v.Warnings, Issue{
			Field:   "rules",
			Code:    CodeHighVolume,
			Message: fmt.Sprintf("estimated %d alerts/day exceeds %d, consider longer windows or cooldowns", v.EstimatedAlertVolume, highVolumeWarning),
		})
	}

	v.IsValid = len(v.Errors) == 0
	return v
}

func (v *Validation) checkRule(idx int, rule models.AlertRule) {
	field := fmt.Sprintf("rules[%d]", idx)

	if len(rule.Conditions) == 0 {
		v.Errors = append(v.Errors, Issue{
			Field:   field + ".conditions",
			Code:    CodeRequired,
			Message: fmt.Sprintf("rule %q has no conditions", rule.Name),
		})
		return
	}

	// Unknown enum values are rejected here rather than silently defaulted
	// at evaluation time.
	if !rule.LogicalOperator.IsValid() {
		v.Errors = append(v.Errors, Issue{
			Field:   field + ".logical_operator",
			Code:    CodeUnknownLogical,
			Message: fmt.Sprintf("unknown logical operator %q", rule.LogicalOperator),
		})
	}

	for j, cond := range rule.Conditions {
		cfield := fmt.Sprintf("%s.conditions[%d]", field, j)

		if !cond.Operator.IsValid() {
			v.Errors = append(v.Errors, Issue{
				Field:   cfield + ".operator",
				Code:    CodeUnknownOperator,
				Message: fmt.Sprintf("unknown operator %q", cond.Operator),
			})
		}

		if !cond.TimeAggregation.Function.IsValid() {
			v.Errors = append(v.Errors, Issue{
				Field:   cfield + ".time_aggregation.function",
				Code:    CodeUnknownAggregation,
				Message: fmt.Sprintf("unknown aggregation function %q", cond.TimeAggregation.Function),
			})
		}

		if cond.Operator.NeedsSecondaryValue() && cond.Threshold.SecondaryValue == nil {
			v.Errors = append(v.Errors, Issue{
				Field:   cfield + ".threshold.secondary_value",
				Code:    CodeMissingSecondary,
				Message: fmt.Sprintf("operator %q requires a secondary value", cond.Operator),
			})
		}

		if cond.TimeAggregation.PeriodMinutes <= 0 || cond.TimeAggregation.MinimumDataPoints < 1 {
			v.Errors = append(v.Errors, Issue{
				Field:   cfield + ".time_aggregation",
				Code:    CodeInvalidWindow,
				Message: "aggregation period must be positive and minimum data points at least 1",
			})
		}

		if cond.Threshold.Value == 0 && cond.Operator != models.OpEquals {
			v.Warnings = append(v.Warnings, Issue{
				Field:   cfield + ".threshold.value",
				Code:    CodeSensitiveThreshold,
				Message: "zero threshold with a non-equality operator may fire on noise",
			})
		}
	}
}

// EstimateDailyVolume models expected alerts per day: evaluation cadence
// times a flat trigger rate, reduced by cooldown suppression, floored at one
// alert per enabled rule.
func EstimateDailyVolume(cfg models.AlertConfiguration) int {
	var total float64
	for _, rule := range cfg.Rules {
		if !rule.Enabled {
			continue
		}

		window := rule.EvaluationWindow
		if window <= 0 {
			window = 15
		}

		perDay := minutesPerDay / float64(window) * assumedTriggerRate
		perDay *= 1 - math.Min(float64(rule.CooldownPeriod)/minutesPerDay, 1)

		if perDay < 1 {
			perDay = 1
		}
		total += perDay
	}
	return int(math.Round(total))
}

func compatibleTiers(volume int) []string {
	var tiers []string
	for _, t := range tierLimits {
		if volume <= t.limit {
			tiers = append(tiers, t.name)
		}
	}
	return tiers
}

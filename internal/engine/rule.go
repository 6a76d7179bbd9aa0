package engine

import (
	"context"
	"math"

	"vigil/internal/models"
)

// RuleEvaluator evaluates all conditions of a rule and applies its logical
// operator. Every condition is evaluated even after the verdict is already
// determined: confidence scoring needs the full set of deviations, so there
// is deliberately no short-circuiting.
type RuleEvaluator struct {
	conditions *ConditionEvaluator
}

// NewRuleEvaluator wires a rule evaluator around a condition evaluator
func NewRuleEvaluator(conditions *ConditionEvaluator) *RuleEvaluator {
	return &RuleEvaluator{conditions: conditions}
}

// Evaluate runs every condition of the rule against the context
func (e *RuleEvaluator) Evaluate(ctx context.Context, rule models.AlertRule, evalCtx *models.EvaluationContext) models.RuleResult {
	result := models.RuleResult{
		RuleID:      rule.ID,
		EvaluatedAt: evalCtx.CurrentTime,
	}

	for _, cond := range rule.Conditions {
		condResult, snapshot := e.conditions.Evaluate(ctx, cond, evalCtx)
		result.ConditionResults = append(result.ConditionResults, condResult)
		result.Snapshots = append(result.Snapshots, snapshot)
	}

	result.Triggered = combine(rule.LogicalOperator, result.ConditionResults)
	result.Confidence = confidence(result.ConditionResults)
	return result
}

// combine applies the rule's logical operator. Unknown operators behave as
// AND, matching configurations written before validation rejected them.
func combine(op models.LogicalOperator, results []models.ConditionResult) bool {
	if len(results) == 0 {
		return false
	}

	switch op {
	case models.LogicalOr:
		for _, r := range results {
			if r.Met {
				return true
			}
		}
		return false
	default:
		for _, r := range results {
			if !r.Met {
				return false
			}
		}
		return true
	}
}

// confidence scores how strongly the conditions support triggering: breadth
// (how many conditions agree) plus bounded deviation magnitude, capped at 1
// so a single huge outlier cannot dominate.
func confidence(results []models.ConditionResult) float64 {
	if len(results) == 0 {
		return 0
	}

	met := 0
	var devSum float64
	for _, r := range results {
		if !r.Met {
			continue
		}
		met++
		scale := math.Max(math.Abs(r.ThresholdValue), 1)
		devSum += math.Min(r.Deviation/scale, 2)
	}

	base := float64(met) / float64(len(results))
	if met == 0 {
		return base
	}

	avgDev := devSum / float64(met)
	return math.Min(base+math.Min(avgDev*0.2, 0.3), 1.0)
}

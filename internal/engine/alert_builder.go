package engine

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"vigil/internal/models"
)

// MaxSuggestedActions caps the action list attached to an instance
const MaxSuggestedActions = 5

// generalActions are appended after condition-specific suggestions
var generalActions = []string{
	"Review recent operational changes for the affected equipment",
	"Verify sensor calibration and data quality",
}

// buildInstance assembles a fresh alert instance for a triggered rule
func buildInstance(cfg models.AlertConfiguration, rule models.AlertRule, result models.RuleResult, evalCtx *models.EvaluationContext, relatedIDs []string) *models.AlertInstance {
	return &models.AlertInstance{
		ID:               uuid.New().String(),
		ConfigurationID:  cfg.ID,
		RuleID:           rule.ID,
		Status:           models.AlertTriggered,
		Severity:         rule.Priority,
		Title:            rule.Name,
		Description:      describe(result),
		Confidence:       result.Confidence,
		MetricValues:     result.Snapshots,
		Context:          buildContext(evalCtx, relatedIDs),
		SuggestedActions: suggestActions(rule, result),
		TriggeredAt:      evalCtx.CurrentTime,
	}
}

// describe renders a human-readable summary of what fired
func describe(result models.RuleResult) string {
	if len(result.ConditionResults) == 1 {
		r := result.ConditionResults[0]
		return fmt.Sprintf("%.1f %s threshold %.1f", r.ActualValue, r.EvaluationMethod, r.ThresholdValue)
	}

	met := 0
	for _, r := range result.ConditionResults {
		if r.Met {
			met++
		}
	}
	return fmt.Sprintf("Multiple conditions triggered (%d/%d)", met, len(result.ConditionResults))
}

// buildContext derives the read-only alert context: the latest reading per
// sensor plus weather/occupancy passthrough.
func buildContext(evalCtx *models.EvaluationContext, relatedIDs []string) models.AlertContext {
	latest := make(map[string]models.SensorReading)
	for _, r := range evalCtx.SensorReadings {
		prev, ok := latest[r.SensorID]
		if !ok || r.Timestamp.After(prev.Timestamp) {
			latest[r.SensorID] = r
		}
	}

	ids := make([]string, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	snapshots := make([]models.SensorHealth, 0, len(ids))
	for _, id := range ids {
		r := latest[id]
		snapshots = append(snapshots, models.SensorHealth{
			SensorID:  r.SensorID,
			LastValue: r.Value,
			LastSeen:  r.Timestamp,
			Quality:   r.Quality,
		})
	}

	return models.AlertContext{
		SensorSnapshots: snapshots,
		WeatherData:     evalCtx.WeatherData,
		OccupancyData:   evalCtx.OccupancyData,
		RelatedAlertIDs: relatedIDs,
	}
}

// suggestActions builds up to MaxSuggestedActions follow-ups: one per met
// condition whose deviation exceeds half its threshold, then the general
// investigation actions.
func suggestActions(rule models.AlertRule, result models.RuleResult) []string {
	byID := make(map[string]models.AlertCondition, len(rule.Conditions))
	for _, c := range rule.Conditions {
		byID[c.ID] = c
	}

	var actions []string
	for _, r := range result.ConditionResults {
		if !r.Met {
			continue
		}
		limit := r.ThresholdValue
		if limit < 0 {
			limit = -limit
		}
		if r.Deviation <= limit*0.5 {
			continue
		}

		name := r.ConditionID
		if c, ok := byID[r.ConditionID]; ok {
			if c.Metric.DisplayName != "" {
				name = c.Metric.DisplayName
			} else {
				name = string(c.Metric.Type)
			}
		}
		actions = append(actions, fmt.Sprintf("Investigate %s: %.1f is well beyond the %.1f threshold", name, r.ActualValue, r.ThresholdValue))
	}

	actions = append(actions, generalActions...)
	if len(actions) > MaxSuggestedActions {
		actions = actions[:MaxSuggestedActions]
	}
	return actions
}

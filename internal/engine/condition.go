package engine

import (
	"context"
	"fmt"
	"time"

	"vigil/internal/logger"
	"vigil/internal/metrics"
	"vigil/internal/models"
)

// Defaults for baseline-relative operators
const (
	DefaultBaselinePeriod  = 7 * 24 * time.Hour
	DefaultConfidenceLevel = 0.95
	DefaultFetchTimeout    = 10 * time.Second

	baselineCacheTTL = 10 * time.Minute
)

// ConditionEvaluator runs one condition end to end: filter readings, reduce
// them to a scalar, and apply the operator. Baseline data comes from the
// injected historical provider, optionally cached.
type ConditionEvaluator struct {
	historical   HistoricalProvider
	detector     *AnomalyDetector
	cache        BaselineCache
	fetchTimeout time.Duration
}

// NewConditionEvaluator wires a condition evaluator. historical and cache may
// be nil: without a provider, baselines fall back to the historical readings
// carried in the evaluation context.
func NewConditionEvaluator(historical HistoricalProvider, detector *AnomalyDetector, cache BaselineCache) *ConditionEvaluator {
	if detector == nil {
		detector = NewAnomalyDetector()
	}
	return &ConditionEvaluator{
		historical:   historical,
		detector:     detector,
		cache:        cache,
		fetchTimeout: DefaultFetchTimeout,
	}
}

// Evaluate produces the condition result and a metric snapshot. The snapshot
// is emitted regardless of outcome. A collaborator failure resolves the
// condition as not met rather than propagating.
func (c *ConditionEvaluator) Evaluate(ctx context.Context, cond models.AlertCondition, evalCtx *models.EvaluationContext) (models.ConditionResult, models.MetricSnapshot) {
	snapshot := models.MetricSnapshot{
		Metric:              cond.Metric,
		Threshold:           cond.Threshold.Value,
		Timestamp:           evalCtx.CurrentTime,
		EvaluationWindow:    cond.TimeAggregation.PeriodMinutes,
		ContributingFactors: contributingFactors(evalCtx),
	}

	readings := SelectReadings(cond, evalCtx)
	if len(readings) < cond.TimeAggregation.MinimumDataPoints {
		// Not enough evidence: the condition is never met, whatever the values.
		return models.ConditionResult{
			ConditionID:      cond.ID,
			Met:              false,
			ThresholdValue:   cond.Threshold.Value,
			EvaluationMethod: "insufficient_data",
		}, snapshot
	}

	actual := Reduce(readings, cond.TimeAggregation)
	// The snapshot records what was measured even when the operator fails.
	snapshot.Value = actual

	met, err := c.applyOperator(ctx, cond, actual, evalCtx)
	if err != nil {
		log := logger.WithComponent("condition_evaluator")
		log.Warn().
			Err(err).
			Str("condition_id", cond.ID).
			Str("operator", string(cond.Operator)).
			Msg("condition evaluation failed, resolving as not met")
		metrics.ConditionErrorsTotal.WithLabelValues(string(cond.Operator)).Inc()

		return models.ConditionResult{
			ConditionID:      cond.ID,
			Met:              false,
			ThresholdValue:   cond.Threshold.Value,
			EvaluationMethod: "error",
		}, snapshot
	}

	return models.ConditionResult{
		ConditionID:      cond.ID,
		Met:              met,
		ActualValue:      actual,
		ThresholdValue:   cond.Threshold.Value,
		Deviation:        Deviation(actual, cond.Threshold, cond.Operator),
		EvaluationMethod: string(cond.Operator),
	}, snapshot
}

// applyOperator resolves the operator, fetching baseline data when needed
func (c *ConditionEvaluator) applyOperator(ctx context.Context, cond models.AlertCondition, actual float64, evalCtx *models.EvaluationContext) (bool, error) {
	switch cond.Operator {
	case models.OpPercentageChange:
		baseline, err := c.baseline(ctx, cond, evalCtx)
		if err != nil {
			return false, err
		}
		return PercentageChangeMet(actual, baseline, cond.Threshold.Value), nil

	case models.OpAnomalyDetected:
		hist, err := c.historicalReadings(ctx, cond, baselinePeriod(cond), evalCtx)
		if err != nil {
			return false, err
		}
		confidence := DefaultConfidenceLevel
		if cond.Threshold.ConfidenceLevel != nil {
			confidence = *cond.Threshold.ConfidenceLevel
		}
		return c.detector.IsAnomalous(actual, cond, hist, confidence), nil

	default:
		if !cond.Operator.IsValid() {
			return false, fmt.Errorf("unknown operator %q", cond.Operator)
		}
		return Compare(cond.Operator, actual, cond.Threshold), nil
	}
}

// baseline computes the comparison baseline: the condition's own aggregation
// applied over its baseline period of historical data, cached when a cache
// is wired.
func (c *ConditionEvaluator) baseline(ctx context.Context, cond models.AlertCondition, evalCtx *models.EvaluationContext) (float64, error) {
	period := baselinePeriod(cond)
	key := fmt.Sprintf("baseline:%s:%s", cond.ID, period)

	if c.cache != nil {
		if v, ok, err := c.cache.GetBaseline(ctx, key); err == nil && ok {
			return v, nil
		}
	}

	hist, err := c.historicalReadings(ctx, cond, period, evalCtx)
	if err != nil {
		return 0, err
	}

	agg := cond.TimeAggregation
	agg.MinimumDataPoints = 1
	baseline := Reduce(hist, agg)

	if c.cache != nil {
		if err := c.cache.SetBaseline(ctx, key, baseline, baselineCacheTTL); err != nil {
			log := logger.WithComponent("condition_evaluator")
			log.Debug().
				Err(err).
				Str("key", key).
				Msg("baseline cache write failed")
		}
	}

	return baseline, nil
}

// historicalReadings fetches baseline readings through the provider with a
// per-call timeout, falling back to the context's historical snapshot when no
// provider is wired.
func (c *ConditionEvaluator) historicalReadings(ctx context.Context, cond models.AlertCondition, period time.Duration, evalCtx *models.EvaluationContext) ([]models.SensorReading, error) {
	if c.historical != nil {
		fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
		return c.historical.Fetch(fetchCtx, cond, period)
	}

	var out []models.SensorReading
	for _, r := range evalCtx.HistoricalData {
		if MatchesMetric(cond.Metric, r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func baselinePeriod(cond models.AlertCondition) time.Duration {
	if cond.Threshold.BaselinePeriod != nil && *cond.Threshold.BaselinePeriod > 0 {
		return *cond.Threshold.BaselinePeriod
	}
	return DefaultBaselinePeriod
}

// contributingFactors labels the evaluation moment: time-of-day and day-type
// buckets, plus coarse temperature buckets when weather data is present.
func contributingFactors(evalCtx *models.EvaluationContext) []string {
	var factors []string

	hour := evalCtx.CurrentTime.Hour()
	if hour >= 9 && hour < 17 {
		factors = append(factors, "Business hours")
	} else {
		factors = append(factors, "After hours")
	}

	switch evalCtx.CurrentTime.Weekday() {
	case time.Saturday, time.Sunday:
		factors = append(factors, "Weekend")
	default:
		factors = append(factors, "Weekday")
	}

	if evalCtx.WeatherData != nil {
		if evalCtx.WeatherData.TemperatureC > 30 {
			factors = append(factors, "High temperature")
		} else if evalCtx.WeatherData.TemperatureC < 5 {
			factors = append(factors, "Low temperature")
		}
	}

	return factors
}

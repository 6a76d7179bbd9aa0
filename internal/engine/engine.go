package engine

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"vigil/internal/logger"
	"vigil/internal/metrics"
	"vigil/internal/models"
)

// Options tunes batch orchestration
type Options struct {
	// Maximum configurations evaluated concurrently
	MaxConcurrency int

	// Budget for one configuration, rules included
	ConfigTimeout time.Duration

	// Budget for the dedup lookup and the notification dispatch
	CollaboratorTimeout time.Duration

	// Fallback z-score threshold for non-standard confidence levels
	FallbackZ float64
}

// DefaultOptions returns the engine defaults
func DefaultOptions() Options {
	return Options{
		MaxConcurrency:      4,
		ConfigTimeout:       30 * time.Second,
		CollaboratorTimeout: 10 * time.Second,
		FallbackZ:           DefaultZThreshold,
	}
}

// Engine evaluates batches of alert configurations against a telemetry
// snapshot. All collaborators are injected; the engine holds no state between
// invocations.
type Engine struct {
	rules      *RuleEvaluator
	finder     AlertFinder
	dispatcher Dispatcher
	opts       Options
}

// New constructs an engine. finder and dispatcher may be nil: without a
// finder no deduplication happens, without a dispatcher alerts are created
// but not delivered.
func New(historical HistoricalProvider, finder AlertFinder, dispatcher Dispatcher, cache BaselineCache, opts Options) *Engine {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 4
	}
	if opts.ConfigTimeout <= 0 {
		opts.ConfigTimeout = 30 * time.Second
	}
	if opts.CollaboratorTimeout <= 0 {
		opts.CollaboratorTimeout = 10 * time.Second
	}

	detector := NewAnomalyDetector()
	if opts.FallbackZ > 0 {
		detector.FallbackZ = opts.FallbackZ
	}

	conditions := NewConditionEvaluator(historical, detector, cache)

	return &Engine{
		rules:      NewRuleEvaluator(conditions),
		finder:     finder,
		dispatcher: dispatcher,
		opts:       opts,
	}
}

// BatchResult separates the instances built during one batch from the open
// instances returned unchanged by duplicate suppression. Only Created
// instances are new to downstream stores and topics; Suppressed ones already
// exist there.
type BatchResult struct {
	Created    []*models.AlertInstance
	Suppressed []*models.AlertInstance
}

// Alerts returns every instance of the batch, created before suppressed.
func (r BatchResult) Alerts() []*models.AlertInstance {
	out := make([]*models.AlertInstance, 0, len(r.Created)+len(r.Suppressed))
	out = append(out, r.Created...)
	return append(out, r.Suppressed...)
}

// EvaluateBatch evaluates every active configuration concurrently and returns
// the alert instances for all triggered rules. A slow or failing
// configuration never blocks or aborts its siblings; on cancellation the
// instances finalized so far are still returned.
func (e *Engine) EvaluateBatch(ctx context.Context, configs []models.AlertConfiguration, evalCtx *models.EvaluationContext) BatchResult {
	log := logger.WithComponent("engine")
	start := time.Now()

	var (
		mu  sync.Mutex
		out BatchResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.MaxConcurrency)

	for _, cfg := range configs {
		cfg := cfg

		if cfg.Status != models.ConfigActive {
			log.Debug().
				Str("configuration_id", cfg.ID).
				Str("status", string(cfg.Status)).
				Msg("skipping inactive configuration")
			continue
		}

		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Bytes("stack", debug.Stack()).
						Str("configuration_id", cfg.ID).
						Msg("configuration evaluation panic recovered")
					metrics.PanicsRecovered.WithLabelValues("engine").Inc()
				}
			}()

			cctx, cancel := context.WithTimeout(gctx, e.opts.ConfigTimeout)
			defer cancel()

			created, suppressed := e.evaluateConfiguration(cctx, cfg, evalCtx)
			if len(created) > 0 || len(suppressed) > 0 {
				mu.Lock()
				out.Created = append(out.Created, created...)
				out.Suppressed = append(out.Suppressed, suppressed...)
				mu.Unlock()
			}
			// Failures are contained per configuration; never cancel siblings.
			return nil
		})
	}

	_ = g.Wait()

	duration := time.Since(start)
	metrics.EvaluationDuration.Observe(duration.Seconds())
	log.Info().
		Int("configurations", len(configs)).
		Int("alerts", len(out.Created)).
		Int("suppressed", len(out.Suppressed)).
		Dur("duration", duration).
		Msg("batch evaluation completed")

	return out
}

// evaluateConfiguration runs every enabled rule of one configuration,
// isolating per-rule failures.
func (e *Engine) evaluateConfiguration(ctx context.Context, cfg models.AlertConfiguration, evalCtx *models.EvaluationContext) (created, suppressed []*models.AlertInstance) {
	log := logger.WithConfiguration(cfg.ID)

	for _, rule := range cfg.Rules {
		if !rule.Enabled {
			continue
		}

		if err := ctx.Err(); err != nil {
			log.Warn().
				Str("rule_id", rule.ID).
				Msg("configuration budget exhausted, skipping remaining rules")
			break
		}

		result := e.evaluateRule(ctx, rule, evalCtx)
		metrics.RuleEvaluationsTotal.Inc()

		if result == nil || !result.Triggered {
			continue
		}

		metrics.RulesTriggeredTotal.WithLabelValues(string(rule.Priority)).Inc()

		inst, dup := e.buildAlert(ctx, cfg, rule, *result, evalCtx)
		if inst == nil {
			continue
		}
		if dup {
			suppressed = append(suppressed, inst)
		} else {
			created = append(created, inst)
		}
	}
	return created, suppressed
}

// evaluateRule contains a single rule's evaluation, recovering panics so a
// malformed rule cannot take down its siblings.
func (e *Engine) evaluateRule(ctx context.Context, rule models.AlertRule, evalCtx *models.EvaluationContext) (result *models.RuleResult) {
	defer func() {
		if r := recover(); r != nil {
			log := logger.WithComponent("engine")
			log.Error().
				Interface("panic", r).
				Str("rule_id", rule.ID).
				Msg("rule evaluation panic recovered")
			metrics.PanicsRecovered.WithLabelValues("rule").Inc()
			result = nil
		}
	}()

	r := e.rules.Evaluate(ctx, rule, evalCtx)
	return &r
}

// buildAlert runs dedup, assembles the instance, and dispatches notification.
// A dispatch failure is logged and recorded but never invalidates the alert.
// When a duplicate is suppressed the open instance comes back with
// suppressed=true so callers do not persist or publish it again.
func (e *Engine) buildAlert(ctx context.Context, cfg models.AlertConfiguration, rule models.AlertRule, result models.RuleResult, evalCtx *models.EvaluationContext) (*models.AlertInstance, bool) {
	log := logger.WithComponent("engine")

	var related []string
	if e.finder != nil {
		fctx, cancel := context.WithTimeout(ctx, e.opts.CollaboratorTimeout)
		existing, err := e.finder.FindUnresolved(fctx, cfg.ID, rule.ID)
		cancel()

		switch {
		case err != nil:
			log.Warn().
				Err(err).
				Str("configuration_id", cfg.ID).
				Str("rule_id", rule.ID).
				Msg("dedup lookup failed, creating instance anyway")
		case existing != nil && rule.SuppressDuplicates:
			// Return the open instance unmodified: no snapshot refresh, no
			// re-notification.
			metrics.DedupSuppressedTotal.Inc()
			log.Info().
				Str("alert_id", existing.ID).
				Str("rule_id", rule.ID).
				Msg("duplicate suppressed, returning existing instance")
			return existing, true
		case existing != nil:
			related = append(related, existing.ID)
		}
	}

	inst := buildInstance(cfg, rule, result, evalCtx, related)

	log.Info().
		Str("alert_id", inst.ID).
		Str("configuration_id", cfg.ID).
		Str("rule_id", rule.ID).
		Str("severity", string(inst.Severity)).
		Float64("confidence", inst.Confidence).
		Msg("alert instance created")

	if e.dispatcher != nil {
		dctx, cancel := context.WithTimeout(ctx, e.opts.CollaboratorTimeout)
		logs, err := e.dispatcher.Send(dctx, cfg.NotificationSettings, inst)
		cancel()

		if err != nil {
			log.Error().
				Err(err).
				Str("alert_id", inst.ID).
				Msg("notification dispatch failed")
			metrics.DispatchTotal.WithLabelValues("failed").Inc()
		} else {
			inst.NotificationLog = logs
			metrics.DispatchTotal.WithLabelValues("success").Inc()
		}
	}

	return inst, false
}

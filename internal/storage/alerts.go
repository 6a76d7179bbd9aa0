// Package storage provides the Postgres-backed collaborators: the alert
// instance store used for deduplication and the historical reading store used
// for baselines.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"vigil/internal/logger"
	"vigil/internal/models"
)

// Open connects to Postgres with the given DSN
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// AlertStore persists alert instances and answers dedup lookups.
type AlertStore struct {
	db *sql.DB
}

// NewAlertStore creates an alert store
func NewAlertStore(db *sql.DB) *AlertStore {
	return &AlertStore{db: db}
}

// openStatuses are the lifecycle states that count as unresolved for dedup
const openStatuses = "('triggered', 'escalated', 'acknowledged')"

// FindUnresolved returns the most recent open instance for a (configuration,
// rule) pair, or nil when none exists.
func (s *AlertStore) FindUnresolved(ctx context.Context, configurationID, ruleID string) (*models.AlertInstance, error) {
	if configurationID == "" {
		return nil, errors.New("configuration_id is required")
	}
	if ruleID == "" {
		return nil, errors.New("rule_id is required")
	}

	query := `
		SELECT
			id,
			configuration_id,
			rule_id,
			status,
			severity,
			title,
			description,
			confidence,
			metric_values,
			context,
			suggested_actions,
			triggered_at,
			escalation_level,
			notification_log
		FROM alert_instances
		WHERE configuration_id = $1
		  AND rule_id = $2
		  AND status IN ` + openStatuses + `
		ORDER BY triggered_at DESC
		LIMIT 1
	`

	var (
		inst                                        models.AlertInstance
		metricValues, alertCtx, actions, notifyLogs []byte
	)

	err := s.db.QueryRowContext(ctx, query, configurationID, ruleID).Scan(
		&inst.ID,
		&inst.ConfigurationID,
		&inst.RuleID,
		&inst.Status,
		&inst.Severity,
		&inst.Title,
		&inst.Description,
		&inst.Confidence,
		&metricValues,
		&alertCtx,
		&actions,
		&inst.TriggeredAt,
		&inst.EscalationLevel,
		&notifyLogs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find unresolved alert: %w", err)
	}

	if err := unmarshalInto(metricValues, &inst.MetricValues); err != nil {
		return nil, err
	}
	if err := unmarshalInto(alertCtx, &inst.Context); err != nil {
		return nil, err
	}
	if err := unmarshalInto(actions, &inst.SuggestedActions); err != nil {
		return nil, err
	}
	if err := unmarshalInto(notifyLogs, &inst.NotificationLog); err != nil {
		return nil, err
	}

	return &inst, nil
}

// Create persists a freshly triggered alert instance
func (s *AlertStore) Create(ctx context.Context, inst *models.AlertInstance) error {
	if inst == nil || inst.ID == "" {
		return errors.New("alert instance with ID is required")
	}

	metricValues, err := json.Marshal(inst.MetricValues)
	if err != nil {
		return fmt.Errorf("marshal metric values: %w", err)
	}
	alertCtx, err := json.Marshal(inst.Context)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}
	actions, err := json.Marshal(inst.SuggestedActions)
	if err != nil {
		return fmt.Errorf("marshal suggested actions: %w", err)
	}
	notifyLogs, err := json.Marshal(inst.NotificationLog)
	if err != nil {
		return fmt.Errorf("marshal notification log: %w", err)
	}

	query := `
		INSERT INTO alert_instances (
			id, configuration_id, rule_id, status, severity,
			title, description, confidence, metric_values, context,
			suggested_actions, triggered_at, escalation_level, notification_log
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = s.db.ExecContext(ctx, query,
		inst.ID,
		inst.ConfigurationID,
		inst.RuleID,
		string(inst.Status),
		string(inst.Severity),
		inst.Title,
		inst.Description,
		inst.Confidence,
		metricValues,
		alertCtx,
		actions,
		inst.TriggeredAt,
		inst.EscalationLevel,
		notifyLogs,
	)
	if err != nil {
		return fmt.Errorf("insert alert instance: %w", err)
	}

	log := logger.WithComponent("alert_store")
	log.Info().
		Str("alert_id", inst.ID).
		Str("configuration_id", inst.ConfigurationID).
		Str("rule_id", inst.RuleID).
		Msg("alert instance persisted")

	return nil
}

// unmarshalInto tolerates NULL columns
func unmarshalInto(data []byte, dst interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal alert column: %w", err)
	}
	return nil
}

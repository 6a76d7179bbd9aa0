package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"vigil/internal/logger"
	"vigil/internal/models"
)

// ConfigStore loads alert configurations for the evaluation loop.
type ConfigStore struct {
	db *sql.DB
}

// NewConfigStore creates a configuration store
func NewConfigStore(db *sql.DB) *ConfigStore {
	return &ConfigStore{db: db}
}

// ListActive returns every active configuration with its rules. A row whose
// rules column fails to decode is skipped with a warning, never fatal: one
// malformed configuration must not stop the batch.
func (s *ConfigStore) ListActive(ctx context.Context) ([]models.AlertConfiguration, error) {
	query := `
		SELECT id, name, status, rules, notification_settings, created_at, updated_at
		FROM alert_configurations
		WHERE status = 'active'
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query configurations: %w", err)
	}
	defer rows.Close()

	log := logger.WithComponent("config_store")

	var configs []models.AlertConfiguration
	for rows.Next() {
		var (
			cfg           models.AlertConfiguration
			rules, notify []byte
		)
		if err := rows.Scan(&cfg.ID, &cfg.Name, &cfg.Status, &rules, &notify, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan configuration: %w", err)
		}

		if err := json.Unmarshal(rules, &cfg.Rules); err != nil {
			log.Warn().
				Err(err).
				Str("configuration_id", cfg.ID).
				Msg("skipping configuration with malformed rules")
			continue
		}
		if len(notify) > 0 {
			if err := json.Unmarshal(notify, &cfg.NotificationSettings); err != nil {
				log.Warn().
					Err(err).
					Str("configuration_id", cfg.ID).
					Msg("configuration has malformed notification settings")
			}
		}

		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate configurations: %w", err)
	}

	return configs, nil
}

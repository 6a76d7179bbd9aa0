package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/models"
)

func alertColumns() []string {
	return []string{
		"id", "configuration_id", "rule_id", "status", "severity",
		"title", "description", "confidence", "metric_values", "context",
		"suggested_actions", "triggered_at", "escalation_level", "notification_log",
	}
}

func TestFindUnresolved(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	triggered := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	actions, _ := json.Marshal([]string{"Verify sensor calibration and data quality"})

	mock.ExpectQuery("SELECT(.|\n)+FROM alert_instances").
		WithArgs("cfg-1", "rule-load").
		WillReturnRows(sqlmock.NewRows(alertColumns()).AddRow(
			"alert-1", "cfg-1", "rule-load", "triggered", "critical",
			"Energy spike", "1620.0 greater_than threshold 1000.0", 0.9,
			[]byte("[]"), []byte("{}"), actions, triggered, 0, nil,
		))

	store := NewAlertStore(db)
	inst, err := store.FindUnresolved(context.Background(), "cfg-1", "rule-load")

	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, "alert-1", inst.ID)
	assert.Equal(t, models.AlertTriggered, inst.Status)
	assert.Equal(t, models.SeverityCritical, inst.Severity)
	assert.Equal(t, 0.9, inst.Confidence)
	assert.Equal(t, triggered, inst.TriggeredAt)
	require.Len(t, inst.SuggestedActions, 1)
	assert.Empty(t, inst.NotificationLog)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUnresolvedNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT(.|\n)+FROM alert_instances").
		WithArgs("cfg-1", "rule-load").
		WillReturnRows(sqlmock.NewRows(alertColumns()))

	store := NewAlertStore(db)
	inst, err := store.FindUnresolved(context.Background(), "cfg-1", "rule-load")

	require.NoError(t, err)
	assert.Nil(t, inst, "no open instance must yield nil, not an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUnresolvedValidatesArgs(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewAlertStore(db)

	_, err = store.FindUnresolved(context.Background(), "", "rule-load")
	assert.Error(t, err)

	_, err = store.FindUnresolved(context.Background(), "cfg-1", "")
	assert.Error(t, err)
}

func TestFindUnresolvedQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT(.|\n)+FROM alert_instances").
		WillReturnError(errors.New("connection reset"))

	store := NewAlertStore(db)
	_, err = store.FindUnresolved(context.Background(), "cfg-1", "rule-load")
	assert.Error(t, err)
}

func TestCreateAlert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	inst := &models.AlertInstance{
		ID:              "alert-1",
		ConfigurationID: "cfg-1",
		RuleID:          "rule-load",
		Status:          models.AlertTriggered,
		Severity:        models.SeverityCritical,
		Title:           "Energy spike",
		Description:     "1620.0 greater_than threshold 1000.0",
		Confidence:      0.9,
		TriggeredAt:     time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO alert_instances").
		WithArgs(
			inst.ID, inst.ConfigurationID, inst.RuleID, "triggered", "critical",
			inst.Title, inst.Description, inst.Confidence,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			inst.TriggeredAt, inst.EscalationLevel, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewAlertStore(db)
	require.NoError(t, store.Create(context.Background(), inst))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAlertRequiresID(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewAlertStore(db)
	assert.Error(t, store.Create(context.Background(), nil))
	assert.Error(t, store.Create(context.Background(), &models.AlertInstance{}))
}

package models

import "time"

// MetricSnapshot records what a condition measured during one evaluation.
// It is produced regardless of whether the condition was met.
type MetricSnapshot struct {
	Metric              Metric    `json:"metric"`
	Value               float64   `json:"value"`
	Threshold           float64   `json:"threshold"`
	Timestamp           time.Time `json:"timestamp"`
	EvaluationWindow    int       `json:"evaluation_window"`
	ContributingFactors []string  `json:"contributing_factors,omitempty"`
}

// ConditionResult is the outcome of evaluating a single condition
type ConditionResult struct {
	ConditionID      string  `json:"condition_id"`
	Met              bool    `json:"met"`
	ActualValue      float64 `json:"actual_value"`
	ThresholdValue   float64 `json:"threshold_value"`
	Deviation        float64 `json:"deviation"`
	EvaluationMethod string  `json:"evaluation_method"`
}

// RuleResult is the outcome of evaluating one rule
type RuleResult struct {
	RuleID           string            `json:"rule_id"`
	Triggered        bool              `json:"triggered"`
	Confidence       float64           `json:"confidence"`
	ConditionResults []ConditionResult `json:"condition_results"`
	Snapshots        []MetricSnapshot  `json:"snapshots"`
	EvaluatedAt      time.Time         `json:"evaluated_at"`
}

// SensorHealth is a per-sensor view derived from the snapshots of a
// triggering evaluation.
type SensorHealth struct {
	SensorID  string    `json:"sensor_id"`
	LastValue float64   `json:"last_value"`
	LastSeen  time.Time `json:"last_seen"`
	Quality   Quality   `json:"quality"`
}

// AlertContext is a read-only view assembled at trigger time
type AlertContext struct {
	SensorSnapshots []SensorHealth `json:"sensor_snapshots,omitempty"`
	WeatherData     *WeatherData   `json:"weather_data,omitempty"`
	OccupancyData   *OccupancyData `json:"occupancy_data,omitempty"`
	RelatedAlertIDs []string       `json:"related_alert_ids,omitempty"`
}

// AlertStatus is the lifecycle state of an alert instance
type AlertStatus string

const (
	AlertTriggered     AlertStatus = "triggered"
	AlertEscalated     AlertStatus = "escalated"
	AlertAcknowledged  AlertStatus = "acknowledged"
	AlertResolved      AlertStatus = "resolved"
	AlertSuppressed    AlertStatus = "suppressed"
	AlertFalsePositive AlertStatus = "false_positive"
)

// Open reports whether the instance still counts as unresolved for dedup
func (s AlertStatus) Open() bool {
	switch s {
	case AlertTriggered, AlertEscalated, AlertAcknowledged:
		return true
	default:
		return false
	}
}

// NotificationLog records one delivery attempt made by the dispatcher
type NotificationLog struct {
	ID         string              `json:"id"`
	Channel    NotificationChannel `json:"channel"`
	Recipient  string              `json:"recipient"`
	SentAt     time.Time           `json:"sent_at"`
	Status     string              `json:"status"`
	RetryCount int                 `json:"retry_count"`
}

// AlertInstance is one triggering of a rule
type AlertInstance struct {
	ID               string            `json:"id"`
	ConfigurationID  string            `json:"configuration_id"`
	RuleID           string            `json:"rule_id"`
	Status           AlertStatus       `json:"status"`
	Severity         Severity          `json:"severity"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Confidence       float64           `json:"confidence"`
	MetricValues     []MetricSnapshot  `json:"metric_values"`
	Context          AlertContext      `json:"context"`
	SuggestedActions []string          `json:"suggested_actions,omitempty"`
	TriggeredAt      time.Time         `json:"triggered_at"`
	EscalationLevel  int               `json:"escalation_level"`
	NotificationLog  []NotificationLog `json:"notification_log,omitempty"`
}

// WeatherData is an optional passthrough snapshot of outdoor conditions
type WeatherData struct {
	TemperatureC float64 `json:"temperature_c"`
	HumidityPct  float64 `json:"humidity_pct"`
	Condition    string  `json:"condition,omitempty"`
}

// OccupancyData is an optional passthrough snapshot of building occupancy
type OccupancyData struct {
	CurrentCount int     `json:"current_count"`
	CapacityPct  float64 `json:"capacity_pct"`
}

// SystemStatus summarizes the health of the telemetry source
type SystemStatus struct {
	Healthy        bool   `json:"healthy"`
	DegradedReason string `json:"degraded_reason,omitempty"`
}

// EvaluationContext is the full snapshot one batch evaluation runs against.
// The engine performs no reading I/O itself; everything it needs beyond the
// dedup and historical-baseline collaborators is carried here.
type EvaluationContext struct {
	CurrentTime    time.Time       `json:"current_time"`
	SensorReadings []SensorReading `json:"sensor_readings"`
	HistoricalData []SensorReading `json:"historical_data,omitempty"`
	SystemStatus   SystemStatus    `json:"system_status"`
	WeatherData    *WeatherData    `json:"weather_data,omitempty"`
	OccupancyData  *OccupancyData  `json:"occupancy_data,omitempty"`
}

package models

import (
	"errors"
	"time"
)

// LogicalOperator combines a rule's condition outcomes
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// IsValid checks if the logical operator is known
func (l LogicalOperator) IsValid() bool {
	return l == LogicalAnd || l == LogicalOr
}

// Severity indicates how urgent a triggered rule is
type Severity string

const (
	SeverityInfo      Severity = "info"
	SeverityWarning   Severity = "warning"
	SeverityCritical  Severity = "critical"
	SeverityEmergency Severity = "emergency"
)

// IsValid checks if the severity level is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical, SeverityEmergency:
		return true
	default:
		return false
	}
}

// AlertRule is a named boolean combination of conditions
type AlertRule struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Enabled  bool     `json:"enabled"`
	Priority Severity `json:"priority"`

	Conditions      []AlertCondition `json:"conditions"`
	LogicalOperator LogicalOperator  `json:"logical_operator"`

	// Minutes between evaluations of this rule
	EvaluationWindow int `json:"evaluation_window"`

	// Minutes during which a re-trigger is suppressed
	CooldownPeriod int `json:"cooldown_period"`

	SuppressDuplicates bool     `json:"suppress_duplicates"`
	Tags               []string `json:"tags,omitempty"`
}

// ConfigurationStatus is the lifecycle state of an alert configuration
type ConfigurationStatus string

const (
	ConfigActive   ConfigurationStatus = "active"
	ConfigPaused   ConfigurationStatus = "paused"
	ConfigDraft    ConfigurationStatus = "draft"
	ConfigArchived ConfigurationStatus = "archived"
)

// NotificationChannel identifies a delivery transport
type NotificationChannel string

const (
	ChannelWebhook NotificationChannel = "webhook"
	ChannelEmail   NotificationChannel = "email"
	ChannelSMS     NotificationChannel = "sms"
)

// NotificationSettings describes where triggered alerts are delivered.
// Delivery mechanics (retry, signing) live entirely in the dispatcher.
type NotificationSettings struct {
	Channels   []NotificationChannel `json:"channels"`
	Recipients []string              `json:"recipients"`
	WebhookURL string                `json:"webhook_url,omitempty"`
}

// AlertConfiguration is a user-owned bundle of rules plus notification settings
type AlertConfiguration struct {
	ID                   string               `json:"id"`
	Name                 string               `json:"name"`
	Status               ConfigurationStatus  `json:"status"`
	Rules                []AlertRule          `json:"rules"`
	NotificationSettings NotificationSettings `json:"notification_settings"`
	CreatedAt            time.Time            `json:"created_at,omitempty"`
	UpdatedAt            time.Time            `json:"updated_at,omitempty"`
}

// Rule validation errors
var (
	ErrEmptyRuleID    = errors.New("rule ID cannot be empty")
	ErrNoConditions   = errors.New("rule must have at least one condition")
	ErrEmptyConfigID  = errors.New("configuration ID cannot be empty")
	ErrNoRules        = errors.New("configuration must have at least one rule")
)

// Validate checks structural validity of the rule and its conditions
func (r *AlertRule) Validate() error {
	if r.ID == "" {
		return ErrEmptyRuleID
	}

	if len(r.Conditions) == 0 {
		return ErrNoConditions
	}

	for i := range r.Conditions {
		if err := r.Conditions[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks structural validity of the configuration
func (c *AlertConfiguration) Validate() error {
	if c.ID == "" {
		return ErrEmptyConfigID
	}

	if len(c.Rules) == 0 {
		return ErrNoRules
	}

	for i := range c.Rules {
		if err := c.Rules[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

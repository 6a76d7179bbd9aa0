package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vigil_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Evaluation metrics
	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vigil_evaluation_batch_duration_seconds",
			Help:    "Time taken to evaluate one batch of configurations",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	RuleEvaluationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_rule_evaluations_total",
			Help: "Total number of rules evaluated",
		},
	)

	RulesTriggeredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_rules_triggered_total",
			Help: "Total number of rules that triggered an alert",
		},
		[]string{"severity"},
	)

	ConditionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_condition_errors_total",
			Help: "Conditions that resolved as not met due to an evaluation error",
		},
		[]string{"operator"},
	)

	DedupSuppressedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_dedup_suppressed_total",
			Help: "Alert instances suppressed because an unresolved duplicate exists",
		},
	)

	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_notification_dispatch_total",
			Help: "Notification dispatch outcomes",
		},
		[]string{"status"}, // status: success, failed
	)

	// Reading intake metrics
	ReadingsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_readings_consumed_total",
			Help: "Sensor readings consumed from Kafka",
		},
		[]string{"status"}, // status: accepted, rejected
	)

	// Alert publish worker metrics
	AlertQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_alert_queue_size",
			Help: "Current size of the alert publish queue",
		},
	)

	AlertQueueCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_alert_queue_capacity",
			Help: "Capacity of the alert publish queue",
		},
	)

	AlertsPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_alerts_published_total",
			Help: "Alert instances published to Kafka",
		},
	)

	AlertsPublishFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_alerts_publish_failed_total",
			Help: "Alert instances that failed to publish",
		},
	)

	PublishBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vigil_publish_batch_duration_seconds",
			Help:    "Time taken to publish an alert batch to Kafka",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	KafkaPublishRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_kafka_publish_retries_total",
			Help: "Total number of Kafka publish retries",
		},
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)

package domain

import "time"

// Alert severities. Critical thresholds are always stricter than warning ones.
const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// AlertSeverity classifies how serious a threshold violation is.
type AlertSeverity string

// Alert rule types, one per monitored service-level condition.
const (
	AlertUptime              AlertType = "uptime"
	AlertResponseTime        AlertType = "response_time"
	AlertErrorRate           AlertType = "error_rate"
	AlertConsecutiveFailures AlertType = "consecutive_failures"
)

// AlertType names the rule that produced an alert.
type AlertType string

// Alert records a single threshold violation. Alerts are append-only; the
// evaluator records them but never alters scheduling or retry behavior.
type Alert struct {
	// ID uniquely identifies the alert.
	ID string `json:"id"`

	// Severity is warning or critical.
	Severity AlertSeverity `json:"severity"`

	// Type names the rule that fired.
	Type AlertType `json:"type"`

	// Message is a human readable description of the violation.
	Message string `json:"message"`

	// Timestamp is when the alert was raised.
	Timestamp time.Time `json:"timestamp"`

	// Metrics is a snapshot of the session metrics at evaluation time,
	// kept for audit.
	Metrics Metrics `json:"metrics"`
}

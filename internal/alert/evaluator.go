// Package alert compares session metrics against configured thresholds.
//
// The evaluator only records alerts. It never alters scheduling, retries or
// circuit-break behavior; automatic recovery is a separate collaborator's
// concern.
package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/modelwatch/mwd/internal/domain"
)

// Evaluator emits alerts for threshold violations.
// NewEvaluator should be used to create instances of Evaluator.
type Evaluator struct {
	thresholds Thresholds
}

// NewEvaluator creates an Evaluator after validating the thresholds.
func NewEvaluator(t Thresholds) (*Evaluator, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{thresholds: t}, nil
}

// Thresholds returns the evaluator's threshold configuration.
func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate runs the four alert rules against the current metrics and the
// latest probe result. One pass may emit multiple alerts, at most one per
// rule; a critical violation suppresses the rule's warning. Every alert
// carries a metrics snapshot for audit.
func (e *Evaluator) Evaluate(m domain.Metrics, latest domain.ProbeResult) []domain.Alert {
	var alerts []domain.Alert

	// Uptime is only meaningful once at least one check completed.
	if m.TotalChecks() > 0 {
		switch uptime := m.Uptime(); {
		case uptime < e.thresholds.UptimeCritical:
			alerts = append(alerts, newAlert(domain.SeverityCritical, domain.AlertUptime, m,
				fmt.Sprintf("uptime %.3f below critical threshold %.3f", uptime, e.thresholds.UptimeCritical)))
		case uptime < e.thresholds.UptimeWarning:
			alerts = append(alerts, newAlert(domain.SeverityWarning, domain.AlertUptime, m,
				fmt.Sprintf("uptime %.3f below warning threshold %.3f", uptime, e.thresholds.UptimeWarning)))
		}
	}

	// Response time is judged on successful probes only; a failed probe's
	// duration measures the failure, not the service.
	if latest.Success {
		switch rt := latest.ResponseTime; {
		case rt > e.thresholds.ResponseTimeCritical:
			alerts = append(alerts, newAlert(domain.SeverityCritical, domain.AlertResponseTime, m,
				fmt.Sprintf("response time %s above critical threshold %s", rt, e.thresholds.ResponseTimeCritical)))
		case rt > e.thresholds.ResponseTimeWarning:
			alerts = append(alerts, newAlert(domain.SeverityWarning, domain.AlertResponseTime, m,
				fmt.Sprintf("response time %s above warning threshold %s", rt, e.thresholds.ResponseTimeWarning)))
		}
	}

	if m.TotalChecks() > 0 {
		switch rate := m.ErrorRate(); {
		case rate > e.thresholds.ErrorRateCritical:
			alerts = append(alerts, newAlert(domain.SeverityCritical, domain.AlertErrorRate, m,
				fmt.Sprintf("error rate %.3f above critical threshold %.3f", rate, e.thresholds.ErrorRateCritical)))
		case rate > e.thresholds.ErrorRateWarning:
			alerts = append(alerts, newAlert(domain.SeverityWarning, domain.AlertErrorRate, m,
				fmt.Sprintf("error rate %.3f above warning threshold %.3f", rate, e.thresholds.ErrorRateWarning)))
		}
	}

	switch streak := m.ConsecutiveFailures; {
	case streak >= e.thresholds.ConsecutiveFailuresCritical:
		alerts = append(alerts, newAlert(domain.SeverityCritical, domain.AlertConsecutiveFailures, m,
			fmt.Sprintf("%d consecutive failures at or above critical threshold %d", streak, e.thresholds.ConsecutiveFailuresCritical)))
	case streak >= e.thresholds.ConsecutiveFailuresWarning:
		alerts = append(alerts, newAlert(domain.SeverityWarning, domain.AlertConsecutiveFailures, m,
			fmt.Sprintf("%d consecutive failures at or above warning threshold %d", streak, e.thresholds.ConsecutiveFailuresWarning)))
	}

	return alerts
}

func newAlert(severity domain.AlertSeverity, kind domain.AlertType, m domain.Metrics, msg string) domain.Alert {
	return domain.Alert{
		ID:        uuid.NewString(),
		Severity:  severity,
		Type:      kind,
		Message:   msg,
		Timestamp: time.Now().UTC(),
		Metrics:   m,
	}
}

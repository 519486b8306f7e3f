package domain

import "time"

// Session statuses.
const (
	SessionRunning SessionStatus = "running"
	SessionStopped SessionStatus = "stopped"
	SessionFailed  SessionStatus = "failed"
)

// SessionStatus is the lifecycle state of a monitoring session.
type SessionStatus string

// Reliability grades, a pure step function of the availability score.
const (
	GradeExcellent    Grade = "Excellent"
	GradeGood         Grade = "Good"
	GradeAcceptable   Grade = "Acceptable"
	GradePoor         Grade = "Poor"
	GradeUnacceptable Grade = "Unacceptable"
)

// Grade is a categorical reliability label for a target.
type Grade string

// Statistics summarizes a finished session. Computed once when the session
// stops and immutable afterwards.
type Statistics struct {
	// UptimePercent is the session uptime as a percentage, rounded to
	// three decimal places.
	UptimePercent float64 `json:"uptimePercent"`

	// MTTF is the mean time between failures. Equals the session duration
	// when no failures occurred.
	MTTF time.Duration `json:"mttf"`

	// MTTR is the mean duration of failure-to-recovery intervals.
	// Zero when no recovery occurred.
	MTTR time.Duration `json:"mttr"`

	// AvailabilityScore is the composite [0, 1] reliability metric.
	AvailabilityScore float64 `json:"availabilityScore"`

	// Grade is derived from AvailabilityScore.
	Grade Grade `json:"grade"`

	// Duration is the total monitored time.
	Duration time.Duration `json:"duration"`
}

// Session tracks one target's health check history and derived statistics
// between startMonitoring and stopMonitoring. A session is mutated only by
// its own scheduled probe callbacks, then frozen on stop and handed to the
// history store.
type Session struct {
	// ID uniquely identifies the session.
	ID string `json:"id"`

	// Target is the endpoint under monitoring.
	Target Target `json:"target"`

	// CheckNames lists the health checks scheduled for this session.
	CheckNames []string `json:"checkNames"`

	// StartedAt is when monitoring began.
	StartedAt time.Time `json:"startedAt"`

	// StoppedAt is set when the session is frozen.
	StoppedAt *time.Time `json:"stoppedAt,omitempty"`

	// Status is the lifecycle state.
	Status SessionStatus `json:"status"`

	// Metrics are the accumulated counters.
	Metrics Metrics `json:"metrics"`

	// Results is the probe result history in completion order.
	Results []ProbeResult `json:"results"`

	// Alerts is the append-only list of raised alerts.
	Alerts []Alert `json:"alerts"`

	// Statistics is the final summary, present once the session stopped.
	Statistics *Statistics `json:"statistics,omitempty"`
}

// Running reports whether the session is still live.
func (s *Session) Running() bool {
	return s.Status == SessionRunning
}

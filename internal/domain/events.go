package domain

import "time"

// Event kinds emitted by the session manager.
const (
	EventMonitoringStarted    EventKind = "monitoringStarted"
	EventHealthCheckCompleted EventKind = "healthCheckCompleted"
	EventAlert                EventKind = "alert"
	EventMonitoringStopped    EventKind = "monitoringStopped"
)

// EventKind names the kind of a monitoring event.
type EventKind string

// Event is a single entry on the monitoring event stream, intended for
// subscriber-style consumption rather than polling.
type Event struct {
	// Kind is the event kind.
	Kind EventKind `json:"kind"`

	// SessionID is the session the event belongs to.
	SessionID string `json:"sessionId"`

	// TargetID identifies the session's target.
	TargetID string `json:"targetId"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"timestamp"`

	// Result is set for healthCheckCompleted events.
	Result *ProbeResult `json:"result,omitempty"`

	// Alert is set for alert events.
	Alert *Alert `json:"alert,omitempty"`

	// Statistics is set for monitoringStopped events.
	Statistics *Statistics `json:"statistics,omitempty"`
}

package domain

import "time"

// Reliability trends across an ordered series of past sessions.
const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
	TrendUnknown   Trend = "unknown"
)

// Trend describes how a target's availability develops over time.
type Trend string

// ReliabilityReport aggregates the persisted sessions of one target over a
// time range into a cross-session view.
type ReliabilityReport struct {
	// TargetID identifies the reported target.
	TargetID string `json:"targetId"`

	// From and To bound the reported time range.
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	// Sessions is the number of finished sessions in the range.
	Sessions int `json:"sessions"`

	// AverageUptime is the mean session uptime, in [0, 1].
	AverageUptime float64 `json:"averageUptime"`

	// AverageResponseTime is the mean of the sessions' average response times.
	AverageResponseTime time.Duration `json:"averageResponseTime"`

	// TotalAlerts is the number of alerts raised across all sessions.
	TotalAlerts int `json:"totalAlerts"`

	// Grade is derived from the mean availability score of the sessions.
	Grade Grade `json:"grade"`

	// Trend compares the older half of the sessions against the newer half.
	Trend Trend `json:"trend"`
}

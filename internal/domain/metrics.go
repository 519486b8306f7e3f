package domain

import "time"

// Metrics accumulates per-session counters from probe results.
// Totals, uptime and error rate are derived from the stored counters so they
// can never drift out of sync with them.
type Metrics struct {
	// SuccessfulChecks counts probe runs that succeeded.
	SuccessfulChecks int64 `json:"successfulChecks"`

	// FailedChecks counts probe runs that failed after all retries.
	FailedChecks int64 `json:"failedChecks"`

	// ConsecutiveFailures counts failures since the last success.
	ConsecutiveFailures int `json:"consecutiveFailures"`

	// MaxConsecutiveFailures is the worst failure streak seen in the session.
	// It never decreases within a session.
	MaxConsecutiveFailures int `json:"maxConsecutiveFailures"`

	// AverageResponseTime is the running mean response time of successful runs.
	AverageResponseTime time.Duration `json:"averageResponseTime"`

	// LastSuccess is when the most recent successful run completed.
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`

	// LastFailure is when the most recent failed run completed.
	LastFailure *time.Time `json:"lastFailure,omitempty"`
}

// TotalChecks returns the number of completed probe runs.
func (m Metrics) TotalChecks() int64 {
	return m.SuccessfulChecks + m.FailedChecks
}

// Uptime returns the fraction of runs that succeeded, in [0, 1].
// A session with no completed runs yet reports full uptime.
func (m Metrics) Uptime() float64 {
	total := m.TotalChecks()
	if total == 0 {
		return 1.0
	}
	return float64(m.SuccessfulChecks) / float64(total)
}

// ErrorRate returns the fraction of runs that failed, in [0, 1].
func (m Metrics) ErrorRate() float64 {
	total := m.TotalChecks()
	if total == 0 {
		return 0.0
	}
	return float64(m.FailedChecks) / float64(total)
}

// Package metrics folds probe results into per-session counters.
//
// Apply is the sole mutator of session metrics. Callers must serialize
// invocations per session; the session manager does this under the session's
// single-writer lock. Totals, uptime and error rate are derived on the
// domain.Metrics type and are never stored.
package metrics

import (
	"time"

	"github.com/modelwatch/mwd/internal/domain"
)

// Apply updates the session metrics with one completed probe result.
func Apply(m *domain.Metrics, r domain.ProbeResult) {
	if r.Success {
		applySuccess(m, r)
		return
	}
	applyFailure(m, r)
}

func applySuccess(m *domain.Metrics, r domain.ProbeResult) {
	m.SuccessfulChecks++
	m.ConsecutiveFailures = 0

	t := r.Timestamp
	m.LastSuccess = &t

	// Incremental mean, avoids keeping every sample around.
	m.AverageResponseTime += (r.ResponseTime - m.AverageResponseTime) / time.Duration(m.SuccessfulChecks)
}

func applyFailure(m *domain.Metrics, r domain.ProbeResult) {
	m.FailedChecks++
	m.ConsecutiveFailures++
	if m.ConsecutiveFailures > m.MaxConsecutiveFailures {
		m.MaxConsecutiveFailures = m.ConsecutiveFailures
	}

	t := r.Timestamp
	m.LastFailure = &t
}

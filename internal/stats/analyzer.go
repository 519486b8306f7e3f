// Package stats derives summary statistics from finished monitoring sessions:
// composite availability scores, reliability grades, MTTF/MTTR and
// cross-session trends.
package stats

import (
	"math"
	"slices"
	"time"

	"github.com/modelwatch/mwd/internal/domain"
)

// Score weights and normalization constants for the composite availability
// score. Response times are normalized against 20s, failure streaks against
// a streak of 10.
const (
	weightUptime      = 0.4
	weightResponse    = 0.2
	weightErrorRate   = 0.3
	weightConsistency = 0.1

	responseTimeCeiling = 20 * time.Second
	failureStreakFloor  = 10
)

// trendTolerance is the relative change below which a series counts as stable.
const trendTolerance = 0.05

// AvailabilityScore blends uptime, response time, error rate and failure
// consistency into a single [0, 1] metric.
func AvailabilityScore(m domain.Metrics) float64 {
	responseScore := math.Max(0, 1-float64(m.AverageResponseTime)/float64(responseTimeCeiling))
	errorScore := 1 - math.Min(1, m.ErrorRate()*5)
	consistencyScore := math.Max(0, 1-float64(m.MaxConsecutiveFailures)/failureStreakFloor)

	return weightUptime*m.Uptime() +
		weightResponse*responseScore +
		weightErrorRate*errorScore +
		weightConsistency*consistencyScore
}

// GradeFor maps an availability score onto a reliability grade.
func GradeFor(score float64) domain.Grade {
	switch {
	case score >= 0.95:
		return domain.GradeExcellent
	case score >= 0.90:
		return domain.GradeGood
	case score >= 0.80:
		return domain.GradeAcceptable
	case score >= 0.70:
		return domain.GradePoor
	default:
		return domain.GradeUnacceptable
	}
}

// Summarize computes the final statistics for a session that stopped at the
// given time.
func Summarize(s domain.Session, stoppedAt time.Time) domain.Statistics {
	duration := stoppedAt.Sub(s.StartedAt)
	score := AvailabilityScore(s.Metrics)

	return domain.Statistics{
		UptimePercent:     roundTo(s.Metrics.Uptime()*100, 3),
		MTTF:              MTTF(s.Results, s.StartedAt, duration),
		MTTR:              MTTR(s.Results),
		AvailabilityScore: score,
		Grade:             GradeFor(score),
		Duration:          duration,
	}
}

// MTTF returns the mean time between failures over the session's results.
// With no failures it equals the session duration; with a single failure it
// is the time from session start to that failure.
func MTTF(results []domain.ProbeResult, startedAt time.Time, duration time.Duration) time.Duration {
	var failures []time.Time
	for _, r := range chronological(results) {
		if !r.Success {
			failures = append(failures, r.Timestamp)
		}
	}

	switch len(failures) {
	case 0:
		return duration
	case 1:
		return failures[0].Sub(startedAt)
	}

	var total time.Duration
	for i := 1; i < len(failures); i++ {
		total += failures[i].Sub(failures[i-1])
	}
	return total / time.Duration(len(failures)-1)
}

// MTTR returns the mean duration of failure-to-recovery intervals, scanning
// the session's results of all check types merged chronologically. A failure
// streak that never recovered does not contribute. Zero when no recovery
// occurred.
func MTTR(results []domain.ProbeResult) time.Duration {
	var (
		total      time.Duration
		recoveries int
		inFailure  bool
		failedAt   time.Time
	)

	for _, r := range chronological(results) {
		switch {
		case !r.Success && !inFailure:
			inFailure = true
			failedAt = r.Timestamp
		case r.Success && inFailure:
			total += r.Timestamp.Sub(failedAt)
			recoveries++
			inFailure = false
		}
	}

	if recoveries == 0 {
		return 0
	}
	return total / time.Duration(recoveries)
}

// Trend splits a chronologically ordered series of availability scores in
// half and compares the means. A relative change of less than 5% counts as
// stable. Fewer than two samples cannot express a trend.
func Trend(scores []float64) domain.Trend {
	if len(scores) < 2 {
		return domain.TrendUnknown
	}

	mid := len(scores) / 2
	older := mean(scores[:mid])
	newer := mean(scores[mid:])

	if older == 0 {
		if newer == 0 {
			return domain.TrendStable
		}
		return domain.TrendImproving
	}

	change := (newer - older) / older
	switch {
	case math.Abs(change) < trendTolerance:
		return domain.TrendStable
	case change > 0:
		return domain.TrendImproving
	default:
		return domain.TrendDeclining
	}
}

func chronological(results []domain.ProbeResult) []domain.ProbeResult {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b domain.ProbeResult) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return sorted
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func roundTo(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

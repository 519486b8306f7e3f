package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/modelwatch/mwd/internal/domain"
)

func TestPrintReport(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	var out bytes.Buffer
	printReport(&out, domain.ReliabilityReport{
		TargetID:            "acme/model-1",
		From:                from,
		To:                  to,
		Sessions:            4,
		AverageUptime:       0.9525,
		AverageResponseTime: 300 * time.Millisecond,
		TotalAlerts:         3,
		Grade:               domain.GradeGood,
		Trend:               domain.TrendStable,
	})

	got := out.String()
	require.Contains(t, got, "Reliability report for acme/model-1")
	require.Contains(t, got, "Sessions:              4")
	require.Contains(t, got, "Average uptime:        95.25%")
	require.Contains(t, got, "Average response time: 300ms")
	require.Contains(t, got, "Grade:                 Good")
	require.Contains(t, got, "Trend:                 stable")
}

func TestPrintReport_NoSessions(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printReport(&out, domain.ReliabilityReport{TargetID: "acme/model-1", Trend: domain.TrendUnknown})

	require.Contains(t, out.String(), "No finished sessions in range.")
}

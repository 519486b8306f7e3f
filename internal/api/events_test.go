package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/modelwatch/mwd/internal/domain"
)

func TestConvertEvent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("monitoring started", func(t *testing.T) {
		t.Parallel()

		msg, ok := convertEvent(domain.Event{
			Kind:      domain.EventMonitoringStarted,
			SessionID: "s1",
			TargetID:  "acme/model-1",
			Timestamp: now,
		})
		require.True(t, ok)
		require.Equal(t, MonitoringStartedEvent{SessionID: "s1", TargetID: "acme/model-1", Timestamp: now}, msg)
	})

	t.Run("health check completed", func(t *testing.T) {
		t.Parallel()

		msg, ok := convertEvent(domain.Event{
			Kind:      domain.EventHealthCheckCompleted,
			SessionID: "s1",
			TargetID:  "acme/model-1",
			Timestamp: now,
			Result: &domain.ProbeResult{
				CheckName:    domain.CheckBasicConnectivity,
				Timestamp:    now,
				Success:      true,
				ResponseTime: 250 * time.Millisecond,
			},
		})
		require.True(t, ok)

		completed, isCompleted := msg.(HealthCheckCompletedEvent)
		require.True(t, isCompleted)
		require.Equal(t, domain.CheckBasicConnectivity, completed.Result.CheckName)
		require.Equal(t, "250ms", completed.Result.ResponseTime)
	})

	t.Run("health check completed without result is dropped", func(t *testing.T) {
		t.Parallel()

		_, ok := convertEvent(domain.Event{Kind: domain.EventHealthCheckCompleted, SessionID: "s1"})
		require.False(t, ok)
	})

	t.Run("alert", func(t *testing.T) {
		t.Parallel()

		msg, ok := convertEvent(domain.Event{
			Kind:      domain.EventAlert,
			SessionID: "s1",
			TargetID:  "acme/model-1",
			Timestamp: now,
			Alert: &domain.Alert{
				ID:       "a1",
				Severity: domain.SeverityWarning,
				Type:     domain.AlertConsecutiveFailures,
				Message:  "3 consecutive failures",
			},
		})
		require.True(t, ok)

		alert, isAlert := msg.(AlertEvent)
		require.True(t, isAlert)
		require.Equal(t, "warning", alert.Alert.Severity)
		require.Equal(t, "consecutive_failures", alert.Alert.Type)
	})

	t.Run("monitoring stopped", func(t *testing.T) {
		t.Parallel()

		msg, ok := convertEvent(domain.Event{
			Kind:      domain.EventMonitoringStopped,
			SessionID: "s1",
			TargetID:  "acme/model-1",
			Timestamp: now,
			Statistics: &domain.Statistics{
				UptimePercent:     99.5,
				AvailabilityScore: 0.97,
				Grade:             domain.GradeExcellent,
				Duration:          time.Hour,
			},
		})
		require.True(t, ok)

		stopped, isStopped := msg.(MonitoringStoppedEvent)
		require.True(t, isStopped)
		require.Equal(t, "Excellent", stopped.Statistics.Grade)
		require.Equal(t, "1h0m0s", stopped.Statistics.Duration)
	})

	t.Run("unknown kind is dropped", func(t *testing.T) {
		t.Parallel()

		_, ok := convertEvent(domain.Event{Kind: "mystery"})
		require.False(t, ok)
	})
}

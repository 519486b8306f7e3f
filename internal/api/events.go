package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/modelwatch/mwd/internal/contracts"
	"github.com/modelwatch/mwd/internal/domain"
)

// MonitoringStartedEvent announces a new monitoring session.
type MonitoringStartedEvent struct {
	SessionID string    `json:"sessionId"`
	TargetID  string    `json:"targetId"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthCheckCompletedEvent carries one finished probe run.
type HealthCheckCompletedEvent struct {
	SessionID string      `json:"sessionId"`
	TargetID  string      `json:"targetId"`
	Timestamp time.Time   `json:"timestamp"`
	Result    ProbeResult `json:"result"`
}

// AlertEvent carries one raised alert.
type AlertEvent struct {
	SessionID string    `json:"sessionId"`
	TargetID  string    `json:"targetId"`
	Timestamp time.Time `json:"timestamp"`
	Alert     Alert     `json:"alert"`
}

// MonitoringStoppedEvent announces a finalized session and its statistics.
type MonitoringStoppedEvent struct {
	SessionID  string     `json:"sessionId"`
	TargetID   string     `json:"targetId"`
	Timestamp  time.Time  `json:"timestamp"`
	Statistics Statistics `json:"statistics"`
}

// RegisterEventRoutes sets up the server-sent event stream route.
func RegisterEventRoutes(routerAPI huma.API, monitor contracts.SessionMonitor, apiPathPrefix string) {
	sse.Register(
		routerAPI,
		huma.Operation{
			OperationID: "streamEvents",
			Method:      http.MethodGet,
			Path:        apiPathPrefix,
			Summary:     "Stream monitoring events",
			Tags:        []string{"Events"},
		},
		map[string]any{
			string(domain.EventMonitoringStarted):    MonitoringStartedEvent{},
			string(domain.EventHealthCheckCompleted): HealthCheckCompletedEvent{},
			string(domain.EventAlert):                AlertEvent{},
			string(domain.EventMonitoringStopped):    MonitoringStoppedEvent{},
		},
		func(ctx context.Context, _ *struct{}, send sse.Sender) {
			events, cancel := monitor.Subscribe()
			defer cancel()

			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-events:
					if !ok {
						return
					}
					msg, ok := convertEvent(ev)
					if !ok {
						continue
					}
					if err := send.Data(msg); err != nil {
						// The client went away.
						return
					}
				}
			}
		},
	)
}

// convertEvent maps a domain event onto its typed SSE message.
func convertEvent(ev domain.Event) (any, bool) {
	switch ev.Kind {
	case domain.EventMonitoringStarted:
		return MonitoringStartedEvent{
			SessionID: ev.SessionID,
			TargetID:  ev.TargetID,
			Timestamp: ev.Timestamp,
		}, true
	case domain.EventHealthCheckCompleted:
		if ev.Result == nil {
			return nil, false
		}
		return HealthCheckCompletedEvent{
			SessionID: ev.SessionID,
			TargetID:  ev.TargetID,
			Timestamp: ev.Timestamp,
			Result: ProbeResult{
				CheckName:    ev.Result.CheckName,
				Timestamp:    ev.Result.Timestamp,
				Success:      ev.Result.Success,
				ResponseTime: ev.Result.ResponseTime.String(),
				Error:        ev.Result.Err,
				RetryCount:   ev.Result.RetryCount,
				Details:      ev.Result.Details,
			},
		}, true
	case domain.EventAlert:
		if ev.Alert == nil {
			return nil, false
		}
		return AlertEvent{
			SessionID: ev.SessionID,
			TargetID:  ev.TargetID,
			Timestamp: ev.Timestamp,
			Alert: Alert{
				ID:        ev.Alert.ID,
				Severity:  string(ev.Alert.Severity),
				Type:      string(ev.Alert.Type),
				Message:   ev.Alert.Message,
				Timestamp: ev.Alert.Timestamp,
			},
		}, true
	case domain.EventMonitoringStopped:
		msg := MonitoringStoppedEvent{
			SessionID: ev.SessionID,
			TargetID:  ev.TargetID,
			Timestamp: ev.Timestamp,
		}
		if ev.Statistics != nil {
			msg.Statistics = Statistics{
				UptimePercent:     ev.Statistics.UptimePercent,
				MTTF:              ev.Statistics.MTTF.String(),
				MTTR:              ev.Statistics.MTTR.String(),
				AvailabilityScore: ev.Statistics.AvailabilityScore,
				Grade:             string(ev.Statistics.Grade),
				Duration:          ev.Statistics.Duration.String(),
			}
		}
		return msg, true
	default:
		return nil, false
	}
}

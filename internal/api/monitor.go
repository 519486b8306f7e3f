package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/modelwatch/mwd/internal/contracts"
	"github.com/modelwatch/mwd/internal/domain"
)

// DomainSession is a wrapper that allows receivers to be declared in the API
// package that deal with domain types.
type DomainSession domain.Session

// Target identifies one monitored model endpoint.
type Target struct {
	ID       string `doc:"Unique target name"                example:"openai/gpt-4o-mini"                         json:"id"`
	Provider string `doc:"Hosting provider"                  example:"openai"                                     json:"provider"`
	Endpoint string `doc:"Chat completion URL probes are sent to" example:"https://api.openai.com/v1/chat/completions" json:"endpoint"`
	Model    string `doc:"Model identifier sent in probe requests" example:"gpt-4o-mini"                           json:"model"`
}

// Metrics carries a session's accumulated counters plus the derived rates.
type Metrics struct {
	TotalChecks            int64      `json:"totalChecks"`
	SuccessfulChecks       int64      `json:"successfulChecks"`
	FailedChecks           int64      `json:"failedChecks"`
	Uptime                 float64    `json:"uptime"`
	ErrorRate              float64    `json:"errorRate"`
	ConsecutiveFailures    int        `json:"consecutiveFailures"`
	MaxConsecutiveFailures int        `json:"maxConsecutiveFailures"`
	AverageResponseTime    string     `json:"averageResponseTime"`
	LastSuccess            *time.Time `json:"lastSuccess,omitempty"`
	LastFailure            *time.Time `json:"lastFailure,omitempty"`
}

// ProbeResult is one completed health check run.
type ProbeResult struct {
	CheckName    string         `json:"checkName"`
	Timestamp    time.Time      `json:"timestamp"`
	Success      bool           `json:"success"`
	ResponseTime string         `json:"responseTime"`
	Error        string         `json:"error,omitempty"`
	RetryCount   int            `json:"retryCount"`
	Details      map[string]any `json:"details,omitempty"`
}

// Alert is one recorded threshold violation.
type Alert struct {
	ID        string    `json:"id"`
	Severity  string    `json:"severity"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Statistics is the final summary of a stopped session.
type Statistics struct {
	UptimePercent     float64 `json:"uptimePercent"`
	MTTF              string  `json:"mttf"`
	MTTR              string  `json:"mttr"`
	AvailabilityScore float64 `json:"availabilityScore"`
	Grade             string  `json:"grade"`
	Duration          string  `json:"duration"`
}

// Session is the API view of a monitoring session.
type Session struct {
	ID         string        `json:"id"`
	Target     Target        `json:"target"`
	CheckNames []string      `json:"checkNames"`
	Status     string        `json:"status"`
	StartedAt  time.Time     `json:"startedAt"`
	StoppedAt  *time.Time    `json:"stoppedAt,omitempty"`
	Metrics    Metrics       `json:"metrics"`
	Results    []ProbeResult `json:"results,omitempty"`
	Alerts     []Alert       `json:"alerts,omitempty"`
	Statistics *Statistics   `json:"statistics,omitempty"`
}

// StartMonitorRequest is the request for POST /monitor.
type StartMonitorRequest struct {
	Body struct {
		Target Target   `doc:"Endpoint to monitor"                                       json:"target"`
		Checks []string `doc:"Health checks to schedule; empty selects every check" json:"checks,omitempty"`
	}
}

// StopMonitorRequest is the request for DELETE /monitor/{id}.
type StopMonitorRequest struct {
	ID string `doc:"Session ID" path:"id"`
}

// SessionStatusRequest is the request for GET /monitor/{id}.
type SessionStatusRequest struct {
	ID string `doc:"Session ID" path:"id"`
}

// SessionResponse wraps a single session.
type SessionResponse struct {
	Body Session
}

// SessionsResponse wraps the live session list.
type SessionsResponse struct {
	Body struct {
		Sessions []Session `doc:"Live monitoring sessions, oldest first" json:"sessions"`
	}
}

// ToAPIType can be used to convert a wrapped domain type to an API-safe type.
func (d DomainSession) ToAPIType() Session {
	s := Session{
		ID: d.ID,
		Target: Target{
			ID:       d.Target.ID,
			Provider: d.Target.Provider,
			Endpoint: d.Target.Endpoint,
			Model:    d.Target.Model,
		},
		CheckNames: d.CheckNames,
		Status:     string(d.Status),
		StartedAt:  d.StartedAt,
		StoppedAt:  d.StoppedAt,
		Metrics: Metrics{
			TotalChecks:            d.Metrics.TotalChecks(),
			SuccessfulChecks:       d.Metrics.SuccessfulChecks,
			FailedChecks:           d.Metrics.FailedChecks,
			Uptime:                 d.Metrics.Uptime(),
			ErrorRate:              d.Metrics.ErrorRate(),
			ConsecutiveFailures:    d.Metrics.ConsecutiveFailures,
			MaxConsecutiveFailures: d.Metrics.MaxConsecutiveFailures,
			AverageResponseTime:    d.Metrics.AverageResponseTime.String(),
			LastSuccess:            d.Metrics.LastSuccess,
			LastFailure:            d.Metrics.LastFailure,
		},
	}

	for _, r := range d.Results {
		s.Results = append(s.Results, ProbeResult{
			CheckName:    r.CheckName,
			Timestamp:    r.Timestamp,
			Success:      r.Success,
			ResponseTime: r.ResponseTime.String(),
			Error:        r.Err,
			RetryCount:   r.RetryCount,
			Details:      r.Details,
		})
	}

	for _, a := range d.Alerts {
		s.Alerts = append(s.Alerts, Alert{
			ID:        a.ID,
			Severity:  string(a.Severity),
			Type:      string(a.Type),
			Message:   a.Message,
			Timestamp: a.Timestamp,
		})
	}

	if d.Statistics != nil {
		s.Statistics = &Statistics{
			UptimePercent:     d.Statistics.UptimePercent,
			MTTF:              d.Statistics.MTTF.String(),
			MTTR:              d.Statistics.MTTR.String(),
			AvailabilityScore: d.Statistics.AvailabilityScore,
			Grade:             string(d.Statistics.Grade),
			Duration:          d.Statistics.Duration.String(),
		}
	}

	return s
}

// RegisterMonitorRoutes sets up session lifecycle API endpoint routes.
// The collection operations live on apiPathPrefix itself, so paths are built
// explicitly instead of through a sub-group.
func RegisterMonitorRoutes(routerAPI huma.API, monitor contracts.SessionMonitor, apiPathPrefix string) {
	tags := []string{"Monitor"}

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID:   "startMonitoring",
			Method:        http.MethodPost,
			Path:          apiPathPrefix,
			Summary:       "Start monitoring a target",
			Tags:          tags,
			DefaultStatus: http.StatusCreated,
		},
		func(ctx context.Context, input *StartMonitorRequest) (*SessionResponse, error) {
			return handleStartMonitor(monitor, input)
		},
	)

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "listSessions",
			Method:      http.MethodGet,
			Path:        apiPathPrefix,
			Summary:     "List live monitoring sessions",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*SessionsResponse, error) {
			return handleListSessions(monitor)
		},
	)

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "getSessionStatus",
			Method:      http.MethodGet,
			Path:        apiPathPrefix + "/{id}",
			Summary:     "Get the status of a monitoring session",
			Tags:        tags,
		},
		func(ctx context.Context, input *SessionStatusRequest) (*SessionResponse, error) {
			return handleSessionStatus(monitor, input.ID)
		},
	)

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "stopMonitoring",
			Method:      http.MethodDelete,
			Path:        apiPathPrefix + "/{id}",
			Summary:     "Stop a monitoring session",
			Tags:        tags,
		},
		func(ctx context.Context, input *StopMonitorRequest) (*SessionResponse, error) {
			return handleStopMonitor(monitor, input.ID)
		},
	)
}

// handleStartMonitor is the handler for starting a new monitoring session.
func handleStartMonitor(monitor contracts.SessionMonitor, input *StartMonitorRequest) (*SessionResponse, error) {
	target := domain.Target{
		ID:       input.Body.Target.ID,
		Provider: input.Body.Target.Provider,
		Endpoint: input.Body.Target.Endpoint,
		Model:    input.Body.Target.Model,
	}

	session, err := monitor.Start(target, input.Body.Checks)
	if err != nil {
		return nil, err
	}

	return &SessionResponse{Body: DomainSession(session).ToAPIType()}, nil
}

// handleListSessions is the handler for listing all live sessions.
func handleListSessions(monitor contracts.SessionMonitor) (*SessionsResponse, error) {
	sessions := monitor.List()

	apiSessions := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		apiSessions = append(apiSessions, DomainSession(s).ToAPIType())
	}

	resp := &SessionsResponse{}
	resp.Body.Sessions = apiSessions

	return resp, nil
}

// handleSessionStatus is the handler for retrieving one live session.
func handleSessionStatus(monitor contracts.SessionMonitor, id string) (*SessionResponse, error) {
	session, err := monitor.Status(id)
	if err != nil {
		return nil, err
	}

	return &SessionResponse{Body: DomainSession(session).ToAPIType()}, nil
}

// handleStopMonitor is the handler for stopping a session; the response is
// the finalized session including its statistics.
func handleStopMonitor(monitor contracts.SessionMonitor, id string) (*SessionResponse, error) {
	session, err := monitor.Stop(id)
	if err != nil {
		return nil, err
	}

	return &SessionResponse{Body: DomainSession(session).ToAPIType()}, nil
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/modelwatch/mwd/internal/contracts"
	"github.com/modelwatch/mwd/internal/domain"
)

// defaultReportWindow is the reporting range used when the request does not
// bound it.
const defaultReportWindow = 7 * 24 * time.Hour

// DomainReliabilityReport is a wrapper that allows receivers to be declared
// in the API package that deal with domain types.
type DomainReliabilityReport domain.ReliabilityReport

// ReliabilityReport aggregates a target's finished sessions over a time range.
type ReliabilityReport struct {
	TargetID            string    `json:"targetId"`
	From                time.Time `json:"from"`
	To                  time.Time `json:"to"`
	Sessions            int       `json:"sessions"`
	AverageUptime       float64   `json:"averageUptime"`
	AverageResponseTime string    `json:"averageResponseTime"`
	TotalAlerts         int       `json:"totalAlerts"`
	Grade               string    `json:"grade"`
	Trend               string    `json:"trend"`
}

// ReportRequest is the request for GET /reports/{target}.
type ReportRequest struct {
	Target string    `doc:"Target ID to report on"                        example:"openai/gpt-4o-mini" path:"target"`
	From   time.Time `doc:"Range start (RFC 3339); defaults to seven days ago" query:"from"`
	To     time.Time `doc:"Range end (RFC 3339); defaults to now"              query:"to"`
}

// ReportResponse wraps a reliability report.
type ReportResponse struct {
	Body ReliabilityReport
}

// ToAPIType can be used to convert a wrapped domain type to an API-safe type.
func (d DomainReliabilityReport) ToAPIType() ReliabilityReport {
	return ReliabilityReport{
		TargetID:            d.TargetID,
		From:                d.From,
		To:                  d.To,
		Sessions:            d.Sessions,
		AverageUptime:       d.AverageUptime,
		AverageResponseTime: d.AverageResponseTime.String(),
		TotalAlerts:         d.TotalAlerts,
		Grade:               string(d.Grade),
		Trend:               string(d.Trend),
	}
}

// RegisterReportRoutes sets up report-related API endpoint routes.
func RegisterReportRoutes(routerAPI huma.API, store contracts.SessionStore, apiPathPrefix string) {
	reportAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Reports"}

	huma.Register(
		reportAPI,
		huma.Operation{
			OperationID: "getReliabilityReport",
			Method:      http.MethodGet,
			Path:        "/{target}",
			Summary:     "Get a target's cross-session reliability report",
			Tags:        tags,
		},
		func(ctx context.Context, input *ReportRequest) (*ReportResponse, error) {
			return handleReport(ctx, store, input)
		},
	)
}

// handleReport is the handler for generating a reliability report.
func handleReport(ctx context.Context, store contracts.SessionStore, input *ReportRequest) (*ReportResponse, error) {
	from, to := reportRange(input.From, input.To, time.Now().UTC())

	report, err := store.ReportFor(ctx, input.Target, from, to)
	if err != nil {
		return nil, err
	}

	return &ReportResponse{Body: DomainReliabilityReport(report).ToAPIType()}, nil
}

// reportRange fills in defaults for an unbounded report range.
func reportRange(from, to, now time.Time) (time.Time, time.Time) {
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = to.Add(-defaultReportWindow)
	}
	return from, to
}

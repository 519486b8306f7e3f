package domain

import "time"

// Probe request kinds understood by a probe backend.
const (
	ProbeRequestMinimal    ProbeRequestKind = "minimal"
	ProbeRequestCompletion ProbeRequestKind = "completion"
	ProbeRequestInvalid    ProbeRequestKind = "invalid"
)

// ProbeRequestKind selects the shape of the request a probe backend issues.
type ProbeRequestKind string

// ProbeSpec describes one externally visible request a probe backend should
// perform against a target. Retry and timeout handling are not the backend's
// concern; the probe executor adds those.
type ProbeSpec struct {
	// Kind selects the request shape.
	Kind ProbeRequestKind

	// Prompt is the completion prompt, where the kind uses one.
	Prompt string

	// MaxTokens caps the response size requested from the model.
	MaxTokens int
}

// Observation is the raw outcome of a single backend request.
// A transport-level failure is reported as an error by the backend instead;
// an Observation always means the target answered something.
type Observation struct {
	// StatusCode is the protocol status the target answered with.
	StatusCode int

	// Payload is the raw response body.
	Payload []byte
}

// OK reports whether the target accepted and answered the request.
func (o Observation) OK() bool {
	return o.StatusCode >= 200 && o.StatusCode < 300
}

// Rejected reports whether the target refused the request as malformed.
func (o Observation) Rejected() bool {
	return o.StatusCode >= 400 && o.StatusCode < 500
}

// ProbeResult is the immutable record of one completed health check run,
// including any retries that were performed. Results are appended to the
// owning session's history in completion order.
type ProbeResult struct {
	// CheckName is the name of the check that produced this result.
	CheckName string `json:"checkName"`

	// Timestamp is when the run completed.
	Timestamp time.Time `json:"timestamp"`

	// Success reports whether any attempt succeeded.
	Success bool `json:"success"`

	// ResponseTime is the duration of the deciding attempt.
	ResponseTime time.Duration `json:"responseTime"`

	// Err carries the last attempt's error message when Success is false.
	Err string `json:"error,omitempty"`

	// RetryCount is the number of retries performed before settling.
	RetryCount int `json:"retryCount"`

	// Details carries check specific observations, e.g. sub-request counts.
	Details map[string]any `json:"details,omitempty"`
}

package domain

import "time"

// Built-in health check names.
const (
	CheckBasicConnectivity = "basic_connectivity"
	CheckResponseQuality   = "response_quality"
	CheckLoadCapacity      = "load_capacity"
	CheckErrorHandling     = "error_handling"
)

// CheckDefinition describes one kind of health check: how often it runs,
// how long a single attempt may take, and how many retries are allowed.
// Definitions are registered once and read-only afterwards.
type CheckDefinition struct {
	// Name is the unique machine name of the check, e.g. "basic_connectivity".
	Name string

	// DisplayName is a human friendly name for the check.
	DisplayName string

	// Interval is the cadence the check fires at.
	Interval time.Duration

	// Timeout bounds a single probe attempt.
	Timeout time.Duration

	// MaxRetries is the number of additional attempts after a failed one.
	MaxRetries int
}

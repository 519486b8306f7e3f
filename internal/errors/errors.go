// Package errors defines domain-level errors used throughout the application.
// These errors represent business logic failures and are mapped to appropriate HTTP status codes at the API boundary.
//
// NOTE: Important for developers
// When adding a new error here, you MUST consider how it should be handled when returned from API endpoints.
//
// Unmapped errors will default to HTTP 500 Internal Server Error.
//
// Don't forget to:
// 1. Add your error to mapError (internal/api/server.go)
// 2. Add a test case to TestMapError (internal/api/server_test.go)
// 3. Consider if existing handler tests need updates
package errors

import (
	"errors"
)

var (
	// ErrBadRequest indicates that the client provided invalid input or made a malformed request.
	// This typically results from validation failures or incorrect request parameters.
	// Recommended to map to HTTP 400 Bad Request.
	ErrBadRequest = errors.New("bad request")

	// ErrSessionNotFound indicates that the requested monitoring session does not exist.
	// This occurs when operating on a session id that is not in the live session table
	// and not known to the history store.
	// Recommended to map to HTTP 404 Not Found.
	ErrSessionNotFound = errors.New("monitoring session not found")

	// ErrSessionNotRunning indicates that the session exists but has already been stopped.
	// Stopping a session twice is a caller error, never silently ignored.
	// Recommended to map to HTTP 409 Conflict.
	ErrSessionNotRunning = errors.New("monitoring session is not running")

	// ErrUnknownCheck indicates that a health check name is not present in the catalog.
	// Raised synchronously from session start, before any scheduler is registered.
	// Recommended to map to HTTP 400 Bad Request.
	ErrUnknownCheck = errors.New("unknown health check")

	// ErrInvalidThresholds indicates malformed alert threshold configuration,
	// e.g. a warning threshold stricter than its critical counterpart.
	// Recommended to map to HTTP 400 Bad Request.
	ErrInvalidThresholds = errors.New("invalid alert thresholds")

	// ErrProbeTimeout indicates that a single probe attempt exceeded its deadline.
	// It is recorded inside failed probe results and never escapes the scheduler.
	ErrProbeTimeout = errors.New("probe attempt timed out")

	// ErrStoreUnavailable indicates that reading from or writing to the history store failed.
	// Persistence failures during monitoring are logged and non-fatal; monitoring continues in memory.
	// Recommended to map to HTTP 502 Bad Gateway when surfaced by report endpoints.
	ErrStoreUnavailable = errors.New("history store unavailable")
)

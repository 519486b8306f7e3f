package contracts

import (
	"context"
	"time"

	"github.com/modelwatch/mwd/internal/domain"
)

// ProbeBackend performs one externally visible request against a target,
// e.g. a model completion call. Implementations carry no retry or timeout
// logic of their own; the probe executor adds both. A returned error means
// the request could not be completed at the transport level; protocol-level
// rejections are reported through the Observation status instead.
type ProbeBackend interface {
	// Execute issues a single request described by spec against the target.
	Execute(ctx context.Context, target domain.Target, spec domain.ProbeSpec) (domain.Observation, error)
}

// RateLimiter is consulted before a probe attempt is issued, to respect
// provider quotas. Implementations may delay an attempt but never fail it;
// the only permitted error is the context's own cancellation error.
type RateLimiter interface {
	// Acquire blocks until the caller may issue a request to the provider.
	Acquire(ctx context.Context, provider string) error
}

// SessionStore persists finished monitoring sessions and answers
// cross-session queries. Entries are append-only and keyed by session id.
type SessionStore interface {
	// Persist durably writes a finished session.
	Persist(ctx context.Context, session domain.Session) error

	// LoadRecent returns up to limit of the most recently started sessions,
	// newest first.
	LoadRecent(ctx context.Context, limit int) ([]domain.Session, error)

	// ReportFor aggregates the persisted sessions of a target within the
	// given time range into a reliability report.
	ReportFor(ctx context.Context, targetID string, from, to time.Time) (domain.ReliabilityReport, error)
}

// SessionMonitor is the management surface of the monitoring engine,
// consumed by the API layer and the CLI.
type SessionMonitor interface {
	// Start creates a monitoring session for the target and schedules the
	// named health checks. Configuration problems are reported synchronously.
	Start(target domain.Target, checkNames []string) (domain.Session, error)

	// Stop cancels the session's schedulers, finalizes its statistics,
	// persists it and returns the frozen session.
	Stop(sessionID string) (domain.Session, error)

	// Status returns a snapshot of a live session.
	Status(sessionID string) (domain.Session, error)

	// List returns snapshots of all live sessions.
	List() []domain.Session

	// Subscribe returns a channel of monitoring events and a cancel
	// function that releases the subscription.
	Subscribe() (<-chan domain.Event, func())
}

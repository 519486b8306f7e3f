// Package monitor owns monitoring session lifecycles: one cron-backed
// scheduler multiplexes every (session, check) timer, probe completions are
// serialized per session, and finished sessions are handed to the history
// store.
package monitor

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/robfig/cron/v3"

	"github.com/modelwatch/mwd/internal/alert"
	"github.com/modelwatch/mwd/internal/contracts"
	"github.com/modelwatch/mwd/internal/domain"
	"github.com/modelwatch/mwd/internal/errors"
	"github.com/modelwatch/mwd/internal/metrics"
	"github.com/modelwatch/mwd/internal/probe"
	"github.com/modelwatch/mwd/internal/stats"
)

// persistTimeout bounds a single history store write on session stop.
const persistTimeout = 5 * time.Second

// Dependencies contains the collaborators a Manager requires.
type Dependencies struct {
	// Logger for session manager operations.
	Logger hclog.Logger

	// Catalog is the health check registry.
	Catalog *probe.Catalog

	// Executor runs individual checks with retries and timeouts.
	Executor *probe.Executor

	// Evaluator turns metrics updates into alerts.
	Evaluator *alert.Evaluator

	// Store persists finished sessions. Optional: without a store the
	// manager runs in-memory only.
	Store contracts.SessionStore
}

// Validate checks that all required dependencies are present.
func (d Dependencies) Validate() error {
	if d.Logger == nil || reflect.ValueOf(d.Logger).IsNil() {
		return fmt.Errorf("logger cannot be nil")
	}
	if d.Catalog == nil {
		return fmt.Errorf("catalog cannot be nil")
	}
	if d.Executor == nil {
		return fmt.Errorf("executor cannot be nil")
	}
	if d.Evaluator == nil {
		return fmt.Errorf("evaluator cannot be nil")
	}
	return nil
}

// Options contains optional configuration for the Manager.
type Options struct {
	// PromptFireDelay is how soon after registration each check fires for
	// the first time, so signal appears immediately instead of one full
	// interval later.
	PromptFireDelay time.Duration
}

// Option defines a functional option for configuring Options.
type Option func(*Options) error

// WithPromptFireDelay overrides the delay before a newly registered check
// fires for the first time.
func WithPromptFireDelay(d time.Duration) Option {
	return func(o *Options) error {
		if d <= 0 {
			return fmt.Errorf("prompt fire delay must be positive, got %v", d)
		}
		o.PromptFireDelay = d
		return nil
	}
}

func defaultOptions() Options {
	return Options{
		PromptFireDelay: time.Second,
	}
}

// Manager owns the live session table and the shared scheduler.
// NewManager should be used to create instances of Manager.
//
// Duplicate targets are allowed: a second Start for an already monitored
// target creates an independent session with its own schedulers and metrics.
type Manager struct {
	logger    hclog.Logger
	catalog   *probe.Catalog
	executor  *probe.Executor
	evaluator *alert.Evaluator
	store     contracts.SessionStore
	events    *Broadcaster
	cron      *cron.Cron
	opts      Options

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

// NewManager creates a Manager and starts its scheduler.
func NewManager(deps Dependencies, opt ...Option) (*Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for session manager: %w", err)
	}

	opts := defaultOptions()
	for _, o := range opt {
		if o == nil {
			continue
		}
		if err := o(&opts); err != nil {
			return nil, err
		}
	}

	m := &Manager{
		logger:    deps.Logger.Named("monitor"),
		catalog:   deps.Catalog,
		executor:  deps.Executor,
		evaluator: deps.Evaluator,
		store:     deps.Store,
		events:    NewBroadcaster(deps.Logger),
		cron:      cron.New(),
		opts:      opts,
		sessions:  make(map[string]*liveSession),
	}
	m.cron.Start()

	return m, nil
}

// Start creates a monitoring session for the target and registers one
// independent scheduler per requested check. An empty check list selects
// every check in the catalog. Configuration problems (unknown check names)
// are reported synchronously; Start returns as soon as the schedulers are
// registered.
func (m *Manager) Start(target domain.Target, checkNames []string) (domain.Session, error) {
	if target.ID == "" {
		return domain.Session{}, fmt.Errorf("%w: target id cannot be empty", errors.ErrBadRequest)
	}

	if len(checkNames) == 0 {
		checkNames = m.catalog.Names()
	}

	// Resolve definitions and capabilities before touching any state so
	// configuration errors surface before a session exists.
	type scheduled struct {
		def        domain.CheckDefinition
		capability probe.Capability
	}
	checks := make([]scheduled, 0, len(checkNames))
	for _, name := range checkNames {
		def, err := m.catalog.Definition(name)
		if err != nil {
			return domain.Session{}, err
		}
		capability, err := m.catalog.Capability(name)
		if err != nil {
			return domain.Session{}, err
		}
		checks = append(checks, scheduled{def: def, capability: capability})
	}

	ls := &liveSession{
		data: domain.Session{
			ID:         uuid.NewString(),
			Target:     target,
			CheckNames: slices.Clone(checkNames),
			StartedAt:  time.Now().UTC(),
			Status:     domain.SessionRunning,
		},
	}

	for _, c := range checks {
		run := m.checkRunner(ls, c.def, c.capability)
		entryID, err := m.cron.AddFunc(fmt.Sprintf("@every %s", c.def.Interval), run)
		if err != nil {
			m.unschedule(ls)
			return domain.Session{}, fmt.Errorf("failed to schedule check %q: %w", c.def.Name, err)
		}
		ls.entries = append(ls.entries, entryID)

		// Fire promptly once so the first signal does not wait a full interval.
		ls.prompts = append(ls.prompts, time.AfterFunc(m.opts.PromptFireDelay, run))
	}

	m.mu.Lock()
	m.sessions[ls.data.ID] = ls
	m.mu.Unlock()

	m.logger.Info("monitoring started",
		"session", ls.data.ID, "target", target.ID, "checks", checkNames)
	m.events.Publish(domain.Event{
		Kind:      domain.EventMonitoringStarted,
		SessionID: ls.data.ID,
		TargetID:  target.ID,
		Timestamp: time.Now().UTC(),
	})

	return ls.snapshot(), nil
}

// Stop cancels the session's schedulers, finalizes its statistics, persists
// it and removes it from the live table. In-flight probes finish or time out
// naturally; their late results are discarded. Stopping an unknown or
// already stopped session is an error.
func (m *Manager) Stop(sessionID string) (domain.Session, error) {
	m.mu.Lock()
	ls, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if !ok {
		return domain.Session{}, fmt.Errorf("%w: %s", errors.ErrSessionNotFound, sessionID)
	}

	ls.mu.Lock()
	if ls.stopped {
		ls.mu.Unlock()
		return domain.Session{}, fmt.Errorf("%w: %s", errors.ErrSessionNotRunning, sessionID)
	}
	ls.stopped = true
	m.unschedule(ls)

	now := time.Now().UTC()
	ls.data.StoppedAt = &now
	ls.data.Status = domain.SessionStopped
	final := stats.Summarize(ls.data, now)
	ls.data.Statistics = &final
	snapshot := ls.snapshotLocked()
	ls.mu.Unlock()

	if m.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := m.store.Persist(ctx, snapshot); err != nil {
			// Non-fatal: the caller still gets the finalized session, but the
			// durable record may be missing.
			snapshot.Status = domain.SessionFailed
			m.logger.Error("failed to persist finished session",
				"session", sessionID, "target", snapshot.Target.ID, "error", err)
		}
	}

	m.logger.Info("monitoring stopped",
		"session", sessionID, "target", snapshot.Target.ID,
		"checks", snapshot.Metrics.TotalChecks(), "grade", final.Grade)
	m.events.Publish(domain.Event{
		Kind:       domain.EventMonitoringStopped,
		SessionID:  sessionID,
		TargetID:   snapshot.Target.ID,
		Timestamp:  now,
		Statistics: &final,
	})

	return snapshot, nil
}

// Status returns a snapshot of a live session.
func (m *Manager) Status(sessionID string) (domain.Session, error) {
	m.mu.RLock()
	ls, ok := m.sessions[sessionID]
	m.mu.RUnlock()

	if !ok {
		return domain.Session{}, fmt.Errorf("%w: %s", errors.ErrSessionNotFound, sessionID)
	}
	return ls.snapshot(), nil
}

// List returns snapshots of all live sessions, oldest first.
func (m *Manager) List() []domain.Session {
	m.mu.RLock()
	live := make([]*liveSession, 0, len(m.sessions))
	for _, ls := range m.sessions {
		live = append(live, ls)
	}
	m.mu.RUnlock()

	sessions := make([]domain.Session, 0, len(live))
	for _, ls := range live {
		sessions = append(sessions, ls.snapshot())
	}
	slices.SortFunc(sessions, func(a, b domain.Session) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	return sessions
}

// Subscribe returns a channel of monitoring events and a cancel function.
func (m *Manager) Subscribe() (<-chan domain.Event, func()) {
	return m.events.Subscribe()
}

// Close stops every live session and shuts the scheduler down.
func (m *Manager) Close() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		if _, err := m.Stop(id); err != nil {
			m.logger.Error("failed to stop session during shutdown", "session", id, "error", err)
		}
	}

	<-m.cron.Stop().Done()
	m.events.Close()
}

// checkRunner builds the callback one (session, check) timer fires.
func (m *Manager) checkRunner(ls *liveSession, def domain.CheckDefinition, capability probe.Capability) func() {
	return func() {
		ls.mu.Lock()
		stopped := ls.stopped
		target := ls.data.Target
		ls.mu.Unlock()
		if stopped {
			return
		}

		// The executor blocks only this firing; other checks and sessions
		// keep their own cadence. All probe failures come back as data.
		result := m.executor.Run(context.Background(), def, capability, target)

		ls.mu.Lock()
		if ls.stopped {
			// The session was frozen while this probe was in flight.
			ls.mu.Unlock()
			return
		}
		ls.data.Results = append(ls.data.Results, result)
		metrics.Apply(&ls.data.Metrics, result)
		alerts := m.evaluator.Evaluate(ls.data.Metrics, result)
		ls.data.Alerts = append(ls.data.Alerts, alerts...)
		sessionID := ls.data.ID
		ls.mu.Unlock()

		m.events.Publish(domain.Event{
			Kind:      domain.EventHealthCheckCompleted,
			SessionID: sessionID,
			TargetID:  target.ID,
			Timestamp: result.Timestamp,
			Result:    &result,
		})
		for i := range alerts {
			m.logger.Warn("alert raised",
				"session", sessionID, "target", target.ID,
				"type", alerts[i].Type, "severity", alerts[i].Severity, "message", alerts[i].Message)
			m.events.Publish(domain.Event{
				Kind:      domain.EventAlert,
				SessionID: sessionID,
				TargetID:  target.ID,
				Timestamp: alerts[i].Timestamp,
				Alert:     &alerts[i],
			})
		}
	}
}

// unschedule removes the session's cron entries and pending prompt timers.
func (m *Manager) unschedule(ls *liveSession) {
	for _, e := range ls.entries {
		m.cron.Remove(e)
	}
	ls.entries = nil
	for _, t := range ls.prompts {
		t.Stop()
	}
	ls.prompts = nil
}

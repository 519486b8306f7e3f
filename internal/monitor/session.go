package monitor

import (
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/modelwatch/mwd/internal/domain"
)

// liveSession pairs the session data with its scheduler handles and the lock
// that serializes all mutation. Probe completions from different check timers
// are linearized through mu, giving the single-writer discipline the metrics
// aggregator requires.
type liveSession struct {
	mu      sync.Mutex
	data    domain.Session
	entries []cron.EntryID
	prompts []*time.Timer
	stopped bool
}

// snapshotLocked returns a copy of the session safe to hand out.
// Callers must hold mu.
func (ls *liveSession) snapshotLocked() domain.Session {
	s := ls.data
	s.CheckNames = slices.Clone(ls.data.CheckNames)
	s.Results = slices.Clone(ls.data.Results)
	s.Alerts = slices.Clone(ls.data.Alerts)
	if ls.data.Statistics != nil {
		st := *ls.data.Statistics
		s.Statistics = &st
	}
	return s
}

func (ls *liveSession) snapshot() domain.Session {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.snapshotLocked()
}

package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelwatch/mwd/internal/domain"
)

// SessionRecord is the persisted form of a finished monitoring session.
// Frequently queried fields are stored as columns; the full structures are
// kept as JSON so a reloaded session is identical to the finalized one.
type SessionRecord struct {
	SessionID string     `gorm:"primaryKey;column:session_id"`
	TargetID  string     `gorm:"index;column:target_id"`
	Provider  string     `gorm:"column:provider"`
	Status    string     `gorm:"column:status"`
	StartedAt time.Time  `gorm:"index;column:started_at"`
	StoppedAt *time.Time `gorm:"column:stopped_at"`

	SuccessfulChecks  int64   `gorm:"column:successful_checks"`
	FailedChecks      int64   `gorm:"column:failed_checks"`
	TotalAlerts       int     `gorm:"column:total_alerts"`
	AvailabilityScore float64 `gorm:"column:availability_score"`

	Target     []byte `gorm:"column:target_json"`
	CheckNames []byte `gorm:"column:check_names_json"`
	Metrics    []byte `gorm:"column:metrics_json"`
	Results    []byte `gorm:"column:results_json"`
	Alerts     []byte `gorm:"column:alerts_json"`
	Statistics []byte `gorm:"column:statistics_json"`
}

// TableName sets the table name for gorm.
func (SessionRecord) TableName() string {
	return "sessions"
}

func newSessionRecord(s domain.Session) (SessionRecord, error) {
	r := SessionRecord{
		SessionID:        s.ID,
		TargetID:         s.Target.ID,
		Provider:         s.Target.Provider,
		Status:           string(s.Status),
		StartedAt:        s.StartedAt,
		StoppedAt:        s.StoppedAt,
		SuccessfulChecks: s.Metrics.SuccessfulChecks,
		FailedChecks:     s.Metrics.FailedChecks,
		TotalAlerts:      len(s.Alerts),
	}
	if s.Statistics != nil {
		r.AvailabilityScore = s.Statistics.AvailabilityScore
	}

	for _, field := range []struct {
		name string
		dst  *[]byte
		src  any
	}{
		{"target", &r.Target, s.Target},
		{"check names", &r.CheckNames, s.CheckNames},
		{"metrics", &r.Metrics, s.Metrics},
		{"results", &r.Results, s.Results},
		{"alerts", &r.Alerts, s.Alerts},
		{"statistics", &r.Statistics, s.Statistics},
	} {
		data, err := json.Marshal(field.src)
		if err != nil {
			return SessionRecord{}, fmt.Errorf("failed to encode session %s: %s: %w", s.ID, field.name, err)
		}
		*field.dst = data
	}

	return r, nil
}

func (r SessionRecord) toDomain() (domain.Session, error) {
	s := domain.Session{
		ID:        r.SessionID,
		Status:    domain.SessionStatus(r.Status),
		StartedAt: r.StartedAt,
		StoppedAt: r.StoppedAt,
	}

	for _, field := range []struct {
		name string
		src  []byte
		dst  any
	}{
		{"target", r.Target, &s.Target},
		{"check names", r.CheckNames, &s.CheckNames},
		{"metrics", r.Metrics, &s.Metrics},
		{"results", r.Results, &s.Results},
		{"alerts", r.Alerts, &s.Alerts},
		{"statistics", r.Statistics, &s.Statistics},
	} {
		if len(field.src) == 0 {
			continue
		}
		if err := json.Unmarshal(field.src, field.dst); err != nil {
			return domain.Session{}, fmt.Errorf("failed to decode session %s: %s: %w", r.SessionID, field.name, err)
		}
	}

	return s, nil
}

// Package history persists finished monitoring sessions in a SQLite database
// and aggregates them into cross-session reliability reports.
package history

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/hashicorp/go-hclog"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/modelwatch/mwd/internal/domain"
	"github.com/modelwatch/mwd/internal/errors"
	"github.com/modelwatch/mwd/internal/stats"
)

const (
	// reportCacheTTL bounds how stale a memoized reliability report may get.
	// The cache is flushed on every write, so the TTL only matters for
	// sweeping entries of targets nobody asks about anymore.
	reportCacheTTL = 30 * time.Second

	cacheSweepInterval = 5 * time.Minute

	// defaultRecentLimit applies when LoadRecent is called without a positive limit.
	defaultRecentLimit = 20
)

// Store is a SQLite backed session archive.
// NewStore should be used to create instances of Store.
type Store struct {
	logger  hclog.Logger
	db      *gorm.DB
	reports *gocache.Cache
}

// NewStore opens (creating if needed) the SQLite database at path and
// migrates the schema.
func NewStore(path string, logger hclog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history database path cannot be empty")
	}
	if logger == nil || reflect.ValueOf(logger).IsNil() {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database %q: %w", path, err)
	}
	if err := db.AutoMigrate(&SessionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}

	return &Store{
		logger:  logger.Named("history"),
		db:      db,
		reports: gocache.New(reportCacheTTL, cacheSweepInterval),
	}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access history database handle: %w", err)
	}
	return sqlDB.Close()
}

// Persist durably writes a finished session and invalidates memoized reports.
func (s *Store) Persist(ctx context.Context, session domain.Session) error {
	record, err := newSessionRecord(session)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("%w: failed to persist session %s: %w", errors.ErrStoreUnavailable, session.ID, err)
	}

	s.reports.Flush()
	s.logger.Debug("session persisted", "session", session.ID, "target", session.Target.ID)

	return nil
}

// LoadRecent returns up to limit of the most recently started sessions,
// newest first.
func (s *Store) LoadRecent(ctx context.Context, limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	var records []SessionRecord
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load recent sessions: %w", errors.ErrStoreUnavailable, err)
	}

	sessions := make([]domain.Session, 0, len(records))
	for _, r := range records {
		session, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

// ReportFor aggregates the persisted sessions of a target within the given
// time range. Reports over an unchanged history are memoized.
func (s *Store) ReportFor(ctx context.Context, targetID string, from, to time.Time) (domain.ReliabilityReport, error) {
	key := fmt.Sprintf("%s|%d|%d", targetID, from.UnixNano(), to.UnixNano())
	if cached, ok := s.reports.Get(key); ok {
		return cached.(domain.ReliabilityReport), nil
	}

	var records []SessionRecord
	err := s.db.WithContext(ctx).
		Where("target_id = ? AND started_at >= ? AND started_at <= ?", targetID, from, to).
		Order("started_at ASC").
		Find(&records).Error
	if err != nil {
		return domain.ReliabilityReport{}, fmt.Errorf("%w: failed to query sessions for target %s: %w", errors.ErrStoreUnavailable, targetID, err)
	}

	report, err := buildReport(targetID, from, to, records)
	if err != nil {
		return domain.ReliabilityReport{}, err
	}

	s.reports.SetDefault(key, report)

	return report, nil
}

// buildReport folds a chronologically ordered slice of session records into
// one reliability report.
func buildReport(targetID string, from, to time.Time, records []SessionRecord) (domain.ReliabilityReport, error) {
	report := domain.ReliabilityReport{
		TargetID: targetID,
		From:     from,
		To:       to,
		Sessions: len(records),
		Trend:    domain.TrendUnknown,
	}
	if len(records) == 0 {
		return report, nil
	}

	var (
		uptimeSum   float64
		responseSum time.Duration
		scores      = make([]float64, 0, len(records))
	)
	for _, r := range records {
		session, err := r.toDomain()
		if err != nil {
			return domain.ReliabilityReport{}, err
		}

		uptimeSum += session.Metrics.Uptime()
		responseSum += session.Metrics.AverageResponseTime
		report.TotalAlerts += len(session.Alerts)

		// Sessions that stopped cleanly carry a precomputed score; for the
		// rest it is derived from the stored metrics.
		if session.Statistics != nil {
			scores = append(scores, session.Statistics.AvailabilityScore)
		} else {
			scores = append(scores, stats.AvailabilityScore(session.Metrics))
		}
	}

	n := len(records)
	report.AverageUptime = uptimeSum / float64(n)
	report.AverageResponseTime = responseSum / time.Duration(n)
	report.Grade = stats.GradeFor(meanScore(scores))
	report.Trend = stats.Trend(scores)

	return report, nil
}

func meanScore(scores []float64) float64 {
	var total float64
	for _, v := range scores {
		total += v
	}
	return total / float64(len(scores))
}

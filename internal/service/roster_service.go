package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/mentor-api/pkg/database"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
)

const defaultSyncAttempts = 3

type rosterRepository interface {
	Sync(ctx context.Context, lessonID, groupID string) (int64, error)
}

// RosterService keeps participation rows of a lesson in step with the current
// membership of its group.
type RosterService struct {
	repo        rosterRepository
	metrics     *MetricsService
	logger      *zap.Logger
	maxAttempts int
}

// NewRosterService constructs the roster synchronizer.
func NewRosterService(repo rosterRepository, metrics *MetricsService, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{repo: repo, metrics: metrics, logger: logger, maxAttempts: defaultSyncAttempts}
}

// Sync materializes missing rows for current members. It is idempotent and
// never removes rows. Uniqueness conflicts from a concurrent materialization
// are retried.
func (s *RosterService) Sync(ctx context.Context, lessonID, groupID string) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		start := time.Now()
		inserted, err := s.repo.Sync(ctx, lessonID, groupID)
		s.metrics.ObserveDBQuery("roster_sync", time.Since(start))
		if err == nil {
			s.metrics.AddRosterInserted(inserted)
			if inserted > 0 {
				s.logger.Debug("roster synchronized",
					zap.String("lesson_id", lessonID),
					zap.String("group_id", groupID),
					zap.Int64("inserted", inserted))
			}
			return inserted, nil
		}
		if !database.IsUniqueViolation(err) {
			return 0, appErrors.Persistence(err, "failed to synchronize lesson roster")
		}
		lastErr = err
		s.metrics.IncRosterRetry()
		s.logger.Warn("roster sync conflict, retrying",
			zap.String("lesson_id", lessonID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
	return 0, appErrors.Wrap(lastErr, appErrors.ErrConstraintViolation.Code, appErrors.ErrConstraintViolation.Status, "lesson roster kept conflicting")
}

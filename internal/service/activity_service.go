package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/step-lms-api/internal/models"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
	"github.com/noah-isme/step-lms-api/pkg/jobs"
)

// ActivityJobType is the queue job type carrying a *models.Activity.
const ActivityJobType = "activity.record"

const (
	defaultRecentActivities = 20
	maxRecentActivities     = 100
)

type activityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	ListRecent(ctx context.Context, limit int) ([]models.Activity, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ActivityRecorder is what write paths depend on to append feed entries.
type ActivityRecorder interface {
	Record(ctx context.Context, actor *string, action, description string)
}

// ActivityService appends to and reads the activity feed. Writes go through
// the job queue when one is attached and fall back to a direct insert.
type ActivityService struct {
	repo   activityRepository
	queue  jobEnqueuer
	logger *zap.Logger
}

// NewActivityService constructs an ActivityService. queue may be nil.
func NewActivityService(repo activityRepository, queue jobEnqueuer, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, queue: queue, logger: logger}
}

// Record appends an entry. Failures are logged, never returned: the feed is
// informational and must not fail the write that produced it.
func (s *ActivityService) Record(ctx context.Context, actor *string, action, description string) {
	if s == nil || s.repo == nil {
		return
	}
	activity := &models.Activity{ID: uuid.NewString(), Actor: actor, Action: action, Description: description}

	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{ID: activity.ID, Type: ActivityJobType, Payload: activity})
		if err == nil {
			return
		}
		s.logger.Warn("activity enqueue failed, writing inline", zap.String("action", action), zap.Error(err))
	}
	if err := s.repo.Create(ctx, activity); err != nil {
		s.logger.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
}

// HandleJob is the queue handler for ActivityJobType.
func (s *ActivityService) HandleJob(ctx context.Context, job jobs.Job) error {
	activity, ok := job.Payload.(*models.Activity)
	if !ok {
		return fmt.Errorf("activity job %s: unexpected payload %T", job.ID, job.Payload)
	}
	return s.repo.Create(ctx, activity)
}

// Recent returns the newest entries. limit defaults to 20 and is clamped to 1..100.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	items, err := s.repo.ListRecent(ctx, ClampActivityLimit(limit))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent activities")
	}
	return items, nil
}

// ClampActivityLimit normalises a requested feed size.
func ClampActivityLimit(limit int) int {
	switch {
	case limit == 0:
		return defaultRecentActivities
	case limit < 1:
		return 1
	case limit > maxRecentActivities:
		return maxRecentActivities
	default:
		return limit
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/step-lms-api/internal/dto"
	"github.com/noah-isme/step-lms-api/internal/models"
	"github.com/noah-isme/step-lms-api/internal/repository"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
)

// NoPlacementsMessage is returned for an empty finalize batch.
const NoPlacementsMessage = "No placements to save."

type placementRepository interface {
	ClassesWithStudents(ctx context.Context) ([]models.ClassStudentRow, error)
	Apply(ctx context.Context, items []models.PlacementItem, mode models.BulkOperationMode) (*repository.PlacementOutcome, error)
}

type unassignedStudentLister interface {
	ListUnassigned(ctx context.Context) ([]models.Student, error)
}

// PlacementConfig carries the defaults of the placement flow.
type PlacementConfig struct {
	DefaultCapacity int
	TempIDPrefix    string
	DefaultMode     models.BulkOperationMode
}

// PlacementService serves the bucket views and persists finalize batches.
type PlacementService struct {
	repo       placementRepository
	students   unassignedStudentLister
	cache      *CacheService
	activities ActivityRecorder
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        PlacementConfig
}

// NewPlacementService constructs a PlacementService. cache, activities and
// metrics are optional.
func NewPlacementService(repo placementRepository, students unassignedStudentLister, cache *CacheService, activities ActivityRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg PlacementConfig) *PlacementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultCapacity <= 0 {
		cfg.DefaultCapacity = models.DefaultClassCapacity
	}
	if cfg.TempIDPrefix == "" {
		cfg.TempIDPrefix = "temp-"
	}
	if !cfg.DefaultMode.Valid() {
		cfg.DefaultMode = models.BulkModeAtomic
	}
	return &PlacementService{
		repo:       repo,
		students:   students,
		cache:      cache,
		activities: activities,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// ClassBuckets returns every class with its nested roster.
func (s *PlacementService) ClassBuckets(ctx context.Context) ([]models.ClassBucket, error) {
	rows, err := s.repo.ClassesWithStudents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes with students")
	}
	return models.FoldClassRows(rows, s.cfg.DefaultCapacity), nil
}

// Unassigned returns the students not placed in a sectioned class.
func (s *PlacementService) Unassigned(ctx context.Context) ([]models.Student, error) {
	students, err := s.students.ListUnassigned(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unassigned students")
	}
	return students, nil
}

// Finalize writes a batch of placements. Pairs carrying a client-only
// temporary id, or naming a student that no longer exists, are skipped. In
// atomic mode a pair whose statement fails rejects the whole batch with
// PLACEMENT_FAILED naming that pair.
func (s *PlacementService) Finalize(ctx context.Context, req dto.FinalizePlacementRequest, actor *string) (*models.PlacementResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}

	mode := s.cfg.DefaultMode
	if req.Mode != "" {
		mode = models.BulkOperationMode(req.Mode)
	}

	result := &models.PlacementResult{
		Mode:    mode,
		Skipped: make([]string, 0),
		Failed:  make([]models.PlacementFailure, 0),
	}

	items := make([]models.PlacementItem, 0, len(req.Placements))
	for _, item := range req.Placements {
		if strings.HasPrefix(item.StudentID, s.cfg.TempIDPrefix) {
			result.Skipped = append(result.Skipped, item.StudentID)
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return result, nil
	}

	outcome, err := s.repo.Apply(ctx, items, mode)
	if err != nil {
		s.metrics.ObservePlacementBatch(mode, nil, err)
		var itemErr *repository.PlacementItemError
		if errors.As(err, &itemErr) {
			s.logger.Warn("placement batch rejected",
				zap.String("student_id", itemErr.Item.StudentID),
				zap.String("class_name", itemErr.Item.ClassName),
				zap.Error(itemErr.Err))
			rejected := appErrors.Clone(appErrors.ErrPlacementFailed,
				fmt.Sprintf("could not place student %s into %s", itemErr.Item.StudentID, itemErr.Item.ClassName))
			return nil, appErrors.WithDetails(rejected, models.PlacementFailure{
				StudentID: itemErr.Item.StudentID,
				ClassName: itemErr.Item.ClassName,
				Reason:    itemErr.Err.Error(),
			})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save placements")
	}

	applied, failed := outcome.Applied, outcome.Failures
	result.Applied = applied
	result.Failed = failed
	result.Skipped = append(result.Skipped, outcome.Missing...)
	if len(outcome.Missing) > 0 {
		s.logger.Warn("placements named missing students", zap.Strings("student_ids", outcome.Missing))
	}
	s.metrics.ObservePlacementBatch(mode, result, nil)

	if applied > 0 {
		_ = s.cache.Invalidate(ctx, DashboardCachePattern)
		if s.activities != nil {
			s.activities.Record(ctx, actor, models.ActivityPlacementFinalized,
				fmt.Sprintf("Placements finalized: %d applied, %d failed", applied, len(failed)))
		}
	}
	s.logger.Info("placements finalized",
		zap.String("mode", string(mode)),
		zap.Int("applied", applied),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("failed", len(failed)))
	return result, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/step-lms-api/internal/models"
	"github.com/noah-isme/step-lms-api/internal/repository"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
)

// Messages surfaced to the class management UI.
const (
	MsgClassFieldsRequired = "Class Name and Room Number are required."
	MsgClassNameTaken      = "Class name already exists!"
	MsgTeacherMissing      = "Selected teacher does not exist."
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	DeleteAndUnassign(ctx context.Context, id string) (int64, error)
}

// CreateClassRequest captures creation payload.
type CreateClassRequest struct {
	ClassName  string `json:"className"`
	RoomNumber string `json:"roomNumber"`
	TeacherID  string `json:"teacherId"`
	Capacity   *int   `json:"capacity"`
}

// ClassService coordinates class operations.
type ClassService struct {
	repo       classRepository
	cache      *CacheService
	activities ActivityRecorder
	logger     *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(repo classRepository, cache *CacheService, activities ActivityRecorder, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, cache: cache, activities: activities, logger: logger}
}

// List returns classes whose name contains filter.Search.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, error) {
	classes, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Create adds a class. A teacher id of "" or "none" leaves the class without
// a homeroom teacher.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest, actor *string) (*models.Class, error) {
	name := strings.TrimSpace(req.ClassName)
	room := strings.TrimSpace(req.RoomNumber)
	if name == "" || room == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, MsgClassFieldsRequired)
	}
	if req.Capacity != nil && *req.Capacity < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "capacity must be positive")
	}

	class := &models.Class{ClassName: name, RoomNumber: room, Capacity: req.Capacity}
	if teacher := strings.TrimSpace(req.TeacherID); teacher != "" && !strings.EqualFold(teacher, "none") {
		class.HomeroomTeacherID = &teacher
	}

	if err := s.repo.Create(ctx, class); err != nil {
		switch {
		case repository.IsUniqueViolation(err):
			return nil, appErrors.Clone(appErrors.ErrConflict, MsgClassNameTaken)
		case repository.IsForeignKeyViolation(err):
			return nil, appErrors.Clone(appErrors.ErrInvalidReference, MsgTeacherMissing)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}

	_ = s.cache.Invalidate(ctx, DashboardCachePattern)
	if s.activities != nil {
		s.activities.Record(ctx, actor, models.ActivityClassCreated, fmt.Sprintf("Class %s created in room %s", class.ClassName, class.RoomNumber))
	}
	return class, nil
}

// Delete removes a class and returns its students to the generic grade pool.
func (s *ClassService) Delete(ctx context.Context, id string, actor *string) error {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	reset, err := s.repo.DeleteAndUnassign(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}

	s.logger.Info("class deleted", zap.String("class_id", id), zap.String("class_name", class.ClassName), zap.Int64("students_unassigned", reset))
	_ = s.cache.Invalidate(ctx, DashboardCachePattern)
	if s.activities != nil {
		s.activities.Record(ctx, actor, models.ActivityClassDeleted,
			fmt.Sprintf("Class %s deleted, %d students returned to %s", class.ClassName, reset, models.GenericGradeLabel(class.ClassName)))
	}
	return nil
}

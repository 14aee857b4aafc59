package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/step-lms-api/internal/models"
	"github.com/noah-isme/step-lms-api/internal/repository"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context) ([]models.Teacher, error)
	ListAvailableForHomeroom(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

// CreateTeacherRequest represents payload for creating teachers.
type CreateTeacherRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Subject        string `json:"subject" validate:"omitempty,max=100"`
	EmploymentType string `json:"employmentType" validate:"omitempty,oneof=Full-Time Part-Time"`
}

// TeacherService orchestrates teacher operations.
type TeacherService struct {
	repo       teacherRepository
	cache      *CacheService
	activities ActivityRecorder
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, cache *CacheService, activities ActivityRecorder, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, cache: cache, activities: activities, validator: validate, logger: logger}
}

// Faculty lists every teacher ordered by name.
func (s *TeacherService) Faculty(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	return teachers, nil
}

// AvailableForHomeroom lists active teachers without a homeroom class.
func (s *TeacherService) AvailableForHomeroom(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.repo.ListAvailableForHomeroom(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available teachers")
	}
	return teachers, nil
}

// Create registers an active teacher.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest, actor *string) (*models.Teacher, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Name and email are required.")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher := &models.Teacher{
		Name:           req.Name,
		Email:          strings.ToLower(req.Email),
		EmploymentType: models.EmploymentFullTime,
		Status:         models.TeacherStatusActive,
	}
	if req.EmploymentType != "" {
		teacher.EmploymentType = req.EmploymentType
	}
	if subject := strings.TrimSpace(req.Subject); subject != "" {
		teacher.SubjectSpecialty = &subject
	}

	if err := s.repo.Create(ctx, teacher); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Teacher email already exists.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	_ = s.cache.Invalidate(ctx, DashboardCachePattern)
	if s.activities != nil {
		s.activities.Record(ctx, actor, models.ActivityTeacherCreated, fmt.Sprintf("Teacher %s joined the faculty", teacher.Name))
	}
	return teacher, nil
}

// Delete removes a teacher; classes they led lose their homeroom link.
func (s *TeacherService) Delete(ctx context.Context, id string, actor *string) error {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}

	_ = s.cache.Invalidate(ctx, DashboardCachePattern)
	if s.activities != nil {
		s.activities.Record(ctx, actor, models.ActivityTeacherDeleted, fmt.Sprintf("Teacher %s removed", teacher.Name))
	}
	return nil
}

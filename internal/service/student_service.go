package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/step-lms-api/internal/dto"
	"github.com/noah-isme/step-lms-api/internal/models"
	"github.com/noah-isme/step-lms-api/internal/repository"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
	"github.com/noah-isme/step-lms-api/pkg/export"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	CreateBatch(ctx context.Context, students []models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
	GPAHistory(ctx context.Context, studentID string) ([]models.GPARecord, error)
	SubjectScores(ctx context.Context, studentID string) ([]models.SubjectScore, error)
	FocusAreas(ctx context.Context, studentID string) ([]models.FocusArea, error)
	HomeroomTeacher(ctx context.Context, className string) (*models.Teacher, error)
	Performance(ctx context.Context, studentID string) (*models.StudentPerformance, error)
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	Name          string  `json:"name" validate:"required"`
	Email         string  `json:"email" validate:"required,email"`
	EnrolledClass *string `json:"enrolledClass"`
	Status        string  `json:"status" validate:"omitempty,oneof=active inactive pending"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	Name          string  `json:"name" validate:"required"`
	Email         string  `json:"email" validate:"required,email"`
	EnrolledClass *string `json:"enrolledClass"`
	Status        string  `json:"status" validate:"required,oneof=active inactive pending"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo          studentRepository
	cache         *CacheService
	activities    ActivityRecorder
	validator     *validator.Validate
	logger        *zap.Logger
	maxImportRows int
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache *CacheService, activities ActivityRecorder, validate *validator.Validate, logger *zap.Logger, maxImportRows int) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxImportRows <= 0 {
		maxImportRows = 1000
	}
	return &StudentService{repo: repo, cache: cache, activities: activities, validator: validate, logger: logger, maxImportRows: maxImportRows}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest, actor *string) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Email already exists.")
	}

	student := &models.Student{
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		EnrolledClass: normaliseLabel(req.EnrolledClass),
		Status:        models.StudentStatus(req.Status),
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Email already exists.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	_ = s.cache.Invalidate(ctx, DashboardCachePattern)
	if s.activities != nil {
		s.activities.Record(ctx, actor, models.ActivityStudentCreated, fmt.Sprintf("Student %s enrolled", student.Name))
	}
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Email already exists.")
	}

	student.Name = strings.TrimSpace(req.Name)
	student.Email = strings.ToLower(strings.TrimSpace(req.Email))
	student.EnrolledClass = normaliseLabel(req.EnrolledClass)
	student.Status = models.StudentStatus(req.Status)
	if err := s.repo.Update(ctx, student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student record.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	_ = s.cache.Invalidate(ctx, DashboardCachePattern)
	return nil
}

// Import reads the first sheet of an xlsx workbook with name, email and
// optional class columns and inserts the valid rows in one transaction.
// defaultClass labels rows without a class cell.
func (s *StudentService) Import(ctx context.Context, r io.Reader, defaultClass string, actor *string) (*dto.ImportStudentsResult, error) {
	data, err := export.ReadXLSX(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "could not read spreadsheet")
	}
	if !hasHeader(data.Headers, "name") || !hasHeader(data.Headers, "email") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "spreadsheet must have name and email columns")
	}
	if len(data.Rows) > s.maxImportRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("spreadsheet has %d rows, the limit is %d", len(data.Rows), s.maxImportRows))
	}

	result := &dto.ImportStudentsResult{}
	seen := make(map[string]struct{}, len(data.Rows))
	students := make([]models.Student, 0, len(data.Rows))
	for i, row := range data.Rows {
		line := i + 2
		name := row["name"]
		email := strings.ToLower(row["email"])
		if name == "" || email == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: name and email are required", line))
			continue
		}
		if err := s.validator.Var(email, "email"); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid email %q", line, email))
			continue
		}
		if _, dup := seen[email]; dup {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: duplicate email %s", line, email))
			continue
		}
		seen[email] = struct{}{}

		class := row["class"]
		if class == "" {
			class = strings.TrimSpace(defaultClass)
		}
		students = append(students, models.Student{Name: name, Email: email, EnrolledClass: normaliseLabel(&class)})
	}

	if err := s.repo.CreateBatch(ctx, students); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "One or more emails already exist.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import students")
	}
	result.Imported = len(students)

	if result.Imported > 0 {
		_ = s.cache.Invalidate(ctx, DashboardCachePattern)
		if s.activities != nil {
			s.activities.Record(ctx, actor, models.ActivityStudentsImported, fmt.Sprintf("%d students imported", result.Imported))
		}
	}
	return result, nil
}

// Dashboard assembles the student landing page. Only the profile is
// mandatory; every other section degrades to an empty value on failure.
func (s *StudentService) Dashboard(ctx context.Context, id string) (*dto.StudentDashboardResponse, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &dto.StudentDashboardResponse{
		Profile:    *student,
		GPAHistory: []models.GPARecord{},
		Subjects:   []models.SubjectScore{},
		FocusAreas: []models.FocusArea{},
	}
	log := s.logger.With(zap.String("student_id", id))

	if student.EnrolledClass != nil && *student.EnrolledClass != "" {
		teacher, err := s.repo.HomeroomTeacher(ctx, *student.EnrolledClass)
		if err != nil {
			log.Warn("homeroom teacher unavailable", zap.Error(err))
		} else {
			resp.Teacher = teacher
		}
	}
	if history, err := s.repo.GPAHistory(ctx, id); err != nil {
		log.Warn("gpa history unavailable", zap.Error(err))
	} else {
		resp.GPAHistory = history
	}
	if subjects, err := s.repo.SubjectScores(ctx, id); err != nil {
		log.Warn("subject scores unavailable", zap.Error(err))
	} else {
		resp.Subjects = subjects
	}
	if areas, err := s.repo.FocusAreas(ctx, id); err != nil {
		log.Warn("focus areas unavailable", zap.Error(err))
	} else {
		resp.FocusAreas = areas
	}
	return resp, nil
}

// Performance returns attendance, GPA and standing for a student.
func (s *StudentService) Performance(ctx context.Context, id string) (*models.StudentPerformance, error) {
	perf, err := s.repo.Performance(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load performance")
	}
	return perf, nil
}

func normaliseLabel(label *string) *string {
	if label == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*label)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func hasHeader(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}

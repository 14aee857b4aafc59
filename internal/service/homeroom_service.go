package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/step-lms-api/internal/dto"
	"github.com/noah-isme/step-lms-api/internal/models"
	"github.com/noah-isme/step-lms-api/internal/repository"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
)

const (
	attendanceDateLayout = "2006-01-02"
	absenteeLimit        = 3
)

// MsgNoStudents is returned when mark-all receives an empty roster.
const MsgNoStudents = "No students"

type homeroomStore interface {
	Roster(ctx context.Context, className string, date time.Time) ([]models.RosterEntry, error)
	Absentees(ctx context.Context, className string, limit int) ([]models.Absentee, error)
}

type attendanceStore interface {
	Upsert(ctx context.Context, record models.Attendance) error
	MarkAllPresent(ctx context.Context, studentIDs []string, date time.Time) (int64, error)
}

// HomeroomService serves the homeroom teacher roster and attendance taking.
type HomeroomService struct {
	roster     homeroomStore
	attendance attendanceStore
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewHomeroomService builds a HomeroomService.
func NewHomeroomService(roster homeroomStore, attendance attendanceStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *HomeroomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HomeroomService{
		roster:     roster,
		attendance: attendance,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
}

// Roster lists the class with each student's status on date (YYYY-MM-DD,
// today when empty).
func (s *HomeroomService) Roster(ctx context.Context, className, date string) ([]models.RosterEntry, error) {
	className = strings.TrimSpace(className)
	if className == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class name is required")
	}
	day, err := s.parseDate(date)
	if err != nil {
		return nil, err
	}
	entries, err := s.roster.Roster(ctx, className, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homeroom roster")
	}
	return entries, nil
}

// Absentees returns the three most absent students of the class.
func (s *HomeroomService) Absentees(ctx context.Context, className string) ([]models.Absentee, error) {
	rows, err := s.roster.Absentees(ctx, strings.TrimSpace(className), absenteeLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absentees")
	}
	return rows, nil
}

// RecordAttendance stores one student's status for a day, replacing any
// earlier entry.
func (s *HomeroomService) RecordAttendance(ctx context.Context, req dto.RecordAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	day, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	record := models.Attendance{StudentID: req.StudentID, Date: day, Status: models.AttendanceStatus(req.Status)}
	if err := s.attendance.Upsert(ctx, record); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrInvalidReference, "student does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	_ = s.cache.Invalidate(ctx, DashboardCachePattern)
	return &record, nil
}

// MarkAllPresent marks every listed student present. An empty list writes
// nothing and reports zero.
func (s *HomeroomService) MarkAllPresent(ctx context.Context, req dto.MarkAllPresentRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if len(req.StudentIDs) == 0 {
		return 0, nil
	}
	day, err := s.parseDate(req.Date)
	if err != nil {
		return 0, err
	}
	n, err := s.attendance.MarkAllPresent(ctx, req.StudentIDs, day)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return 0, appErrors.Clone(appErrors.ErrInvalidReference, "one or more students do not exist")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}
	s.logger.Info("attendance marked present", zap.Int64("students", n), zap.String("date", day.Format(attendanceDateLayout)))
	_ = s.cache.Invalidate(ctx, DashboardCachePattern)
	return n, nil
}

func (s *HomeroomService) parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		now := s.now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse(attendanceDateLayout, value)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
	}
	return day, nil
}

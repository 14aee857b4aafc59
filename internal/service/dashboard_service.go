package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/step-lms-api/internal/dto"
	"github.com/noah-isme/step-lms-api/internal/models"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
)

type dashboardRepository interface {
	Settings(ctx context.Context) (*models.SchoolSettings, error)
	SaveSettings(ctx context.Context, settings models.SchoolSettings) error
	FacultyStats(ctx context.Context) (models.FacultyStats, error)
	CountStudents(ctx context.Context) (int, error)
	CountClasses(ctx context.Context) (int, error)
	AverageAttendance(ctx context.Context) (float64, error)
}

type recentActivityReader interface {
	ListRecent(ctx context.Context, limit int) ([]models.Activity, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL    time.Duration
	RecentLimit int
}

// DashboardService composes the principal dashboard.
type DashboardService struct {
	repo       dashboardRepository
	activities recentActivityReader
	recorder   ActivityRecorder
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        DashboardServiceConfig
}

// NewDashboardService builds a DashboardService.
func NewDashboardService(repo dashboardRepository, activities recentActivityReader, recorder ActivityRecorder, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 3
	}
	return &DashboardService{
		repo:       repo,
		activities: activities,
		recorder:   recorder,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// Principal returns the principal dashboard and whether it came from cache.
func (s *DashboardService) Principal(ctx context.Context) (*dto.PrincipalDashboardResponse, bool, error) {
	var cached dto.PrincipalDashboardResponse
	if hit, err := s.cache.Get(ctx, DashboardCacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	resp, degraded := s.load(ctx)
	if !degraded {
		_ = s.cache.Set(ctx, DashboardCacheKey, resp, s.cfg.CacheTTL)
	}
	return resp, false, nil
}

// load runs every section concurrently. A failing section is logged and
// left at its default, and degraded reports that one did so the partial
// result is not cached.
func (s *DashboardService) load(ctx context.Context) (*dto.PrincipalDashboardResponse, bool) {
	resp := &dto.PrincipalDashboardResponse{
		AcademicYearSettings: models.DefaultSchoolSettings(),
		RecentActivities:     []models.Activity{},
	}

	var (
		wg       sync.WaitGroup
		degraded int32
	)
	run := func(label string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := fn()
			s.metrics.ObserveDBQuery("dashboard_"+label, time.Since(start))
			if err != nil {
				atomic.StoreInt32(&degraded, 1)
				s.logger.Warn("dashboard section unavailable", zap.String("section", label), zap.Error(err))
			}
		}()
	}

	run("settings", func() error {
		settings, err := s.repo.Settings(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		resp.AcademicYearSettings = *settings
		return nil
	})
	run("faculty", func() error {
		stats, err := s.repo.FacultyStats(ctx)
		if err != nil {
			return err
		}
		resp.FacultyStats = stats
		return nil
	})
	run("students", func() error {
		n, err := s.repo.CountStudents(ctx)
		if err != nil {
			return err
		}
		resp.QuickStats.EnrolledStudents = n
		return nil
	})
	run("classes", func() error {
		n, err := s.repo.CountClasses(ctx)
		if err != nil {
			return err
		}
		resp.QuickStats.ActiveClasses = n
		return nil
	})
	run("attendance", func() error {
		avg, err := s.repo.AverageAttendance(ctx)
		if err != nil {
			return err
		}
		resp.QuickStats.AvgAttendance = avg
		return nil
	})
	run("activities", func() error {
		items, err := s.activities.ListRecent(ctx, s.cfg.RecentLimit)
		if err != nil {
			return err
		}
		resp.RecentActivities = items
		return nil
	})
	wg.Wait()

	return resp, atomic.LoadInt32(&degraded) == 1
}

// UpdateSettings replaces the academic year settings and drops the cached dashboard.
func (s *DashboardService) UpdateSettings(ctx context.Context, req dto.UpdateAcademicSettingsRequest, actor *string) (*models.SchoolSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}
	settings := models.SchoolSettings{
		AcademicYear:     req.AcademicYear,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		TotalWorkingDays: req.WorkingDays,
		Holidays:         req.Holidays,
	}
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save settings")
	}
	_ = s.cache.Invalidate(ctx, DashboardCachePattern)
	if s.recorder != nil {
		s.recorder.Record(ctx, actor, models.ActivitySettingsUpdated, fmt.Sprintf("Academic year set to %s", settings.AcademicYear))
	}
	return &settings, nil
}

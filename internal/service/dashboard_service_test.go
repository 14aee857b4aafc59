package service

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/step-lms-api/internal/dto"
	"github.com/noah-isme/step-lms-api/internal/models"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
)

type mockDashboardRepo struct {
	settings    *models.SchoolSettings
	saved       *models.SchoolSettings
	countErr    error
	loads       int32
	attendance  float64
	studentsCnt int
}

func (m *mockDashboardRepo) Settings(ctx context.Context) (*models.SchoolSettings, error) {
	atomic.AddInt32(&m.loads, 1)
	if m.settings == nil {
		return nil, sql.ErrNoRows
	}
	return m.settings, nil
}

func (m *mockDashboardRepo) SaveSettings(ctx context.Context, settings models.SchoolSettings) error {
	m.saved = &settings
	return nil
}

func (m *mockDashboardRepo) FacultyStats(ctx context.Context) (models.FacultyStats, error) {
	return models.FacultyStats{Total: 4, FullTime: 3, PartTime: 1}, nil
}

func (m *mockDashboardRepo) CountStudents(ctx context.Context) (int, error) {
	return m.studentsCnt, m.countErr
}

func (m *mockDashboardRepo) CountClasses(ctx context.Context) (int, error) {
	return 2, nil
}

func (m *mockDashboardRepo) AverageAttendance(ctx context.Context) (float64, error) {
	return m.attendance, nil
}

type mockRecentActivities struct {
	limit int32
}

func (m *mockRecentActivities) ListRecent(ctx context.Context, limit int) ([]models.Activity, error) {
	atomic.StoreInt32(&m.limit, int32(limit))
	return []models.Activity{{ID: "a1", Action: models.ActivityClassCreated}}, nil
}

func TestDashboardServicePrincipalUsesDefaultSettings(t *testing.T) {
	repo := &mockDashboardRepo{studentsCnt: 120, attendance: 93.5}
	activities := &mockRecentActivities{}
	svc := NewDashboardService(repo, activities, nil, nil, NewMetricsService(), nil, nil, DashboardServiceConfig{})

	resp, hit, err := svc.Principal(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.DefaultSchoolSettings(), resp.AcademicYearSettings)
	assert.Equal(t, 4, resp.FacultyStats.Total)
	assert.Equal(t, 120, resp.QuickStats.EnrolledStudents)
	assert.Equal(t, 2, resp.QuickStats.ActiveClasses)
	assert.InDelta(t, 93.5, resp.QuickStats.AvgAttendance, 0.001)
	assert.Len(t, resp.RecentActivities, 1)
	assert.EqualValues(t, 3, atomic.LoadInt32(&activities.limit))
}

func TestDashboardServicePrincipalServesCache(t *testing.T) {
	repo := &mockDashboardRepo{settings: &models.SchoolSettings{AcademicYear: "2025-2026", StartDate: "2025-07-14"}}
	cache := NewCacheService(&fakeCacheRepo{}, nil, 0, nil, true)
	svc := NewDashboardService(repo, &mockRecentActivities{}, nil, cache, nil, nil, nil, DashboardServiceConfig{})

	first, hit, err := svc.Principal(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := svc.Principal(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.AcademicYearSettings, second.AcademicYearSettings)
	assert.EqualValues(t, 1, atomic.LoadInt32(&repo.loads))
}

func TestDashboardServicePrincipalKeepsOtherSectionsOnError(t *testing.T) {
	repo := &mockDashboardRepo{countErr: errors.New("students table locked"), attendance: 88}
	cacheRepo := &fakeCacheRepo{}
	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewDashboardService(repo, &mockRecentActivities{}, nil, NewCacheService(cacheRepo, nil, 0, nil, true), nil, nil, zap.New(core), DashboardServiceConfig{})

	resp, hit, err := svc.Principal(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Zero(t, resp.QuickStats.EnrolledStudents)
	assert.Equal(t, 2, resp.QuickStats.ActiveClasses)
	assert.InDelta(t, 88, resp.QuickStats.AvgAttendance, 0.001)
	assert.Equal(t, 4, resp.FacultyStats.Total)
	assert.Equal(t, models.DefaultSchoolSettings(), resp.AcademicYearSettings)
	assert.Len(t, resp.RecentActivities, 1)

	entries := logs.FilterMessage("dashboard section unavailable").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "students", entries[0].ContextMap()["section"])
	assert.Empty(t, cacheRepo.store)
}

func TestDashboardServiceUpdateSettingsInvalidatesCache(t *testing.T) {
	repo := &mockDashboardRepo{}
	cacheRepo := &fakeCacheRepo{}
	recorder := &fakeRecorder{}
	svc := NewDashboardService(repo, &mockRecentActivities{}, recorder, NewCacheService(cacheRepo, nil, 0, nil, true), nil, nil, nil, DashboardServiceConfig{})

	days := 190
	settings, err := svc.UpdateSettings(context.Background(), dto.UpdateAcademicSettingsRequest{
		AcademicYear: "2026-2027",
		StartDate:    "2026-07-13",
		WorkingDays:  &days,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-2027", settings.AcademicYear)
	require.NotNil(t, repo.saved)
	assert.Equal(t, 190, *repo.saved.TotalWorkingDays)
	assert.Equal(t, []string{DashboardCachePattern}, cacheRepo.invalidated)
	assert.Equal(t, []string{models.ActivitySettingsUpdated}, recorder.actions())

	_, err = svc.UpdateSettings(context.Background(), dto.UpdateAcademicSettingsRequest{StartDate: "2026-07-13"}, nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

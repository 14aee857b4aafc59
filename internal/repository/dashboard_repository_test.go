package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/step-lms-api/internal/models"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
)

func TestDashboardRepositorySettingsMissing(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery("FROM school_settings WHERE id = 1").WillReturnError(sql.ErrNoRows)

	_, err := repo.Settings(context.Background())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDashboardRepositoryCounters(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery("FILTER \\(WHERE employment_type = 'Full-Time'\\)").
		WillReturnRows(sqlmock.NewRows([]string{"total", "full_time", "part_time", "on_leave"}).AddRow(12, 9, 3, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM students").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(240))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM classes").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(8))
	mock.ExpectQuery("FROM attendance").
		WillReturnRows(sqlmock.NewRows([]string{"round"}).AddRow(nil))

	ctx := context.Background()
	stats, err := repo.FacultyStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.FacultyStats{Total: 12, FullTime: 9, PartTime: 3, OnLeave: 1}, stats)

	students, err := repo.CountStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 240, students)

	classes, err := repo.CountClasses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, classes)

	avg, err := repo.AverageAttendance(ctx)
	require.NoError(t, err)
	assert.Zero(t, avg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepositorySaveSettings(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	days := 190
	mock.ExpectExec("ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs("2025-2026", "Aug 2025", nil, 190, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveSettings(context.Background(), models.SchoolSettings{AcademicYear: "2025-2026", StartDate: "Aug 2025", TotalWorkingDays: &days})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryRoundTrip(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectExec("INSERT INTO activity_logs").
		WithArgs(sqlmock.AnyArg(), nil, models.ActivityClassCreated, "Class Grade 10-A created", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("ORDER BY created_at DESC LIMIT \\$1").WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor", "action", "description", "created_at"}).
			AddRow("a1", "Principal", models.ActivityClassCreated, "Class Grade 10-A created", time.Now()))

	require.NoError(t, repo.Create(context.Background(), &models.Activity{Action: models.ActivityClassCreated, Description: "Class Grade 10-A created"}))
	items, err := repo.ListRecent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Principal", *items[0].Actor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	assert.False(t, repo.Enabled())

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(context.Background(), "dashboard", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "dashboard", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.Delete(context.Background(), "dashboard"))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "*"))
	assert.NoError(t, repo.Close())
}

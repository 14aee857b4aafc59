package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/step-lms-api/internal/models"
)

// DashboardRepository serves the aggregate queries behind the principal dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Settings returns the academic year settings row. sql.ErrNoRows when unset.
func (r *DashboardRepository) Settings(ctx context.Context) (*models.SchoolSettings, error) {
	const query = `SELECT academic_year, start_date, end_date, total_working_days, holidays FROM school_settings WHERE id = 1`
	var settings models.SchoolSettings
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("load school settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings writes the settings row, creating it when missing.
func (r *DashboardRepository) SaveSettings(ctx context.Context, settings models.SchoolSettings) error {
	const query = `INSERT INTO school_settings (id, academic_year, start_date, end_date, total_working_days, holidays)
VALUES (1, $1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET academic_year = EXCLUDED.academic_year, start_date = EXCLUDED.start_date,
    end_date = EXCLUDED.end_date, total_working_days = EXCLUDED.total_working_days, holidays = EXCLUDED.holidays`
	if _, err := r.db.ExecContext(ctx, query, settings.AcademicYear, settings.StartDate, settings.EndDate, settings.TotalWorkingDays, settings.Holidays); err != nil {
		return fmt.Errorf("save school settings: %w", err)
	}
	return nil
}

// FacultyStats counts teachers by employment type and leave status.
func (r *DashboardRepository) FacultyStats(ctx context.Context) (models.FacultyStats, error) {
	const query = `SELECT COUNT(*) AS total,
    COUNT(*) FILTER (WHERE employment_type = 'Full-Time') AS full_time,
    COUNT(*) FILTER (WHERE employment_type = 'Part-Time') AS part_time,
    COUNT(*) FILTER (WHERE status = 'On Leave') AS on_leave
FROM teachers`
	var stats models.FacultyStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return models.FacultyStats{}, fmt.Errorf("faculty stats: %w", err)
	}
	return stats, nil
}

// CountStudents returns the number of student records.
func (r *DashboardRepository) CountStudents(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// CountClasses returns the number of classes.
func (r *DashboardRepository) CountClasses(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM classes`); err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	return total, nil
}

// AverageAttendance returns the school-wide present ratio as a percentage.
func (r *DashboardRepository) AverageAttendance(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	const query = `SELECT ROUND(COUNT(*) FILTER (WHERE status = 'present') * 100.0 / NULLIF(COUNT(*), 0), 1) FROM attendance`
	if err := r.db.GetContext(ctx, &avg, query); err != nil {
		return 0, fmt.Errorf("average attendance: %w", err)
	}
	return avg.Float64, nil
}

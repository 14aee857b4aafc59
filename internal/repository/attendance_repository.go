package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/step-lms-api/internal/models"
)

// AttendanceRepository persists daily attendance.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert records a status, replacing any existing record for the same day.
func (r *AttendanceRepository) Upsert(ctx context.Context, record models.Attendance) error {
	const query = `INSERT INTO attendance (student_id, date, status) VALUES ($1, $2, $3)
ON CONFLICT (student_id, date) DO UPDATE SET status = EXCLUDED.status`
	if _, err := r.db.ExecContext(ctx, query, record.StudentID, record.Date, record.Status); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// MarkAllPresent marks every student present on date in one statement.
func (r *AttendanceRepository) MarkAllPresent(ctx context.Context, studentIDs []string, date time.Time) (int64, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	const query = `INSERT INTO attendance (student_id, date, status)
SELECT id, $2, $3 FROM UNNEST($1::text[]) AS id
ON CONFLICT (student_id, date) DO UPDATE SET status = EXCLUDED.status`
	res, err := r.db.ExecContext(ctx, query, pq.Array(studentIDs), date, models.AttendancePresent)
	if err != nil {
		return 0, fmt.Errorf("mark all present: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/step-lms-api/internal/models"
)

// HomeroomRepository serves homeroom roster views.
type HomeroomRepository struct {
	db *sqlx.DB
}

// NewHomeroomRepository constructs a repository instance.
func NewHomeroomRepository(db *sqlx.DB) *HomeroomRepository {
	return &HomeroomRepository{db: db}
}

// Roster lists the students labelled className with their status on date,
// overall attendance rate and absence count.
func (r *HomeroomRepository) Roster(ctx context.Context, className string, date time.Time) ([]models.RosterEntry, error) {
	const query = `SELECT s.id, s.name, s.email,
    a.status AS today_status,
    (SELECT COUNT(*) FILTER (WHERE x.status = 'present') * 100.0 / NULLIF(COUNT(*), 0) FROM attendance x WHERE x.student_id = s.id) AS attendance_rate,
    (SELECT COUNT(*) FROM attendance x WHERE x.student_id = s.id AND x.status = 'absent') AS absence_count
FROM students s
LEFT JOIN attendance a ON a.student_id = s.id AND a.date = $1
WHERE s.enrolled_class = $2
ORDER BY s.name ASC`
	entries := make([]models.RosterEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, date, className); err != nil {
		return nil, fmt.Errorf("homeroom roster: %w", err)
	}
	return entries, nil
}

// Absentees returns the limit most absent students of className.
func (r *HomeroomRepository) Absentees(ctx context.Context, className string, limit int) ([]models.Absentee, error) {
	const query = `SELECT s.id, s.name, COUNT(a.student_id) AS absences, MAX(a.date) AS last_absent
FROM students s
JOIN attendance a ON a.student_id = s.id AND a.status = 'absent'
WHERE s.enrolled_class = $1
GROUP BY s.id, s.name
ORDER BY absences DESC, s.name ASC
LIMIT $2`
	rows := make([]models.Absentee, 0)
	if err := r.db.SelectContext(ctx, &rows, query, className, limit); err != nil {
		return nil, fmt.Errorf("frequent absentees: %w", err)
	}
	return rows, nil
}

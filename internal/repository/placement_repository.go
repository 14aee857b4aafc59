package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/step-lms-api/internal/models"
)

// PlacementItemError identifies the item that aborted an atomic batch.
type PlacementItemError struct {
	Item models.PlacementItem
	Err  error
}

func (e *PlacementItemError) Error() string {
	return fmt.Sprintf("place student %s into %s: %v", e.Item.StudentID, e.Item.ClassName, e.Err)
}

func (e *PlacementItemError) Unwrap() error { return e.Err }

// PlacementRepository reads the bucket view and applies placement batches.
type PlacementRepository struct {
	db *sqlx.DB
}

// NewPlacementRepository constructs a PlacementRepository.
func NewPlacementRepository(db *sqlx.DB) *PlacementRepository {
	return &PlacementRepository{db: db}
}

// ClassesWithStudents returns one row per class and enrolled student, plus a
// student-less row for empty classes. Grade is the mean subject score and GPA
// the latest semester GPA.
func (r *PlacementRepository) ClassesWithStudents(ctx context.Context) ([]models.ClassStudentRow, error) {
	const query = `SELECT c.id AS class_id, c.class_name, c.room_number, c.capacity,
    t.name AS teacher_name,
    s.id AS student_id, s.name AS student_name,
    m.score AS student_grade, g.gpa AS student_gpa
FROM classes c
LEFT JOIN teachers t ON t.id = c.homeroom_teacher_id
LEFT JOIN students s ON s.enrolled_class = c.class_name
LEFT JOIN LATERAL (
    SELECT gh.gpa FROM student_gpa_history gh WHERE gh.student_id = s.id ORDER BY gh.semester DESC LIMIT 1
) g ON TRUE
LEFT JOIN LATERAL (
    SELECT ROUND(AVG(ss.score)::numeric, 2)::float8 AS score FROM student_subjects ss WHERE ss.student_id = s.id
) m ON TRUE
ORDER BY c.class_name ASC, s.name ASC`
	rows := make([]models.ClassStudentRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("classes with students: %w", err)
	}
	return rows, nil
}

// PlacementOutcome is what one Apply call wrote. Missing lists student ids
// whose update matched no row; those do not count as failures.
type PlacementOutcome struct {
	Applied  int
	Missing  []string
	Failures []models.PlacementFailure
}

// Apply writes each placement in order inside one transaction, so a student
// listed twice ends with the later label. An empty class name clears the
// label. In atomic mode the first statement error rolls everything back and
// is returned as *PlacementItemError. In partialOnError mode each item runs
// under a savepoint and failures are reported while the remainder commits.
func (r *PlacementRepository) Apply(ctx context.Context, items []models.PlacementItem, mode models.BulkOperationMode) (*PlacementOutcome, error) {
	outcome := &PlacementOutcome{Missing: make([]string, 0), Failures: make([]models.PlacementFailure, 0)}
	if len(items) == 0 {
		return outcome, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin placement batch: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	partial := mode == models.BulkModePartialOnError
	now := time.Now().UTC()
	for _, item := range items {
		if partial {
			if _, err := tx.ExecContext(ctx, "SAVEPOINT placement_item"); err != nil {
				return nil, fmt.Errorf("savepoint: %w", err)
			}
		}

		matched, itemErr := applyPlacement(ctx, tx, item, now)
		if itemErr == nil {
			if matched {
				outcome.Applied++
			} else {
				outcome.Missing = append(outcome.Missing, item.StudentID)
			}
			if partial {
				if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT placement_item"); err != nil {
					return nil, fmt.Errorf("release savepoint: %w", err)
				}
			}
			continue
		}

		if !partial {
			return nil, &PlacementItemError{Item: item, Err: itemErr}
		}
		if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT placement_item"); err != nil {
			return nil, fmt.Errorf("rollback savepoint: %w", err)
		}
		outcome.Failures = append(outcome.Failures, models.PlacementFailure{
			StudentID: item.StudentID,
			ClassName: item.ClassName,
			Reason:    "update failed",
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit placement batch: %w", err)
	}
	committed = true
	return outcome, nil
}

// applyPlacement reports whether the student row existed.
func applyPlacement(ctx context.Context, tx *sqlx.Tx, item models.PlacementItem, now time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE students SET enrolled_class = NULLIF($1, ''), updated_at = $2 WHERE id = $3`, item.ClassName, now, item.StudentID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

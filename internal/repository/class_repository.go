package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/step-lms-api/internal/models"
)

// ClassRepository manages persistence for classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes with homeroom teacher name and roster size.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, error) {
	query := `SELECT c.id, c.class_name, c.room_number, c.homeroom_teacher_id, c.capacity, c.created_at,
    t.name AS teacher_name,
    (SELECT COUNT(*) FROM students s WHERE s.enrolled_class = c.class_name) AS student_count
FROM classes c
LEFT JOIN teachers t ON t.id = c.homeroom_teacher_id`
	var args []interface{}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query += " WHERE LOWER(c.class_name) LIKE $1"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += " ORDER BY c.class_name ASC"

	classes := make([]models.ClassDetail, 0)
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindByID returns a class record by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, class_name, room_number, homeroom_teacher_id, capacity, created_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &class, nil
}

// Create persists a class record. Constraint errors are wrapped, not translated.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classes (id, class_name, room_number, homeroom_teacher_id, capacity, created_at) VALUES (:id, :class_name, :room_number, :homeroom_teacher_id, :capacity, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// DeleteAndUnassign resets the roster of a class to its generic grade label
// and removes the class, atomically. It returns the number of students reset.
func (r *ClassRepository) DeleteAndUnassign(ctx context.Context, id string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete class: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var className string
	if err := tx.GetContext(ctx, &className, `SELECT class_name FROM classes WHERE id = $1 FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, fmt.Errorf("lock class: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE students SET enrolled_class = $1, updated_at = $2 WHERE enrolled_class = $3`,
		models.GenericGradeLabel(className), time.Now().UTC(), className)
	if err != nil {
		return 0, fmt.Errorf("unassign students: %w", err)
	}
	reset, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id); err != nil {
		return 0, fmt.Errorf("delete class: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete class: %w", err)
	}
	committed = true
	return reset, nil
}

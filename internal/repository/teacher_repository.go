package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/step-lms-api/internal/models"
	"github.com/noah-isme/step-lms-api/pkg/database"
)

const teacherColumns = "id, name, email, subject_specialty, employment_type, status, created_at"

// TeacherRepository provides persistence for faculty records.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns every teacher ordered by name.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	teachers := make([]models.Teacher, 0)
	query := fmt.Sprintf("SELECT %s FROM teachers ORDER BY name ASC", teacherColumns)
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// ListAvailableForHomeroom returns active teachers not yet leading any class.
func (r *TeacherRepository) ListAvailableForHomeroom(ctx context.Context) ([]models.Teacher, error) {
	teachers := make([]models.Teacher, 0)
	query := fmt.Sprintf(`SELECT %s FROM teachers t
WHERE t.status = $1
  AND NOT EXISTS (SELECT 1 FROM classes c WHERE c.homeroom_teacher_id = t.id)
ORDER BY t.name ASC`, teacherColumns)
	if err := r.db.SelectContext(ctx, &teachers, query, models.TeacherStatusActive); err != nil {
		return nil, fmt.Errorf("list available homeroom teachers: %w", err)
	}
	return teachers, nil
}

// FindByID returns a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	return &teacher, nil
}

// Create inserts a teacher.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teachers (id, name, email, subject_specialty, employment_type, status, created_at) VALUES (:id, :name, :email, :subject_specialty, :employment_type, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Delete removes a teacher. Classes led by the teacher lose their homeroom link.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE classes SET homeroom_teacher_id = NULL WHERE homeroom_teacher_id = $1`, id); err != nil {
			return fmt.Errorf("detach homeroom classes: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete teacher: %w", err)
		}
		return expectAffected(res)
	})
}

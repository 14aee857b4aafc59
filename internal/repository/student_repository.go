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

const studentColumns = "id, name, email, enrolled_class, status, created_at, updated_at"

// StudentRepository handles persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching filter with the total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students WHERE 1=1"
	var args []interface{}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		base += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args), len(args))
	}
	if filter.ClassName != "" {
		args = append(args, filter.ClassName)
		base += fmt.Sprintf(" AND enrolled_class = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		base += fmt.Sprintf(" AND status = $%d", len(args))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", studentColumns, base, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListUnassigned returns students whose label is NULL, empty, or lacks a section hyphen.
func (r *StudentRepository) ListUnassigned(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students
WHERE enrolled_class IS NULL OR enrolled_class = '' OR enrolled_class NOT LIKE '%%-%%'
ORDER BY name ASC`, studentColumns)
	students := make([]models.Student, 0)
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list unassigned students: %w", err)
	}
	return students, nil
}

// FindByID returns a student by id. sql.ErrNoRows is returned unwrapped.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// ExistsByEmail checks for another student using email.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE LOWER(email) = LOWER($1)"
	args := []interface{}{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student email: %w", err)
	}
	return true, nil
}

// Create inserts a student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	prepareStudent(student)
	if _, err := r.db.NamedExecContext(ctx, insertStudentQuery, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// CreateBatch inserts students in a single transaction.
func (r *StudentRepository) CreateBatch(ctx context.Context, students []models.Student) error {
	if len(students) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student import: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for i := range students {
		prepareStudent(&students[i])
		if _, err := tx.NamedExecContext(ctx, insertStudentQuery, &students[i]); err != nil {
			return fmt.Errorf("import student %s: %w", students[i].Email, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit student import: %w", err)
	}
	committed = true
	return nil
}

// Update modifies mutable student fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET name = :name, email = :email, enrolled_class = :enrolled_class, status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a student.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return expectAffected(res)
}

// GPAHistory returns the semester GPA records for a student.
func (r *StudentRepository) GPAHistory(ctx context.Context, studentID string) ([]models.GPARecord, error) {
	rows := make([]models.GPARecord, 0)
	if err := r.db.SelectContext(ctx, &rows, `SELECT semester, gpa FROM student_gpa_history WHERE student_id = $1 ORDER BY semester`, studentID); err != nil {
		return nil, fmt.Errorf("gpa history: %w", err)
	}
	return rows, nil
}

// SubjectScores returns per-subject scores for a student.
func (r *StudentRepository) SubjectScores(ctx context.Context, studentID string) ([]models.SubjectScore, error) {
	rows := make([]models.SubjectScore, 0)
	if err := r.db.SelectContext(ctx, &rows, `SELECT subject, score FROM student_subjects WHERE student_id = $1 ORDER BY subject`, studentID); err != nil {
		return nil, fmt.Errorf("subject scores: %w", err)
	}
	return rows, nil
}

// FocusAreas returns the topics flagged for a student.
func (r *StudentRepository) FocusAreas(ctx context.Context, studentID string) ([]models.FocusArea, error) {
	rows := make([]models.FocusArea, 0)
	if err := r.db.SelectContext(ctx, &rows, `SELECT topic, confidence, priority FROM student_focus_areas WHERE student_id = $1`, studentID); err != nil {
		return nil, fmt.Errorf("focus areas: %w", err)
	}
	return rows, nil
}

// HomeroomTeacher returns the homeroom teacher of the class named className.
func (r *StudentRepository) HomeroomTeacher(ctx context.Context, className string) (*models.Teacher, error) {
	const query = `SELECT t.id, t.name, t.email, t.subject_specialty, t.employment_type, t.status, t.created_at
FROM classes c JOIN teachers t ON t.id = c.homeroom_teacher_id
WHERE c.class_name = $1 LIMIT 1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, className); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("homeroom teacher: %w", err)
	}
	return &teacher, nil
}

// Performance returns the attendance and GPA summary of a student.
func (r *StudentRepository) Performance(ctx context.Context, studentID string) (*models.StudentPerformance, error) {
	const query = `SELECT s.id, s.name, s.email, s.enrolled_class,
    (SELECT COUNT(*) FILTER (WHERE a.status = 'present') * 100.0 / NULLIF(COUNT(*), 0) FROM attendance a WHERE a.student_id = s.id) AS attendance_rate,
    (SELECT g.gpa FROM student_gpa_history g WHERE g.student_id = s.id ORDER BY g.semester DESC LIMIT 1) AS latest_gpa
FROM students s WHERE s.id = $1`
	var perf models.StudentPerformance
	if err := r.db.GetContext(ctx, &perf, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("student performance: %w", err)
	}
	perf.ComputeStanding()
	return &perf, nil
}

const insertStudentQuery = `INSERT INTO students (id, name, email, enrolled_class, status, created_at, updated_at) VALUES (:id, :name, :email, :enrolled_class, :status, :created_at, :updated_at)`

func prepareStudent(student *models.Student) {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.Status == "" {
		student.Status = models.StudentStatusActive
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

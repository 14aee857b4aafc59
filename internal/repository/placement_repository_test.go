package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/step-lms-api/internal/models"
)

func TestPlacementRepositoryClassesWithStudents(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	rows := sqlmock.NewRows([]string{"class_id", "class_name", "room_number", "capacity", "teacher_name", "student_id", "student_name", "student_grade", "student_gpa"}).
		AddRow("c1", "Grade 10-A", "101", 30, "Ms. Rahma", "s1", "Ana", 88.5, 3.6).
		AddRow("c2", "Grade 10-B", "102", nil, nil, nil, nil, nil, nil)
	mock.ExpectQuery("LEFT JOIN students s ON s.enrolled_class = c.class_name").WillReturnRows(rows)

	result, err := repo.ClassesWithStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "s1", *result[0].StudentID)
	assert.Nil(t, result[1].StudentID)
	assert.Nil(t, result[1].Capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRepositoryApplyEmpty(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	outcome, err := repo.Apply(context.Background(), nil, models.BulkModeAtomic)
	require.NoError(t, err)
	assert.Zero(t, outcome.Applied)
	assert.Empty(t, outcome.Failures)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRepositoryApplyAtomicCommits(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE students SET enrolled_class").WithArgs("Grade 10-A", sqlmock.AnyArg(), "s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE students SET enrolled_class").WithArgs("Grade 10-B", sqlmock.AnyArg(), "s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := repo.Apply(context.Background(), []models.PlacementItem{
		{StudentID: "s1", ClassName: "Grade 10-A"},
		{StudentID: "s1", ClassName: "Grade 10-B"},
	}, models.BulkModeAtomic)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Applied)
	assert.Empty(t, outcome.Failures)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRepositoryApplyAtomicSkipsMissingStudent(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE students").WithArgs("Grade 10-A", sqlmock.AnyArg(), "s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE students").WithArgs("Grade 10-A", sqlmock.AnyArg(), "ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE students").WithArgs("Grade 10-B", sqlmock.AnyArg(), "s2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := repo.Apply(context.Background(), []models.PlacementItem{
		{StudentID: "s1", ClassName: "Grade 10-A"},
		{StudentID: "ghost", ClassName: "Grade 10-A"},
		{StudentID: "s2", ClassName: "Grade 10-B"},
	}, models.BulkModeAtomic)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Applied)
	assert.Equal(t, []string{"ghost"}, outcome.Missing)
	assert.Empty(t, outcome.Failures)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRepositoryApplyAtomicRollsBackOnStatementError(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE students").WithArgs("Grade 10-A", sqlmock.AnyArg(), "s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE students").WithArgs("Grade 10-A", sqlmock.AnyArg(), "s2").WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	_, err := repo.Apply(context.Background(), []models.PlacementItem{
		{StudentID: "s1", ClassName: "Grade 10-A"},
		{StudentID: "s2", ClassName: "Grade 10-A"},
	}, models.BulkModeAtomic)
	require.Error(t, err)

	var itemErr *PlacementItemError
	require.True(t, errors.As(err, &itemErr))
	assert.Equal(t, "s2", itemErr.Item.StudentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRepositoryApplyEmptyLabelClearsClass(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SET enrolled_class = NULLIF\(\$1, ''\)`).WithArgs("", sqlmock.AnyArg(), "s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := repo.Apply(context.Background(), []models.PlacementItem{{StudentID: "s1"}}, models.BulkModeAtomic)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRepositoryApplyPartialUsesSavepoints(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT placement_item").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE students").WithArgs("Grade 10-A", sqlmock.AnyArg(), "s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("RELEASE SAVEPOINT placement_item").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SAVEPOINT placement_item").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE students").WithArgs("Grade 10-A", sqlmock.AnyArg(), "ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("RELEASE SAVEPOINT placement_item").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SAVEPOINT placement_item").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE students").WithArgs("Grade 10-B", sqlmock.AnyArg(), "s2").WillReturnError(errors.New("deadlock"))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT placement_item").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	outcome, err := repo.Apply(context.Background(), []models.PlacementItem{
		{StudentID: "s1", ClassName: "Grade 10-A"},
		{StudentID: "ghost", ClassName: "Grade 10-A"},
		{StudentID: "s2", ClassName: "Grade 10-B"},
	}, models.BulkModePartialOnError)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Applied)
	assert.Equal(t, []string{"ghost"}, outcome.Missing)
	require.Len(t, outcome.Failures, 1)
	assert.Equal(t, "s2", outcome.Failures[0].StudentID)
	assert.Equal(t, "update failed", outcome.Failures[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

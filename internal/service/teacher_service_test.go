package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/step-lms-api/internal/models"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
)

type mockTeacherRepo struct {
	items     map[string]*models.Teacher
	available []models.Teacher
	createErr error
	deleted   []string
}

func (m *mockTeacherRepo) List(ctx context.Context) ([]models.Teacher, error) {
	out := make([]models.Teacher, 0, len(m.items))
	for _, t := range m.items {
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockTeacherRepo) ListAvailableForHomeroom(ctx context.Context) ([]models.Teacher, error) {
	return m.available, nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := m.items[id]; ok {
		cp := *teacher
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.items == nil {
		m.items = make(map[string]*models.Teacher)
	}
	teacher.ID = "generated"
	cp := *teacher
	m.items[teacher.ID] = &cp
	return nil
}

func (m *mockTeacherRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func TestTeacherServiceCreate(t *testing.T) {
	repo := &mockTeacherRepo{}
	recorder := &fakeRecorder{}
	service := NewTeacherService(repo, nil, recorder, validator.New(), zap.NewNop())

	teacher, err := service.Create(context.Background(), CreateTeacherRequest{
		Name:    "Ms. Rahma",
		Email:   "Rahma@School.id",
		Subject: "Mathematics",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "rahma@school.id", teacher.Email)
	assert.Equal(t, models.TeacherStatusActive, teacher.Status)
	assert.Equal(t, models.EmploymentFullTime, teacher.EmploymentType)
	require.NotNil(t, teacher.SubjectSpecialty)
	assert.Equal(t, "Mathematics", *teacher.SubjectSpecialty)
	assert.Len(t, repo.items, 1)
	assert.Equal(t, []string{models.ActivityTeacherCreated}, recorder.actions())
}

func TestTeacherServiceCreateRequiresNameAndEmail(t *testing.T) {
	service := NewTeacherService(&mockTeacherRepo{}, nil, nil, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), CreateTeacherRequest{Name: "Ms. Rahma"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestTeacherServiceCreateDuplicateEmail(t *testing.T) {
	service := NewTeacherService(&mockTeacherRepo{createErr: &pq.Error{Code: "23505"}}, nil, nil, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), CreateTeacherRequest{Name: "Ms. Rahma", Email: "rahma@school.id"}, nil)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestTeacherServiceDelete(t *testing.T) {
	repo := &mockTeacherRepo{items: map[string]*models.Teacher{"t1": {ID: "t1", Name: "Ms. Rahma"}}}
	service := NewTeacherService(repo, nil, nil, validator.New(), zap.NewNop())

	require.NoError(t, service.Delete(context.Background(), "t1", nil))
	assert.Equal(t, []string{"t1"}, repo.deleted)

	err := service.Delete(context.Background(), "t1", nil)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTeacherServiceAvailableForHomeroom(t *testing.T) {
	repo := &mockTeacherRepo{available: []models.Teacher{{ID: "t2", Name: "Mr. Dani"}}}
	service := NewTeacherService(repo, nil, nil, nil, nil)

	teachers, err := service.AvailableForHomeroom(context.Background())
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, "t2", teachers[0].ID)
}

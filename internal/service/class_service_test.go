package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/step-lms-api/internal/models"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
)

type mockClassRepo struct {
	items     map[string]*models.Class
	created   []*models.Class
	createErr error
	reset     int64
	deleted   []string
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, error) {
	out := make([]models.ClassDetail, 0, len(m.items))
	for _, c := range m.items {
		out = append(out, models.ClassDetail{Class: *c})
	}
	return out, nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.items[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	if m.createErr != nil {
		return m.createErr
	}
	class.ID = "generated"
	m.created = append(m.created, class)
	return nil
}

func (m *mockClassRepo) DeleteAndUnassign(ctx context.Context, id string) (int64, error) {
	if _, ok := m.items[id]; !ok {
		return 0, sql.ErrNoRows
	}
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return m.reset, nil
}

func TestClassServiceCreateRequiresNameAndRoom(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateClassRequest{ClassName: "Grade 10-A", RoomNumber: "  "}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, MsgClassFieldsRequired, appErr.Message)
}

func TestClassServiceCreateTreatsNoneTeacherAsNull(t *testing.T) {
	repo := &mockClassRepo{}
	recorder := &fakeRecorder{}
	svc := NewClassService(repo, nil, recorder, zap.NewNop())

	class, err := svc.Create(context.Background(), CreateClassRequest{ClassName: "Grade 10-A", RoomNumber: "101", TeacherID: "none"}, nil)
	require.NoError(t, err)
	assert.Nil(t, class.HomeroomTeacherID)
	assert.Equal(t, []string{models.ActivityClassCreated}, recorder.actions())

	class, err = svc.Create(context.Background(), CreateClassRequest{ClassName: "Grade 10-B", RoomNumber: "102", TeacherID: "t1"}, nil)
	require.NoError(t, err)
	require.NotNil(t, class.HomeroomTeacherID)
	assert.Equal(t, "t1", *class.HomeroomTeacherID)
}

func TestClassServiceCreateMapsConstraintErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"duplicate name", &pq.Error{Code: "23505"}, 409, MsgClassNameTaken},
		{"unknown teacher", &pq.Error{Code: "23503"}, 400, MsgTeacherMissing},
		{"other", assert.AnError, 500, "failed to create class"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewClassService(&mockClassRepo{createErr: tc.err}, nil, nil, zap.NewNop())
			_, err := svc.Create(context.Background(), CreateClassRequest{ClassName: "Grade 10-A", RoomNumber: "101", TeacherID: "t9"}, nil)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, tc.status, appErr.Status)
			assert.Equal(t, tc.message, appErr.Message)
		})
	}
}

func TestClassServiceDelete(t *testing.T) {
	repo := &mockClassRepo{items: map[string]*models.Class{"c1": {ID: "c1", ClassName: "Grade 10-A"}}, reset: 4}
	recorder := &fakeRecorder{}
	svc := NewClassService(repo, nil, recorder, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "c1", nil))
	assert.Equal(t, []string{"c1"}, repo.deleted)
	require.Len(t, recorder.entries, 1)
	assert.Contains(t, recorder.entries[0].description, "Grade 10")

	err := svc.Delete(context.Background(), "c1", nil)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

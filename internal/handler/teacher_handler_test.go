package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/step-lms-api/internal/models"
	"github.com/noah-isme/step-lms-api/internal/service"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
)

type fakeTeacherSrv struct {
	created   service.CreateTeacherRequest
	deletedID string
	deleteErr error
}

func (f *fakeTeacherSrv) Faculty(context.Context) ([]models.Teacher, error) {
	return []models.Teacher{{ID: "t1", Name: "Ms. Rahma", Status: "Active"}, {ID: "t2", Name: "Mr. Yusuf", Status: "On Leave"}}, nil
}

func (f *fakeTeacherSrv) AvailableForHomeroom(context.Context) ([]models.Teacher, error) {
	return []models.Teacher{{ID: "t1", Name: "Ms. Rahma", Status: "Active"}}, nil
}

func (f *fakeTeacherSrv) Create(_ context.Context, req service.CreateTeacherRequest, _ *string) (*models.Teacher, error) {
	f.created = req
	return &models.Teacher{ID: "t3", Name: req.Name, Email: req.Email, Status: "Active"}, nil
}

func (f *fakeTeacherSrv) Delete(_ context.Context, id string, _ *string) error {
	f.deletedID = id
	return f.deleteErr
}

func TestTeacherHandlerFaculty(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/faculty", nil)

	NewTeacherHandler(&fakeTeacherSrv{}).Faculty(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var teachers []models.Teacher
	decodeData(t, rec, &teachers)
	assert.Len(t, teachers, 2)
}

func TestTeacherHandlerAvailableForHomeroom(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/teachers/available-for-homeroom", nil)

	NewTeacherHandler(&fakeTeacherSrv{}).AvailableForHomeroom(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var teachers []models.Teacher
	decodeData(t, rec, &teachers)
	require.Len(t, teachers, 1)
	assert.Equal(t, "t1", teachers[0].ID)
}

func TestTeacherHandlerCreate(t *testing.T) {
	svc := &fakeTeacherSrv{}
	c, rec := newContext(http.MethodPost, "/teachers", map[string]string{"name": "Pak Adi", "email": "adi@step.sch.id", "subject": "Physics"})

	NewTeacherHandler(svc).Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Physics", svc.created.Subject)
}

func TestTeacherHandlerCreateBadJSON(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/teachers", "not an object")

	NewTeacherHandler(&fakeTeacherSrv{}).Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTeacherHandlerDeleteMissing(t *testing.T) {
	svc := &fakeTeacherSrv{deleteErr: appErrors.Clone(appErrors.ErrNotFound, "teacher not found")}
	c, rec := newContext(http.MethodDelete, "/teachers/t9", nil)
	c.Params = gin.Params{{Key: "id", Value: "t9"}}

	NewTeacherHandler(svc).Delete(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "t9", svc.deletedID)
}

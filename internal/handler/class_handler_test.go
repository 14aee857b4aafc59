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

type fakeClassSrv struct {
	filter    models.ClassFilter
	createErr error
	deleteErr error
	deletedID string
	actor     *string
}

func (f *fakeClassSrv) List(_ context.Context, filter models.ClassFilter) ([]models.ClassDetail, error) {
	f.filter = filter
	return []models.ClassDetail{{Class: models.Class{ID: "c1", ClassName: "Grade 10-A"}}}, nil
}

func (f *fakeClassSrv) Create(_ context.Context, req service.CreateClassRequest, actor *string) (*models.Class, error) {
	f.actor = actor
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Class{ID: "c2", ClassName: req.ClassName, RoomNumber: req.RoomNumber}, nil
}

func (f *fakeClassSrv) Delete(_ context.Context, id string, actor *string) error {
	f.deletedID = id
	f.actor = actor
	return f.deleteErr
}

func TestClassHandlerListTrimsSearch(t *testing.T) {
	svc := &fakeClassSrv{}
	c, rec := newContext(http.MethodGet, "/classes?search=%20Grade%2010%20", nil)

	NewClassHandler(svc).List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Grade 10", svc.filter.Search)
}

func TestClassHandlerCreate(t *testing.T) {
	svc := &fakeClassSrv{}
	c, rec := newContext(http.MethodPost, "/classes", service.CreateClassRequest{ClassName: "Grade 11-B", RoomNumber: "R-204", TeacherID: "none"})
	withClaims(c, "Admin", models.RoleAdmin)

	NewClassHandler(svc).Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	var class models.Class
	decodeData(t, rec, &class)
	assert.Equal(t, "Grade 11-B", class.ClassName)
	require.NotNil(t, svc.actor)
	assert.Equal(t, "Admin", *svc.actor)
}

func TestClassHandlerCreateConflict(t *testing.T) {
	svc := &fakeClassSrv{createErr: appErrors.Clone(appErrors.ErrConflict, service.MsgClassNameTaken)}
	c, rec := newContext(http.MethodPost, "/classes", service.CreateClassRequest{ClassName: "Grade 10-A", RoomNumber: "R-101"})

	NewClassHandler(svc).Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, service.MsgClassNameTaken, decodeEnvelope(t, rec).Error["message"])
}

func TestClassHandlerDelete(t *testing.T) {
	svc := &fakeClassSrv{}
	c, rec := newContext(http.MethodDelete, "/classes/c1", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	NewClassHandler(svc).Delete(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "c1", svc.deletedID)
	assert.Empty(t, rec.Body.String())
}

func TestClassHandlerDeleteMissing(t *testing.T) {
	svc := &fakeClassSrv{deleteErr: appErrors.Clone(appErrors.ErrNotFound, "class not found")}
	c, rec := newContext(http.MethodDelete, "/classes/zz", nil)
	c.Params = gin.Params{{Key: "id", Value: "zz"}}

	NewClassHandler(svc).Delete(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

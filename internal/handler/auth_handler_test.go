package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/step-lms-api/internal/models"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
)

type fakeAuthSrv struct {
	err error
}

func (f *fakeAuthSrv) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.LoginResponse{AccessToken: "token", User: models.UserInfo{Email: req.Email, Role: models.RolePrincipal}}, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/login", models.LoginRequest{Email: "siti@step.sch.id", Password: "secret"})

	NewAuthHandler(&fakeAuthSrv{}).Login(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var res models.LoginResponse
	decodeData(t, rec, &res)
	assert.Equal(t, "token", res.AccessToken)
	assert.Equal(t, models.RolePrincipal, res.User.Role)
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/login", models.LoginRequest{Email: "siti@step.sch.id", Password: "wrong"})

	NewAuthHandler(&fakeAuthSrv{err: appErrors.ErrInvalidCredentials}).Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/me", nil)
	NewAuthHandler(nil).Me(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newContext(http.MethodGet, "/me", nil)
	withClaims(c, "Rahma", models.RoleHomeroomTeacher)
	NewAuthHandler(nil).Me(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var info models.UserInfo
	decodeData(t, rec, &info)
	assert.Equal(t, "Rahma", info.Name)
	assert.Equal(t, models.RoleHomeroomTeacher, info.Role)
}

package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/step-lms-api/internal/middleware"
	"github.com/noah-isme/step-lms-api/internal/models"
)

type responseEnvelope struct {
	Data    json.RawMessage        `json:"data"`
	Message string                 `json:"message"`
	Error   map[string]interface{} `json:"error"`
	Meta    map[string]interface{} `json:"meta"`
}

func newContext(method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, rec
}

func withClaims(c *gin.Context, name string, role models.UserRole) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", Name: name, Email: "admin@step.sch.id", Role: role})
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	envelope := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

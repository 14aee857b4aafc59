package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/step-lms-api/internal/models"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestJSONWithMeta(t *testing.T) {
	c, rec := newContext()
	JSON(c, http.StatusOK, []string{"a"}, &models.Pagination{Page: 1, PageSize: 50, TotalCount: 1}, map[string]interface{}{"cache_hit": true})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []interface{}{"a"}, body["data"])
	assert.Equal(t, true, body["meta"].(map[string]interface{})["cache_hit"])
	assert.NotNil(t, body["pagination"])
	assert.NotContains(t, body, "error")
}

func TestMessage(t *testing.T) {
	c, rec := newContext()
	Message(c, http.StatusOK, "No placements to save.", nil)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "No placements to save.", body["message"])
	assert.NotContains(t, body, "data")
}

func TestErrorMapsStatus(t *testing.T) {
	c, rec := newContext()
	Error(c, appErrors.Clone(appErrors.ErrNotFound, "class not found"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.Equal(t, "class not found", body.Error.Message)

	c, rec = newContext()
	Error(c, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAttachment(t *testing.T) {
	c, rec := newContext()
	Attachment(c, "rosters.csv", "text/csv", []byte("a,b\n"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="rosters.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "a,b\n", rec.Body.String())
}

package placement

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/step-lms-api/internal/dto"
	"github.com/noah-isme/step-lms-api/internal/models"
	"github.com/noah-isme/step-lms-api/pkg/config"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.ClientConfig{BaseURL: srv.URL + "/api/v1/", Token: "tok"}, srv.Client())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClientClassesWithStudents(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/classes/with-students", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": []models.ClassBucket{{ID: "c1", ClassName: "Grade 10-A", Capacity: 30, Students: []models.BucketStudent{{ID: "s1", Name: "Ana"}}}},
		})
	})

	buckets, err := client.ClassesWithStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, "Grade 10-A", buckets[0].ClassName)
	assert.Equal(t, "s1", buckets[0].Students[0].ID)
}

func TestClientUnassignedStudents(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/students/unassigned", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": []map[string]string{{"id": "s2", "name": "Budi"}}})
	})

	students, err := client.UnassignedStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Budi", students[0].Name)
}

func TestClientFinalize(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/students/placement/finalize", r.URL.Path)
		var req dto.FinalizePlacementRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "partialOnError", req.Mode)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": models.PlacementResult{Mode: models.BulkModePartialOnError, Applied: len(req.Placements), Skipped: []string{}, Failed: []models.PlacementFailure{}},
		})
	})

	result, err := client.WithMode(models.BulkModePartialOnError).Finalize(context.Background(), []models.PlacementItem{{StudentID: "s1", ClassName: "Grade 10-A"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)
}

func TestClientFinalizeEmptyBatchMessage(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"message": "No placements to save."})
	})

	result, err := client.Finalize(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, result.Applied)
	assert.Equal(t, models.BulkModeAtomic, result.Mode)
}

func TestClientFinalizeRejected(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error": map[string]interface{}{
				"code":    "PLACEMENT_FAILED",
				"message": "could not place student ghost into Grade 10-A",
				"details": models.PlacementFailure{StudentID: "ghost", ClassName: "Grade 10-A", Reason: "update failed"},
			},
		})
	})

	_, err := client.Finalize(context.Background(), []models.PlacementItem{{StudentID: "ghost", ClassName: "Grade 10-A"}})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "PLACEMENT_FAILED", apiErr.Code)
	require.NotNil(t, apiErr.Failure)
	assert.Equal(t, "ghost", apiErr.Failure.StudentID)
}

func TestClientErrorWithHTMLBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>\n<body><h1>502 Bad Gateway</h1></body>\n</html>"))
	})

	_, err := client.ClassesWithStudents(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Code)
	assert.Contains(t, apiErr.Message, "502 Bad Gateway")
	assert.Nil(t, apiErr.Failure)
}

func TestClientErrorWithEmptyBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.UnassignedStudents(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}

func TestClientMalformedSuccessBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := client.ClassesWithStudents(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.Contains(t, err.Error(), "decode")
}

func TestSessionOverHTTPClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/classes/with-students", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": []models.ClassBucket{{ID: "c1", ClassName: "Grade 10-A", Capacity: 1, Students: []models.BucketStudent{}}}})
	})
	mux.HandleFunc("/api/v1/students/unassigned", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": []map[string]string{{"id": "s1"}, {"id": "s2"}}})
	})
	client := newTestServer(t, mux.ServeHTTP)

	s := NewSession(client, Options{})
	require.NoError(t, s.Load(context.Background()))
	require.NoError(t, s.MoveStudent("s1", Unassigned, "c1"))
	assert.ErrorIs(t, s.MoveStudent("s2", Unassigned, "c1"), ErrBucketFull)
	assert.Equal(t, []models.PlacementItem{{StudentID: "s1", ClassName: "Grade 10-A"}}, s.Placements())
}

package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/step-lms-api/internal/models"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/classes", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/classes", http.StatusOK, 40*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.ObserveDBQuery("placement.apply", 10*time.Millisecond)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.RequestsTotal)
	assert.InDelta(t, 30, snap.AverageRequestDurationMs, 0.001)
	assert.EqualValues(t, 2, snap.CacheHits)
	assert.EqualValues(t, 1, snap.CacheMisses)
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 0.0001)
	assert.EqualValues(t, 1, snap.DBQueryCount)
}

func TestMetricsServicePlacementBatches(t *testing.T) {
	m := NewMetricsService()
	m.ObservePlacementBatch(models.BulkModePartialOnError, &models.PlacementResult{
		Applied: 3,
		Skipped: []string{"temp-1"},
		Failed:  []models.PlacementFailure{{StudentID: "ghost"}},
	}, nil)
	m.ObservePlacementBatch(models.BulkModeAtomic, nil, errors.New("rejected"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `placement_items_total{outcome="applied"} 3`)
	assert.Contains(t, body, "placement_batches_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.ObservePlacementBatch(models.BulkModeAtomic, nil, nil)
	assert.Equal(t, models.SystemMetrics{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prophet/internal/cache"
	"prophet/internal/ml"
	"prophet/pkg/logger"
)

type stubClassifier struct{}

func (stubClassifier) PredictGroup(features []float64) (int, error) { return 0, nil }

type stubRegressor struct{}

func (stubRegressor) PredictValue(features []float64) (float64, error) { return 0, nil }

func fullRegistry() *ml.Registry {
	return ml.NewRegistry(
		map[string]ml.Classifier{
			ml.ModelKMeans: stubClassifier{},
			ml.ModelDBSCAN: stubClassifier{},
		},
		map[string]ml.Regressor{
			ml.ModelXGBoost:      stubRegressor{},
			ml.ModelRandomForest: stubRegressor{},
		},
	)
}

func doCheck(t *testing.T, handlerFunc http.HandlerFunc, target string) (*httptest.ResponseRecorder, HealthStatus) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handlerFunc(rec, req)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec, status
}

func TestHandleLiveness(t *testing.T) {
	h := New(logger.Get(), fullRegistry(), nil, "prophet", "test")

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()
	h.HandleLiveness(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

func TestHandleReadiness_Healthy(t *testing.T) {
	h := New(logger.Get(), fullRegistry(), nil, "prophet", "test")

	rec, status := doCheck(t, h.HandleReadiness, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "healthy", status.Checks["models"].Status)
}

func TestHandleReadiness_IncompleteRegistry(t *testing.T) {
	registry := ml.NewRegistry(
		map[string]ml.Classifier{ml.ModelKMeans: stubClassifier{}},
		map[string]ml.Regressor{},
	)
	h := New(logger.Get(), registry, nil, "prophet", "test")

	rec, status := doCheck(t, h.HandleReadiness, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "model registry incomplete", status.Checks["models"].Error)
}

func TestHandleHealth_Healthy(t *testing.T) {
	h := New(logger.Get(), fullRegistry(), nil, "prophet", "test")

	rec, status := doCheck(t, h.HandleHealth, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "prophet", status.Service)
	assert.NotEmpty(t, status.Uptime)
}

func TestHandleHealth_DegradedCache(t *testing.T) {
	// Unreachable Redis: predictions still work, so only degraded
	unreachable := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), time.Minute)
	h := New(logger.Get(), fullRegistry(), unreachable, "prophet", "test")

	rec, status := doCheck(t, h.HandleHealth, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "healthy", status.Checks["models"].Status)
	assert.Equal(t, "unhealthy", status.Checks["cache"].Status)
}

func TestHandleHealth_UnhealthyRegistry(t *testing.T) {
	h := New(logger.Get(), nil, nil, "prophet", "test")

	rec, status := doCheck(t, h.HandleHealth, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", status.Status)
}

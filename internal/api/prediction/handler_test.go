package prediction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripcast/internal/domain/artifact"
	"tripcast/internal/domain/trip"
	"tripcast/internal/ml"
	predictionsvc "tripcast/internal/services/prediction"
	"tripcast/pkg/errors"
)

type stubService struct {
	prediction *trip.Prediction
	predictErr error
	reloaded   *ml.LoadedModel
	reloadErr  error
	state      predictionsvc.ModelState
}

func (s *stubService) Predict(ctx context.Context, req predictionsvc.Request) (*trip.Prediction, error) {
	if s.predictErr != nil {
		return nil, s.predictErr
	}
	return s.prediction, nil
}

func (s *stubService) Reload(ctx context.Context) (*ml.LoadedModel, error) {
	if s.reloadErr != nil {
		return nil, s.reloadErr
	}
	return s.reloaded, nil
}

func (s *stubService) Status(ctx context.Context) predictionsvc.ModelState {
	return s.state
}

type stubStats struct {
	stats *trip.Stats
	err   error
}

func (s *stubStats) GetStats(ctx context.Context) (*trip.Stats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stats, nil
}

func goodPrediction() *trip.Prediction {
	return &trip.Prediction{
		ID:                       uuid.New(),
		PredictedDurationMinutes: 14.2,
		ConfidenceScore:          0.85,
		ModelVersion:             "a1b2c3d4",
		FeaturesUsed:             trip.TripFeatures{DistanceKm: 1.2},
		CreatedAt:                time.Now(),
	}
}

const validBody = `{
	"pickup_latitude": 40.7589, "pickup_longitude": -73.9851,
	"dropoff_latitude": 40.7505, "dropoff_longitude": -73.9934,
	"passenger_count": 2, "vendor_id": 1
}`

func TestHandlePredict_Success(t *testing.T) {
	handler := NewHandler(&stubService{prediction: goodPrediction()}, nil, 6)

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(validBody))
	rec := httptest.NewRecorder()
	handler.HandlePredict(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 14.2, resp["predicted_duration_minutes"])
	assert.Equal(t, 14.2*60, resp["predicted_duration_seconds"])
	assert.Equal(t, "a1b2c3d4", resp["model_version"])
	assert.Equal(t, false, resp["fallback"])
}

func TestHandlePredict_ValidationError(t *testing.T) {
	svc := &stubService{
		predictErr: errors.NewValidationError("passenger_count", "must be between 1 and 6", 0),
	}
	handler := NewHandler(svc, nil, 6)

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(validBody))
	rec := httptest.NewRecorder()
	handler.HandlePredict(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation failed", resp.Error)
	assert.Equal(t, "must be between 1 and 6", resp.Details["passenger_count"])
}

func TestHandlePredict_BadJSON(t *testing.T) {
	handler := NewHandler(&stubService{prediction: goodPrediction()}, nil, 6)

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	handler.HandlePredict(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePredict_MethodNotAllowed(t *testing.T) {
	handler := NewHandler(&stubService{}, nil, 6)

	req := httptest.NewRequest(http.MethodGet, "/predict", nil)
	rec := httptest.NewRecorder()
	handler.HandlePredict(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleModelStatus(t *testing.T) {
	desc := artifact.Descriptor{ID: "a1b2c3d4e5f6"}
	svc := &stubService{state: predictionsvc.ModelState{
		Status:   "ready",
		Model:    &desc,
		Strategy: "direct_path",
	}}
	handler := NewHandler(svc, nil, 6)

	req := httptest.NewRequest(http.MethodGet, "/model/status", nil)
	rec := httptest.NewRecorder()
	handler.HandleModelStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var state predictionsvc.ModelState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "ready", state.Status)
	assert.Equal(t, "direct_path", state.Strategy)
}

func TestHandleModelStatus_ErrorStateIs503(t *testing.T) {
	svc := &stubService{state: predictionsvc.ModelState{Status: "error", Detail: "store unreachable"}}
	handler := NewHandler(svc, nil, 6)

	req := httptest.NewRequest(http.MethodGet, "/model/status", nil)
	rec := httptest.NewRecorder()
	handler.HandleModelStatus(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleModelReload(t *testing.T) {
	svc := &stubService{reloaded: &ml.LoadedModel{
		Descriptor: artifact.Descriptor{ID: "a1b2c3d4e5f6"},
		Strategy:   "registry_uri",
	}}
	handler := NewHandler(svc, nil, 6)

	req := httptest.NewRequest(http.MethodPost, "/model/reload", nil)
	rec := httptest.NewRecorder()
	handler.HandleModelReload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "reloaded", resp["status"])
	assert.Equal(t, "a1b2c3d4", resp["model_version"])
}

func TestHandleModelReload_RateLimited(t *testing.T) {
	svc := &stubService{reloaded: &ml.LoadedModel{Descriptor: artifact.Descriptor{ID: "x"}}}
	handler := NewHandler(svc, nil, 1) // burst of one

	first := httptest.NewRecorder()
	handler.HandleModelReload(first, httptest.NewRequest(http.MethodPost, "/model/reload", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.HandleModelReload(second, httptest.NewRequest(http.MethodPost, "/model/reload", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestHandleModelReload_Failure(t *testing.T) {
	svc := &stubService{reloadErr: errors.Wrap(errors.ErrModelLoad, "all strategies exhausted")}
	handler := NewHandler(svc, nil, 6)

	rec := httptest.NewRecorder()
	handler.HandleModelReload(rec, httptest.NewRequest(http.MethodPost, "/model/reload", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleTripStats(t *testing.T) {
	stats := &stubStats{stats: &trip.Stats{
		TotalTrips:         1458644,
		AvgDurationSeconds: 959,
	}}
	handler := NewHandler(&stubService{}, stats, 6)

	rec := httptest.NewRecorder()
	handler.HandleTripStats(rec, httptest.NewRequest(http.MethodGet, "/stats/trips", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp trip.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1458644), resp.TotalTrips)
}

func TestHandleTripStats_DatabaseDisabled(t *testing.T) {
	handler := NewHandler(&stubService{}, nil, 6)

	rec := httptest.NewRecorder()
	handler.HandleTripStats(rec, httptest.NewRequest(http.MethodGet, "/stats/trips", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

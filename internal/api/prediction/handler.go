package prediction

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"tripcast/internal/domain/trip"
	"tripcast/internal/ml"
	"tripcast/internal/services/prediction"
	"tripcast/pkg/errors"
	"tripcast/pkg/logger"
)

// Service is the slice of the prediction orchestrator the HTTP layer needs
type Service interface {
	Predict(ctx context.Context, req prediction.Request) (*trip.Prediction, error)
	Reload(ctx context.Context) (*ml.LoadedModel, error)
	Status(ctx context.Context) prediction.ModelState
}

// TripStatsProvider reads aggregate statistics over the trip dataset
type TripStatsProvider interface {
	GetStats(ctx context.Context) (*trip.Stats, error)
}

// Handler serves the prediction endpoints
type Handler struct {
	service       Service
	trips         TripStatsProvider
	reloadLimiter *rate.Limiter
	log           *logger.Logger
}

// NewHandler creates the prediction HTTP handler. trips may be nil when the
// database is disabled; reloadPerMinute bounds manual reload frequency.
func NewHandler(service Service, trips TripStatsProvider, reloadPerMinute int) *Handler {
	if reloadPerMinute <= 0 {
		reloadPerMinute = 6
	}
	return &Handler{
		service:       service,
		trips:         trips,
		reloadLimiter: rate.NewLimiter(rate.Limit(float64(reloadPerMinute)/60.0), 1),
		log:           logger.Get().With("component", "prediction_handler"),
	}
}

type predictionResponse struct {
	PredictionID             string    `json:"prediction_id"`
	PredictedDurationMinutes float64   `json:"predicted_duration_minutes"`
	PredictedDurationSeconds float64   `json:"predicted_duration_seconds"`
	ConfidenceScore          float64   `json:"confidence_score"`
	ModelVersion             string    `json:"model_version"`
	Fallback                 bool      `json:"fallback"`
	DistanceKm               float64   `json:"distance_km"`
	CreatedAt                time.Time `json:"created_at"`
}

type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// HandlePredict serves POST /predict
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	var req prediction.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	result, err := h.service.Predict(r.Context(), req)
	if err != nil {
		if details, ok := validationDetails(err); ok {
			writeError(w, http.StatusBadRequest, "validation failed", details)
			return
		}
		h.log.Errorw("Prediction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "prediction failed", nil)
		return
	}

	writeJSON(w, http.StatusOK, predictionResponse{
		PredictionID:             result.ID.String(),
		PredictedDurationMinutes: result.PredictedDurationMinutes,
		PredictedDurationSeconds: result.PredictedDurationSeconds(),
		ConfidenceScore:          result.ConfidenceScore,
		ModelVersion:             result.ModelVersion,
		Fallback:                 result.IsFallback(),
		DistanceKm:               result.FeaturesUsed.DistanceKm,
		CreatedAt:                result.CreatedAt,
	})
}

// HandleModelStatus serves GET /model/status
func (h *Handler) HandleModelStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	state := h.service.Status(r.Context())
	code := http.StatusOK
	if state.Status == "error" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, state)
}

// HandleModelReload serves POST /model/reload
func (h *Handler) HandleModelReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	if !h.reloadLimiter.Allow() {
		writeError(w, http.StatusTooManyRequests, errors.ErrRateLimitExceeded.Error(), nil)
		return
	}

	model, err := h.service.Reload(r.Context())
	if err != nil {
		h.log.Errorw("Model reload failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "reloaded",
		"artifact_id":   model.Descriptor.ID,
		"model_version": model.Descriptor.ShortID(),
		"strategy":      model.Strategy,
	})
}

// HandleTripStats serves GET /stats/trips
func (h *Handler) HandleTripStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	if h.trips == nil {
		writeError(w, http.StatusServiceUnavailable, "trip database is not configured", nil)
		return
	}

	stats, err := h.trips.GetStats(r.Context())
	if err != nil {
		h.log.Errorw("Trip stats query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read trip statistics", nil)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// validationDetails flattens validation failures into a field->message map
func validationDetails(err error) (map[string]string, bool) {
	details := make(map[string]string)
	collect(err, details)
	if len(details) > 0 {
		return details, true
	}
	if errors.Is(err, errors.ErrInvalidInput) {
		return nil, true
	}
	return nil, false
}

func collect(err error, details map[string]string) {
	var mErr *errors.MultiError
	if errors.As(err, &mErr) {
		for _, e := range mErr.Errors {
			collect(e, details)
		}
		return
	}
	var vErr *errors.ValidationError
	if errors.As(err, &vErr) {
		details[vErr.Field] = vErr.Message
	}
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, message string, details map[string]string) {
	writeJSON(w, code, errorResponse{Error: message, Details: details})
}

package prediction

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tripcast/internal/adapters/config"
	"tripcast/internal/domain/artifact"
	"tripcast/internal/domain/trip"
	"tripcast/internal/events"
	"tripcast/internal/metrics"
	"tripcast/internal/ml"
	"tripcast/pkg/errors"
	"tripcast/pkg/logger"
)

// Resolver selects the best artifact from the store
type Resolver interface {
	ResolveBest(ctx context.Context) (artifact.Descriptor, error)
}

// Loader materializes a runnable predictor from a descriptor
type Loader interface {
	Load(ctx context.Context, desc artifact.Descriptor) (*ml.LoadedModel, error)
}

// ResponseCache caches serialized predictions keyed by feature vector.
// Satisfied by the Redis adapter.
type ResponseCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Request carries the raw inputs of one prediction call. A zero
// PickupDatetime means "now".
type Request struct {
	PickupLatitude   float64   `json:"pickup_latitude"`
	PickupLongitude  float64   `json:"pickup_longitude"`
	DropoffLatitude  float64   `json:"dropoff_latitude"`
	DropoffLongitude float64   `json:"dropoff_longitude"`
	PassengerCount   int       `json:"passenger_count"`
	VendorID         int       `json:"vendor_id"`
	PickupDatetime   time.Time `json:"pickup_datetime,omitempty"`
}

// ModelState is the serving readiness reported by Status
type ModelState struct {
	Status   string               `json:"status"` // ready|no_model|error
	Model    *artifact.Descriptor `json:"model,omitempty"`
	Strategy string               `json:"strategy,omitempty"`
	Detail   string               `json:"detail,omitempty"`
}

// Service is the prediction orchestrator: it validates input, engineers
// features, runs the cached model, and degrades to the heuristic estimator on
// any model failure. Predict never fails for system reasons; only caller
// errors (validation) propagate.
type Service struct {
	model    config.ModelConfig
	ttl      time.Duration
	extract  *trip.Extractor
	resolver Resolver
	loader   Loader
	cache    *modelCache

	// Optional collaborators; all nil-safe and best-effort
	responses   ResponseCache
	predictions trip.PredictionRepository
	publisher   *events.Publisher

	log *logger.Logger
}

// Option wires an optional collaborator into the service
type Option func(*Service)

// WithResponseCache enables feature-vector-keyed response caching
func WithResponseCache(cache ResponseCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.responses = cache
		s.ttl = ttl
	}
}

// WithPredictionLog enables prediction persistence
func WithPredictionLog(repo trip.PredictionRepository) Option {
	return func(s *Service) { s.predictions = repo }
}

// WithPublisher enables prediction/model event publishing
func WithPublisher(p *events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// NewService creates the prediction orchestrator
func NewService(
	model config.ModelConfig,
	extractor *trip.Extractor,
	resolver Resolver,
	loader Loader,
	opts ...Option,
) *Service {
	s := &Service{
		model:    model,
		extract:  extractor,
		resolver: resolver,
		loader:   loader,
		cache:    &modelCache{},
		log:      logger.Get().With("component", "prediction_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Predict produces a duration prediction for one trip. Validation errors are
// returned to the caller; every other failure degrades to the heuristic path.
func (s *Service) Predict(ctx context.Context, req Request) (*trip.Prediction, error) {
	started := time.Now()

	ts := req.PickupDatetime
	if ts.IsZero() {
		ts = time.Now()
	}

	pickup := trip.Location{Latitude: req.PickupLatitude, Longitude: req.PickupLongitude}
	dropoff := trip.Location{Latitude: req.DropoffLatitude, Longitude: req.DropoffLongitude}

	features, err := s.extract.Extract(pickup, dropoff, req.PassengerCount, req.VendorID, ts)
	if err != nil {
		metrics.PredictionRequests.WithLabelValues("validation_error").Inc()
		return nil, err
	}

	if cached := s.cachedResponse(ctx, features); cached != nil {
		s.observe("model", cached, started)
		return cached, nil
	}

	prediction, outcome := s.predictWithModel(ctx, features)
	if prediction == nil {
		prediction = s.fallback(features)
		outcome = "fallback"
	}

	s.persist(ctx, prediction)
	s.announce(ctx, prediction)
	if outcome == "model" {
		s.storeResponse(ctx, features, prediction)
	}

	s.observe(outcome, prediction, started)
	return prediction, nil
}

// predictWithModel attempts the model path; a nil return routes the request
// to the fallback
func (s *Service) predictWithModel(ctx context.Context, features trip.TripFeatures) (*trip.Prediction, string) {
	model, err := s.cache.getOrLoad(ctx, s.loadBest)
	if err != nil {
		s.log.Warnw("Model unavailable, serving heuristic estimate", "error", err)
		return nil, ""
	}

	minutes, err := model.Predictor.Infer(features.Vector())
	if err != nil {
		// A model that rejects one vector may accept the next; the cache
		// survives inference errors
		s.log.Warnw("Inference failed, serving heuristic estimate",
			"artifact_id", model.Descriptor.ID, "error", err)
		return nil, ""
	}

	return &trip.Prediction{
		ID:                       uuid.New(),
		PredictedDurationMinutes: minutes,
		ConfidenceScore:          s.confidence(features),
		ModelVersion:             model.Descriptor.ShortID(),
		FeaturesUsed:             features,
		CreatedAt:                time.Now(),
	}, "model"
}

// fallback is the availability floor: a closed-form estimate with no
// external dependency
func (s *Service) fallback(features trip.TripFeatures) *trip.Prediction {
	return &trip.Prediction{
		ID:                       uuid.New(),
		PredictedDurationMinutes: features.DistanceKm * s.model.FallbackMinutesPerKm,
		ConfidenceScore:          s.model.FallbackConfidence,
		ModelVersion:             trip.FallbackModelVersion,
		FeaturesUsed:             features,
		CreatedAt:                time.Now(),
	}
}

// confidence discounts the base score for rush-hour and long-trip requests;
// the two penalties compose multiplicatively
func (s *Service) confidence(features trip.TripFeatures) float64 {
	score := s.model.BaseConfidence
	if features.IsRushHour == 1 {
		score = s.model.RushHourConfidence
	}
	if features.DistanceKm > s.model.LongTripThresholdKm {
		score *= s.model.LongTripPenalty
	}
	return score
}

// Reload invalidates the model cache and forces exactly one fresh
// resolve+load. On failure the previous model (if any) keeps serving and the
// error goes to the reload caller only.
func (s *Service) Reload(ctx context.Context) (*ml.LoadedModel, error) {
	model, err := s.cache.reload(ctx, s.loadBest)
	if err != nil {
		metrics.ModelReloads.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.ModelReloads.WithLabelValues("success").Inc()
	if s.publisher != nil {
		s.publisher.PublishModelReloaded(ctx, events.ModelReloadedEvent{
			ArtifactID: model.Descriptor.ID,
			Strategy:   model.Strategy,
			ReloadedAt: time.Now(),
		})
	}
	return model, nil
}

// Status reports serving readiness, loading the model on demand
func (s *Service) Status(ctx context.Context) ModelState {
	model, err := s.cache.getOrLoad(ctx, s.loadBest)
	switch {
	case err == nil:
		return ModelState{
			Status:   "ready",
			Model:    &model.Descriptor,
			Strategy: model.Strategy,
		}
	case errors.Is(err, errors.ErrNoArtifactsFound):
		return ModelState{Status: "no_model", Detail: err.Error()}
	default:
		return ModelState{Status: "error", Detail: err.Error()}
	}
}

// CachedDescriptor returns the descriptor of the cached model, or nil
func (s *Service) CachedDescriptor() *artifact.Descriptor {
	if model := s.cache.get(); model != nil {
		desc := model.Descriptor
		return &desc
	}
	return nil
}

// loadBest is the cache's loadFunc: resolve then load
func (s *Service) loadBest(ctx context.Context) (*ml.LoadedModel, error) {
	desc, err := s.resolver.ResolveBest(ctx)
	if err != nil {
		return nil, err
	}
	return s.loader.Load(ctx, desc)
}

func (s *Service) cachedResponse(ctx context.Context, features trip.TripFeatures) *trip.Prediction {
	if s.responses == nil {
		return nil
	}
	var p trip.Prediction
	if err := s.responses.Get(ctx, responseKey(features), &p); err != nil {
		return nil
	}
	return &p
}

func (s *Service) storeResponse(ctx context.Context, features trip.TripFeatures, p *trip.Prediction) {
	if s.responses == nil {
		return
	}
	if err := s.responses.Set(ctx, responseKey(features), p, s.ttl); err != nil {
		s.log.Warnw("Response cache write failed", "error", err)
	}
}

func (s *Service) persist(ctx context.Context, p *trip.Prediction) {
	if s.predictions == nil {
		return
	}
	if err := s.predictions.Save(ctx, p); err != nil {
		s.log.Warnw("Prediction log write failed", "error", err)
	}
}

func (s *Service) announce(ctx context.Context, p *trip.Prediction) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishPredictionMade(ctx, events.PredictionMadeEvent{
		PredictionID:             p.ID.String(),
		PredictedDurationMinutes: p.PredictedDurationMinutes,
		ConfidenceScore:          p.ConfidenceScore,
		ModelVersion:             p.ModelVersion,
		DistanceKm:               p.FeaturesUsed.DistanceKm,
		Fallback:                 p.IsFallback(),
		CreatedAt:                p.CreatedAt,
	})
}

func (s *Service) observe(outcome string, p *trip.Prediction, started time.Time) {
	metrics.PredictionRequests.WithLabelValues(outcome).Inc()
	metrics.PredictionLatency.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
	metrics.PredictionConfidence.WithLabelValues(outcome).Observe(p.ConfidenceScore)
}

func responseKey(features trip.TripFeatures) string {
	return "tripcast:prediction:" + features.CacheKey()
}

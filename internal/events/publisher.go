package events

import (
	"context"
	"time"

	"tripcast/internal/adapters/kafka"
	"tripcast/internal/metrics"
	"tripcast/pkg/logger"
)

// PredictionMadeEvent is emitted for every served prediction
type PredictionMadeEvent struct {
	PredictionID             string    `json:"prediction_id"`
	PredictedDurationMinutes float64   `json:"predicted_duration_minutes"`
	ConfidenceScore          float64   `json:"confidence_score"`
	ModelVersion             string    `json:"model_version"`
	DistanceKm               float64   `json:"distance_km"`
	Fallback                 bool      `json:"fallback"`
	CreatedAt                time.Time `json:"created_at"`
}

// ModelReloadedEvent is emitted when the cached model changes
type ModelReloadedEvent struct {
	ArtifactID string    `json:"artifact_id"`
	Strategy   string    `json:"strategy"`
	ReloadedAt time.Time `json:"reloaded_at"`
}

// Publisher publishes serving events to Kafka. All publishing is
// best-effort: event failures never fail the request that produced them.
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		log:      logger.Get().With("component", "event_publisher"),
	}
}

// PublishPredictionMade emits a prediction-made event
func (p *Publisher) PublishPredictionMade(ctx context.Context, event PredictionMadeEvent) {
	p.publish(ctx, kafka.TopicPredictionEvents, event.PredictionID, event)
}

// PublishModelReloaded emits a model-reloaded event
func (p *Publisher) PublishModelReloaded(ctx context.Context, event ModelReloadedEvent) {
	p.publish(ctx, kafka.TopicModelEvents, event.ArtifactID, event)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, event interface{}) {
	if p == nil || p.producer == nil {
		return
	}

	if err := p.producer.Publish(ctx, topic, key, event); err != nil {
		metrics.KafkaMessages.WithLabelValues(topic, "error").Inc()
		p.log.Warnw("Event publish failed", "topic", topic, "error", err)
		return
	}
	metrics.KafkaMessages.WithLabelValues(topic, "success").Inc()
}

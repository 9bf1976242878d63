package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tripcast/internal/domain/trip"
	"tripcast/internal/metrics"
)

// Compile-time check
var _ trip.PredictionRepository = (*PredictionRepository)(nil)

// PredictionRepository persists served predictions for monitoring and drift
// checks
type PredictionRepository struct {
	db *sqlx.DB
}

// NewPredictionRepository creates a new prediction repository
func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Save stores one served prediction
func (r *PredictionRepository) Save(ctx context.Context, p *trip.Prediction) error {
	features, err := json.Marshal(p.FeaturesUsed)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO predictions (
			id, predicted_duration_minutes, confidence_score,
			model_version, features_used, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.PredictedDurationMinutes, p.ConfidenceScore,
		p.ModelVersion, features, p.CreatedAt,
	)
	if err != nil {
		metrics.DBQueries.WithLabelValues("postgres", "prediction_save", "error").Inc()
		return err
	}

	metrics.DBQueries.WithLabelValues("postgres", "prediction_save", "success").Inc()
	return nil
}

// GetRecent returns the latest served predictions
func (r *PredictionRepository) GetRecent(ctx context.Context, limit int) ([]trip.Prediction, error) {
	query := `
		SELECT id, predicted_duration_minutes, confidence_score,
		       model_version, features_used, created_at
		FROM predictions
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var predictions []trip.Prediction
	for rows.Next() {
		var row predictionRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		p, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}

	return predictions, rows.Err()
}

// GetStats aggregates the prediction log since a point in time
func (r *PredictionRepository) GetStats(ctx context.Context, since time.Time) (*trip.PredictionStats, error) {
	var stats trip.PredictionStats

	query := `
		SELECT
			COUNT(*) AS count,
			COALESCE(AVG(confidence_score), 0) AS avg_confidence,
			COUNT(*) FILTER (WHERE model_version = $2) AS fallback_count
		FROM predictions
		WHERE created_at >= $1`

	err := r.db.GetContext(ctx, &stats, query, since, trip.FallbackModelVersion)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// predictionRow is the flat scan target for the predictions table
type predictionRow struct {
	ID                       string    `db:"id"`
	PredictedDurationMinutes float64   `db:"predicted_duration_minutes"`
	ConfidenceScore          float64   `db:"confidence_score"`
	ModelVersion             string    `db:"model_version"`
	FeaturesUsed             []byte    `db:"features_used"`
	CreatedAt                time.Time `db:"created_at"`
}

func (row predictionRow) toEntity() (trip.Prediction, error) {
	var features trip.TripFeatures
	if err := json.Unmarshal(row.FeaturesUsed, &features); err != nil {
		return trip.Prediction{}, err
	}

	id, err := uuid.Parse(row.ID)
	if err != nil {
		return trip.Prediction{}, err
	}

	return trip.Prediction{
		ID:                       id,
		PredictedDurationMinutes: row.PredictedDurationMinutes,
		ConfidenceScore:          row.ConfidenceScore,
		ModelVersion:             row.ModelVersion,
		FeaturesUsed:             features,
		CreatedAt:                row.CreatedAt,
	}, nil
}

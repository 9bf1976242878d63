package trip

import (
	"context"
	"time"
)

// Stats summarizes the stored trip table
type Stats struct {
	TotalTrips         int64     `db:"total_trips" json:"total_trips"`
	AvgDurationSeconds float64   `db:"avg_duration_seconds" json:"avg_duration_seconds"`
	EarliestTrip       time.Time `db:"earliest_trip" json:"earliest_trip"`
	LatestTrip         time.Time `db:"latest_trip" json:"latest_trip"`
}

// AvgDurationMinutes returns the mean trip duration in minutes
func (s Stats) AvgDurationMinutes() float64 {
	return s.AvgDurationSeconds / 60
}

// Repository defines access to stored taxi trips
type Repository interface {
	GetStats(ctx context.Context) (*Stats, error)
	GetTripsForTraining(ctx context.Context, limit int) ([]TaxiTrip, error)
}

// PredictionStats aggregates the served prediction log, used for drift checks
type PredictionStats struct {
	Count         int64   `db:"count" json:"count"`
	AvgConfidence float64 `db:"avg_confidence" json:"avg_confidence"`
	FallbackCount int64   `db:"fallback_count" json:"fallback_count"`
}

// PredictionRepository defines persistence for served predictions
type PredictionRepository interface {
	Save(ctx context.Context, p *Prediction) error
	GetRecent(ctx context.Context, limit int) ([]Prediction, error)
	GetStats(ctx context.Context, since time.Time) (*PredictionStats, error)
}

package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"tripcast/internal/domain/trip"
	"tripcast/internal/metrics"
)

// Compile-time check
var _ trip.Repository = (*TripRepository)(nil)

// TripRepository implements trip.Repository using sqlx
type TripRepository struct {
	db *sqlx.DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

// GetStats summarizes the taxi_trips table
func (r *TripRepository) GetStats(ctx context.Context) (*trip.Stats, error) {
	var stats trip.Stats

	query := `
		SELECT
			COUNT(*) AS total_trips,
			COALESCE(AVG(trip_duration_seconds), 0) AS avg_duration_seconds,
			COALESCE(MIN(pickup_datetime), NOW()) AS earliest_trip,
			COALESCE(MAX(pickup_datetime), NOW()) AS latest_trip
		FROM taxi_trips`

	err := r.db.GetContext(ctx, &stats, query)
	if err != nil {
		metrics.DBQueries.WithLabelValues("postgres", "trip_stats", "error").Inc()
		return nil, err
	}

	metrics.DBQueries.WithLabelValues("postgres", "trip_stats", "success").Inc()
	return &stats, nil
}

// GetTripsForTraining returns valid-looking trips, newest first. limit <= 0
// means no limit.
func (r *TripRepository) GetTripsForTraining(ctx context.Context, limit int) ([]trip.TaxiTrip, error) {
	query := `
		SELECT
			id, vendor_id, pickup_datetime, dropoff_datetime, passenger_count,
			pickup_latitude, pickup_longitude,
			dropoff_latitude, dropoff_longitude,
			store_and_fwd_flag, trip_duration_seconds
		FROM taxi_trips
		WHERE trip_duration_seconds BETWEEN $1 AND $2
		ORDER BY pickup_datetime DESC`

	args := []interface{}{trip.MinDurationSeconds, trip.MaxDurationSeconds}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		metrics.DBQueries.WithLabelValues("postgres", "trips_for_training", "error").Inc()
		return nil, err
	}
	defer rows.Close()

	var trips []trip.TaxiTrip
	for rows.Next() {
		var row tripRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		trips = append(trips, row.toEntity())
	}

	metrics.DBQueries.WithLabelValues("postgres", "trips_for_training", "success").Inc()
	return trips, rows.Err()
}

// tripRow is the flat scan target for taxi_trips
type tripRow struct {
	ID                  string    `db:"id"`
	VendorID            int       `db:"vendor_id"`
	PickupDatetime      time.Time `db:"pickup_datetime"`
	DropoffDatetime     time.Time `db:"dropoff_datetime"`
	PassengerCount      int       `db:"passenger_count"`
	PickupLatitude      float64   `db:"pickup_latitude"`
	PickupLongitude     float64   `db:"pickup_longitude"`
	DropoffLatitude     float64   `db:"dropoff_latitude"`
	DropoffLongitude    float64   `db:"dropoff_longitude"`
	StoreAndFwdFlag     string    `db:"store_and_fwd_flag"`
	TripDurationSeconds float64   `db:"trip_duration_seconds"`
}

func (row tripRow) toEntity() trip.TaxiTrip {
	return trip.TaxiTrip{
		ID:              row.ID,
		VendorID:        row.VendorID,
		PickupDatetime:  row.PickupDatetime,
		DropoffDatetime: row.DropoffDatetime,
		PassengerCount:  row.PassengerCount,
		Pickup: trip.Location{
			Latitude:  row.PickupLatitude,
			Longitude: row.PickupLongitude,
		},
		Dropoff: trip.Location{
			Latitude:  row.DropoffLatitude,
			Longitude: row.DropoffLongitude,
		},
		StoreAndFwdFlag: row.StoreAndFwdFlag,
		Duration:        trip.TripDuration{Seconds: row.TripDurationSeconds},
	}
}

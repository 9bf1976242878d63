package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"tripcast/internal/adapters/config"
	"tripcast/internal/domain/trip"
	"tripcast/pkg/logger"
)

// Seeds the trip database for local development: creates the schema and
// fills taxi_trips with synthetic NYC trips.
func main() {
	trips := flag.Int("trips", 1000, "Number of synthetic trips to insert")
	schemaOnly := flag.Bool("schema-only", false, "Create tables without inserting trips")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	log := logger.Get()

	if !cfg.Postgres.Enabled() {
		log.Fatal("POSTGRES_HOST is not configured")
	}

	db, err := sqlx.Connect("postgres", cfg.Postgres.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	log.Info("Creating schema...")
	if err := createSchema(ctx, db); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	log.Info("✓ Schema ready")

	if *schemaOnly {
		return
	}

	log.Infow("Seeding trips", "count", *trips)
	if err := seedTrips(ctx, db, *trips); err != nil {
		log.Fatalf("Failed to seed trips: %v", err)
	}
	log.Infow("✓ Trips seeded", "count", *trips)
}

func createSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS taxi_trips (
		id                    TEXT PRIMARY KEY,
		vendor_id             INTEGER NOT NULL,
		pickup_datetime       TIMESTAMPTZ NOT NULL,
		dropoff_datetime      TIMESTAMPTZ NOT NULL,
		passenger_count       INTEGER NOT NULL,
		pickup_latitude       DOUBLE PRECISION NOT NULL,
		pickup_longitude      DOUBLE PRECISION NOT NULL,
		dropoff_latitude      DOUBLE PRECISION NOT NULL,
		dropoff_longitude     DOUBLE PRECISION NOT NULL,
		store_and_fwd_flag    TEXT NOT NULL DEFAULT 'N',
		trip_duration_seconds DOUBLE PRECISION NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_taxi_trips_pickup_datetime
		ON taxi_trips (pickup_datetime DESC);

	CREATE TABLE IF NOT EXISTS predictions (
		id                         UUID PRIMARY KEY,
		predicted_duration_minutes DOUBLE PRECISION NOT NULL,
		confidence_score           DOUBLE PRECISION NOT NULL,
		model_version              TEXT NOT NULL,
		features_used              JSONB NOT NULL,
		created_at                 TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_created_at
		ON predictions (created_at DESC);`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// seedTrips inserts synthetic trips with durations loosely tied to distance,
// so aggregate stats look plausible
func seedTrips(ctx context.Context, db *sqlx.DB, count int) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	region := trip.NYCRegion

	insert := `
		INSERT INTO taxi_trips (
			id, vendor_id, pickup_datetime, dropoff_datetime, passenger_count,
			pickup_latitude, pickup_longitude,
			dropoff_latitude, dropoff_longitude,
			store_and_fwd_flag, trip_duration_seconds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := 0; i < count; i++ {
		pickup := randomLocation(rng, region)
		dropoff := randomLocation(rng, region)
		distance := trip.DistanceKm(pickup, dropoff)

		// Roughly 3 min/km with noise, clamped to the valid duration range
		durationSeconds := distance*180*(0.7+rng.Float64()*0.6) + 60
		durationSeconds = math.Min(math.Max(durationSeconds, trip.MinDurationSeconds), trip.MaxDurationSeconds)

		pickupTime := time.Now().Add(-time.Duration(rng.Intn(90*24)) * time.Hour)
		dropoffTime := pickupTime.Add(time.Duration(durationSeconds) * time.Second)

		flag := "N"
		if rng.Float64() < 0.01 {
			flag = "Y"
		}

		_, err := tx.ExecContext(ctx, insert,
			"seed-"+uuid.NewString(),
			1+rng.Intn(2),
			pickupTime,
			dropoffTime,
			1+rng.Intn(trip.MaxPassengers),
			pickup.Latitude, pickup.Longitude,
			dropoff.Latitude, dropoff.Longitude,
			flag,
			durationSeconds,
		)
		if err != nil {
			return fmt.Errorf("insert trip %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func randomLocation(rng *rand.Rand, r trip.Region) trip.Location {
	return trip.Location{
		Latitude:  r.MinLatitude + rng.Float64()*(r.MaxLatitude-r.MinLatitude),
		Longitude: r.MinLongitude + rng.Float64()*(r.MaxLongitude-r.MinLongitude),
	}
}

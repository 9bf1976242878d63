package trip

import (
	"time"

	"github.com/google/uuid"
)

// Location is an immutable geographic point
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// Region is a bounding box of serviceable locations
type Region struct {
	MinLatitude  float64
	MaxLatitude  float64
	MinLongitude float64
	MaxLongitude float64
}

// NYCRegion covers the New York City service area
var NYCRegion = Region{
	MinLatitude:  40.5,
	MaxLatitude:  40.9,
	MinLongitude: -74.3,
	MaxLongitude: -73.7,
}

// Contains reports whether l falls inside the region
func (r Region) Contains(l Location) bool {
	return l.Latitude >= r.MinLatitude && l.Latitude <= r.MaxLatitude &&
		l.Longitude >= r.MinLongitude && l.Longitude <= r.MaxLongitude
}

// Trip duration validity bounds
const (
	MinDurationSeconds = 30    // very short trips are data noise
	MaxDurationSeconds = 21600 // 6 hours
)

// TripDuration is an immutable duration value
type TripDuration struct {
	Seconds float64 `json:"seconds" db:"trip_duration_seconds"`
}

// Minutes returns the duration in minutes
func (d TripDuration) Minutes() float64 {
	return d.Seconds / 60
}

// Hours returns the duration in hours
func (d TripDuration) Hours() float64 {
	return d.Seconds / 3600
}

// Valid reports whether the duration is realistic
func (d TripDuration) Valid() bool {
	return d.Seconds >= MinDurationSeconds && d.Seconds <= MaxDurationSeconds
}

// TaxiTrip is a completed trip record, the unit of training data
type TaxiTrip struct {
	ID               string       `db:"id"`
	VendorID         int          `db:"vendor_id"`
	PickupDatetime   time.Time    `db:"pickup_datetime"`
	DropoffDatetime  time.Time    `db:"dropoff_datetime"`
	PassengerCount   int          `db:"passenger_count"`
	Pickup           Location     `db:"pickup"`
	Dropoff          Location     `db:"dropoff"`
	StoreAndFwdFlag  string       `db:"store_and_fwd_flag"`
	Duration         TripDuration `db:"duration"`
}

// DistanceKm returns the great-circle trip distance
func (t *TaxiTrip) DistanceKm() float64 {
	return DistanceKm(t.Pickup, t.Dropoff)
}

// Valid reports whether the trip is usable for training
func (t *TaxiTrip) Valid(region Region) bool {
	return region.Contains(t.Pickup) &&
		region.Contains(t.Dropoff) &&
		t.Duration.Valid() &&
		t.PassengerCount >= MinPassengers && t.PassengerCount <= MaxPassengers &&
		t.DistanceKm() > 0.1 // at least 100 meters
}

// FallbackModelVersion marks predictions produced by the heuristic estimator
const FallbackModelVersion = "fallback"

// Prediction is the immutable result of one predict call
type Prediction struct {
	ID                       uuid.UUID    `json:"id" db:"id"`
	PredictedDurationMinutes float64      `json:"predicted_duration_minutes" db:"predicted_duration_minutes"`
	ConfidenceScore          float64      `json:"confidence_score" db:"confidence_score"`
	ModelVersion             string       `json:"model_version" db:"model_version"`
	FeaturesUsed             TripFeatures `json:"features_used"`
	CreatedAt                time.Time    `json:"created_at" db:"created_at"`
}

// PredictedDurationSeconds returns the prediction in seconds
func (p *Prediction) PredictedDurationSeconds() float64 {
	return p.PredictedDurationMinutes * 60
}

// IsFallback reports whether the heuristic path produced this prediction
func (p *Prediction) IsFallback() bool {
	return p.ModelVersion == FallbackModelVersion
}

// Confident reports whether the prediction meets the confidence threshold
func (p *Prediction) Confident(threshold float64) bool {
	return p.ConfidenceScore >= threshold
}

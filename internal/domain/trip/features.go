package trip

import (
	"fmt"
	"time"

	"tripcast/pkg/errors"
)

// Categorical input bounds
const (
	MinPassengers = 1
	MaxPassengers = 6
)

// FeatureNames lists the model input columns in training order
var FeatureNames = []string{
	"distance_km",
	"passenger_count",
	"vendor_id",
	"hour_of_day",
	"day_of_week",
	"month",
	"is_weekend",
	"is_rush_hour",
}

// TripFeatures is the fixed-order numeric encoding of one trip. The field
// order of Vector is the contract every trained artifact depends on;
// reordering it invalidates all existing models.
type TripFeatures struct {
	DistanceKm     float64   `json:"distance_km"`
	PassengerCount int       `json:"passenger_count"`
	VendorID       int       `json:"vendor_id"`
	HourOfDay      int       `json:"hour_of_day"`
	DayOfWeek      int       `json:"day_of_week"`
	Month          int       `json:"month"`
	IsWeekend      int       `json:"is_weekend"`
	IsRushHour     int       `json:"is_rush_hour"`
	PickupDatetime time.Time `json:"pickup_datetime"`
}

// Vector returns the features in training order
func (f TripFeatures) Vector() []float64 {
	return []float64{
		f.DistanceKm,
		float64(f.PassengerCount),
		float64(f.VendorID),
		float64(f.HourOfDay),
		float64(f.DayOfWeek),
		float64(f.Month),
		float64(f.IsWeekend),
		float64(f.IsRushHour),
	}
}

// CacheKey is a deterministic string encoding of the vector, usable as a
// cache key because Extract is pure
func (f TripFeatures) CacheKey() string {
	return fmt.Sprintf("%.6f:%d:%d:%d:%d:%d:%d:%d",
		f.DistanceKm, f.PassengerCount, f.VendorID,
		f.HourOfDay, f.DayOfWeek, f.Month, f.IsWeekend, f.IsRushHour)
}

// Extractor derives TripFeatures from raw trip inputs. It is a pure value:
// identical inputs always yield identical features.
type Extractor struct {
	region Region
}

// NewExtractor creates a feature extractor bounded to a service region
func NewExtractor(region Region) *Extractor {
	return &Extractor{region: region}
}

// Extract validates the raw inputs and computes the ordered feature record
func (e *Extractor) Extract(pickup, dropoff Location, passengers, vendorID int, ts time.Time) (TripFeatures, error) {
	if !e.region.Contains(pickup) {
		return TripFeatures{}, errors.NewValidationError("pickup", "location outside service region", pickup)
	}
	if !e.region.Contains(dropoff) {
		return TripFeatures{}, errors.NewValidationError("dropoff", "location outside service region", dropoff)
	}
	if passengers < MinPassengers || passengers > MaxPassengers {
		return TripFeatures{}, errors.NewValidationError("passenger_count",
			fmt.Sprintf("must be between %d and %d", MinPassengers, MaxPassengers), passengers)
	}
	if vendorID != 1 && vendorID != 2 {
		return TripFeatures{}, errors.NewValidationError("vendor_id", "must be 1 or 2", vendorID)
	}

	weekday := MondayWeekday(int(ts.Weekday()))

	features := TripFeatures{
		DistanceKm:     DistanceKm(pickup, dropoff),
		PassengerCount: passengers,
		VendorID:       vendorID,
		HourOfDay:      ts.Hour(),
		DayOfWeek:      weekday,
		Month:          int(ts.Month()),
		IsWeekend:      boolFeature(IsWeekend(weekday)),
		IsRushHour:     boolFeature(IsRushHour(ts.Hour())),
		PickupDatetime: ts,
	}

	return features, nil
}

// FromTrip computes features for a stored trip record
func (e *Extractor) FromTrip(t *TaxiTrip) (TripFeatures, error) {
	return e.Extract(t.Pickup, t.Dropoff, t.PassengerCount, t.VendorID, t.PickupDatetime)
}

func boolFeature(b bool) int {
	if b {
		return 1
	}
	return 0
}

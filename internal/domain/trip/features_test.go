package trip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripcast/pkg/errors"
)

var (
	timesSquare = Location{Latitude: 40.7589, Longitude: -73.9851}
	pennStation = Location{Latitude: 40.7505, Longitude: -73.9934}
)

func TestExtract_Deterministic(t *testing.T) {
	extractor := NewExtractor(NYCRegion)
	ts := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)

	first, err := extractor.Extract(timesSquare, pennStation, 2, 1, ts)
	require.NoError(t, err)

	second, err := extractor.Extract(timesSquare, pennStation, 2, 1, ts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Vector(), second.Vector())
	assert.Equal(t, first.CacheKey(), second.CacheKey())
}

func TestExtract_FeatureValues(t *testing.T) {
	extractor := NewExtractor(NYCRegion)
	// Tuesday 2026-03-10, 08:30 is rush hour
	ts := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)

	features, err := extractor.Extract(timesSquare, pennStation, 2, 1, ts)
	require.NoError(t, err)

	assert.InDelta(t, 1.16, features.DistanceKm, 0.1)
	assert.Equal(t, 2, features.PassengerCount)
	assert.Equal(t, 1, features.VendorID)
	assert.Equal(t, 8, features.HourOfDay)
	assert.Equal(t, 1, features.DayOfWeek) // Tuesday, 0=Monday
	assert.Equal(t, 3, features.Month)
	assert.Equal(t, 0, features.IsWeekend)
	assert.Equal(t, 1, features.IsRushHour)
}

func TestExtract_WeekendTrip(t *testing.T) {
	extractor := NewExtractor(NYCRegion)
	// Saturday 2026-03-14, 14:00
	ts := time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC)

	features, err := extractor.Extract(timesSquare, pennStation, 1, 2, ts)
	require.NoError(t, err)

	assert.Equal(t, 5, features.DayOfWeek)
	assert.Equal(t, 1, features.IsWeekend)
	assert.Equal(t, 0, features.IsRushHour)
}

func TestExtract_ValidationErrors(t *testing.T) {
	extractor := NewExtractor(NYCRegion)
	ts := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		pickup     Location
		dropoff    Location
		passengers int
		vendorID   int
		field      string
	}{
		{
			name:       "pickup outside region",
			pickup:     Location{Latitude: 34.05, Longitude: -118.24}, // LA
			dropoff:    pennStation,
			passengers: 1,
			vendorID:   1,
			field:      "pickup",
		},
		{
			name:       "dropoff outside region",
			pickup:     timesSquare,
			dropoff:    Location{Latitude: 41.88, Longitude: -87.63}, // Chicago
			passengers: 1,
			vendorID:   1,
			field:      "dropoff",
		},
		{
			name:       "zero passengers",
			pickup:     timesSquare,
			dropoff:    pennStation,
			passengers: 0,
			vendorID:   1,
			field:      "passenger_count",
		},
		{
			name:       "too many passengers",
			pickup:     timesSquare,
			dropoff:    pennStation,
			passengers: 7,
			vendorID:   1,
			field:      "passenger_count",
		},
		{
			name:       "unknown vendor",
			pickup:     timesSquare,
			dropoff:    pennStation,
			passengers: 1,
			vendorID:   3,
			field:      "vendor_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractor.Extract(tt.pickup, tt.dropoff, tt.passengers, tt.vendorID, ts)
			require.Error(t, err)

			var vErr *errors.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestVector_Order(t *testing.T) {
	features := TripFeatures{
		DistanceKm:     5.5,
		PassengerCount: 2,
		VendorID:       1,
		HourOfDay:      8,
		DayOfWeek:      1,
		Month:          3,
		IsWeekend:      0,
		IsRushHour:     1,
	}

	assert.Equal(t, []float64{5.5, 2, 1, 8, 1, 3, 0, 1}, features.Vector())
	assert.Len(t, features.Vector(), len(FeatureNames))
}

func TestFromTrip(t *testing.T) {
	extractor := NewExtractor(NYCRegion)
	pickup := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)

	taxiTrip := &TaxiTrip{
		ID:             "trip-1",
		VendorID:       2,
		PickupDatetime: pickup,
		PassengerCount: 3,
		Pickup:         timesSquare,
		Dropoff:        pennStation,
	}

	fromTrip, err := extractor.FromTrip(taxiTrip)
	require.NoError(t, err)

	direct, err := extractor.Extract(timesSquare, pennStation, 3, 2, pickup)
	require.NoError(t, err)

	assert.Equal(t, direct, fromTrip)
}

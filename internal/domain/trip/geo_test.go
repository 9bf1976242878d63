package trip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm_ZeroForIdenticalPoints(t *testing.T) {
	p := Location{Latitude: 40.7589, Longitude: -73.9851}
	assert.Equal(t, 0.0, DistanceKm(p, p))
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := Location{Latitude: 40.7589, Longitude: -73.9851} // Times Square
	b := Location{Latitude: 40.6413, Longitude: -73.7781} // JFK

	assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-12)
}

func TestDistanceKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Location
		expected float64
		delta    float64
	}{
		{
			name:     "times square to jfk",
			a:        Location{Latitude: 40.7589, Longitude: -73.9851},
			b:        Location{Latitude: 40.6413, Longitude: -73.7781},
			expected: 21.7,
			delta:    0.5,
		},
		{
			name:     "times square to empire state",
			a:        Location{Latitude: 40.7589, Longitude: -73.9851},
			b:        Location{Latitude: 40.7484, Longitude: -73.9857},
			expected: 1.17,
			delta:    0.05,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DistanceKm(tt.a, tt.b), tt.delta)
		})
	}
}

func TestIsWeekend(t *testing.T) {
	// 0=Monday .. 6=Sunday
	weekends := map[int]bool{
		0: false, 1: false, 2: false, 3: false, 4: false,
		5: true, 6: true,
	}

	for weekday, expected := range weekends {
		assert.Equal(t, expected, IsWeekend(weekday), "weekday %d", weekday)
	}
}

func TestIsRushHour(t *testing.T) {
	rush := map[int]bool{7: true, 8: true, 9: true, 17: true, 18: true, 19: true}

	for hour := 0; hour < 24; hour++ {
		assert.Equal(t, rush[hour], IsRushHour(hour), "hour %d", hour)
	}
}

func TestMondayWeekday(t *testing.T) {
	// time.Weekday: 0=Sunday .. 6=Saturday
	assert.Equal(t, 6, MondayWeekday(0)) // Sunday
	assert.Equal(t, 0, MondayWeekday(1)) // Monday
	assert.Equal(t, 4, MondayWeekday(5)) // Friday
	assert.Equal(t, 5, MondayWeekday(6)) // Saturday
}

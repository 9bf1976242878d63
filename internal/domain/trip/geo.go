package trip

import "math"

// earthRadiusKm is the mean Earth radius used for great-circle distances
const earthRadiusKm = 6371

// DistanceKm computes the haversine great-circle distance between two
// locations in kilometers. Symmetric, and zero iff a == b.
//
// Training feature extraction and request-time serving must both go through
// this function; computing distance any other way skews features between
// training and serving.
func DistanceKm(a, b Location) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// IsWeekend reports whether a weekday (0=Monday .. 6=Sunday) is Saturday or
// Sunday
func IsWeekend(weekday int) bool {
	return weekday == 5 || weekday == 6
}

// IsRushHour reports whether an hour of day (0..23) falls in the NYC rush
// windows 7-9 and 17-19
func IsRushHour(hour int) bool {
	switch hour {
	case 7, 8, 9, 17, 18, 19:
		return true
	}
	return false
}

// MondayWeekday converts time.Weekday (0=Sunday) to the 0=Monday convention
// the models were trained with
func MondayWeekday(goWeekday int) int {
	return (goWeekday + 6) % 7
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

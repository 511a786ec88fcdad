// CLAUDE:SUMMARY Haversine great-circle distance, proximity sorting of schools, fixed-point geocoding stub.
package registry

import (
	"math"
	"sort"
)

const earthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometers between two
// coordinates (haversine formula).
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Nearest returns a copy of schools sorted by distance from the given point,
// with the transient Distance field populated. The input slice is not
// modified.
func Nearest(schools []School, lat, lng float64) []School {
	sorted := make([]School, len(schools))
	copy(sorted, schools)
	for i := range sorted {
		sorted[i].Distance = Distance(lat, lng, sorted[i].Lat, sorted[i].Lng)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Distance < sorted[j].Distance
	})
	return sorted
}

// Geocode resolves a postal address to coordinates. Real geocoding is out of
// scope: it returns a fixed point near the municipal center regardless of
// input.
func Geocode(address string) (lat, lng float64) {
	return -23.562000, -46.645000
}

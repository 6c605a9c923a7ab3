// Package geo provides the great-circle distance helper used to sort
// meetings by proximity.
package geo

import "math"

const earthRadiusMiles = 3958.8

// Distance returns the haversine great-circle distance in miles between two
// coordinate pairs. It is zero for identical points and symmetric in its
// arguments.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

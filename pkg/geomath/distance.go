package geomath

import (
	"errors"
	"math"
)

const earthRadiusMeters = 6371000

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Distance returns the great-circle distance in meters between two
// lat/lng points. Accurate well below the ~10m radii used for station
// geofences, unlike an equirectangular shortcut.
func Distance(latitudeA float64, longitudeA float64, latitudeB float64, longitudeB float64) (float64, error) {
	for _, coordinate := range []float64{latitudeA, longitudeA, latitudeB, longitudeB} {
		if math.IsNaN(coordinate) || math.IsInf(coordinate, 0) {
			return 0, ErrInvalidCoordinate
		}
	}

	if math.Abs(latitudeA) > 90 || math.Abs(latitudeB) > 90 || math.Abs(longitudeA) > 180 || math.Abs(longitudeB) > 180 {
		return 0, ErrInvalidCoordinate
	}

	deltaLatitude := toRadians(latitudeB - latitudeA)
	deltaLongitude := toRadians(longitudeB - longitudeA)

	a := math.Sin(deltaLatitude/2)*math.Sin(deltaLatitude/2) +
		math.Cos(toRadians(latitudeA))*math.Cos(toRadians(latitudeB))*math.Sin(deltaLongitude/2)*math.Sin(deltaLongitude/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a)), nil
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

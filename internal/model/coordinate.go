package model

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean radius used for great-circle distances.
const EarthRadiusMeters = 6371008.8

// Melbourne is the fallback coordinate when no user home is known.
var Melbourne = Coordinate{Lat: -37.8136, Lng: 144.9631}

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate rejects coordinates outside the WGS84 range.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: coordinate out of range (%v, %v)", ErrValidation, c.Lat, c.Lng)
	}
	return nil
}

// IsZero reports whether c is the zero value, used as "unset" for the user home.
func (c Coordinate) IsZero() bool { return c.Lat == 0 && c.Lng == 0 }

// DistanceMeters returns the haversine distance between a and b.
func DistanceMeters(a, b Coordinate) float64 {
	const rad = math.Pi / 180
	lat1, lat2 := a.Lat*rad, b.Lat*rad
	dLat := (b.Lat - a.Lat) * rad
	dLng := (b.Lng - a.Lng) * rad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Package polyline provides coordinate geometry for walking routes: great-circle
// distances, linear interpolation and Google encoded-polyline conversion.
package polyline

import (
	"fmt"
	"math"

	gpolyline "github.com/twpayne/go-polyline"
)

// EarthRadiusMeters is the sphere radius used by Distance.
const EarthRadiusMeters = 6371000.0

// Coordinate represents a geographic point with latitude and longitude.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies within WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Distance returns the great-circle distance in meters between a and b using
// the haversine formula. NaN inputs propagate to the result.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// Length returns the summed edge distance of a polyline in meters.
func Length(points []Coordinate) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}

// Interpolate returns the point at fraction f along the straight segment a→b.
// f is not clamped.
func Interpolate(a, b Coordinate, f float64) Coordinate {
	return Coordinate{
		Lat: a.Lat + (b.Lat-a.Lat)*f,
		Lon: a.Lon + (b.Lon-a.Lon)*f,
	}
}

// Decode decodes a precision-5 encoded polyline.
func Decode(encoded string) ([]Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}

	coords, rest, err := gpolyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("decode polyline: %d trailing bytes", len(rest))
	}

	points := make([]Coordinate, len(coords))
	for i, c := range coords {
		points[i] = Coordinate{Lat: c[0], Lon: c[1]}
	}
	return points, nil
}

// Encode encodes coordinates into a precision-5 polyline.
func Encode(points []Coordinate) string {
	if len(points) == 0 {
		return ""
	}

	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	return string(gpolyline.EncodeCoords(coords))
}

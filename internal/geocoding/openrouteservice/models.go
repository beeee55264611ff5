package openrouteservice

import (
	"strings"

	"github.com/walkplan/walkplan/pkg/polyline"
)

// featureCollection is the Pelias GeoJSON response.
type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
	Properties properties `json:"properties"`
}

type properties struct {
	Name          string `json:"name"`
	Label         string `json:"label"`
	Street        string `json:"street"`
	Neighbourhood string `json:"neighbourhood"`
	Locality      string `json:"locality"`
	County        string `json:"county"`
	Region        string `json:"region"`
	Country       string `json:"country"`
}

func (f feature) point() (polyline.Coordinate, bool) {
	if len(f.Geometry.Coordinates) < 2 {
		return polyline.Coordinate{}, false
	}
	return polyline.Coordinate{Lat: f.Geometry.Coordinates[1], Lon: f.Geometry.Coordinates[0]}, true
}

func (p properties) displayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Label
}

// subtitle is the label minus the leading name, e.g. "Jung-gu, Seoul, South Korea".
func (p properties) subtitle() string {
	if p.Name == "" {
		return ""
	}
	rest := strings.TrimPrefix(p.Label, p.Name)
	return strings.TrimLeft(rest, ", ")
}

// localityName prefers the settlement a walker would recognize over a
// street address.
func (p properties) localityName() string {
	for _, candidate := range []string{p.Neighbourhood, p.Locality, p.County, p.Name, p.Label} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

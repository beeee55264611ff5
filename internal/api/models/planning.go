package models

import (
	"time"

	"github.com/walkplan/walkplan/internal/geocoding"
	"github.com/walkplan/walkplan/internal/planning"
	"github.com/walkplan/walkplan/pkg/polyline"
)

// PlaceInput is a location chosen in the planning flow.
type PlaceInput struct {
	Name     string `json:"name"`
	Subtitle string `json:"subtitle,omitempty"`
	Point    Point  `json:"point"`
}

// Place converts the input to a geocoding place.
func (p PlaceInput) Place() geocoding.Place {
	return geocoding.Place{
		Name:     p.Name,
		Subtitle: p.Subtitle,
		Point:    polyline.Coordinate{Lat: p.Point.Lat, Lon: p.Point.Lon},
	}
}

// SessionUpdateRequest is the body of PATCH /v1/planning/sessions/{id}.
// Absent fields are left unchanged.
type SessionUpdateRequest struct {
	Start           *PlaceInput    `json:"start,omitempty"`
	End             *PlaceInput    `json:"end,omitempty"`
	Mode            *planning.Mode `json:"mode,omitempty"`
	StartDate       *string        `json:"startDate,omitempty"`
	EndDate         *string        `json:"endDate,omitempty"`
	DailyDistanceKm *float64       `json:"dailyDistanceKm,omitempty"`
}

// Input converts the request to planning input, reading dates in loc.
func (r SessionUpdateRequest) Input(loc *time.Location) (planning.Input, []FieldError) {
	in := planning.Input{
		Mode:            r.Mode,
		DailyDistanceKm: r.DailyDistanceKm,
	}
	var errs []FieldError

	if r.Start != nil {
		p := r.Start.Place()
		in.Start = &p
	}
	if r.End != nil {
		p := r.End.Place()
		in.End = &p
	}

	dates := []struct {
		field string
		raw   *string
		dst   **time.Time
	}{
		{"startDate", r.StartDate, &in.StartDate},
		{"endDate", r.EndDate, &in.EndDate},
	}
	for _, d := range dates {
		if d.raw == nil {
			continue
		}
		t, err := ParseDate(*d.raw, loc)
		if err != nil {
			errs = append(errs, FieldError{Field: d.field, Message: err.Error(), Code: "format"})
			continue
		}
		*d.dst = &t
	}

	return in, errs
}

// PlaceSearchResponse lists location search results.
type PlaceSearchResponse struct {
	Query  string            `json:"query"`
	Places []geocoding.Place `json:"places"`
}

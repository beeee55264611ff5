// Package activity stores step and distance samples uploaded by the walker's
// device and answers cumulative totals for a time range.
package activity

import (
	"errors"
	"time"
)

var (
	ErrInvalidSample = errors.New("invalid activity sample")
	ErrInvalidRange  = errors.New("invalid time range")
)

// Sample is the activity recorded over one interval ending at RecordedAt.
type Sample struct {
	ID             string    `json:"id"`
	RecordedAt     time.Time `json:"recordedAt"`
	Steps          int       `json:"steps"`
	DistanceMeters float64   `json:"distanceMeters"`
}

// Totals are cumulative steps and distance.
type Totals struct {
	Steps          int     `json:"steps"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// Add returns the sum of t and o.
func (t Totals) Add(o Totals) Totals {
	return Totals{Steps: t.Steps + o.Steps, DistanceMeters: t.DistanceMeters + o.DistanceMeters}
}

func (s Sample) validate() error {
	switch {
	case s.RecordedAt.IsZero():
		return errors.Join(ErrInvalidSample, errors.New("recordedAt is required"))
	case s.Steps < 0:
		return errors.Join(ErrInvalidSample, errors.New("steps must not be negative"))
	case s.DistanceMeters < 0 || s.DistanceMeters != s.DistanceMeters:
		return errors.Join(ErrInvalidSample, errors.New("distanceMeters must be a non-negative number"))
	}
	return nil
}

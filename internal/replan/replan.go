// Package replan moves the end of one day of an active journey and
// regenerates every day after it.
package replan

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/walkplan/walkplan/internal/geocoding"
	"github.com/walkplan/walkplan/internal/journey"
	"github.com/walkplan/walkplan/internal/routing"
	"github.com/walkplan/walkplan/internal/segment"
	"github.com/walkplan/walkplan/internal/telemetry"
	"github.com/walkplan/walkplan/pkg/polyline"
)

var (
	ErrInvalidRemainingDays = errors.New("remaining days must be at least 1")
	ErrNothingToPlan        = errors.New("route could not be split into days")
)

// RouteCalculator computes walking routes.
type RouteCalculator interface {
	CalculateWalkingRoute(ctx context.Context, origin, destination polyline.Coordinate) (*routing.WalkingRoute, error)
}

// EndpointNamer names the start and end of each day segment.
type EndpointNamer interface {
	NameEndpoints(ctx context.Context, segs []segment.DaySegment, originName, destinationName string) []geocoding.EndpointNames
}

// Journeys loads journeys and applies schedule changes.
type Journeys interface {
	FindByDayRoute(ctx context.Context, dayRouteID string) (*journey.Journey, *journey.DayRoute, error)
	ReplaceSchedule(ctx context.Context, change journey.ScheduleChange) (*journey.Journey, error)
}

// Config holds configuration for the replanner.
type Config struct {
	Routes   RouteCalculator
	Names    EndpointNamer
	Journeys Journeys
	Logger   zerolog.Logger
}

// Replanner recalculates the tail of a journey from a new end point.
type Replanner struct {
	routes   RouteCalculator
	names    EndpointNamer
	journeys Journeys
	logger   zerolog.Logger
}

// New creates a new replanner.
func New(cfg Config) *Replanner {
	return &Replanner{
		routes:   cfg.Routes,
		names:    cfg.Names,
		journeys: cfg.Journeys,
		logger:   cfg.Logger,
	}
}

// InitialRemainingDays suggests how many days should follow day d: the days
// currently scheduled after it, at least 1.
func InitialRemainingDays(j *journey.Journey, d *journey.DayRoute) int {
	return max(len(j.DayRoutes)-d.DayNumber, 1)
}

// Recalculate ends the day at newEnd and replaces every later day with
// remainingDays new days from newEnd to the journey's destination.
//
// Both routes are fetched before anything changes: the route from newEnd to
// the destination for the new days, and the route from the day's start to
// newEnd for the day itself. If either fails the stored schedule is left as
// it was and the routing error is returned.
func (r *Replanner) Recalculate(ctx context.Context, dayRouteID string, newEnd geocoding.Place, remainingDays int) (_ *journey.Journey, err error) {
	ctx, span := telemetry.StartSpan(ctx, "replan.recalculate",
		attribute.String("walkplan.day_id", dayRouteID),
		attribute.Int("walkplan.remaining_days", remainingDays),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if remainingDays < 1 {
		return nil, ErrInvalidRemainingDays
	}
	if !newEnd.Point.Valid() {
		return nil, fmt.Errorf("new end: %w", routing.ErrInvalidCoordinates)
	}

	j, day, err := r.journeys.FindByDayRoute(ctx, dayRouteID)
	if err != nil {
		return nil, err
	}
	if j.Status != journey.StatusActive {
		return nil, fmt.Errorf("%w: journey is %s", journey.ErrInvalidTransition, j.Status)
	}

	remaining, err := r.routes.CalculateWalkingRoute(ctx, newEnd.Point, j.End.Point)
	if err != nil {
		return nil, fmt.Errorf("route to destination: %w", err)
	}
	current, err := r.routes.CalculateWalkingRoute(ctx, day.Start.Point, newEnd.Point)
	if err != nil {
		return nil, fmt.Errorf("route for day %d: %w", day.DayNumber, err)
	}

	segs := segment.Split(remaining.Points, remaining.DistanceMeters, remainingDays)
	if len(segs) == 0 {
		return nil, ErrNothingToPlan
	}

	names := r.names.NameEndpoints(ctx, segs, newEnd.Name, j.End.Name)

	planned := make([]journey.PlannedDay, len(segs))
	for i, seg := range segs {
		planned[i] = journey.PlannedDay{
			Start:    journey.Location{Name: names[i].StartName, Point: seg.Start},
			End:      journey.Location{Name: names[i].EndName, Point: seg.End},
			Distance: seg.Distance,
		}
	}

	updated, err := r.journeys.ReplaceSchedule(ctx, journey.ScheduleChange{
		DayRouteID:  day.ID,
		NewEnd:      journey.Location{Name: newEnd.Name, Point: newEnd.Point},
		NewDistance: current.DistanceMeters,
		Days:        planned,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info().
		Str("journey_id", j.ID).
		Int("day_number", day.DayNumber).
		Int("remaining_days", remainingDays).
		Float64("remaining_distance_m", remaining.DistanceMeters).
		Msg("journey tail recalculated")

	return updated, nil
}

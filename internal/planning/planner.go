package planning

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/walkplan/walkplan/internal/geocoding"
	"github.com/walkplan/walkplan/internal/journey"
	"github.com/walkplan/walkplan/internal/routing"
	"github.com/walkplan/walkplan/internal/segment"
	"github.com/walkplan/walkplan/internal/telemetry"
	"github.com/walkplan/walkplan/pkg/polyline"
)

// RouteCalculator computes walking routes.
type RouteCalculator interface {
	CalculateWalkingRoute(ctx context.Context, origin, destination polyline.Coordinate) (*routing.WalkingRoute, error)
}

// EndpointNamer names the start and end of each day segment.
type EndpointNamer interface {
	NameEndpoints(ctx context.Context, segs []segment.DaySegment, originName, destinationName string) []geocoding.EndpointNames
}

// JourneyCreator persists a newly planned journey.
type JourneyCreator interface {
	Create(ctx context.Context, j *journey.Journey) (*journey.Journey, error)
}

// PlannerConfig holds configuration for the planner.
type PlannerConfig struct {
	Routes   RouteCalculator
	Names    EndpointNamer
	Journeys JourneyCreator
	Logger   zerolog.Logger
}

// Planner calculates plans for sessions and turns them into journeys.
type Planner struct {
	routes   RouteCalculator
	names    EndpointNamer
	journeys JourneyCreator
	logger   zerolog.Logger
}

// NewPlanner creates a new planner.
func NewPlanner(cfg PlannerConfig) *Planner {
	return &Planner{
		routes:   cfg.Routes,
		names:    cfg.Names,
		journeys: cfg.Journeys,
		logger:   cfg.Logger,
	}
}

// DaysForDistance is the number of days needed to walk totalMeters at
// dailyKm per day, at least 1.
func DaysForDistance(totalMeters, dailyKm float64) int {
	if dailyKm <= 0 {
		return 1
	}
	return max(int(math.Ceil(totalMeters/(dailyKm*1000))), 1)
}

// Calculate routes the session's endpoints once, derives the number of days
// from its mode, splits the route and names every day's endpoints.
//
// A routing failure is recorded on the session as a message for the walker
// and leaves it without segments; it is not retried. A newer calculation or
// a change to the session supersedes this one, which then returns
// geocoding.ErrSuperseded and changes nothing.
func (p *Planner) Calculate(ctx context.Context, s *Session) (_ View, err error) {
	ctx, span := telemetry.StartSpan(ctx, "planning.calculate", attribute.String("walkplan.session_id", s.ID()))
	defer func() { telemetry.EndSpan(span, err) }()

	calc, err := s.beginCalculation(ctx)
	if err != nil {
		return View{}, err
	}
	span.SetAttributes(attribute.String("walkplan.mode", string(calc.mode)))

	res := p.calculate(calc)
	span.SetAttributes(attribute.Int("walkplan.days", len(res.segments)))
	if res.errorMessage != "" {
		span.AddEvent("route unavailable")
	}

	if !s.completeCalculation(calc, res) {
		return View{}, geocoding.ErrSuperseded
	}
	return s.View(), nil
}

func (p *Planner) calculate(c *calculation) result {
	start := time.Now()
	route, err := p.routes.CalculateWalkingRoute(c.ctx, c.start.Point, c.end.Point)
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("origin", c.start.Name).
			Str("destination", c.end.Name).
			Msg("route calculation failed")
		return result{errorMessage: routing.UserMessage(err)}
	}

	days := c.numberOfDays
	var endDate time.Time
	if c.mode == ModeByDistance {
		days = DaysForDistance(route.DistanceMeters, c.dailyDistanceKm)
		endDate = c.cal.AddDays(c.startDate, days-1)
	}

	segs := segment.Split(route.Points, route.DistanceMeters, days)
	if len(segs) == 0 {
		return result{route: route, errorMessage: "The route is too short to split into days."}
	}

	names := p.names.NameEndpoints(c.ctx, segs, c.start.Name, c.end.Name)

	p.logger.Info().
		Float64("distance_m", route.DistanceMeters).
		Int("days", len(segs)).
		Str("mode", string(c.mode)).
		Dur("duration", time.Since(start)).
		Msg("route planned")

	return result{route: route, segments: segs, names: names, endDate: endDate}
}

// CreateJourney turns the session's calculated plan into an active journey
// with one day route per segment, dated one day apart from the start date.
func (p *Planner) CreateJourney(ctx context.Context, s *Session) (*journey.Journey, error) {
	pl, err := s.currentPlan()
	if err != nil {
		return nil, err
	}

	planned := make([]journey.PlannedDay, len(pl.segments))
	for i, seg := range pl.segments {
		names := geocoding.EndpointNames{StartName: geocoding.UnknownLocation, EndName: geocoding.UnknownLocation}
		if i < len(pl.names) {
			names = pl.names[i]
		}
		planned[i] = journey.PlannedDay{
			Start:    journey.Location{Name: names.StartName, Point: seg.Start},
			End:      journey.Location{Name: names.EndName, Point: seg.End},
			Distance: seg.Distance,
		}
	}

	days := journey.ScheduleDays(planned, 1, pl.startDate, s.cal)
	j := &journey.Journey{
		Title:         journey.DefaultTitle(pl.start.Name, pl.end.Name),
		Start:         journey.Location{Name: pl.start.Name, Point: pl.start.Point},
		End:           journey.Location{Name: pl.end.Name, Point: pl.end.Point},
		StartDate:     days[0].Date,
		EndDate:       days[len(days)-1].Date,
		TotalDistance: pl.route.DistanceMeters,
		Status:        journey.StatusPlanning,
		DayRoutes:     days,
	}

	created, err := p.journeys.Create(ctx, j)
	if err != nil {
		return nil, fmt.Errorf("create journey: %w", err)
	}

	s.setJourneyID(created.ID)
	return created, nil
}

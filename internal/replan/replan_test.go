package replan

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walkplan/walkplan/internal/geocoding"
	"github.com/walkplan/walkplan/internal/journey"
	"github.com/walkplan/walkplan/internal/routing"
	"github.com/walkplan/walkplan/pkg/polyline"
)

var testNow = time.Date(2025, 9, 2, 8, 0, 0, 0, time.UTC)

type routeCall struct {
	origin, destination polyline.Coordinate
}

// scriptedRoutes answers calls in order from results.
type scriptedRoutes struct {
	mu      sync.Mutex
	results []routeResult
	calls   []routeCall
}

type routeResult struct {
	route *routing.WalkingRoute
	err   error
}

func (s *scriptedRoutes) CalculateWalkingRoute(_ context.Context, origin, destination polyline.Coordinate) (*routing.WalkingRoute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, routeCall{origin, destination})
	if len(s.calls) > len(s.results) {
		return nil, fmt.Errorf("unexpected call %d", len(s.calls))
	}
	r := s.results[len(s.calls)-1]
	return r.route, r.err
}

type namesProvider struct{}

func (namesProvider) Search(context.Context, string) ([]geocoding.Place, error) { return nil, nil }

func (namesProvider) Reverse(_ context.Context, p polyline.Coordinate) (string, error) {
	return fmt.Sprintf("km %.2f", p.Lon), nil
}

func (namesProvider) Name() string { return "names" }

func line(from, to polyline.Coordinate, n int) []polyline.Coordinate {
	points := make([]polyline.Coordinate, n+1)
	for i := range points {
		points[i] = polyline.Interpolate(from, to, float64(i)/float64(n))
	}
	return points
}

type fixture struct {
	replanner *Replanner
	journeys  *journey.Service
	repo      *journey.InMemoryRepository
	routes    *scriptedRoutes
	cal       journey.Calendar
	original  *journey.Journey
}

// newFixture seeds an active 5-day journey whose day 2 is today.
func newFixture(t *testing.T, results ...routeResult) *fixture {
	t.Helper()
	cal := journey.NewCalendar(time.UTC, func() time.Time { return testNow })
	repo := journey.NewInMemoryRepository()
	journeys := journey.NewService(journey.ServiceConfig{Repository: repo, Logger: zerolog.Nop(), Calendar: cal})

	start := cal.AddDays(testNow, -1)
	j := &journey.Journey{
		ID:        "j",
		Title:     "Lyon → Avignon",
		Start:     journey.Location{Name: "Lyon", Point: polyline.Coordinate{Lat: 45, Lon: 4.8}},
		End:       journey.Location{Name: "Avignon", Point: polyline.Coordinate{Lat: 45, Lon: 5.3}},
		StartDate: start,
		EndDate:   cal.AddDays(start, 4),
		Status:    journey.StatusActive,
	}
	for i := 0; i < 5; i++ {
		date := cal.AddDays(start, i)
		j.DayRoutes = append(j.DayRoutes, &journey.DayRoute{
			ID:        fmt.Sprintf("day-%d", i+1),
			JourneyID: "j",
			DayNumber: i + 1,
			Date:      date,
			Start:     journey.Location{Name: fmt.Sprintf("P%d", i), Point: polyline.Coordinate{Lat: 45, Lon: 4.8 + 0.1*float64(i)}},
			End:       journey.Location{Name: fmt.Sprintf("P%d", i+1), Point: polyline.Coordinate{Lat: 45, Lon: 4.8 + 0.1*float64(i+1)}},
			Distance:  8000,
			Status:    cal.InitialDayStatus(date),
		})
		j.TotalDistance += 8000
	}
	j.DayRoutes[0].Status = journey.DayCompleted
	require.NoError(t, repo.Save(context.Background(), j))

	routes := &scriptedRoutes{results: results}
	names := geocoding.NewService(geocoding.ServiceConfig{Provider: namesProvider{}, Logger: zerolog.Nop(), Pace: -1})

	return &fixture{
		replanner: New(Config{Routes: routes, Names: names, Journeys: journeys, Logger: zerolog.Nop()}),
		journeys:  journeys,
		repo:      repo,
		routes:    routes,
		cal:       cal,
		original:  j,
	}
}

var detour = geocoding.Place{Name: "Vienne", Point: polyline.Coordinate{Lat: 45.1, Lon: 4.95}}

func TestRecalculate_RenumbersAndRedates(t *testing.T) {
	destination := polyline.Coordinate{Lat: 45, Lon: 5.3}
	f := newFixture(t,
		routeResult{route: &routing.WalkingRoute{DistanceMeters: 36000, Points: line(detour.Point, destination, 12)}},
		routeResult{route: &routing.WalkingRoute{DistanceMeters: 11000, Points: line(polyline.Coordinate{Lat: 45, Lon: 4.9}, detour.Point, 4)}},
	)

	updated, err := f.replanner.Recalculate(context.Background(), "day-2", detour, 3)
	require.NoError(t, err)

	require.Len(t, f.routes.calls, 2)
	assert.Equal(t, routeCall{detour.Point, destination}, f.routes.calls[0], "future days first")
	assert.Equal(t, routeCall{polyline.Coordinate{Lat: 45, Lon: 4.9}, detour.Point}, f.routes.calls[1])

	days := updated.SortedDayRoutes()
	require.Len(t, days, 5)
	for i, d := range days {
		assert.Equal(t, i+1, d.DayNumber)
	}

	edited := days[1]
	assert.Equal(t, "day-2", edited.ID)
	assert.Equal(t, "Vienne", edited.End.Name)
	assert.InDelta(t, 11000, edited.Distance, 1e-9)

	for k, d := range days[2:] {
		assert.NotEqual(t, fmt.Sprintf("day-%d", k+3), d.ID, "old day replaced")
		assert.Equal(t, f.cal.AddDays(edited.Date, k+1), d.Date)
	}
	assert.Equal(t, "Vienne", days[2].Start.Name)
	assert.Equal(t, "Avignon", days[4].End.Name)
	assert.Equal(t, days[2].End.Name, days[3].Start.Name)
	assert.InDelta(t, 36000, days[2].Distance+days[3].Distance+days[4].Distance, 1e-6)
	assert.Equal(t, days[4].Date, updated.EndDate)

	stored, err := f.repo.Get(context.Background(), "j")
	require.NoError(t, err)
	assert.Len(t, stored.DayRoutes, 5)
	assert.Equal(t, journey.DayCompleted, stored.DayRoute("day-1").Status)
}

func TestRecalculate_MoreDaysExtendsJourney(t *testing.T) {
	destination := polyline.Coordinate{Lat: 45, Lon: 5.3}
	f := newFixture(t,
		routeResult{route: &routing.WalkingRoute{DistanceMeters: 40000, Points: line(detour.Point, destination, 10)}},
		routeResult{route: &routing.WalkingRoute{DistanceMeters: 9000, Points: line(polyline.Coordinate{Lat: 45, Lon: 4.9}, detour.Point, 2)}},
	)

	updated, err := f.replanner.Recalculate(context.Background(), "day-2", detour, 5)
	require.NoError(t, err)

	days := updated.SortedDayRoutes()
	require.Len(t, days, 7)
	assert.Equal(t, 7, days[6].DayNumber)
	assert.Equal(t, f.cal.AddDays(f.original.StartDate, 6), updated.EndDate)
}

func TestRecalculate_SecondRouteFailureLeavesScheduleIntact(t *testing.T) {
	destination := polyline.Coordinate{Lat: 45, Lon: 5.3}
	f := newFixture(t,
		routeResult{route: &routing.WalkingRoute{DistanceMeters: 36000, Points: line(detour.Point, destination, 12)}},
		routeResult{err: routing.ErrNoRouteFound},
	)

	_, err := f.replanner.Recalculate(context.Background(), "day-2", detour, 3)
	require.Error(t, err)
	assert.True(t, routing.IsNoRoute(err))

	stored, err := f.repo.Get(context.Background(), "j")
	require.NoError(t, err)
	require.Len(t, stored.DayRoutes, 5)
	for i := 3; i <= 5; i++ {
		d := stored.DayRoute(fmt.Sprintf("day-%d", i))
		require.NotNil(t, d, "day %d still exists", i)
		assert.Equal(t, f.original.DayRoute(d.ID).End, d.End)
		assert.InDelta(t, 8000, d.Distance, 1e-9)
	}
	assert.Equal(t, "P2", stored.DayRoute("day-2").End.Name)
	assert.Equal(t, f.original.EndDate, stored.EndDate)
}

func TestRecalculate_FirstRouteFailure(t *testing.T) {
	f := newFixture(t, routeResult{err: routing.ErrNoRouteFound})

	_, err := f.replanner.Recalculate(context.Background(), "day-2", detour, 3)
	assert.ErrorIs(t, err, routing.ErrNoRouteFound)
	assert.Len(t, f.routes.calls, 1)
}

func TestRecalculate_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.replanner.Recalculate(context.Background(), "day-2", detour, 0)
	assert.ErrorIs(t, err, ErrInvalidRemainingDays)

	_, err = f.replanner.Recalculate(context.Background(), "missing", detour, 2)
	assert.ErrorIs(t, err, journey.ErrDayRouteNotFound)

	bad := geocoding.Place{Name: "x", Point: polyline.Coordinate{Lat: 200}}
	_, err = f.replanner.Recalculate(context.Background(), "day-2", bad, 2)
	assert.ErrorIs(t, err, routing.ErrInvalidCoordinates)

	assert.Empty(t, f.routes.calls)
}

func TestInitialRemainingDays(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, 3, InitialRemainingDays(f.original, f.original.DayRoute("day-2")))
	assert.Equal(t, 1, InitialRemainingDays(f.original, f.original.DayRoute("day-5")))
}

// Package planning drives the planning flow for a new journey: choosing the
// endpoints and a planning mode, calculating and splitting the route, and
// turning the result into a persisted journey.
package planning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/walkplan/walkplan/internal/geocoding"
	"github.com/walkplan/walkplan/internal/journey"
	"github.com/walkplan/walkplan/internal/routing"
	"github.com/walkplan/walkplan/internal/segment"
	"github.com/walkplan/walkplan/pkg/polyline"
)

// Step is one screen of the planning flow.
type Step string

// Planning steps in flow order. Schedule and Distance are alternatives.
const (
	StepStartLocation Step = "start_location"
	StepEndLocation   Step = "end_location"
	StepModeSelection Step = "mode_selection"
	StepSchedule      Step = "schedule"
	StepDistance      Step = "distance"
	StepConfirm       Step = "confirm"
)

// Mode decides how the number of days is derived.
type Mode string

const (
	// ModeByDuration derives days from the start and end dates.
	ModeByDuration Mode = "by_duration"
	// ModeByDistance derives days, and the end date, from a daily distance target.
	ModeByDistance Mode = "by_distance"
)

// Planning defaults.
const (
	DefaultDailyDistanceKm = 30
	MinDailyDistanceKm     = 5
	DefaultDurationDays    = 14
)

var (
	ErrCannotAdvance    = errors.New("current step is incomplete")
	ErrInvalidInput     = errors.New("invalid planning input")
	ErrMissingLocations = errors.New("start and end locations are required")
	ErrNothingToPlan    = errors.New("no day segments to plan")
	ErrSessionNotFound  = errors.New("planning session not found")
)

// PlaceSearcher is a debounced location search owned by one session.
type PlaceSearcher interface {
	Search(ctx context.Context, query string) ([]geocoding.Place, error)
	Cancel()
}

// Session is the state of one planning flow. It is safe for concurrent use.
type Session struct {
	id       string
	cal      journey.Calendar
	searcher PlaceSearcher

	mu              sync.Mutex
	step            Step
	start           *geocoding.Place
	end             *geocoding.Place
	mode            Mode
	startDate       time.Time
	endDate         time.Time
	dailyDistanceKm float64

	route        *routing.WalkingRoute
	segments     []segment.DaySegment
	names        []geocoding.EndpointNames
	errorMessage string
	calculating  bool
	generation   uint64
	cancel       context.CancelFunc
	journeyID    string
	lastUsed     time.Time
}

// NewSession starts a flow at the start location step. The schedule
// defaults to today through 13 days later.
func NewSession(id string, cal journey.Calendar, searcher PlaceSearcher) *Session {
	today := cal.Today()
	return &Session{
		id:              id,
		cal:             cal,
		searcher:        searcher,
		step:            StepStartLocation,
		startDate:       today,
		endDate:         cal.AddDays(today, DefaultDurationDays-1),
		dailyDistanceKm: DefaultDailyDistanceKm,
		lastUsed:        cal.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Input changes planning inputs. Nil fields are left unchanged.
type Input struct {
	Start           *geocoding.Place `json:"start,omitempty"`
	End             *geocoding.Place `json:"end,omitempty"`
	Mode            *Mode            `json:"mode,omitempty"`
	StartDate       *time.Time       `json:"startDate,omitempty"`
	EndDate         *time.Time       `json:"endDate,omitempty"`
	DailyDistanceKm *float64         `json:"dailyDistanceKm,omitempty"`
}

func (in Input) validate() error {
	for _, p := range []*geocoding.Place{in.Start, in.End} {
		if p != nil && !p.Point.Valid() {
			return fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
		}
	}
	if in.Mode != nil && *in.Mode != ModeByDuration && *in.Mode != ModeByDistance {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, *in.Mode)
	}
	if in.DailyDistanceKm != nil && !(*in.DailyDistanceKm > 0) {
		return fmt.Errorf("%w: daily distance must be positive", ErrInvalidInput)
	}
	return nil
}

// Update applies input. Any change discards a calculated route. Switching
// mode from a step the new mode does not have returns to mode selection.
func (s *Session) Update(in Input) error {
	if err := in.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if in.Start != nil {
		p := *in.Start
		s.start = &p
	}
	if in.End != nil {
		p := *in.End
		s.end = &p
	}
	if in.Mode != nil {
		s.mode = *in.Mode
		if indexOf(s.activeStepsLocked(), s.step) < 0 {
			s.step = StepModeSelection
		}
	}
	if in.StartDate != nil {
		s.startDate = s.cal.Day(*in.StartDate)
	}
	if in.EndDate != nil {
		s.endDate = s.cal.Day(*in.EndDate)
	}
	if in.DailyDistanceKm != nil {
		s.dailyDistanceKm = *in.DailyDistanceKm
	}

	s.resetResultLocked()
	return nil
}

// ActiveSteps lists the steps of the flow for the chosen mode.
func (s *Session) ActiveSteps() []Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeStepsLocked()
}

func (s *Session) activeStepsLocked() []Step {
	steps := []Step{StepStartLocation, StepEndLocation, StepModeSelection}
	switch s.mode {
	case ModeByDuration:
		steps = append(steps, StepSchedule)
	case ModeByDistance:
		steps = append(steps, StepDistance)
	}
	return append(steps, StepConfirm)
}

// CanAdvance reports whether the current step is complete.
func (s *Session) CanAdvance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canAdvanceLocked()
}

func (s *Session) canAdvanceLocked() bool {
	switch s.step {
	case StepStartLocation:
		return s.start != nil
	case StepEndLocation:
		return s.end != nil
	case StepModeSelection:
		return s.mode != ""
	case StepSchedule:
		return s.endDate.After(s.startDate)
	case StepDistance:
		return s.dailyDistanceKm >= MinDailyDistanceKm
	case StepConfirm:
		return len(s.segments) > 0
	}
	return false
}

// Next moves to the following step when the current one is complete.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.canAdvanceLocked() {
		return fmt.Errorf("%w: %s", ErrCannotAdvance, s.step)
	}
	steps := s.activeStepsLocked()
	idx := indexOf(steps, s.step)
	if idx < 0 || idx+1 >= len(steps) {
		return fmt.Errorf("%w: %s is the last step", ErrCannotAdvance, s.step)
	}
	s.step = steps[idx+1]
	return nil
}

// Back returns to the previous step and discards any calculated route.
// Arriving at mode selection clears the chosen mode. Back on the first step
// does nothing.
func (s *Session) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps := s.activeStepsLocked()
	idx := indexOf(steps, s.step)
	if idx <= 0 {
		return
	}

	s.resetResultLocked()
	s.step = steps[idx-1]
	if s.step == StepModeSelection {
		s.mode = ""
	}
}

// NumberOfDays counts calendar days from start to end date inclusive, at least 1.
func (s *Session) NumberOfDays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numberOfDaysLocked()
}

func (s *Session) numberOfDaysLocked() int {
	return max(s.cal.DaysBetween(s.startDate, s.endDate)+1, 1)
}

// Search runs a debounced location search. A newer search supersedes it.
func (s *Session) Search(ctx context.Context, query string) ([]geocoding.Place, error) {
	s.touch()
	if s.searcher == nil {
		return nil, nil
	}
	return s.searcher.Search(ctx, query)
}

// Close cancels in-flight work owned by the session.
func (s *Session) Close() {
	s.mu.Lock()
	s.resetResultLocked()
	s.mu.Unlock()
	if s.searcher != nil {
		s.searcher.Cancel()
	}
}

// resetResultLocked drops the calculated route and supersedes any
// calculation in flight.
func (s *Session) resetResultLocked() {
	s.route = nil
	s.segments = nil
	s.names = nil
	s.errorMessage = ""
	s.calculating = false
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = s.cal.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// calculation is the input snapshot of one calculation run.
type calculation struct {
	generation      uint64
	ctx             context.Context
	cal             journey.Calendar
	start           geocoding.Place
	end             geocoding.Place
	mode            Mode
	startDate       time.Time
	numberOfDays    int
	dailyDistanceKm float64
}

func (s *Session) beginCalculation(ctx context.Context) (*calculation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.start == nil || s.end == nil {
		return nil, ErrMissingLocations
	}

	s.resetResultLocked()
	s.calculating = true
	s.lastUsed = s.cal.Now()

	calcCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	return &calculation{
		generation:      s.generation,
		ctx:             calcCtx,
		cal:             s.cal,
		start:           *s.start,
		end:             *s.end,
		mode:            s.mode,
		startDate:       s.startDate,
		numberOfDays:    s.numberOfDaysLocked(),
		dailyDistanceKm: s.dailyDistanceKm,
	}, nil
}

// result is what one calculation run produced.
type result struct {
	route        *routing.WalkingRoute
	segments     []segment.DaySegment
	names        []geocoding.EndpointNames
	endDate      time.Time
	errorMessage string
}

// completeCalculation stores r unless a newer calculation or a reset
// superseded the run.
func (s *Session) completeCalculation(c *calculation, r result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.generation != s.generation {
		return false
	}

	s.route = r.route
	s.segments = r.segments
	s.names = r.names
	s.errorMessage = r.errorMessage
	if !r.endDate.IsZero() {
		s.endDate = r.endDate
	}
	s.calculating = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return true
}

// plan is a snapshot of a completed calculation for journey creation.
type plan struct {
	start     geocoding.Place
	end       geocoding.Place
	startDate time.Time
	route     *routing.WalkingRoute
	segments  []segment.DaySegment
	names     []geocoding.EndpointNames
}

func (s *Session) currentPlan() (*plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.segments) == 0 || s.start == nil || s.end == nil {
		return nil, ErrNothingToPlan
	}
	return &plan{
		start:     *s.start,
		end:       *s.end,
		startDate: s.startDate,
		route:     s.route,
		segments:  s.segments,
		names:     s.names,
	}, nil
}

func (s *Session) setJourneyID(id string) {
	s.mu.Lock()
	s.journeyID = id
	s.mu.Unlock()
}

// View is a read-only snapshot of a session.
type View struct {
	ID                       string           `json:"id"`
	Step                     Step             `json:"step"`
	ActiveSteps              []Step           `json:"activeSteps"`
	CanAdvance               bool             `json:"canAdvance"`
	Start                    *geocoding.Place `json:"start,omitempty"`
	End                      *geocoding.Place `json:"end,omitempty"`
	Mode                     Mode             `json:"mode,omitempty"`
	StartDate                time.Time        `json:"startDate"`
	EndDate                  time.Time        `json:"endDate"`
	DailyDistanceKm          float64          `json:"dailyDistanceKm"`
	NumberOfDays             int              `json:"numberOfDays"`
	Calculating              bool             `json:"calculating"`
	Error                    string           `json:"error,omitempty"`
	Route                    *RouteSummary    `json:"route,omitempty"`
	EstimatedDailyDistanceKm *float64         `json:"estimatedDailyDistanceKm,omitempty"`
	Days                     []DayPreview     `json:"days"`
	JourneyID                string           `json:"journeyId,omitempty"`
}

// RouteSummary describes the calculated route.
type RouteSummary struct {
	DistanceMeters            float64 `json:"distanceMeters"`
	ExpectedTravelTimeSeconds float64 `json:"expectedTravelTimeSeconds"`
	Polyline                  string  `json:"polyline"`
	Provider                  string  `json:"provider,omitempty"`
}

// DayPreview is one planned day before the journey exists.
type DayPreview struct {
	DayNumber int                 `json:"dayNumber"`
	Date      time.Time           `json:"date"`
	StartName string              `json:"startName"`
	EndName   string              `json:"endName"`
	Start     polyline.Coordinate `json:"start"`
	End       polyline.Coordinate `json:"end"`
	Distance  float64             `json:"distance"`
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:              s.id,
		Step:            s.step,
		ActiveSteps:     s.activeStepsLocked(),
		CanAdvance:      s.canAdvanceLocked(),
		Mode:            s.mode,
		StartDate:       s.startDate,
		EndDate:         s.endDate,
		DailyDistanceKm: s.dailyDistanceKm,
		NumberOfDays:    s.numberOfDaysLocked(),
		Calculating:     s.calculating,
		Error:           s.errorMessage,
		Days:            []DayPreview{},
		JourneyID:       s.journeyID,
	}
	if s.start != nil {
		p := *s.start
		v.Start = &p
	}
	if s.end != nil {
		p := *s.end
		v.End = &p
	}

	if s.route != nil {
		v.Route = &RouteSummary{
			DistanceMeters:            s.route.DistanceMeters,
			ExpectedTravelTimeSeconds: s.route.ExpectedTravelTime.Seconds(),
			Polyline:                  polyline.Encode(s.route.Points),
			Provider:                  s.route.Provider,
		}
		if len(s.segments) > 0 {
			perDay := s.route.DistanceMeters / 1000 / float64(len(s.segments))
			v.EstimatedDailyDistanceKm = &perDay
		}
	}

	for i, seg := range s.segments {
		d := DayPreview{
			DayNumber: seg.DayNumber,
			Date:      s.cal.AddDays(s.startDate, i),
			Start:     seg.Start,
			End:       seg.End,
			Distance:  seg.Distance,
		}
		if i < len(s.names) {
			d.StartName = s.names[i].StartName
			d.EndName = s.names[i].EndName
		}
		v.Days = append(v.Days, d)
	}

	return v
}

func indexOf(steps []Step, step Step) int {
	for i, s := range steps {
		if s == step {
			return i
		}
	}
	return -1
}

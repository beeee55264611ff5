package journey

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/walkplan/walkplan/internal/activity"
	"github.com/walkplan/walkplan/internal/telemetry"
)

// ErrInvalidSchedule is returned when day routes are not numbered 1..N.
var ErrInvalidSchedule = errors.New("day routes must be numbered contiguously from 1")

// ActivitySource reports cumulative steps and distance for a time range.
type ActivitySource interface {
	StepsAndDistance(ctx context.Context, from, to time.Time) activity.Totals
}

// ServiceConfig holds configuration for the journey service.
type ServiceConfig struct {
	Repository Repository

	// Activity supplies the totals frozen onto a completed journey (optional).
	Activity ActivitySource

	Logger      zerolog.Logger
	Instruments *telemetry.Instruments

	// Calendar decides which day is today (default: local time zone, wall clock).
	Calendar Calendar
}

// Service applies status transitions and schedule changes to journeys.
// Load-mutate-save sequences are serialized so a journey has one writer.
type Service struct {
	repo        Repository
	activity    ActivitySource
	logger      zerolog.Logger
	instruments *telemetry.Instruments
	cal         Calendar
	newID       func() string

	mu sync.Mutex
}

// NewService creates a new journey service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:        cfg.Repository,
		activity:    cfg.Activity,
		logger:      cfg.Logger,
		instruments: cfg.Instruments,
		cal:         cfg.Calendar,
		newID:       uuid.NewString,
	}
}

// Calendar returns the calendar the service uses for "today".
func (s *Service) Calendar() Calendar {
	return s.cal
}

// PlannedDay is one day of a new schedule before it is numbered and dated.
type PlannedDay struct {
	Start    Location
	End      Location
	Distance float64
}

// ScheduleDays numbers planned days from firstNumber and dates them one
// calendar day apart from firstDate. Each day starts as today or upcoming.
func ScheduleDays(planned []PlannedDay, firstNumber int, firstDate time.Time, cal Calendar) []*DayRoute {
	days := make([]*DayRoute, len(planned))
	for i, p := range planned {
		date := cal.AddDays(firstDate, i)
		days[i] = &DayRoute{
			DayNumber: firstNumber + i,
			Date:      date,
			Start:     p.Start,
			End:       p.End,
			Distance:  p.Distance,
			Status:    cal.InitialDayStatus(date),
		}
	}
	return days
}

// Create persists a new journey as active. Only one journey may be active.
func (s *Service) Create(ctx context.Context, j *Journey) (*Journey, error) {
	if len(j.DayRoutes) == 0 {
		return nil, ErrEmptySchedule
	}
	if j.Status != "" && j.Status != StatusPlanning {
		return nil, fmt.Errorf("%w: cannot create a journey in status %s", ErrInvalidTransition, j.Status)
	}
	if j.EndDate.Before(j.StartDate) {
		return nil, fmt.Errorf("%w: end date before start date", ErrInvalidSchedule)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.repo.ListByStatus(ctx, StatusActive)
	if err != nil {
		return nil, s.storageFailure(err, "")
	}
	if len(active) > 0 {
		return nil, ErrActiveJourneyExists
	}

	j = j.Clone()
	days := j.SortedDayRoutes()
	for i, d := range days {
		if d.DayNumber != i+1 {
			return nil, ErrInvalidSchedule
		}
	}

	if j.ID == "" {
		j.ID = s.newID()
	}
	for _, d := range days {
		if d.ID == "" {
			d.ID = s.newID()
		}
		d.JourneyID = j.ID
	}
	j.DayRoutes = days
	j.Status = StatusActive
	if j.CreatedAt.IsZero() {
		j.CreatedAt = s.cal.Now()
	}

	if err := s.repo.Save(ctx, j); err != nil {
		return nil, s.storageFailure(err, j.ID)
	}

	s.instruments.JourneyEvent(ctx, telemetry.EventJourneyCreated)
	s.logger.Info().
		Str("journey_id", j.ID).
		Int("days", len(j.DayRoutes)).
		Float64("total_distance", j.TotalDistance).
		Msg("journey created")

	return j, nil
}

// Get returns a journey by ID.
func (s *Service) Get(ctx context.Context, id string) (*Journey, error) {
	j, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.storageFailure(err, id)
	}
	return j, nil
}

// Active returns the active journey, or ErrJourneyNotFound if there is none.
func (s *Service) Active(ctx context.Context) (*Journey, error) {
	journeys, err := s.repo.ListByStatus(ctx, StatusActive)
	if err != nil {
		return nil, s.storageFailure(err, "")
	}
	if len(journeys) == 0 {
		return nil, ErrJourneyNotFound
	}
	return journeys[0], nil
}

// ListCompleted returns completed journeys, most recently finished first.
func (s *Service) ListCompleted(ctx context.Context) ([]*Journey, error) {
	journeys, err := s.repo.ListByStatus(ctx, StatusCompleted)
	if err != nil {
		return nil, s.storageFailure(err, "")
	}
	sort.SliceStable(journeys, func(a, b int) bool {
		return journeys[a].EndDate.After(journeys[b].EndDate)
	})
	return journeys, nil
}

// FindByDayRoute returns a day route and the journey that owns it.
func (s *Service) FindByDayRoute(ctx context.Context, dayRouteID string) (*Journey, *DayRoute, error) {
	j, err := s.repo.GetByDayRoute(ctx, dayRouteID)
	if err != nil {
		return nil, nil, s.storageFailure(err, "")
	}
	d := j.DayRoute(dayRouteID)
	if d == nil {
		return nil, nil, ErrDayRouteNotFound
	}
	return j, d, nil
}

// RefreshStatuses aligns a journey's day statuses with today's date and
// persists the changes. Days completed or skipped in storage in the meantime
// keep their status.
func (s *Service) RefreshStatuses(ctx context.Context, journeyID string) (*Journey, error) {
	j, err := s.repo.Get(ctx, journeyID)
	if err != nil {
		return nil, s.storageFailure(err, journeyID)
	}

	changes := RefreshDayStatuses(j.DayRoutes, s.cal)
	if len(changes) == 0 {
		return j, nil
	}

	if err := s.repo.UpdateDayStatuses(ctx, j.ID, changes); err != nil {
		return nil, s.storageFailure(err, j.ID)
	}

	s.logger.Debug().
		Str("journey_id", j.ID).
		Int("changed", len(changes)).
		Msg("day statuses refreshed")

	return j, nil
}

// RefreshActive refreshes every active journey and returns how many were
// refreshed.
func (s *Service) RefreshActive(ctx context.Context) (int, error) {
	journeys, err := s.repo.ListByStatus(ctx, StatusActive)
	if err != nil {
		return 0, s.storageFailure(err, "")
	}

	var errs []error
	refreshed := 0
	for _, j := range journeys {
		if _, err := s.RefreshStatuses(ctx, j.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		refreshed++
	}
	return refreshed, errors.Join(errs...)
}

// MarkCompleted completes a day. Completing the last open day completes the
// journey and freezes its cumulative step and distance totals.
func (s *Service) MarkCompleted(ctx context.Context, dayRouteID string) (*Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, d, err := s.loadActiveDay(ctx, dayRouteID)
	if err != nil {
		return nil, err
	}

	d.Status = DayCompleted
	event := telemetry.EventDayCompleted

	if AllDaysCompleted(j.DayRoutes) {
		j.Status = StatusCompleted
		if s.activity != nil {
			totals := s.activity.StepsAndDistance(ctx, j.StartDate, s.cal.Now())
			j.TotalSteps = totals.Steps
			j.TotalDistanceWalked = totals.DistanceMeters
		}
		event = telemetry.EventJourneyCompleted
	}

	if err := s.repo.Save(ctx, j); err != nil {
		return nil, s.storageFailure(err, j.ID)
	}

	s.instruments.JourneyEvent(ctx, event)
	s.logger.Info().
		Str("journey_id", j.ID).
		Str("day_route_id", d.ID).
		Int("day_number", d.DayNumber).
		Str("journey_status", string(j.Status)).
		Msg("day completed")

	return j, nil
}

// UndoCompleted reopens a completed day. The day always returns to today;
// no memory of an earlier status is kept.
func (s *Service) UndoCompleted(ctx context.Context, dayRouteID string) (*Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, d, err := s.loadActiveDay(ctx, dayRouteID)
	if err != nil {
		return nil, err
	}
	if d.Status != DayCompleted {
		return nil, fmt.Errorf("%w: day %d is %s", ErrInvalidTransition, d.DayNumber, d.Status)
	}

	d.Status = DayToday
	if err := s.repo.Save(ctx, j); err != nil {
		return nil, s.storageFailure(err, j.ID)
	}

	s.instruments.JourneyEvent(ctx, telemetry.EventDayReopened)
	return j, nil
}

// MarkSkipped skips a day that has not been completed.
func (s *Service) MarkSkipped(ctx context.Context, dayRouteID string) (*Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, d, err := s.loadActiveDay(ctx, dayRouteID)
	if err != nil {
		return nil, err
	}
	if d.Status == DayCompleted {
		return nil, fmt.Errorf("%w: day %d is completed", ErrInvalidTransition, d.DayNumber)
	}

	d.Status = DaySkipped
	if err := s.repo.Save(ctx, j); err != nil {
		return nil, s.storageFailure(err, j.ID)
	}

	s.instruments.JourneyEvent(ctx, telemetry.EventDaySkipped)
	return j, nil
}

// Abandon ends an active journey and deletes it with everything it owns.
func (s *Service) Abandon(ctx context.Context, journeyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.repo.Get(ctx, journeyID)
	if err != nil {
		return s.storageFailure(err, journeyID)
	}
	if j.Status != StatusActive {
		return fmt.Errorf("%w: cannot abandon a %s journey", ErrInvalidTransition, j.Status)
	}

	j.Status = StatusAbandoned
	if err := s.repo.Delete(ctx, j.ID); err != nil {
		return s.storageFailure(err, j.ID)
	}

	s.instruments.JourneyEvent(ctx, telemetry.EventJourneyAbandoned)
	s.logger.Info().
		Str("journey_id", j.ID).
		Int("days", len(j.DayRoutes)).
		Msg("journey abandoned")

	return nil
}

// ScheduleChange replaces the days after an edited day.
type ScheduleChange struct {
	DayRouteID  string
	NewEnd      Location
	NewDistance float64
	Days        []PlannedDay
}

// ReplaceSchedule ends the edited day at NewEnd, drops every later day and
// appends Days numbered and dated after the edited day. The journey's total
// distance keeps its planned value. The journey is saved once; on failure the
// stored schedule is untouched.
func (s *Service) ReplaceSchedule(ctx context.Context, change ScheduleChange) (*Journey, error) {
	if len(change.Days) == 0 {
		return nil, ErrEmptySchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, edited, err := s.loadActiveDay(ctx, change.DayRouteID)
	if err != nil {
		return nil, err
	}

	kept := make([]*DayRoute, 0, edited.DayNumber+len(change.Days))
	for _, d := range j.SortedDayRoutes() {
		if d.DayNumber <= edited.DayNumber {
			kept = append(kept, d)
		}
	}

	edited.End = change.NewEnd
	edited.Distance = change.NewDistance

	added := ScheduleDays(change.Days, edited.DayNumber+1, s.cal.AddDays(edited.Date, 1), s.cal)
	for _, d := range added {
		d.ID = s.newID()
		d.JourneyID = j.ID
	}
	j.DayRoutes = append(kept, added...)
	j.EndDate = added[len(added)-1].Date

	if err := s.repo.Save(ctx, j); err != nil {
		return nil, s.storageFailure(err, j.ID)
	}

	s.instruments.JourneyEvent(ctx, telemetry.EventReplanned)
	s.logger.Info().
		Str("journey_id", j.ID).
		Int("edited_day", edited.DayNumber).
		Int("new_days", len(added)).
		Time("end_date", j.EndDate).
		Msg("journey replanned")

	return j, nil
}

func (s *Service) loadActiveDay(ctx context.Context, dayRouteID string) (*Journey, *DayRoute, error) {
	j, d, err := s.FindByDayRoute(ctx, dayRouteID)
	if err != nil {
		return nil, nil, err
	}
	if j.Status != StatusActive {
		return nil, nil, fmt.Errorf("%w: journey is %s", ErrInvalidTransition, j.Status)
	}
	return j, d, nil
}

// storageFailure logs persistence failures and passes every error through.
func (s *Service) storageFailure(err error, journeyID string) error {
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		s.logger.Error().
			Err(storageErr.Err).
			Str("op", storageErr.Op).
			Str("journey_id", journeyID).
			Msg("journey storage failed")
	}
	return err
}

package journey

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository keeps journey graphs in an arena keyed by journey ID.
// Used for tests and for STORAGE_DRIVER=memory.
type InMemoryRepository struct {
	mu       sync.RWMutex
	journeys map[string]*arenaRecord
	dayIndex map[string]string // day route ID → journey ID
}

type arenaRecord struct {
	journey  *Journey
	journals map[string]*JournalEntry // by day route ID
}

var _ Repository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		journeys: make(map[string]*arenaRecord),
		dayIndex: make(map[string]string),
	}
}

// Save inserts or replaces a journey graph.
func (r *InMemoryRepository) Save(_ context.Context, j *Journey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.journeys[j.ID]
	if !ok {
		rec = &arenaRecord{journals: make(map[string]*JournalEntry)}
		r.journeys[j.ID] = rec
	} else {
		for _, d := range rec.journey.DayRoutes {
			delete(r.dayIndex, d.ID)
		}
	}

	rec.journey = j.Clone()
	keep := make(map[string]bool, len(j.DayRoutes))
	for _, d := range rec.journey.DayRoutes {
		d.JourneyID = j.ID
		keep[d.ID] = true
		r.dayIndex[d.ID] = j.ID
	}
	for dayID := range rec.journals {
		if !keep[dayID] {
			delete(rec.journals, dayID)
		}
	}

	return nil
}

// Get returns a copy of a journey.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Journey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.journeys[id]
	if !ok {
		return nil, ErrJourneyNotFound
	}
	return rec.journey.Clone(), nil
}

// GetByDayRoute returns a copy of the journey owning dayRouteID.
func (r *InMemoryRepository) GetByDayRoute(_ context.Context, dayRouteID string) (*Journey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	journeyID, ok := r.dayIndex[dayRouteID]
	if !ok {
		return nil, ErrDayRouteNotFound
	}
	return r.journeys[journeyID].journey.Clone(), nil
}

// ListByStatus returns copies of journeys with status, ordered by end date.
func (r *InMemoryRepository) ListByStatus(_ context.Context, status Status) ([]*Journey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Journey
	for _, rec := range r.journeys {
		if rec.journey.Status == status {
			out = append(out, rec.journey.Clone())
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].EndDate.Equal(out[b].EndDate) {
			return out[a].ID < out[b].ID
		}
		return out[a].EndDate.Before(out[b].EndDate)
	})
	return out, nil
}

// Delete removes a journey and its descendants.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.journeys[id]
	if !ok {
		return ErrJourneyNotFound
	}
	for _, d := range rec.journey.DayRoutes {
		delete(r.dayIndex, d.ID)
	}
	delete(r.journeys, id)
	return nil
}

// UpdateDayStatuses applies changes to days that are not settled.
func (r *InMemoryRepository) UpdateDayStatuses(_ context.Context, journeyID string, changes StatusChanges) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.journeys[journeyID]
	if !ok {
		return ErrJourneyNotFound
	}
	for _, d := range rec.journey.DayRoutes {
		if status, ok := changes[d.ID]; ok && !d.Status.Settled() {
			d.Status = status
		}
	}
	return nil
}

// GetJournal returns a copy of a day's journal entry, or nil.
func (r *InMemoryRepository) GetJournal(_ context.Context, dayRouteID string) (*JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	journeyID, ok := r.dayIndex[dayRouteID]
	if !ok {
		return nil, ErrDayRouteNotFound
	}
	e, ok := r.journeys[journeyID].journals[dayRouteID]
	if !ok {
		return nil, nil
	}
	return e.Clone(), nil
}

// SaveJournal inserts or replaces a journal entry.
func (r *InMemoryRepository) SaveJournal(_ context.Context, e *JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	journeyID, ok := r.dayIndex[e.DayRouteID]
	if !ok {
		return ErrDayRouteNotFound
	}
	r.journeys[journeyID].journals[e.DayRouteID] = e.Clone()
	return nil
}

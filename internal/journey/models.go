// Package journey holds the multi-day walking journey model, its day and
// journey status machine, the day journal, and the persistence behind them.
package journey

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/walkplan/walkplan/pkg/polyline"
)

// Status is the lifecycle status of a journey.
type Status string

// Journey statuses. planning → active → completed, or active → abandoned.
const (
	StatusPlanning  Status = "planning"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// DayStatus is the status of one day route.
type DayStatus string

// Day statuses.
const (
	DayUpcoming  DayStatus = "upcoming"
	DayToday     DayStatus = "today"
	DayCompleted DayStatus = "completed"
	DaySkipped   DayStatus = "skipped"
)

// Settled reports whether automatic status refresh must leave the day alone.
func (s DayStatus) Settled() bool {
	return s == DayCompleted || s == DaySkipped
}

var (
	ErrJourneyNotFound     = errors.New("journey not found")
	ErrDayRouteNotFound    = errors.New("day route not found")
	ErrPhotoNotFound       = errors.New("journal photo not found")
	ErrActiveJourneyExists = errors.New("an active journey already exists")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrEmptySchedule       = errors.New("journey has no day routes")
	ErrInvalidPhoto        = errors.New("invalid photo")
	ErrInvalidPhotoOrder   = errors.New("photo order must list every photo exactly once")
)

// StorageError wraps a persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("journey storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Location is a named point.
type Location struct {
	Name  string              `json:"name"`
	Point polyline.Coordinate `json:"point"`
}

// Journey is a planned multi-day walk. It owns its day routes.
type Journey struct {
	ID                  string      `json:"id"`
	Title               string      `json:"title"`
	Start               Location    `json:"start"`
	End                 Location    `json:"end"`
	StartDate           time.Time   `json:"startDate"`
	EndDate             time.Time   `json:"endDate"`
	TotalDistance       float64     `json:"totalDistance"`
	Status              Status      `json:"status"`
	CreatedAt           time.Time   `json:"createdAt"`
	TotalSteps          int         `json:"totalSteps"`
	TotalDistanceWalked float64     `json:"totalDistanceWalked"`
	DayRoutes           []*DayRoute `json:"dayRoutes"`
}

// DayRoute is one day of a journey. JourneyID is a lookup key only.
type DayRoute struct {
	ID        string    `json:"id"`
	JourneyID string    `json:"journeyId"`
	DayNumber int       `json:"dayNumber"`
	Date      time.Time `json:"date"`
	Start     Location  `json:"start"`
	End       Location  `json:"end"`
	Distance  float64   `json:"distance"`
	Status    DayStatus `json:"status"`
}

// JournalEntry is the diary for one day route.
type JournalEntry struct {
	ID         string          `json:"id"`
	DayRouteID string          `json:"dayRouteId"`
	Text       string          `json:"text"`
	CreatedAt  time.Time       `json:"createdAt"`
	Photos     []*JournalPhoto `json:"photos"`
}

// JournalPhoto is an image attached to a journal entry.
type JournalPhoto struct {
	ID          string    `json:"id"`
	Data        []byte    `json:"-"`
	ContentType string    `json:"contentType"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DefaultTitle builds the journey title from its endpoint names.
func DefaultTitle(startName, endName string) string {
	return startName + " → " + endName
}

// NumberOfDays counts calendar days from StartDate to EndDate inclusive.
func (j *Journey) NumberOfDays(cal Calendar) int {
	return max(cal.DaysBetween(j.StartDate, j.EndDate)+1, 1)
}

// SortedDayRoutes returns the day routes ordered by day number.
func (j *Journey) SortedDayRoutes() []*DayRoute {
	days := make([]*DayRoute, len(j.DayRoutes))
	copy(days, j.DayRoutes)
	sort.SliceStable(days, func(a, b int) bool { return days[a].DayNumber < days[b].DayNumber })
	return days
}

// DayRoute returns the day route with id, or nil.
func (j *Journey) DayRoute(id string) *DayRoute {
	for _, d := range j.DayRoutes {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// Clone returns a deep copy of the journey and its day routes.
func (j *Journey) Clone() *Journey {
	cpy := *j
	cpy.DayRoutes = make([]*DayRoute, len(j.DayRoutes))
	for i, d := range j.DayRoutes {
		dc := *d
		cpy.DayRoutes[i] = &dc
	}
	return &cpy
}

// SortedPhotos returns photos ordered by sort order; ties keep insertion order.
func (e *JournalEntry) SortedPhotos() []*JournalPhoto {
	photos := make([]*JournalPhoto, len(e.Photos))
	copy(photos, e.Photos)
	sort.SliceStable(photos, func(a, b int) bool { return photos[a].SortOrder < photos[b].SortOrder })
	return photos
}

// Photo returns the photo with id, or nil.
func (e *JournalEntry) Photo(id string) *JournalPhoto {
	for _, p := range e.Photos {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Clone returns a deep copy of the entry and its photos.
func (e *JournalEntry) Clone() *JournalEntry {
	cpy := *e
	cpy.Photos = make([]*JournalPhoto, len(e.Photos))
	for i, p := range e.Photos {
		pc := *p
		pc.Data = append([]byte(nil), p.Data...)
		cpy.Photos[i] = &pc
	}
	return &cpy
}

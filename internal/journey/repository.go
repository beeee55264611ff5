package journey

import "context"

// Repository persists journeys as whole graphs. A journey owns its day
// routes, each day route owns at most one journal entry, and each entry owns
// its photos; removing an owner removes everything below it.
type Repository interface {
	// Save inserts or replaces the journey and its day routes atomically.
	// Day routes missing from j.DayRoutes are deleted with their journals.
	Save(ctx context.Context, j *Journey) error

	// Get returns the journey with its day routes.
	// Returns ErrJourneyNotFound if it does not exist.
	Get(ctx context.Context, id string) (*Journey, error)

	// GetByDayRoute returns the journey that owns a day route.
	// Returns ErrDayRouteNotFound if the day route does not exist.
	GetByDayRoute(ctx context.Context, dayRouteID string) (*Journey, error)

	// ListByStatus returns journeys with the given status ordered by end date.
	ListByStatus(ctx context.Context, status Status) ([]*Journey, error)

	// Delete removes a journey and everything it owns.
	Delete(ctx context.Context, id string) error

	// UpdateDayStatuses applies automatic status changes. Days that are
	// completed or skipped in storage are left as they are.
	UpdateDayStatuses(ctx context.Context, journeyID string, changes StatusChanges) error

	// GetJournal returns the journal entry of a day route, or nil when the
	// day has none yet. Returns ErrDayRouteNotFound for unknown days.
	GetJournal(ctx context.Context, dayRouteID string) (*JournalEntry, error)

	// SaveJournal inserts or replaces a journal entry and its photo set.
	SaveJournal(ctx context.Context, e *JournalEntry) error
}

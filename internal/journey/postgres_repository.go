package journey

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/walkplan/walkplan/internal/database"
)

const pgForeignKeyViolation = "23503"

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	db database.Querier
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgreSQL journey repository.
func NewPostgresRepository(db database.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const journeyColumns = `
	id, title,
	start_name, start_lat, start_lon,
	end_name, end_lat, end_lon,
	start_date, end_date, total_distance, status, created_at,
	total_steps, total_distance_walked`

const dayRouteColumns = `
	id, journey_id, day_number, date,
	start_name, start_lat, start_lon,
	end_name, end_lat, end_lon,
	distance, status`

// Save upserts the journey and its day routes in one transaction.
func (r *PostgresRepository) Save(ctx context.Context, j *Journey) error {
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO journeys (`+journeyColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				start_name = EXCLUDED.start_name,
				start_lat = EXCLUDED.start_lat,
				start_lon = EXCLUDED.start_lon,
				end_name = EXCLUDED.end_name,
				end_lat = EXCLUDED.end_lat,
				end_lon = EXCLUDED.end_lon,
				start_date = EXCLUDED.start_date,
				end_date = EXCLUDED.end_date,
				total_distance = EXCLUDED.total_distance,
				status = EXCLUDED.status,
				total_steps = EXCLUDED.total_steps,
				total_distance_walked = EXCLUDED.total_distance_walked
		`,
			j.ID, j.Title,
			j.Start.Name, j.Start.Point.Lat, j.Start.Point.Lon,
			j.End.Name, j.End.Point.Lat, j.End.Point.Lon,
			j.StartDate, j.EndDate, j.TotalDistance, string(j.Status), j.CreatedAt,
			j.TotalSteps, j.TotalDistanceWalked,
		)
		if err != nil {
			return err
		}

		ids := make([]string, len(j.DayRoutes))
		for i, d := range j.DayRoutes {
			ids[i] = d.ID
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM day_routes WHERE journey_id = $1 AND NOT (id = ANY($2))`,
			j.ID, ids,
		); err != nil {
			return err
		}

		for _, d := range j.DayRoutes {
			_, err := tx.Exec(ctx, `
				INSERT INTO day_routes (`+dayRouteColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				ON CONFLICT (id) DO UPDATE SET
					day_number = EXCLUDED.day_number,
					date = EXCLUDED.date,
					start_name = EXCLUDED.start_name,
					start_lat = EXCLUDED.start_lat,
					start_lon = EXCLUDED.start_lon,
					end_name = EXCLUDED.end_name,
					end_lat = EXCLUDED.end_lat,
					end_lon = EXCLUDED.end_lon,
					distance = EXCLUDED.distance,
					status = EXCLUDED.status
			`,
				d.ID, j.ID, d.DayNumber, d.Date,
				d.Start.Name, d.Start.Point.Lat, d.Start.Point.Lon,
				d.End.Name, d.End.Point.Lat, d.End.Point.Lon,
				d.Distance, string(d.Status),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &StorageError{Op: "save journey", Err: err}
	}
	return nil
}

// Get retrieves a journey and its day routes.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Journey, error) {
	j, err := scanJourney(r.db.QueryRow(ctx,
		`SELECT `+journeyColumns+` FROM journeys WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJourneyNotFound
		}
		return nil, &StorageError{Op: "get journey", Err: err}
	}

	if j.DayRoutes, err = r.loadDayRoutes(ctx, j.ID); err != nil {
		return nil, &StorageError{Op: "get journey", Err: err}
	}
	return j, nil
}

// GetByDayRoute retrieves the journey owning a day route.
func (r *PostgresRepository) GetByDayRoute(ctx context.Context, dayRouteID string) (*Journey, error) {
	var journeyID string
	err := r.db.QueryRow(ctx,
		`SELECT journey_id FROM day_routes WHERE id = $1`, dayRouteID,
	).Scan(&journeyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDayRouteNotFound
		}
		return nil, &StorageError{Op: "find day route", Err: err}
	}

	j, err := r.Get(ctx, journeyID)
	if errors.Is(err, ErrJourneyNotFound) {
		// Deleted between the two reads.
		return nil, ErrDayRouteNotFound
	}
	return j, err
}

// ListByStatus retrieves journeys with a status ordered by end date.
func (r *PostgresRepository) ListByStatus(ctx context.Context, status Status) ([]*Journey, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+journeyColumns+`
		FROM journeys
		WHERE status = $1
		ORDER BY end_date, id
	`, string(status))
	if err != nil {
		return nil, &StorageError{Op: "list journeys", Err: err}
	}

	var journeys []*Journey
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			rows.Close()
			return nil, &StorageError{Op: "list journeys", Err: err}
		}
		journeys = append(journeys, j)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list journeys", Err: err}
	}

	for _, j := range journeys {
		if j.DayRoutes, err = r.loadDayRoutes(ctx, j.ID); err != nil {
			return nil, &StorageError{Op: "list journeys", Err: err}
		}
	}
	return journeys, nil
}

// Delete removes a journey. Day routes, journals and photos cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM journeys WHERE id = $1`, id)
	if err != nil {
		return &StorageError{Op: "delete journey", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return ErrJourneyNotFound
	}
	return nil
}

// UpdateDayStatuses applies changes, skipping days settled in storage.
func (r *PostgresRepository) UpdateDayStatuses(ctx context.Context, journeyID string, changes StatusChanges) error {
	if len(changes) == 0 {
		return nil
	}

	ids := make([]string, 0, len(changes))
	for id := range changes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, id := range ids {
			_, err := tx.Exec(ctx, `
				UPDATE day_routes SET status = $3
				WHERE id = $1 AND journey_id = $2
				  AND status NOT IN ('completed', 'skipped')
			`, id, journeyID, string(changes[id]))
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &StorageError{Op: "update day statuses", Err: err}
	}
	return nil
}

// GetJournal retrieves a day's journal entry with its photos.
func (r *PostgresRepository) GetJournal(ctx context.Context, dayRouteID string) (*JournalEntry, error) {
	e := JournalEntry{DayRouteID: dayRouteID}
	err := r.db.QueryRow(ctx, `
		SELECT id, text, created_at FROM journal_entries WHERE day_route_id = $1
	`, dayRouteID).Scan(&e.ID, &e.Text, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM day_routes WHERE id = $1)`, dayRouteID,
		).Scan(&exists); err != nil {
			return nil, &StorageError{Op: "get journal", Err: err}
		}
		if !exists {
			return nil, ErrDayRouteNotFound
		}
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "get journal", Err: err}
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, data, content_type, sort_order, created_at
		FROM journal_photos
		WHERE entry_id = $1
		ORDER BY sort_order, created_at
	`, e.ID)
	if err != nil {
		return nil, &StorageError{Op: "get journal photos", Err: err}
	}
	defer rows.Close()

	e.Photos = []*JournalPhoto{}
	for rows.Next() {
		var p JournalPhoto
		if err := rows.Scan(&p.ID, &p.Data, &p.ContentType, &p.SortOrder, &p.CreatedAt); err != nil {
			return nil, &StorageError{Op: "get journal photos", Err: err}
		}
		e.Photos = append(e.Photos, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "get journal photos", Err: err}
	}
	return &e, nil
}

// SaveJournal upserts an entry and replaces its photo set.
func (r *PostgresRepository) SaveJournal(ctx context.Context, e *JournalEntry) error {
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO journal_entries (id, day_route_id, text, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text
		`, e.ID, e.DayRouteID, e.Text, e.CreatedAt); err != nil {
			return err
		}

		ids := make([]string, len(e.Photos))
		for i, p := range e.Photos {
			ids[i] = p.ID
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM journal_photos WHERE entry_id = $1 AND NOT (id = ANY($2))`,
			e.ID, ids,
		); err != nil {
			return err
		}

		for _, p := range e.Photos {
			if _, err := tx.Exec(ctx, `
				INSERT INTO journal_photos (id, entry_id, data, content_type, sort_order, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO UPDATE SET sort_order = EXCLUDED.sort_order
			`, p.ID, e.ID, p.Data, p.ContentType, p.SortOrder, p.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrDayRouteNotFound
		}
		return &StorageError{Op: "save journal", Err: err}
	}
	return nil
}

func (r *PostgresRepository) loadDayRoutes(ctx context.Context, journeyID string) ([]*DayRoute, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+dayRouteColumns+`
		FROM day_routes
		WHERE journey_id = $1
		ORDER BY day_number
	`, journeyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := []*DayRoute{}
	for rows.Next() {
		var (
			d      DayRoute
			status string
		)
		if err := rows.Scan(
			&d.ID, &d.JourneyID, &d.DayNumber, &d.Date,
			&d.Start.Name, &d.Start.Point.Lat, &d.Start.Point.Lon,
			&d.End.Name, &d.End.Point.Lat, &d.End.Point.Lon,
			&d.Distance, &status,
		); err != nil {
			return nil, err
		}
		d.Status = DayStatus(status)
		days = append(days, &d)
	}
	return days, rows.Err()
}

func scanJourney(row pgx.Row) (*Journey, error) {
	var (
		j      Journey
		status string
	)
	err := row.Scan(
		&j.ID, &j.Title,
		&j.Start.Name, &j.Start.Point.Lat, &j.Start.Point.Lon,
		&j.End.Name, &j.End.Point.Lat, &j.End.Point.Lon,
		&j.StartDate, &j.EndDate, &j.TotalDistance, &status, &j.CreatedAt,
		&j.TotalSteps, &j.TotalDistanceWalked,
	)
	if err != nil {
		return nil, err
	}
	j.Status = Status(status)
	return &j, nil
}

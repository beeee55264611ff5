package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/walkplan/walkplan/internal/database"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	db database.Querier
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgreSQL activity repository.
func NewPostgresRepository(db database.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Add inserts samples in one transaction.
func (r *PostgresRepository) Add(ctx context.Context, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, s := range samples {
			_, err := tx.Exec(ctx, `
				INSERT INTO activity_samples (id, recorded_at, steps, distance_meters)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO NOTHING
			`, s.ID, s.RecordedAt, s.Steps, s.DistanceMeters)
			if err != nil {
				return fmt.Errorf("insert activity sample %s: %w", s.ID, err)
			}
		}
		return nil
	})
}

// Sum totals samples recorded in [from, to).
func (r *PostgresRepository) Sum(ctx context.Context, from, to time.Time) (Totals, error) {
	var t Totals
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(steps), 0)::BIGINT, COALESCE(SUM(distance_meters), 0)::DOUBLE PRECISION
		FROM activity_samples
		WHERE recorded_at >= $1 AND recorded_at < $2
	`, from, to).Scan(&t.Steps, &t.DistanceMeters)
	if err != nil {
		return Totals{}, fmt.Errorf("sum activity samples: %w", err)
	}
	return t, nil
}

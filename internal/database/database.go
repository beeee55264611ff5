// Package database provides PostgreSQL connection management and the schema
// used by the journey and activity stores.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds database connection configuration.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConnectionString returns the PostgreSQL connection string.
func (c Config) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// Querier is the subset of pgx used by repositories.
// Both *pgxpool.Pool and pgxmock pools satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ Querier = (*pgxpool.Pool)(nil)

// Connect creates a new database connection pool.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns) //nolint:gosec // bounded by config
	poolConfig.MinConns = int32(cfg.MaxIdleConns) //nolint:gosec // bounded by config
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on any error.
func WithTx(ctx context.Context, db Querier, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db Querier) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS journeys (
		id                    TEXT PRIMARY KEY,
		title                 TEXT NOT NULL,
		start_name            TEXT NOT NULL,
		start_lat             DOUBLE PRECISION NOT NULL,
		start_lon             DOUBLE PRECISION NOT NULL,
		end_name              TEXT NOT NULL,
		end_lat               DOUBLE PRECISION NOT NULL,
		end_lon               DOUBLE PRECISION NOT NULL,
		start_date            TIMESTAMPTZ NOT NULL,
		end_date              TIMESTAMPTZ NOT NULL,
		total_distance        DOUBLE PRECISION NOT NULL,
		status                TEXT NOT NULL,
		created_at            TIMESTAMPTZ NOT NULL,
		total_steps           INTEGER NOT NULL DEFAULT 0,
		total_distance_walked DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS day_routes (
		id         TEXT PRIMARY KEY,
		journey_id TEXT NOT NULL REFERENCES journeys(id) ON DELETE CASCADE,
		day_number INTEGER NOT NULL,
		date       TIMESTAMPTZ NOT NULL,
		start_name TEXT NOT NULL,
		start_lat  DOUBLE PRECISION NOT NULL,
		start_lon  DOUBLE PRECISION NOT NULL,
		end_name   TEXT NOT NULL,
		end_lat    DOUBLE PRECISION NOT NULL,
		end_lon    DOUBLE PRECISION NOT NULL,
		distance   DOUBLE PRECISION NOT NULL,
		status     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS day_routes_journey_idx ON day_routes (journey_id, day_number)`,
	`CREATE TABLE IF NOT EXISTS journal_entries (
		id           TEXT PRIMARY KEY,
		day_route_id TEXT NOT NULL UNIQUE REFERENCES day_routes(id) ON DELETE CASCADE,
		text         TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS journal_photos (
		id           TEXT PRIMARY KEY,
		entry_id     TEXT NOT NULL REFERENCES journal_entries(id) ON DELETE CASCADE,
		data         BYTEA NOT NULL,
		content_type TEXT NOT NULL,
		sort_order   INTEGER NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activity_samples (
		id              TEXT PRIMARY KEY,
		recorded_at     TIMESTAMPTZ NOT NULL,
		steps           INTEGER NOT NULL,
		distance_meters DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS activity_samples_recorded_idx ON activity_samples (recorded_at)`,
}

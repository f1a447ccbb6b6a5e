package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"duomatch/pkg/platform/sentinel"
)

// PostgresAdapter stores one row per storage key in a blob table. The schema
// is intentionally a key/value shape, not relational: the registry owns
// consistency in memory and persistence is a snapshot, so normalizing the
// collections would only invite partial-state reads.
type PostgresAdapter struct {
	pool *pgxpool.Pool
}

// Schema creates the blob table. Run once at startup; IF NOT EXISTS makes it
// idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS matching_snapshots (
    key        TEXT PRIMARY KEY,
    value      BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// NewPostgresAdapter wraps an externally managed pool and ensures the schema
// exists.
func NewPostgresAdapter(ctx context.Context, pool *pgxpool.Pool) (*PostgresAdapter, error) {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	return &PostgresAdapter{pool: pool}, nil
}

func (a *PostgresAdapter) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := a.pool.QueryRow(ctx,
		`SELECT value FROM matching_snapshots WHERE key = $1`, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres load %s: %w", key, errors.Join(sentinel.ErrUnavailable, err))
	}
	return value, nil
}

func (a *PostgresAdapter) Save(ctx context.Context, key string, value []byte) error {
	_, err := a.pool.Exec(ctx,
		`INSERT INTO matching_snapshots (key, value, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("postgres save %s: %w", key, errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}

package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema lets the process start against an empty database. The
// unique index on email is the store's uniqueness authority; the
// partial index backs reset-token lookup by hash.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id                     UUID PRIMARY KEY,
			email                  TEXT NOT NULL,
			name                   TEXT NOT NULL,
			password_hash          TEXT NOT NULL,
			reset_token_hash       TEXT,
			reset_token_expires_at TIMESTAMPTZ,
			created_at             TIMESTAMPTZ NOT NULL,
			updated_at             TIMESTAMPTZ NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email);

		CREATE INDEX IF NOT EXISTS users_reset_token_hash_idx
			ON users (reset_token_hash)
			WHERE reset_token_hash IS NOT NULL;
	`)

	return err
}

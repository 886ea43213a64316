package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/syncodehq/syncode/internal/domain/user"
	"github.com/syncodehq/syncode/internal/observability"
)

const userColumns = `id, email, name, password_hash, reset_token_hash, reset_token_expires_at, created_at, updated_at`

type UsersRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

// NewUsersRepo wires a users repository over the pool. metrics may be
// nil (tests).
func NewUsersRepo(pool *pgxpool.Pool, metrics *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, metrics: metrics}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.metrics == nil {
		return fn()
	}

	return r.metrics.ObserveDB(op, fn)
}

// Create inserts a new user. Uniqueness is enforced by the DB unique
// index, not by a check-then-insert, so two concurrent creates with
// the same email cannot both succeed.
func (r *UsersRepo) Create(ctx context.Context, name, email, passwordHash string) (user.User, error) {
	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
			`,
			u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email",
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id",
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByResetTokenHash looks a user up by the stored reset-token hash.
// Expiry is judged by the caller so the in-memory store and this one
// behave identically under an injected clock.
func (r *UsersRepo) GetByResetTokenHash(ctx context.Context, tokenHash string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_reset_token",
		`SELECT `+userColumns+` FROM users WHERE reset_token_hash = $1`, tokenHash)
}

// SetResetToken stores the hash and expiry of a newly requested reset
// token, replacing any outstanding one.
func (r *UsersRepo) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	return r.exec(ctx, "users.set_reset_token",
		`UPDATE users
		SET reset_token_hash = $2, reset_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1`,
		id, tokenHash, expiresAt)
}

// UpdatePassword replaces the stored hash for a logged-in password
// change.
func (r *UsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, "users.update_password",
		`UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`,
		id, passwordHash)
}

// UpdatePasswordAndClearReset commits a redeemed reset: new hash in,
// token state out, as one statement so a failure mid-flow can never
// leave the token cleared without the password set.
func (r *UsersRepo) UpdatePasswordAndClearReset(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, "users.redeem_reset",
		`UPDATE users
		SET password_hash = $2, reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = NOW()
		WHERE id = $1`,
		id, passwordHash)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg any) (user.User, error) {
	var u user.User

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx, query, arg).Scan(
			&u.ID,
			&u.Email,
			&u.Name,
			&u.PasswordHash,
			&u.ResetTokenHash,
			&u.ResetTokenExpiresAt,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) exec(ctx context.Context, op, query string, args ...any) error {
	return r.observe(op, func() error {
		tag, err := r.pool.Exec(ctx, query, args...)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}

		return nil
	})
}

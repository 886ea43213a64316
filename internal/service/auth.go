package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/syncodehq/syncode/internal/auth"
	"github.com/syncodehq/syncode/internal/domain/user"
	"github.com/syncodehq/syncode/internal/notifications"
	"github.com/syncodehq/syncode/internal/security"
)

// CredentialStore is what Auth needs from persistence. Both the
// Postgres and the in-memory repos satisfy it; the store is the sole
// authority on email uniqueness.
type CredentialStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string) (user.User, error)
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdatePasswordAndClearReset(ctx context.Context, id, passwordHash string) error
}

// ResetSender delivers a freshly issued reset link out of band. The
// queue producer is the production implementation.
type ResetSender interface {
	SendPasswordReset(ctx context.Context, in notifications.SendPasswordResetInput) error
}

const minPasswordLen = 6

type Auth struct {
	store  CredentialStore
	hasher *security.Hasher
	tokens *auth.Manager
	resets *auth.ResetTokens
	sender ResetSender
	// Base URL the reset link points at, e.g. the frontend's
	// /reset-password/<token> page.
	frontendURL string
	log         *slog.Logger
}

func NewAuth(store CredentialStore, hasher *security.Hasher, tokens *auth.Manager, resets *auth.ResetTokens, sender ResetSender, frontendURL string, log *slog.Logger) *Auth {
	return &Auth{
		store:       store,
		hasher:      hasher,
		tokens:      tokens,
		resets:      resets,
		sender:      sender,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
	}
}

// Session is what every credential-establishing operation returns:
// the caller-facing user plus a fresh bearer token.
type Session struct {
	User  user.View
	Token string
}

// ResetIssue carries a freshly generated reset token back to the
// handler. Whether the plaintext is ever echoed to the caller is the
// transport's decision, gated on configuration.
type ResetIssue struct {
	Token    string
	ResetURL string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *Auth) Register(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if name == "" || email == "" || password == "" {
		return Session{}, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}

	if len(password) < minPasswordLen {
		return Session{}, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}

	hash, err := a.hasher.Hash(password)

	if err != nil {
		a.log.Error("password hashing failed", "err", err)
		return Session{}, err
	}

	u, err := a.store.Create(ctx, name, email, hash)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return Session{}, ErrEmailTaken
		}

		return Session{}, a.storeErr("create user", err)
	}

	return a.newSession(u)
}

func (a *Auth) Login(ctx context.Context, email, password string) (Session, error) {
	email = NormalizeEmail(email)

	if email == "" || password == "" {
		return Session{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	u, err := a.store.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Same failure as a wrong password: no account enumeration.
			return Session{}, ErrInvalidCredentials
		}

		return Session{}, a.storeErr("lookup user", err)
	}

	ok, err := a.hasher.Verify(password, u.PasswordHash)

	if err != nil {
		a.log.Error("stored password hash unreadable", "user_id", u.ID, "err", err)
		return Session{}, err
	}

	if !ok {
		return Session{}, ErrInvalidCredentials
	}

	return a.newSession(u)
}

// GetSelf resolves an authenticated user id back to its view. A
// deleted account fails with ErrUnauthenticated, never stale-succeeds.
func (a *Auth) GetSelf(ctx context.Context, userID string) (user.View, error) {
	u, err := a.store.GetByID(ctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.View{}, ErrUnauthenticated
		}

		return user.View{}, a.storeErr("lookup user", err)
	}

	return u.View(), nil
}

// RequestPasswordReset issues a reset token and hands the link to the
// delivery collaborator. An unknown email returns (nil, nil), the
// success-shaped nothing that keeps the endpoint enumeration-proof.
func (a *Auth) RequestPasswordReset(ctx context.Context, email string) (*ResetIssue, error) {
	email = NormalizeEmail(email)

	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}

	u, err := a.store.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil
		}

		return nil, a.storeErr("lookup user", err)
	}

	plaintext, hash, expiresAt, err := a.resets.Generate()

	if err != nil {
		a.log.Error("reset token generation failed", "err", err)
		return nil, err
	}

	// A new request replaces any outstanding token; only the hash is
	// persisted.
	err = a.store.SetResetToken(ctx, u.ID, hash, expiresAt)

	if err != nil {
		return nil, a.storeErr("store reset token", err)
	}

	issue := &ResetIssue{
		Token:    plaintext,
		ResetURL: a.frontendURL + "/reset-password/" + plaintext,
	}

	if a.sender != nil {
		err = a.sender.SendPasswordReset(ctx, notifications.SendPasswordResetInput{
			Email:    u.Email,
			Name:     u.Name,
			ResetURL: issue.ResetURL,
		})

		if err != nil {
			// The token is persisted and still redeemable; delivery has
			// its own retry story. Never fail the request over it.
			a.log.Error("reset delivery dispatch failed", "user_id", u.ID, "err", err)
		}
	}

	return issue, nil
}

// ConfirmPasswordReset redeems a reset token and installs the new
// password. The hash clear and the password write are one atomic store
// operation; any failure leaves the record untouched.
func (a *Auth) ConfirmPasswordReset(ctx context.Context, plaintextToken, newPassword string) (Session, error) {
	if plaintextToken == "" {
		return Session{}, fmt.Errorf("%w: reset token is required", ErrValidation)
	}

	if len(newPassword) < minPasswordLen {
		return Session{}, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}

	u, err := a.store.GetByResetTokenHash(ctx, a.resets.HashToken(plaintextToken))

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Session{}, ErrInvalidResetToken
		}

		return Session{}, a.storeErr("lookup reset token", err)
	}

	if u.ResetTokenHash == nil || u.ResetTokenExpiresAt == nil ||
		!a.resets.Redeem(plaintextToken, *u.ResetTokenHash, *u.ResetTokenExpiresAt) {
		return Session{}, ErrInvalidResetToken
	}

	hash, err := a.hasher.Hash(newPassword)

	if err != nil {
		a.log.Error("password hashing failed", "err", err)
		return Session{}, err
	}

	err = a.store.UpdatePasswordAndClearReset(ctx, u.ID, hash)

	if err != nil {
		return Session{}, a.storeErr("redeem reset token", err)
	}

	return a.newSession(u)
}

// UpdatePassword changes the password of a logged-in user. The current
// password is re-verified: a bearer token alone is not enough.
func (a *Auth) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) (Session, error) {
	if currentPassword == "" {
		return Session{}, fmt.Errorf("%w: current password is required", ErrValidation)
	}

	if len(newPassword) < minPasswordLen {
		return Session{}, fmt.Errorf("%w: new password must be at least %d characters", ErrValidation, minPasswordLen)
	}

	u, err := a.store.GetByID(ctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Session{}, ErrUnauthenticated
		}

		return Session{}, a.storeErr("lookup user", err)
	}

	ok, err := a.hasher.Verify(currentPassword, u.PasswordHash)

	if err != nil {
		a.log.Error("stored password hash unreadable", "user_id", u.ID, "err", err)
		return Session{}, err
	}

	if !ok {
		return Session{}, ErrInvalidCredentials
	}

	hash, err := a.hasher.Hash(newPassword)

	if err != nil {
		a.log.Error("password hashing failed", "err", err)
		return Session{}, err
	}

	err = a.store.UpdatePassword(ctx, u.ID, hash)

	if err != nil {
		return Session{}, a.storeErr("update password", err)
	}

	return a.newSession(u)
}

func (a *Auth) newSession(u user.User) (Session, error) {
	token, err := a.tokens.Issue(u.ID)

	if err != nil {
		a.log.Error("token issue failed", "user_id", u.ID, "err", err)
		return Session{}, err
	}

	return Session{User: u.View(), Token: token}, nil
}

func (a *Auth) storeErr(op string, err error) error {
	a.log.Error("credential store failure", "op", op, "err", err)

	return fmt.Errorf("%w: %s", ErrStoreUnavailable, op)
}

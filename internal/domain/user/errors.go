package user

import "errors"

// Store sentinels shared by the Postgres and in-memory credential
// stores.
var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ResetTokens generates and redeems the short-lived one-time secrets
// used to authorize a password change without a session. Only the
// HMAC of a token is ever persisted; the plaintext exists for the one
// response that delivers it.
type ResetTokens struct {
	pepper []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewResetTokens(pepper string, ttl time.Duration) *ResetTokens {
	return &ResetTokens{
		pepper: []byte(pepper),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate returns a fresh high-entropy token, the hash to persist,
// and the expiry of the redemption window.
func (r *ResetTokens) Generate() (plaintext string, hash string, expiresAt time.Time, err error) {
	buf := make([]byte, 20)

	_, err = rand.Read(buf)

	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("generate reset token: %w", err)
	}

	plaintext = hex.EncodeToString(buf)
	hash = r.HashToken(plaintext)
	expiresAt = r.now().UTC().Add(r.ttl)

	return plaintext, hash, expiresAt, nil
}

// HashToken is the deterministic one-way function used both at
// generation time and at redemption. Server-side pepper keeps a DB
// dump from being enough to forge tokens.
func (r *ResetTokens) HashToken(plaintext string) string {
	h := hmac.New(sha256.New, r.pepper)
	h.Write([]byte(plaintext))
	return hex.EncodeToString(h.Sum(nil))
}

// Redeem reports whether the presented plaintext matches the stored
// hash inside the expiry window. A stale match and a wrong token are
// deliberately indistinguishable.
func (r *ResetTokens) Redeem(plaintext, storedHash string, storedExpiresAt time.Time) bool {
	if storedHash == "" || storedExpiresAt.IsZero() {
		return false
	}

	if !r.now().Before(storedExpiresAt) {
		return false
	}

	presented, err := hex.DecodeString(r.HashToken(plaintext))

	if err != nil {
		return false
	}

	stored, err := hex.DecodeString(storedHash)

	if err != nil {
		return false
	}

	return hmac.Equal(presented, stored)
}

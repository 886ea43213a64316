package auth

import (
	"testing"
	"time"
)

func TestGenerateAndRedeem(t *testing.T) {
	r := NewResetTokens("pepper", 10*time.Minute)

	plaintext, hash, expiresAt, err := r.Generate()

	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if len(plaintext) != 40 {
		t.Fatalf("expected 40 hex chars of token, got %d", len(plaintext))
	}

	if hash == plaintext {
		t.Fatalf("hash must not equal the plaintext token")
	}

	window := time.Until(expiresAt)
	if window < 9*time.Minute || window > 11*time.Minute {
		t.Fatalf("expected a ~10 minute window, got %v", window)
	}

	if !r.Redeem(plaintext, hash, expiresAt) {
		t.Fatalf("expected fresh token to redeem")
	}

	if r.Redeem("0000000000000000000000000000000000000000", hash, expiresAt) {
		t.Fatalf("wrong token must not redeem")
	}
}

func TestRedeemExpired(t *testing.T) {
	r := NewResetTokens("pepper", 10*time.Minute)

	plaintext, hash, expiresAt, err := r.Generate()
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	// Move the clock one second past the window.
	r.now = func() time.Time { return expiresAt.Add(time.Second) }

	if r.Redeem(plaintext, hash, expiresAt) {
		t.Fatalf("expired token must not redeem")
	}
}

func TestRedeemHalfConfiguredState(t *testing.T) {
	r := NewResetTokens("pepper", 10*time.Minute)

	if r.Redeem("anything", "", time.Now().Add(time.Minute)) {
		t.Fatalf("empty stored hash must not redeem")
	}

	if r.Redeem("anything", "deadbeef", time.Time{}) {
		t.Fatalf("zero expiry must not redeem")
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	r := NewResetTokens("pepper", 10*time.Minute)
	other := NewResetTokens("other-pepper", 10*time.Minute)

	if r.HashToken("abc") != r.HashToken("abc") {
		t.Fatalf("hash must be deterministic for lookups")
	}

	if r.HashToken("abc") == other.HashToken("abc") {
		t.Fatalf("pepper must change the hash")
	}
}

package jobs

import (
	"errors"
	"testing"
)

func TestEncodeDecodePayload(t *testing.T) {
	in := SendPasswordResetPayload{
		Email:    "ana@test.com",
		Name:     "Ana",
		ResetURL: "http://localhost:5173/reset-password/abc",
	}

	b, err := EncodePayload(JobSendPasswordReset, in)

	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	j, err := NewJob(JobSendPasswordReset, b)
	if err != nil {
		t.Fatalf("new job failed: %v", err)
	}

	decoded, err := DecodePayload(j)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	got, ok := decoded.(SendPasswordResetPayload)
	if !ok {
		t.Fatalf("decoded payload has wrong type %T", decoded)
	}

	if got != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, in)
	}
}

func TestEncodePayloadTypeMismatch(t *testing.T) {
	_, err := EncodePayload(JobSendPasswordReset, struct{ X int }{1})

	if !errors.Is(err, ErrPayloadTypeMismatch) {
		t.Fatalf("expected ErrPayloadTypeMismatch, got %v", err)
	}
}

func TestDecodeJobRejectsUnknownType(t *testing.T) {
	_, err := DecodeJob([]byte(`{"id":"x","type":"export_csv","payload":null}`))

	if !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
}

func TestNewJobRejectsInvalidType(t *testing.T) {
	_, err := NewJob(JobType("nope"), nil)

	if !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
}

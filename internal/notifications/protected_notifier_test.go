package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scriptedNotifier struct {
	errs  []error
	calls int
}

func (s *scriptedNotifier) SendPasswordReset(ctx context.Context, in SendPasswordResetInput) error {
	s.calls++

	if len(s.errs) == 0 {
		return nil
	}

	err := s.errs[0]
	s.errs = s.errs[1:]

	return err
}

func TestProtectedNotifierOpensAfterThreshold(t *testing.T) {
	boom := errors.New("provider down")

	inner := &scriptedNotifier{errs: []error{boom, boom, boom}}

	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 2,
		Cooldown:         time.Minute,
	})

	in := SendPasswordResetInput{Email: "ana@test.com"}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := n.SendPasswordReset(ctx, in); !errors.Is(err, boom) {
			t.Fatalf("call %d err = %v, want provider error", i, err)
		}
	}

	// circuit is open: the provider must not be touched again
	err := n.SendPasswordReset(ctx, in)

	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}

	if inner.calls != 2 {
		t.Errorf("provider called %d times, want 2", inner.calls)
	}
}

func TestProtectedNotifierRecoversAfterCooldown(t *testing.T) {
	boom := errors.New("provider down")

	inner := &scriptedNotifier{errs: []error{boom}}

	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 1,
		Cooldown:         10 * time.Millisecond,
	})

	in := SendPasswordResetInput{Email: "ana@test.com"}
	ctx := context.Background()

	if err := n.SendPasswordReset(ctx, in); !errors.Is(err, boom) {
		t.Fatalf("first call err = %v, want provider error", err)
	}

	if err := n.SendPasswordReset(ctx, in); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("second call err = %v, want ErrCircuitOpen", err)
	}

	time.Sleep(20 * time.Millisecond)

	// half-open trial succeeds and closes the circuit
	if err := n.SendPasswordReset(ctx, in); err != nil {
		t.Fatalf("trial call err = %v, want nil", err)
	}

	if err := n.SendPasswordReset(ctx, in); err != nil {
		t.Fatalf("post-recovery call err = %v, want nil", err)
	}
}

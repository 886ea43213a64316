package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/syncodehq/syncode/internal/auth"
	"github.com/syncodehq/syncode/internal/domain/user"
	"github.com/syncodehq/syncode/internal/notifications"
	"github.com/syncodehq/syncode/internal/repo/memory"
	"github.com/syncodehq/syncode/internal/security"
)

type fakeSender struct {
	sendFn func(ctx context.Context, in notifications.SendPasswordResetInput) error
	sent   []notifications.SendPasswordResetInput
}

func (f *fakeSender) SendPasswordReset(ctx context.Context, in notifications.SendPasswordResetInput) error {
	f.sent = append(f.sent, in)

	if f.sendFn != nil {
		return f.sendFn(ctx, in)
	}

	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuth(t *testing.T, store CredentialStore, resetTTL time.Duration, sender ResetSender) *Auth {
	t.Helper()

	return NewAuth(
		store,
		security.NewHasher(bcrypt.MinCost),
		auth.NewManager("test-secret", time.Hour),
		auth.NewResetTokens("test-pepper", resetTTL),
		sender,
		"https://app.example.com",
		testLogger(),
	)
}

func TestRegisterAndLogin(t *testing.T) {
	store := memory.NewUsersRepo()
	svc := newTestAuth(t, store, 10*time.Minute, &fakeSender{})
	ctx := context.Background()

	sess, err := svc.Register(ctx, " Ana ", "Ana@Test.com", "secret1")

	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if sess.User.Email != "ana@test.com" {
		t.Errorf("email = %q, want normalized %q", sess.User.Email, "ana@test.com")
	}

	if sess.User.Name != "Ana" {
		t.Errorf("name = %q, want %q", sess.User.Name, "Ana")
	}

	if sess.Token == "" {
		t.Error("expected a session token")
	}

	// any case/whitespace variant of the email logs in
	got, err := svc.Login(ctx, "  ANA@TEST.com", "secret1")

	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if got.User.ID != sess.User.ID {
		t.Errorf("login resolved user %q, want %q", got.User.ID, sess.User.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuth(t, memory.NewUsersRepo(), 10*time.Minute, &fakeSender{})
	ctx := context.Background()

	cases := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"missing name", "", "a@b.com", "secret1"},
		{"missing email", "Ana", "", "secret1"},
		{"missing password", "Ana", "a@b.com", ""},
		{"short password", "Ana", "a@b.com", "12345"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.userName, tc.email, tc.password)

			if !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuth(t, memory.NewUsersRepo(), 10*time.Minute, &fakeSender{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ana", "a@x.com", "secret1"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	// uniqueness holds across case variants of the same address
	_, err := svc.Register(ctx, "Other", "A@X.com", "different1")

	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newTestAuth(t, memory.NewUsersRepo(), 10*time.Minute, &fakeSender{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ana", "ana@test.com", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPass := svc.Login(ctx, "ana@test.com", "not-it")
	_, noSuchUser := svc.Login(ctx, "ghost@test.com", "whatever")

	if !errors.Is(wrongPass, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", wrongPass)
	}

	if !errors.Is(noSuchUser, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", noSuchUser)
	}
}

func TestGetSelfDeletedUser(t *testing.T) {
	store := memory.NewUsersRepo()
	svc := newTestAuth(t, store, 10*time.Minute, &fakeSender{})
	ctx := context.Background()

	sess, err := svc.Register(ctx, "Ana", "ana@test.com", "secret1")

	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.GetSelf(ctx, sess.User.ID); err != nil {
		t.Fatalf("get self: %v", err)
	}

	if err := store.Delete(ctx, sess.User.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err = svc.GetSelf(ctx, sess.User.ID)

	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	store := memory.NewUsersRepo()
	sender := &fakeSender{}
	svc := newTestAuth(t, store, 10*time.Minute, sender)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ana", "ana@test.com", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	issue, err := svc.RequestPasswordReset(ctx, "Ana@Test.com")

	if err != nil {
		t.Fatalf("request reset: %v", err)
	}

	if issue == nil || issue.Token == "" {
		t.Fatal("expected a reset issue for a known email")
	}

	if want := "https://app.example.com/reset-password/" + issue.Token; issue.ResetURL != want {
		t.Errorf("reset url = %q, want %q", issue.ResetURL, want)
	}

	if len(sender.sent) != 1 || sender.sent[0].ResetURL != issue.ResetURL {
		t.Fatalf("sender got %+v, want one delivery with the reset url", sender.sent)
	}

	sess, err := svc.ConfirmPasswordReset(ctx, issue.Token, "newsecret1")

	if err != nil {
		t.Fatalf("confirm reset: %v", err)
	}

	if sess.Token == "" {
		t.Error("expected a session token after redemption")
	}

	if _, err := svc.Login(ctx, "ana@test.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password err = %v, want ErrInvalidCredentials", err)
	}

	if _, err := svc.Login(ctx, "ana@test.com", "newsecret1"); err != nil {
		t.Errorf("new password login: %v", err)
	}

	// the token is single use
	_, err = svc.ConfirmPasswordReset(ctx, issue.Token, "thirdsecret1")

	if !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("reused token err = %v, want ErrInvalidResetToken", err)
	}
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestAuth(t, memory.NewUsersRepo(), 10*time.Minute, sender)

	issue, err := svc.RequestPasswordReset(context.Background(), "ghost@test.com")

	if err != nil {
		t.Fatalf("err = %v, want nil for unknown email", err)
	}

	if issue != nil {
		t.Errorf("issue = %+v, want nil for unknown email", issue)
	}

	if len(sender.sent) != 0 {
		t.Errorf("sender called %d times, want 0", len(sender.sent))
	}
}

func TestPasswordResetExpiredToken(t *testing.T) {
	store := memory.NewUsersRepo()
	ctx := context.Background()

	// negative TTL: every token this service issues is already expired
	expired := newTestAuth(t, store, -time.Minute, &fakeSender{})

	if _, err := expired.Register(ctx, "Ana", "ana@test.com", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	issue, err := expired.RequestPasswordReset(ctx, "ana@test.com")

	if err != nil || issue == nil {
		t.Fatalf("request reset: issue=%v err=%v", issue, err)
	}

	_, err = expired.ConfirmPasswordReset(ctx, issue.Token, "newsecret1")

	if !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expired token err = %v, want ErrInvalidResetToken", err)
	}

	// a fresh request against the same store replaces the dead token
	svc := newTestAuth(t, store, 10*time.Minute, &fakeSender{})

	issue, err = svc.RequestPasswordReset(ctx, "ana@test.com")

	if err != nil || issue == nil {
		t.Fatalf("second request: issue=%v err=%v", issue, err)
	}

	if _, err := svc.ConfirmPasswordReset(ctx, issue.Token, "newsecret1"); err != nil {
		t.Fatalf("confirm with fresh token: %v", err)
	}
}

func TestResetDeliveryFailureDoesNotFailRequest(t *testing.T) {
	sender := &fakeSender{
		sendFn: func(context.Context, notifications.SendPasswordResetInput) error {
			return errors.New("provider down")
		},
	}
	svc := newTestAuth(t, memory.NewUsersRepo(), 10*time.Minute, sender)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ana", "ana@test.com", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	issue, err := svc.RequestPasswordReset(ctx, "ana@test.com")

	if err != nil {
		t.Fatalf("err = %v, want nil despite delivery failure", err)
	}

	if issue == nil {
		t.Fatal("expected the issued token back; it is persisted and redeemable")
	}

	if _, err := svc.ConfirmPasswordReset(ctx, issue.Token, "newsecret1"); err != nil {
		t.Errorf("confirm after failed delivery: %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	svc := newTestAuth(t, memory.NewUsersRepo(), 10*time.Minute, &fakeSender{})
	ctx := context.Background()

	sess, err := svc.Register(ctx, "Ana", "ana@test.com", "secret1")

	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err = svc.UpdatePassword(ctx, sess.User.ID, "not-it", "newsecret1")

	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong current password err = %v, want ErrInvalidCredentials", err)
	}

	// the failed attempt must not have touched the stored hash
	if _, err := svc.Login(ctx, "ana@test.com", "secret1"); err != nil {
		t.Fatalf("old password should still work: %v", err)
	}

	if _, err := svc.UpdatePassword(ctx, sess.User.ID, "secret1", "newsecret1"); err != nil {
		t.Fatalf("update password: %v", err)
	}

	if _, err := svc.Login(ctx, "ana@test.com", "newsecret1"); err != nil {
		t.Errorf("new password login: %v", err)
	}
}

type failingStore struct {
	CredentialStore
}

func (failingStore) GetByEmail(context.Context, string) (user.User, error) {
	return user.User{}, errors.New("connection refused")
}

func TestStoreFailureSurfacesAsUnavailable(t *testing.T) {
	svc := newTestAuth(t, failingStore{}, 10*time.Minute, &fakeSender{})

	_, err := svc.Login(context.Background(), "ana@test.com", "secret1")

	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
}

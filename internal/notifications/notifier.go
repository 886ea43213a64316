package notifications

import "context"

type SendPasswordResetInput struct {
	Email    string
	Name     string
	ResetURL string
}

// Notifier is the delivery collaborator: it gets the user and the
// reset link, and owns everything after that. The reset URL embeds the
// one-time plaintext token, so implementations must not persist it.
type Notifier interface {
	SendPasswordReset(ctx context.Context, input SendPasswordResetInput) error
}

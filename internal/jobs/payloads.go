package jobs

// SendPasswordResetPayload carries a reset-link delivery. The URL
// embeds the one-time token, so the queue is treated as
// credential-bearing: no payload logging.
type SendPasswordResetPayload struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	ResetURL string `json:"resetUrl"`
}

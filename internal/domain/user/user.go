package user

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	// Outstanding password-reset state. Either both are set or both
	// are nil; redemption clears them together with the new hash.
	ResetTokenHash      *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// View is the caller-facing shape of a user: no hash, no reset-token
// material.
type View struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) View() View {
	return View{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

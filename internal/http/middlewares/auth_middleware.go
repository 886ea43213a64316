package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/syncodehq/syncode/internal/domain/user"
	"github.com/syncodehq/syncode/internal/identity"
)

// Small interfaces so tests can fake both halves of the guard.

type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

type UserGetter interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// AuthMiddleware is the gate between a bearer token and an
// authenticated identity: verify the signature/expiry, then confirm
// the account still exists. A valid token for a deleted user fails
// closed.
type AuthMiddleware struct {
	tokens TokenVerifier
	users  UserGetter
}

func NewAuthMiddleware(tokens TokenVerifier, users UserGetter) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortUnauthorized(c, "Missing or invalid access token")
			return
		}

		userID, err := m.tokens.Verify(raw)
		if err != nil {
			// Expired and tampered collapse to the same answer here;
			// the distinction only matters to clients that re-login.
			abortUnauthorized(c, "Invalid or expired access token")
			return
		}

		u, err := m.users.GetByID(c.Request.Context(), userID)
		if err != nil {
			abortUnauthorized(c, "User no longer exists")
			return
		}

		// Attach the resolved identity as an immutable context value.
		// Only the view crosses this boundary, never the hash.
		c.Request = c.Request.WithContext(identity.WithUser(c.Request.Context(), u.View()))

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": message,
		},
	})
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/syncodehq/syncode/internal/config"
	"github.com/syncodehq/syncode/internal/domain/user"
	"github.com/syncodehq/syncode/internal/identity"
	"github.com/syncodehq/syncode/internal/observability"
	"github.com/syncodehq/syncode/internal/service"
)

// AuthService is the slice of the auth core the handlers consume.
// Kept as an interface so tests can fake it.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (service.Session, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	GetSelf(ctx context.Context, userID string) (user.View, error)
	RequestPasswordReset(ctx context.Context, email string) (*service.ResetIssue, error)
	ConfirmPasswordReset(ctx context.Context, plaintextToken, newPassword string) (service.Session, error)
	UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) (service.Session, error)
}

type AuthHandler struct {
	svc     AuthService
	cfg     config.Config
	metrics *observability.Prom
}

func NewAuthHandler(svc AuthService, cfg config.Config, metrics *observability.Prom) *AuthHandler {
	return &AuthHandler{
		svc:     svc,
		cfg:     cfg,
		metrics: metrics,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

type sessionResponse struct {
	User  user.View `json:"user"`
	Token string    `json:"token"`
}

// bcrypt dominates these handlers; give store+hash room to finish.
const authOpTimeout = 5 * time.Second

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		h.count("register", "validation")
		return
	}

	cctx, cancel := config.WithTimeout(authOpTimeout)
	defer cancel()

	sess, err := h.svc.Register(cctx, req.Name, req.Email, req.Password)

	if err != nil {
		h.respondAuthError(ctx, "register", err)
		return
	}

	h.count("register", "ok")
	RespondData(ctx, http.StatusCreated, sessionResponse{User: sess.User, Token: sess.Token})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		h.count("login", "validation")
		return
	}

	cctx, cancel := config.WithTimeout(authOpTimeout)
	defer cancel()

	sess, err := h.svc.Login(cctx, req.Email, req.Password)

	if err != nil {
		h.respondAuthError(ctx, "login", err)
		return
	}

	h.count("login", "ok")
	RespondData(ctx, http.StatusOK, sessionResponse{User: sess.User, Token: sess.Token})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	ident, ok := identity.UserFrom(ctx.Request.Context())

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Please login to access this resource")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	view, err := h.svc.GetSelf(cctx, ident.ID)

	if err != nil {
		h.respondAuthError(ctx, "get_self", err)
		return
	}

	RespondData(ctx, http.StatusOK, gin.H{"user": view})
}

func (h *AuthHandler) ForgotPassword(ctx *gin.Context) {
	var req ForgotPasswordRequest

	if !BindJSON(ctx, &req) {
		h.count("forgot_password", "validation")
		return
	}

	cctx, cancel := config.WithTimeout(authOpTimeout)
	defer cancel()

	issue, err := h.svc.RequestPasswordReset(cctx, req.Email)

	if err != nil {
		h.respondAuthError(ctx, "forgot_password", err)
		return
	}

	h.count("forgot_password", "ok")

	// Identical response whether or not the email is registered.
	resp := gin.H{
		"message": "If that email exists, a password reset link has been sent",
	}

	// Dev/test only: echo the token so flows can be exercised without
	// a mailbox. Load() refuses to enable this in prod.
	if h.cfg.ExposeResetToken && issue != nil {
		resp["resetToken"] = issue.Token
		resp["resetUrl"] = issue.ResetURL
	}

	RespondData(ctx, http.StatusOK, resp)
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest

	if !BindJSON(ctx, &req) {
		h.count("reset_password", "validation")
		return
	}

	token := ctx.Param("resettoken")

	cctx, cancel := config.WithTimeout(authOpTimeout)
	defer cancel()

	sess, err := h.svc.ConfirmPasswordReset(cctx, token, req.Password)

	if err != nil {
		h.respondAuthError(ctx, "reset_password", err)
		return
	}

	h.count("reset_password", "ok")
	RespondData(ctx, http.StatusOK, sessionResponse{User: sess.User, Token: sess.Token})
}

func (h *AuthHandler) UpdatePassword(ctx *gin.Context) {
	ident, ok := identity.UserFrom(ctx.Request.Context())

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Please login to access this resource")
		return
	}

	var req UpdatePasswordRequest

	if !BindJSON(ctx, &req) {
		h.count("update_password", "validation")
		return
	}

	cctx, cancel := config.WithTimeout(authOpTimeout)
	defer cancel()

	sess, err := h.svc.UpdatePassword(cctx, ident.ID, req.CurrentPassword, req.NewPassword)

	if err != nil {
		h.respondAuthError(ctx, "update_password", err)
		return
	}

	h.count("update_password", "ok")
	RespondData(ctx, http.StatusOK, sessionResponse{User: sess.User, Token: sess.Token})
}

// respondAuthError maps the service error taxonomy onto transport
// responses. Infrastructure detail never reaches the caller.
func (h *AuthHandler) respondAuthError(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		h.count(op, "validation")
		RespondBadRequest(ctx, "invalid_request", err.Error(), nil)

	case errors.Is(err, service.ErrEmailTaken):
		h.count(op, "conflict")
		RespondConflict(ctx, "email_taken", "Email is already in use.")

	case errors.Is(err, service.ErrInvalidCredentials):
		h.count(op, "invalid_credentials")
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")

	case errors.Is(err, service.ErrInvalidResetToken):
		h.count(op, "invalid_token")
		RespondBadRequest(ctx, "invalid_token", "Password reset token is invalid or has expired.", nil)

	case errors.Is(err, service.ErrUnauthenticated):
		h.count(op, "unauthenticated")
		RespondUnauthorized(ctx, "unauthorized", "Please login to access this resource")

	default:
		h.count(op, "error")
		RespondInternal(ctx, "Something went wrong. Please try again.")
	}
}

func (h *AuthHandler) count(op, result string) {
	if h.metrics == nil {
		return
	}

	h.metrics.AuthResults.WithLabelValues(op, result).Inc()
}

// Package http provides the HTTP handlers and router for the document portal.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atinyakov/DocPortal/internal/middleware"
	"github.com/atinyakov/DocPortal/internal/models"
	"github.com/atinyakov/DocPortal/internal/service"
	"go.uber.org/zap"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates a user; duplicates yield models.ErrUsernameTaken.
	Register(ctx context.Context, in service.Registration) (*models.User, error)
	// Login returns the user for valid credentials.
	Login(ctx context.Context, username, password string) (*models.User, error)
	// ResetPassword replaces a user's password when password equals confirm.
	ResetPassword(ctx context.Context, username, password, confirm string) error
}

// SessionManager starts and ends browser sessions.
type SessionManager interface {
	Start(w http.ResponseWriter, r *http.Request, id middleware.Identity) error
	End(w http.ResponseWriter, r *http.Request) error
}

// AuthHandler handles HTTP requests for registration, login and logout.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	// Sessions records the logged-in user.
	Sessions SessionManager
	// Log receives unexpected failures.
	Log *zap.Logger
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ResetPasswordRequest represents the JSON payload for a password reset.
type ResetPasswordRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, u *models.User) bool {
	if err := h.Sessions.Start(w, r, middleware.Identity{Username: u.Username, Name: u.Name}); err != nil {
		h.Log.Error("failed to start session", zap.String("user", u.Username), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return false
	}
	return true
}

// Register handles user registration. On success the new user is logged in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	u, err := h.AuthService.Register(r.Context(), service.Registration{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	if !h.startSession(w, r, u) {
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"username": u.Username, "name": u.Name})
}

// Login handles credential login and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	u, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	if !h.startSession(w, r, u) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "user": u.Username})
}

// ResetPassword handles the forgotten-password form.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.AuthService.ResetPassword(r.Context(), req.Username, req.Password, req.ConfirmPassword); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Logout ends the session. It succeeds for anonymous requests too.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.End(w, r); err != nil {
		h.Log.Error("failed to end session", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Form describes the JSON fields a POST to the same path expects. It is the
// landing page for the login redirect, so it never requires a session.
func (h *AuthHandler) Form(name string, fields ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"form":   name,
			"fields": fields,
			"user":   middleware.GetUserIDFromContext(r.Context()),
		})
	}
}

// Me reports who is logged in.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, h.Log, models.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": id.Username, "name": id.Name})
}

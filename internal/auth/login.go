package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pixil98/go-realm/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// UserStore finds accounts by email.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*storage.User, error)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// LoginHandler exchanges an email and password for a session token.
type LoginHandler struct {
	users  UserStore
	tokens *TokenVerifier
}

func NewLoginHandler(users UserStore, tokens *TokenVerifier) *LoginHandler {
	return &LoginHandler{users: users, tokens: tokens}
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request"})
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email and password are required"})
		return
	}

	user, err := h.users.FindUserByEmail(r.Context(), req.Email)
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrInvalidCredentials.Error()})
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "finding user", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrInvalidCredentials.Error()})
		return
	}

	token, err := h.tokens.Issue(user.Id, user.Email)
	if err != nil {
		slog.ErrorContext(r.Context(), "issuing token", "user", user.Id, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	slog.InfoContext(r.Context(), "user logged in", "user", user.Id)
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("writing response", "error", err)
	}
}

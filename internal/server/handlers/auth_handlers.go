package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"imagetales-web/internal/controllers/auth"
	"imagetales-web/internal/domain"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type profileResponse struct {
	ID       string `json:"_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Credits  int    `json:"credits"`
	Plan     string `json:"plan"`
}

// Register はユーザーを登録し、アクセストークンを返します。
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email, username, and password are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeDomainError(w, r, err, fmt.Sprintf("Password must be at most %d bytes", auth.MaxPasswordBytes))
		return
	}

	user, err := h.users.Create(r.Context(), req.Email, req.Username, hash)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		}
		writeDomainError(w, r, err, "")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}

	slog.InfoContext(r.Context(), "ユーザーを登録しました", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

// Login はメールアドレスとパスワードを照合し、アクセストークンを返します。
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		writeDomainError(w, r, err, "")
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		slog.WarnContext(r.Context(), "ログインに失敗しました")
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Profile は認証済みユーザーのプロフィールを返します。
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeDomainError(w, r, err, "Invalid token")
		return
	}

	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Credits:  user.Credits,
		Plan:     user.Plan,
	})
}

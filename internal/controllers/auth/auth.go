package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey struct{}

var userIDKey = contextKey{}

// Handler は Bearer トークンによる認証を担うミドルウェアです。
type Handler struct {
	tokens *TokenManager
}

// NewHandler は新しい認証 Handler を作成します
func NewHandler(tokens *TokenManager) *Handler {
	return &Handler{tokens: tokens}
}

// Middleware は Authorization ヘッダーのトークンを検証し、ユーザー ID をコンテキストに載せます。
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeUnauthorized(w, "Token is missing")
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			slog.WarnContext(r.Context(), "認証ヘッダーの形式が不正です")
			writeUnauthorized(w, "Invalid token")
			return
		}

		userID, err := h.tokens.Validate(token)
		if err != nil {
			slog.WarnContext(r.Context(), "トークンの検証に失敗しました", "error", err)
			writeUnauthorized(w, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WithUserID はユーザー ID を載せたコンテキストを返します。
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext は Middleware が載せたユーザー ID を取り出します。
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// bearerToken は "Bearer <token>" の 2 語目を返します。
func bearerToken(header string) (string, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", false
	}
	return fields[1], true
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Error("レスポンスの書き込みに失敗しました", "error", err)
	}
}

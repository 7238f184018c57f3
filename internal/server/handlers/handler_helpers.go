package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"imagetales-web/internal/controllers/auth"
	"imagetales-web/internal/domain"
)

// validFileName はルートから受け付けるファイル名です。ディレクトリ区切りは含められません。
var validFileName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// maxJSONBodySize は JSON リクエストボディの上限です。
const maxJSONBodySize = 1 << 20

// writeJSON は v を JSON としてレスポンスに書き込みます。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("レスポンスの書き込みに失敗しました", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError はエラーの種別からステータスコードを決めて書き込みます。
// 500 系は原因のメッセージをそのまま返します。
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, clientMsg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "リクエストの処理に失敗しました", "path", r.URL.Path, "error", err)
		writeError(w, status, err.Error())
		return
	}
	if clientMsg == "" {
		clientMsg = err.Error()
	}
	writeError(w, status, clientMsg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUserExists):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON はリクエストボディを v にデコードします。空ボディは空オブジェクトとして扱います。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrValidation, err)
	}
	return nil
}

// currentUserID は認証ミドルウェアが載せたユーザー ID を返します。
func currentUserID(r *http.Request) (string, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return id, nil
}

// generatedURL は生成画像のファイル名を配信用の URL パスに変換します。
func generatedURL(fileName string) string {
	return "/generated/" + fileName
}

// publicURL は配信用の URL パスに SERVICE_URL を付けた絶対 URL を返します。
func (h *Handler) publicURL(p string) string {
	return strings.TrimSuffix(h.cfg.ServiceURL, "/") + p
}

// truncateRunes は s を先頭から n 文字 (rune 単位) で切り詰めます。
func truncateRunes(s string, n int) string {
	if n < 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// sanitizeFileName は利用者が付けたファイル名を安全な形に整えます。
// 区切り文字を除いた最後の要素から ASCII の英数字と "._-" 以外を落とします。
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	var sb strings.Builder
	for _, field := range strings.Fields(name) {
		if sb.Len() > 0 {
			sb.WriteByte('_')
		}
		for _, c := range field {
			switch {
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
				sb.WriteRune(c)
			}
		}
	}
	return strings.Trim(sb.String(), "._")
}

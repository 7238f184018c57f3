package handlers

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"regexp"

	"imagetales-web/internal/asset"

	"github.com/go-chi/chi/v5"
)

const healthMessage = "ImageTales Backend is running"

// Health は死活監視用のエンドポイントです。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, healthMessage); err != nil {
		slog.Error("レスポンスの書き込みに失敗しました", "error", err)
	}
}

// ServeGenerated は生成画像を配信します。
// GeneratedDir は作業ディレクトリと同じこともあるため、Materializer が払い出した名前だけを受け付けます。
func (h *Handler) ServeGenerated(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, asset.GeneratedFileRegex, h.cfg.GetGeneratedPath)
}

// ServeUpload はアップロードされたファイルを配信します。
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, validFileName, h.cfg.GetUploadPath)
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, allowed *regexp.Regexp, resolve func(string) string) {
	name := chi.URLParam(r, "file")
	if !allowed.MatchString(name) {
		slog.WarnContext(r.Context(), "不正なファイル名が要求されました", "file", name)
		http.NotFound(w, r)
		return
	}

	rc, err := h.files.Open(r.Context(), resolve(name))
	if err != nil {
		slog.WarnContext(r.Context(), "ファイルを開けませんでした", "file", name, "error", err)
		http.NotFound(w, r)
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		slog.ErrorContext(r.Context(), "ファイルの送信に失敗しました", "file", name, "error", err)
	}
}

func uploadURL(fileName string) string {
	return "/uploads/" + fileName
}
